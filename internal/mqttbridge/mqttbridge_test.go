package mqttbridge

import (
	"testing"
)

func TestPointFromMessage(t *testing.T) {
	payload := []byte(`{"temperature": 21.5, "humidity": 45.0, "name": "balcony"}`)
	point, err := PointFromMessage("ruuvi", "sensors/ruuvi/A1B2C3", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Measurement != "ruuvi" {
		t.Fatalf("unexpected measurement %q", point.Measurement)
	}
	if point.Tags["dev-id"] != "A1B2C3" {
		t.Fatalf("unexpected dev-id %q", point.Tags["dev-id"])
	}
	if point.Fields["temperature"] != 21.5 {
		t.Fatalf("unexpected fields: %v", point.Fields)
	}
	if _, ok := point.Fields["name"]; ok {
		t.Fatalf("non-numeric fields must be dropped")
	}
}

func TestPointFromMessageRejectsNonJSON(t *testing.T) {
	if _, err := PointFromMessage("ruuvi", "sensors/x", []byte("not json")); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}

func TestPointFromMessageRejectsNoNumericFields(t *testing.T) {
	if _, err := PointFromMessage("ruuvi", "sensors/x", []byte(`{"name": "y"}`)); err == nil {
		t.Fatalf("expected error for payload without numeric fields")
	}
}
