package report

// GeoJSON output for latest-values exports. Only Point geometries are
// needed; properties carry the latest sensor readings per device.

type FeatureCollection struct {
	Type     string         `json:"type"`
	Meta     map[string]any `json:"meta,omitempty"`
	Features []Feature      `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewPointFeature builds a Point feature with lon/lat coordinate order as
// GeoJSON requires.
func NewPointFeature(id string, lon, lat float64, properties map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		ID:         id,
		Geometry:   Geometry{Type: "Point", Coordinates: []float64{lon, lat}},
		Properties: properties,
	}
}

// WriteGeoJSON writes a feature collection to path.
func WriteGeoJSON(path string, features []Feature, meta map[string]any) error {
	collection := FeatureCollection{
		Type:     "FeatureCollection",
		Meta:     meta,
		Features: features,
	}
	if collection.Features == nil {
		collection.Features = []Feature{}
	}
	return WriteJSON(path, collection)
}
