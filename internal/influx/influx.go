// Package influx wraps the InfluxDB v1 client as both a query source and a
// buffered point sink.
package influx

import (
	"fmt"
	"net/url"
	"time"

	client "github.com/influxdata/influxdb1-client"
	"github.com/influxdata/influxdb1-client/models"
)

// Point is one measurement row to be written.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]any
	Time        time.Time
}

type Client struct {
	database string
	client   *client.Client
}

func Connect(remote, username, password, database string) (*Client, error) {
	host, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("parse influxdb url: %w", err)
	}
	conf := client.Config{
		URL:      *host,
		Username: username,
		Password: password,
	}
	c, err := client.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("connect influxdb: %w", err)
	}
	return &Client{database: database, client: c}, nil
}

// Ping the InfluxDB server.
func (c *Client) Ping() (time.Duration, string, error) {
	return c.client.Ping()
}

// Query runs an InfluxQL statement and returns the resulting series rows.
func (c *Client) Query(command string) ([]models.Row, error) {
	response, err := c.client.Query(client.Query{Command: command, Database: c.database})
	if err != nil {
		return nil, fmt.Errorf("influxdb query: %w", err)
	}
	if err := response.Error(); err != nil {
		return nil, fmt.Errorf("influxdb query: %w", err)
	}
	var rows []models.Row
	for _, result := range response.Results {
		rows = append(rows, result.Series...)
	}
	return rows, nil
}

// Write sends a batch of points in one request.
func (c *Client) Write(points []Point) error {
	if len(points) == 0 {
		return nil
	}
	batch := client.BatchPoints{
		Database:  c.database,
		Precision: "s",
		Points:    make([]client.Point, len(points)),
	}
	for i, p := range points {
		batch.Points[i] = client.Point{
			Measurement: p.Measurement,
			Tags:        p.Tags,
			Fields:      p.Fields,
			Time:        p.Time,
			Precision:   "s",
		}
	}
	_, err := c.client.Write(batch)
	return err
}
