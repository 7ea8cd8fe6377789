package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/manzanit0/geolocate/pkg/geocode"
	"github.com/manzanit0/geolocate/pkg/geolocation"
)

type report struct {
	Position *geolocation.Position `json:"position"`
	Place    *geocode.Place        `json:"place,omitempty"`
}

func NewPositionTable(p *geolocation.Position, place *geocode.Place) string {
	b := &bytes.Buffer{}
	table := tablewriter.NewWriter(b)
	table.SetHeader([]string{"Field", "Value"})

	c := p.Coords
	table.Append([]string{"Latitude", formatFloat(c.Latitude)})
	table.Append([]string{"Longitude", formatFloat(c.Longitude)})
	table.Append([]string{"Accuracy", fmt.Sprintf("%s m", formatFloat(c.Accuracy))})

	if c.Altitude != nil {
		table.Append([]string{"Altitude", fmt.Sprintf("%s m", formatFloat(*c.Altitude))})
	}

	if c.AltitudeAccuracy != nil {
		table.Append([]string{"Altitude accuracy", fmt.Sprintf("%s m", formatFloat(*c.AltitudeAccuracy))})
	}

	if c.Heading != nil {
		table.Append([]string{"Heading", fmt.Sprintf("%s°", formatFloat(*c.Heading))})
	}

	if c.Speed != nil {
		table.Append([]string{"Speed", fmt.Sprintf("%s m/s", formatFloat(*c.Speed))})
	}

	table.Append([]string{"Time", p.Timestamp.Format(time.RFC1123)})

	if place != nil {
		table.Append([]string{"Place", place.Name})
		if place.Address != "" && place.Address != place.Name {
			table.Append([]string{"Address", place.Address})
		}
	}

	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.Render()

	return b.String()
}

func NewPositionJSON(p *geolocation.Position, place *geocode.Place) (string, error) {
	b, err := json.MarshalIndent(report{Position: p, Place: place}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	return string(b), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
