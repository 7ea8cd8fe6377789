// package geocode turns coordinates into places people can read.
package geocode

import (
	"fmt"

	"github.com/manzanit0/geolocate/pkg/geolocation"
)

type Client interface {
	ReverseGeocode(lat, lon float64) (*Place, error)
}

type Place struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Describe reverse geocodes a position reported by a geolocation host.
func Describe(c Client, p *geolocation.Position) (*Place, error) {
	if p == nil {
		return nil, fmt.Errorf("no position to describe")
	}

	place, err := c.ReverseGeocode(p.Coords.Latitude, p.Coords.Longitude)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}

	return place, nil
}
