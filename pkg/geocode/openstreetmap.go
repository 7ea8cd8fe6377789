package geocode

import (
	"fmt"
	"strings"

	"github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

func NewOpenstreetmapClient() *oc {
	return NewClient(openstreetmap.Geocoder())
}

// NewClient wraps any geo-golang geocoder.
func NewClient(g geo.Geocoder) *oc {
	return &oc{geocoder: g}
}

type oc struct {
	geocoder geo.Geocoder
}

var _ Client = (*oc)(nil)

func (c *oc) ReverseGeocode(lat, lon float64) (*Place, error) {
	address, err := c.geocoder.ReverseGeocode(lat, lon)
	if err != nil {
		return nil, err
	}

	if address == nil {
		return nil, fmt.Errorf("unable to reverse geocode location")
	}

	return &Place{
		Name:        placeName(address),
		Address:     address.FormattedAddress,
		City:        address.City,
		Country:     address.Country,
		CountryCode: strings.ToUpper(address.CountryCode),
	}, nil
}

// placeName prefers "City, Country" and falls back to whatever is the most
// specific part the provider knew about.
func placeName(a *geo.Address) string {
	var parts []string
	for _, p := range []string{a.City, a.County, a.State} {
		if p != "" {
			parts = append(parts, p)
			break
		}
	}

	if a.Country != "" {
		parts = append(parts, a.Country)
	}

	if len(parts) == 0 {
		return a.FormattedAddress
	}

	return strings.Join(parts, ", ")
}
