package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/manzanit0/geolocate/pkg/geocode"
	"github.com/manzanit0/geolocate/pkg/geolocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	supported bool
	position  *geolocation.Position
	err       error
}

func (h *fakeHost) Geolocation() (geolocation.Capability, bool) {
	return h, h.supported
}

func (h *fakeHost) GetCurrentPosition(onSuccess func(*geolocation.Position), onFailure func(error), _ geolocation.Options) {
	go func() {
		if h.err != nil {
			onFailure(h.err)
			return
		}

		onSuccess(h.position)
	}()
}

type fakeGeocoder struct {
	place *geocode.Place
	err   error
}

func (g *fakeGeocoder) ReverseGeocode(float64, float64) (*geocode.Place, error) {
	return g.place, g.err
}

func float(f float64) *float64 { return &f }

var fresnedillas = &geolocation.Position{
	Coords: geolocation.Coordinates{
		Latitude:  40.489117,
		Longitude: -4.169078,
		Accuracy:  12.5,
		Altitude:  float(901),
		Speed:     float(1.78),
	},
	Timestamp: time.Unix(1652439629, 0).UTC(),
}

func TestNewPositionTable(t *testing.T) {
	testCases := []struct {
		desc    string
		place   *geocode.Place
		want    []string
		notWant []string
	}{
		{
			desc:    "when there is no place, only the position is printed",
			want:    []string{"Latitude", "40.489117", "Longitude", "-4.169078", "12.5 m", "901 m", "1.78 m/s", "Fri, 13 May 2022 11:00:29 UTC"},
			notWant: []string{"Place", "Heading", "Altitude accuracy"},
		},
		{
			desc:  "when there is a place, it is printed after the position",
			place: &geocode.Place{Name: "Fresnedillas de la Oliva, España", Address: "Calle Mayor, Fresnedillas de la Oliva"},
			want:  []string{"40.489117", "Place", "Fresnedillas de la Oliva, España", "Address", "Calle Mayor, Fresnedillas de la Oliva"},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got := NewPositionTable(fresnedillas, tC.place)

			for _, w := range tC.want {
				assert.Contains(t, got, w)
			}

			for _, nw := range tC.notWant {
				assert.NotContains(t, got, nw)
			}
		})
	}
}

func TestWhereami(t *testing.T) {
	testCases := []struct {
		desc     string
		host     *fakeHost
		geocoder geocode.Client
		asJSON   bool
		want     string
		wantErr  error
	}{
		{
			desc: "when the host reports a position, a table is printed",
			host: &fakeHost{supported: true, position: fresnedillas},
			want: "40.489117",
		},
		{
			desc:     "when reverse geocoding, the place is printed",
			host:     &fakeHost{supported: true, position: fresnedillas},
			geocoder: &fakeGeocoder{place: &geocode.Place{Name: "Fresnedillas de la Oliva, España"}},
			want:     "Fresnedillas de la Oliva, España",
		},
		{
			desc:    "when the host has no geolocation, it fails with ErrNotSupported",
			host:    &fakeHost{},
			wantErr: geolocation.ErrNotSupported,
		},
		{
			desc:    "when the host fails, the failure is returned",
			host:    &fakeHost{supported: true, err: &geolocation.PositionError{Code: geolocation.Timeout, Message: "Timeout expired"}},
			wantErr: &geolocation.PositionError{Code: geolocation.Timeout, Message: "Timeout expired"},
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			got, err := whereami(ctx, tC.host, tC.geocoder, tC.asJSON)
			if tC.wantErr != nil {
				var pe *geolocation.PositionError
				if errors.As(tC.wantErr, &pe) {
					var gotPE *geolocation.PositionError
					require.ErrorAs(t, err, &gotPE)
					assert.Equal(t, pe, gotPE)
				} else {
					assert.ErrorIs(t, err, tC.wantErr)
				}
				return
			}

			require.NoError(t, err)
			assert.True(t, strings.Contains(got, tC.want), "got:\n%s\nwant it to contain: %s", got, tC.want)
		})
	}
}

func TestWhereamiJSON(t *testing.T) {
	host := &fakeHost{supported: true, position: fresnedillas}
	g := &fakeGeocoder{place: &geocode.Place{Name: "Fresnedillas de la Oliva, España", CountryCode: "ES"}}

	got, err := whereami(context.Background(), host, g, true)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(got), &r))
	assert.Equal(t, 40.489117, r.Position.Coords.Latitude)
	assert.Equal(t, -4.169078, r.Position.Coords.Longitude)
	assert.Equal(t, "ES", r.Place.CountryCode)
}

func TestWhereamiReverseGeocodingFailure(t *testing.T) {
	host := &fakeHost{supported: true, position: fresnedillas}
	g := &fakeGeocoder{err: errors.New("nominatim is down")}

	_, err := whereami(context.Background(), host, g, false)
	assert.ErrorContains(t, err, "nominatim is down")
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"remote-url", "headless", "page-url", "override", "reverse", "json", "timeout"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestRootCmdRejectsBadOverride(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--override", "somewhere"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "parse --override")
}
