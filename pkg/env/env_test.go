package env_test

import (
	"testing"
	"time"

	"github.com/manzanit0/geolocate/pkg/env"
	"github.com/manzanit0/geolocate/pkg/geolocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	testCases := []struct {
		desc    string
		input   string
		want    *geolocation.Coordinates
		wantErr bool
	}{
		{
			desc:  "when only lat and lon are given, accuracy defaults to one meter",
			input: "40.489117,-4.169078",
			want:  &geolocation.Coordinates{Latitude: 40.489117, Longitude: -4.169078, Accuracy: 1},
		},
		{
			desc:  "when accuracy is given, it is used",
			input: "51.5285582, -0.2416811, 25",
			want:  &geolocation.Coordinates{Latitude: 51.5285582, Longitude: -0.2416811, Accuracy: 25},
		},
		{desc: "when a single number is given, it fails", input: "40.48", wantErr: true},
		{desc: "when too many numbers are given, it fails", input: "1,2,3,4", wantErr: true},
		{desc: "when a value isn't a number, it fails", input: "north,-4.16", wantErr: true},
		{desc: "when latitude is out of range, it fails", input: "91,0", wantErr: true},
		{desc: "when longitude is out of range, it fails", input: "0,-181", wantErr: true},
		{desc: "when accuracy is negative, it fails", input: "0,0,-1", wantErr: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			got, err := env.ParseCoordinates(tC.input)
			if tC.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tC.want, got)
		})
	}
}

func TestGeolocationOverride(t *testing.T) {
	t.Setenv("GEOLOCATION_OVERRIDE", "")
	got, err := env.GeolocationOverride()
	require.NoError(t, err)
	assert.Nil(t, got)

	t.Setenv("GEOLOCATION_OVERRIDE", "40.489117,-4.169078,10")
	got, err = env.GeolocationOverride()
	require.NoError(t, err)
	assert.Equal(t, &geolocation.Coordinates{Latitude: 40.489117, Longitude: -4.169078, Accuracy: 10}, got)

	t.Setenv("GEOLOCATION_OVERRIDE", "nowhere")
	_, err = env.GeolocationOverride()
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "CHROME_HEADLESS", "LOCATOR_DEBUG", "LOCATOR_WAIT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	assert.Equal(t, "8080", env.Port())
	assert.Equal(t, "info", env.LogLevel())

	headless, err := env.ChromeHeadless()
	require.NoError(t, err)
	assert.True(t, headless)

	debug, err := env.Debug()
	require.NoError(t, err)
	assert.False(t, debug)

	timeout, err := env.LocatorWaitTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("CHROME_HEADLESS", "maybe")
	_, err := env.ChromeHeadless()
	assert.Error(t, err)

	t.Setenv("LOCATOR_WAIT_TIMEOUT", "soon")
	_, err = env.LocatorWaitTimeout()
	assert.Error(t, err)

	t.Setenv("LOCATOR_WAIT_TIMEOUT", "-1s")
	_, err = env.LocatorWaitTimeout()
	assert.Error(t, err)

	t.Setenv("LOCATOR_WAIT_TIMEOUT", "5s")
	timeout, err := env.LocatorWaitTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}
