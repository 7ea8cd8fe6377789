// package env contains simple getters for the environment variables the
// services are configured with.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/manzanit0/geolocate/pkg/geolocation"
)

func Port() string {
	var port string
	if port = os.Getenv("PORT"); port == "" {
		port = "8080"
	}

	return port
}

func LogLevel() string {
	var level string
	if level = os.Getenv("LOG_LEVEL"); level == "" {
		level = "info"
	}

	return level
}

// ChromeRemoteURL is the DevTools websocket of an already running browser.
// When empty, a local browser is launched.
func ChromeRemoteURL() string {
	return os.Getenv("CHROME_REMOTE_URL")
}

func ChromeHeadless() (bool, error) {
	return boolOr("CHROME_HEADLESS", true)
}

func ChromePageURL() string {
	return os.Getenv("CHROME_PAGE_URL")
}

func Debug() (bool, error) {
	return boolOr("LOCATOR_DEBUG", false)
}

// LocatorWaitTimeout is how long the HTTP API waits for the browser to report
// a position before giving up on the request.
func LocatorWaitTimeout() (time.Duration, error) {
	var timeout string
	if timeout = os.Getenv("LOCATOR_WAIT_TIMEOUT"); timeout == "" {
		return 30 * time.Second, nil
	}

	d, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to parse LOCATOR_WAIT_TIMEOUT as duration: %s", err.Error())
	}

	if d <= 0 {
		return 0, fmt.Errorf("LOCATOR_WAIT_TIMEOUT must be positive, got %s", timeout)
	}

	return d, nil
}

// GeolocationOverride reads GEOLOCATION_OVERRIDE, formatted as
// "lat,lon[,accuracy]". It returns nil when the variable isn't set.
func GeolocationOverride() (*geolocation.Coordinates, error) {
	var override string
	if override = os.Getenv("GEOLOCATION_OVERRIDE"); override == "" {
		return nil, nil
	}

	c, err := ParseCoordinates(override)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GEOLOCATION_OVERRIDE: %w", err)
	}

	return c, nil
}

// ParseCoordinates parses "lat,lon[,accuracy]". Accuracy defaults to 1 meter.
func ParseCoordinates(s string) (*geolocation.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("expected lat,lon[,accuracy], got %q", s)
	}

	values := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}

		values[i] = f
	}

	c := &geolocation.Coordinates{Latitude: values[0], Longitude: values[1], Accuracy: 1}
	if len(values) == 3 {
		c.Accuracy = values[2]
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return nil, fmt.Errorf("latitude %v out of range", c.Latitude)
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return nil, fmt.Errorf("longitude %v out of range", c.Longitude)
	}

	if c.Accuracy < 0 {
		return nil, fmt.Errorf("accuracy %v must not be negative", c.Accuracy)
	}

	return c, nil
}

func boolOr(key string, fallback bool) (bool, error) {
	var value string
	if value = os.Getenv(key); value == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s as boolean: %s", key, err.Error())
	}

	return b, nil
}
