// package geolocation asks the environment it runs in for the device's current
// position.
//
// The environment is injected as a Host. A host either exposes a positioning
// Capability or it doesn't; when it doesn't, requests fail immediately with
// ErrNotSupported.
package geolocation

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotSupported is reported when the host has no positioning capability.
var ErrNotSupported = errors.New("Geolocation is not supported by this browser.")

// Error codes hosts use to fill in PositionError.Code. They mirror the W3C
// GeolocationPositionError codes.
const (
	PermissionDenied    = 1
	PositionUnavailable = 2
	Timeout             = 3
)

// Host is the environment a request runs against.
type Host interface {
	// Geolocation returns the host's positioning capability, and whether it
	// has one at all.
	Geolocation() (Capability, bool)
}

// Capability requests the current position once. Implementations must not
// block: the outcome is delivered later by calling exactly one of the
// callbacks.
type Capability interface {
	GetCurrentPosition(onSuccess func(*Position), onFailure func(error), opts Options)
}

type Options struct {
	EnableHighAccuracy bool `json:"enableHighAccuracy"`
}

type Coordinates struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Accuracy         float64  `json:"accuracy"`
	Altitude         *float64 `json:"altitude,omitempty"`
	AltitudeAccuracy *float64 `json:"altitude_accuracy,omitempty"`
	Heading          *float64 `json:"heading,omitempty"`
	Speed            *float64 `json:"speed,omitempty"`
}

type Position struct {
	Coords    Coordinates `json:"coords"`
	Timestamp time.Time   `json:"timestamp"`
}

// PositionError is the failure payload hosts report.
type PositionError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

// RequestLocation asks the host for the current position, preferring high
// accuracy. Exactly one of onSuccess or onFailure is eventually called, at
// most once, with whatever the host produced.
//
// If the host has no positioning capability onFailure is called with
// ErrNotSupported before RequestLocation returns.
func RequestLocation(host Host, onSuccess func(*Position), onFailure func(error)) {
	if onSuccess == nil {
		onSuccess = func(*Position) {}
	}

	if onFailure == nil {
		onFailure = func(error) {}
	}

	var capability Capability
	var ok bool
	if host != nil {
		capability, ok = host.Geolocation()
	}

	if !ok || capability == nil {
		onFailure(ErrNotSupported)
		return
	}

	var once sync.Once
	capability.GetCurrentPosition(
		func(p *Position) {
			once.Do(func() { onSuccess(p) })
		},
		func(err error) {
			once.Do(func() { onFailure(err) })
		},
		Options{EnableHighAccuracy: true},
	)
}
