// package chrome provides a geolocation host backed by a Chrome/Chromium
// browser driven over the DevTools protocol.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/segmentio/ksuid"

	"github.com/manzanit0/geolocate/pkg/geolocation"
)

type Config struct {
	// RemoteURL is the DevTools websocket of a running browser. If empty, a
	// local browser is launched.
	RemoteURL string
	Headless  bool
	// PageURL is loaded before asking for the position, so the request runs
	// in that page's origin. Defaults to about:blank.
	PageURL string
	// Override makes the browser report a fixed position instead of asking
	// the operating system.
	Override *geolocation.Coordinates
	// StartTimeout bounds how long New waits for the browser to come up.
	StartTimeout time.Duration
}

// Browser is a geolocation.Host. Every request runs in its own tab.
type Browser struct {
	cfg           Config
	logger        *slog.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	supported     bool
}

var _ geolocation.Host = (*Browser)(nil)

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Browser, error) {
	if cfg.PageURL == "" {
		cfg.PageURL = "about:blank"
	}

	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	b := &Browser{cfg: cfg, logger: logger}

	var allocCtx context.Context
	if cfg.RemoteURL != "" {
		allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		logger.Info("connecting to remote browser", "url", cfg.RemoteURL)
	} else {
		opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
		copy(opts, chromedp.DefaultExecAllocatorOptions[:])
		opts = append(opts,
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
		logger.Info("launching local browser", "headless", cfg.Headless)
	}

	b.browserCtx, b.browserCancel = chromedp.NewContext(allocCtx)

	// chromedp binds the browser to the context of the first Run, so it can't
	// be a derived context with a deadline.
	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(b.browserCtx,
			chromedp.ActionFunc(grantGeolocation),
			chromedp.Navigate(cfg.PageURL),
			chromedp.Evaluate(`"geolocation" in navigator`, &b.supported),
		)
	}()

	select {
	case err := <-started:
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-time.After(cfg.StartTimeout):
		b.Close()
		return nil, fmt.Errorf("start browser: timed out after %v", cfg.StartTimeout)
	}

	logger.Info("browser started", "geolocation_supported", b.supported, "page_url", cfg.PageURL)
	return b, nil
}

// Geolocation reports whether the browser exposes navigator.geolocation. This
// is probed once when the browser starts.
func (b *Browser) Geolocation() (geolocation.Capability, bool) {
	if !b.supported {
		return nil, false
	}

	return &capability{b: b}, true
}

func (b *Browser) Close() {
	if b.browserCancel != nil {
		b.browserCancel()
	}

	if b.allocCancel != nil {
		b.allocCancel()
	}
}

type capability struct {
	b *Browser
}

func (c *capability) GetCurrentPosition(onSuccess func(*geolocation.Position), onFailure func(error), opts geolocation.Options) {
	go func() {
		p, err := c.b.currentPosition(opts)
		if err != nil {
			onFailure(err)
			return
		}

		onSuccess(p)
	}()
}

func (b *Browser) currentPosition(opts geolocation.Options) (*geolocation.Position, error) {
	requestID := ksuid.New().String()
	logger := b.logger.With("request_id", requestID)

	script, err := positionScript(opts)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	actions := []chromedp.Action{}
	if o := b.cfg.Override; o != nil {
		actions = append(actions, emulation.SetGeolocationOverride().
			WithLatitude(o.Latitude).
			WithLongitude(o.Longitude).
			WithAccuracy(o.Accuracy))
	}

	var raw []byte
	actions = append(actions,
		chromedp.Navigate(b.cfg.PageURL),
		chromedp.Evaluate(script, &raw, awaitPromise),
	)

	t0 := time.Now()
	logger.Debug("requesting current position", "high_accuracy", opts.EnableHighAccuracy)

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		logger.Error("evaluate geolocation", "error", err.Error())
		return nil, fmt.Errorf("evaluate geolocation: %w", err)
	}

	p, err := decodeEvaluation(raw)
	if err != nil {
		logger.Info("geolocation failed", "error", err.Error(), "duration_ms", time.Since(t0).Milliseconds())
		return nil, err
	}

	logger.Info("geolocation succeeded", "duration_ms", time.Since(t0).Milliseconds())
	return p, nil
}

// Permissions are a browser-wide setting, so the command goes to the browser
// target rather than to the tab.
func grantGeolocation(ctx context.Context) error {
	c := chromedp.FromContext(ctx)
	return browser.GrantPermissions([]browser.PermissionType{browser.PermissionTypeGeolocation}).
		Do(cdp.WithExecutor(ctx, c.Browser))
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// The promise always resolves so that a host failure comes back as data
// rather than as an evaluation exception.
const positionScriptTemplate = `new Promise((resolve) => {
	navigator.geolocation.getCurrentPosition(
		(pos) => resolve({
			ok: true,
			position: {
				coords: {
					latitude: pos.coords.latitude,
					longitude: pos.coords.longitude,
					accuracy: pos.coords.accuracy,
					altitude: pos.coords.altitude,
					altitudeAccuracy: pos.coords.altitudeAccuracy,
					heading: pos.coords.heading,
					speed: pos.coords.speed,
				},
				timestamp: pos.timestamp,
			},
		}),
		(err) => resolve({ ok: false, error: { code: err.code, message: err.message } }),
		%s
	);
})`

func positionScript(opts geolocation.Options) (string, error) {
	b, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}

	return fmt.Sprintf(positionScriptTemplate, b), nil
}

type evaluation struct {
	OK       bool                       `json:"ok"`
	Position *jsPosition                `json:"position"`
	Error    *geolocation.PositionError `json:"error"`
}

type jsPosition struct {
	Coords struct {
		Latitude         float64  `json:"latitude"`
		Longitude        float64  `json:"longitude"`
		Accuracy         float64  `json:"accuracy"`
		Altitude         *float64 `json:"altitude"`
		AltitudeAccuracy *float64 `json:"altitudeAccuracy"`
		Heading          *float64 `json:"heading"`
		Speed            *float64 `json:"speed"`
	} `json:"coords"`
	// milliseconds since the epoch
	Timestamp float64 `json:"timestamp"`
}

func decodeEvaluation(raw []byte) (*geolocation.Position, error) {
	var e evaluation
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode geolocation result: %w", err)
	}

	if !e.OK {
		if e.Error == nil {
			return nil, &geolocation.PositionError{Code: geolocation.PositionUnavailable, Message: "browser reported an unknown failure"}
		}

		return nil, e.Error
	}

	if e.Position == nil {
		return nil, fmt.Errorf("decode geolocation result: missing position")
	}

	c := e.Position.Coords
	return &geolocation.Position{
		Coords: geolocation.Coordinates{
			Latitude:         c.Latitude,
			Longitude:        c.Longitude,
			Accuracy:         c.Accuracy,
			Altitude:         c.Altitude,
			AltitudeAccuracy: c.AltitudeAccuracy,
			Heading:          c.Heading,
			Speed:            c.Speed,
		},
		Timestamp: time.UnixMilli(int64(e.Position.Timestamp)),
	}, nil
}
