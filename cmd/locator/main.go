package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manzanit0/geolocate/cmd/locator/api"
	"github.com/manzanit0/geolocate/pkg/env"
	"github.com/manzanit0/geolocate/pkg/geocode"
	"github.com/manzanit0/geolocate/pkg/geolocation/chrome"
	"github.com/manzanit0/geolocate/pkg/logger"
	"github.com/manzanit0/geolocate/pkg/middleware"
)

const ServiceName = "locator"

func init() {
	logger.InitGlobalSlog(ServiceName, env.LogLevel())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop); err != nil {
		slog.Error("locator shutdown abruptly", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("locator exited")
}

func run(ctx context.Context, stop context.CancelFunc) error {
	browser, err := newBrowser(ctx)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	defer browser.Close()

	timeout, err := env.LocatorWaitTimeout()
	if err != nil {
		return err
	}

	debug, err := env.Debug()
	if err != nil {
		return err
	}

	positions := api.NewPositionController(browser, geocode.NewOpenstreetmapClient(), timeout)

	r := gin.New()
	r.Use(middleware.TraceID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(debug))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/v1/position", positions.GetPosition)

	port := env.Port()
	srv := &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: r}
	go func() {
		slog.Info(fmt.Sprintf("serving HTTP on :%s", port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server shutdown abruptly", "error", err.Error())
		} else {
			slog.Info("server shutdown gracefully")
		}

		stop()
	}()

	// Listen for OS interrupt
	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err.Error())
	}

	return nil
}

func newBrowser(ctx context.Context) (*chrome.Browser, error) {
	headless, err := env.ChromeHeadless()
	if err != nil {
		return nil, err
	}

	override, err := env.GeolocationOverride()
	if err != nil {
		return nil, err
	}

	// The browser outlives ctx during shutdown so that in-flight requests can
	// drain; it is closed explicitly instead.
	return chrome.New(context.WithoutCancel(ctx), chrome.Config{
		RemoteURL: env.ChromeRemoteURL(),
		Headless:  headless,
		PageURL:   env.ChromePageURL(),
		Override:  override,
	}, slog.Default())
}
