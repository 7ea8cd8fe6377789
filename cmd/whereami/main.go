package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manzanit0/geolocate/pkg/env"
	"github.com/manzanit0/geolocate/pkg/geocode"
	"github.com/manzanit0/geolocate/pkg/geolocation"
	"github.com/manzanit0/geolocate/pkg/geolocation/chrome"
	"github.com/manzanit0/geolocate/pkg/logger"
)

const ServiceName = "whereami"

type flags struct {
	remoteURL string
	headless  bool
	pageURL   string
	override  string
	reverse   bool
	asJSON    bool
	timeout   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "whereami",
		Short:         "Print the current position",
		Long:          `Asks a Chrome/Chromium browser for the current position, with high accuracy, and prints it once.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// logs go to stdout, so keep them quiet unless asked for
			level := os.Getenv("LOG_LEVEL")
			if level == "" {
				level = "error"
			}

			logger.InitGlobalSlog(ServiceName, level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.remoteURL, "remote-url", env.ChromeRemoteURL(), "DevTools websocket of a running browser (launches one when empty)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run the launched browser headless")
	cmd.Flags().StringVar(&f.pageURL, "page-url", env.ChromePageURL(), "page whose origin requests the position")
	cmd.Flags().StringVar(&f.override, "override", os.Getenv("GEOLOCATION_OVERRIDE"), "report a fixed position: lat,lon[,accuracy]")
	cmd.Flags().BoolVar(&f.reverse, "reverse", false, "also look up the place with OpenStreetMap")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "how long to wait for a position")

	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	var override *geolocation.Coordinates
	if f.override != "" {
		c, err := env.ParseCoordinates(f.override)
		if err != nil {
			return fmt.Errorf("parse --override: %w", err)
		}

		override = c
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	browser, err := chrome.New(ctx, chrome.Config{
		RemoteURL:    f.remoteURL,
		Headless:     f.headless,
		PageURL:      f.pageURL,
		Override:     override,
		StartTimeout: f.timeout,
	}, slog.Default())
	if err != nil {
		return err
	}

	defer browser.Close()

	var g geocode.Client
	if f.reverse {
		g = geocode.NewOpenstreetmapClient()
	}

	out, err := whereami(ctx, browser, g, f.asJSON)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func whereami(ctx context.Context, host geolocation.Host, g geocode.Client, asJSON bool) (string, error) {
	position, err := geolocation.Locate(ctx, host)
	if err != nil {
		return "", fmt.Errorf("locate: %w", err)
	}

	var place *geocode.Place
	if g != nil {
		place, err = geocode.Describe(g, position)
		if err != nil {
			return "", err
		}
	}

	if asJSON {
		return NewPositionJSON(position, place)
	}

	return NewPositionTable(position, place), nil
}
