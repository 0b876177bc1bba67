package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Trundle/meter-reader/internal/app"
	"github.com/Trundle/meter-reader/internal/config"
	"github.com/Trundle/meter-reader/internal/logging"
)

var version = "dev"
var appName = "meter-reader"

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] [address]\n\n", appName)
	fmt.Fprintln(out, "Reads a BLE environmental meter. Without flags it reports live readings")
	fmt.Fprintln(out, "from advertisements; the store flags connect and query the device.")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	var (
		discover     = flag.Bool("discover", false, "keep scanning until the scan timeout and report every meter in range")
		dumpHistoric = flag.Bool("dump-historic", false, "dump the historical store as tab-separated rows")
		dumpLast     = flag.String("dump-last", "", "dump only the most recent period, e.g. 90m, 36h or 1d")
		setTime      = flag.Bool("set-time", false, "synchronize the meter clock with this machine")
		sections     = flag.Bool("sections", false, "list the historical store's sections")
		watch        = flag.Bool("watch", false, "scan forever and publish readings over MQTT")
	)
	flag.Usage = usage
	flag.Parse()

	opts := app.Options{
		Address:      flag.Arg(0),
		Discover:     *discover,
		DumpHistoric: *dumpHistoric,
		SetTime:      *setTime,
		Sections:     *sections,
		Watch:        *watch,
	}
	if *dumpLast != "" {
		last, err := app.ParseLast(*dumpLast)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		opts.DumpLast = last
		opts.DumpLastSet = true
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, opts); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
