package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Trundle/meter-reader/internal/ble"
	"github.com/Trundle/meter-reader/internal/config"
	"github.com/Trundle/meter-reader/internal/meter"
)

// Options selects what a single invocation does. The zero value scans for
// live readings from any meter in range.
type Options struct {
	Address      string
	Discover     bool
	DumpHistoric bool
	DumpLast     time.Duration
	DumpLastSet  bool // a window was given, even a zero one
	SetTime      bool
	Sections     bool
	Watch        bool
}

func (o Options) wantsSession() bool {
	return o.DumpHistoric || o.DumpLastSet || o.SetTime || o.Sections
}

func Run(ctx context.Context, cfg config.Config, opts Options) error {
	central := ble.NewCentral(ble.Options{
		Adapter:         cfg.BLE.Adapter,
		ExchangeTimeout: cfg.BLE.ExchangeTimeout,
	})

	if opts.Watch {
		return runWatch(ctx, cfg, central, opts.Address)
	}

	if opts.wantsSession() {
		adv, err := findMeter(ctx, central, opts.Address, cfg.BLE.ScanTimeout)
		if err != nil {
			return err
		}
		return runSession(ctx, central, adv, opts)
	}

	return runLive(ctx, central, opts, cfg.BLE.ScanTimeout)
}

// runLive prints readings straight from advertisements. With a target
// address the first reading answers the invocation; otherwise every meter in
// range is reported once until the scan budget runs out.
func runLive(ctx context.Context, central *ble.Central, opts Options, budget time.Duration) error {
	scanCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	seen := make(map[string]bool)
	return central.Scan(scanCtx, opts.Address, func(adv ble.Advertisement) bool {
		addr := adv.Addr.String()
		if seen[addr] {
			return true
		}
		value, ok := meter.DecodeLive(adv.ServiceData)
		if !ok {
			return true
		}
		seen[addr] = true
		fmt.Printf("%s: %g°C, %d%% humidity, %d%% battery\n",
			addr, value.Temperature, value.Humidity, value.Battery)
		return opts.Address == "" || opts.Discover
	})
}

// findMeter scans until the first matching meter advertisement, bounded by
// the scan budget.
func findMeter(ctx context.Context, central *ble.Central, address string, budget time.Duration) (ble.Advertisement, error) {
	scanCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	var found *ble.Advertisement
	err := central.Scan(scanCtx, address, func(adv ble.Advertisement) bool {
		found = &adv
		return false
	})
	if err != nil {
		return ble.Advertisement{}, err
	}
	if err := ctx.Err(); err != nil {
		return ble.Advertisement{}, err
	}
	if found == nil {
		if address != "" {
			return ble.Advertisement{}, fmt.Errorf("meter %s not found within %s", address, budget)
		}
		return ble.Advertisement{}, fmt.Errorf("no meter found within %s", budget)
	}
	return *found, nil
}

// runSession performs the requested command-channel operations over a single
// connection: clock sync first, then the store queries.
func runSession(ctx context.Context, central *ble.Central, adv ble.Advertisement, opts Options) error {
	addr := adv.Addr.String()
	slog.Info("meter found", "addr", addr, "rssi", adv.RSSI)

	session := central.Session(adv.Addr)
	defer session.Disconnect()
	reader := meter.NewReader(session)

	if opts.SetTime {
		if err := reader.SetTime(ctx, time.Now()); err != nil {
			return fmt.Errorf("set time: %w", err)
		}
		slog.Info("meter clock synchronized", "addr", addr)
	}

	if opts.Sections {
		sections, ok, err := reader.ReadStoreSections(ctx)
		if err != nil {
			return fmt.Errorf("read store sections: %w", err)
		}
		if ok {
			fmt.Printf("%s: %d store sections %v\n", addr, len(sections), sections)
		} else {
			slog.Warn("meter did not report store sections", "addr", addr)
		}
	}

	if opts.DumpHistoric || opts.DumpLastSet {
		info, ok, err := reader.ReadSectionInfo(ctx)
		if err != nil {
			return fmt.Errorf("read section info: %w", err)
		}
		if !ok {
			slog.Warn("meter did not report section info, nothing to dump", "addr", addr)
			return nil
		}
		slog.Info("dumping historical store",
			"addr", addr,
			"start_time", time.Unix(int64(info.StartTime), 0).Format(time.RFC3339),
			"data_length", info.DataLength,
			"interval_s", info.Interval,
		)
		// A zero window selects no blocks; the dump still runs, with no rows.
		var samples []meter.SampleValue
		if !opts.DumpLastSet || opts.DumpLast > 0 {
			samples, err = reader.ReadSamples(ctx, info, opts.DumpLast)
			if err != nil {
				return fmt.Errorf("read samples: %w", err)
			}
		}
		writeHistory(os.Stdout, info, samples)
	}

	return nil
}
