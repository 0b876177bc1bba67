package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// GATT identifiers of the meter. Advertisements carry the live reading as
// service data under a 16-bit UUID; the command channel is a vendor service
// with one write and one notify characteristic.
var (
	advServiceUUID     = bluetooth.New16BitUUID(0xfd3d)
	commandServiceUUID = mustUUID("cba20d00-224d-11e6-9fb8-0002a5d5c51b")
	writeCharUUID      = mustUUID("cba20002-224d-11e6-9fb8-0002a5d5c51b")
	notifyCharUUID     = mustUUID("cba20003-224d-11e6-9fb8-0002a5d5c51b")
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Advertisement is one meter broadcast picked up during a scan. ServiceData
// is the meter service's payload, already copied out of the scan buffer.
type Advertisement struct {
	Addr        bluetooth.Address
	RSSI        int16
	ServiceData []byte
}

type Options struct {
	Adapter         string
	ExchangeTimeout time.Duration
}

// Central wraps one BlueZ adapter in central mode: scanning for meters and
// dialing command sessions. Enabling the adapter happens lazily, once.
type Central struct {
	adapter *bluetooth.Adapter
	opts    Options

	enableOnce sync.Once
	enableErr  error
}

func NewCentral(opts Options) *Central {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if opts.ExchangeTimeout <= 0 {
		opts.ExchangeTimeout = 10 * time.Second
	}

	return &Central{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		opts:    opts,
	}
}

func (c *Central) enable() error {
	c.enableOnce.Do(func() {
		slog.Info("ble: enabling adapter", "adapter", c.opts.Adapter)
		c.enableErr = c.adapter.Enable()
	})
	if c.enableErr != nil {
		return fmt.Errorf("ble enable (%s): %w", c.opts.Adapter, c.enableErr)
	}
	return nil
}

// Scan streams meter advertisements to each until the context ends or each
// returns false. Devices without the meter's service data never reach each.
// A non-empty address restricts results to that device, compared
// case-insensitively.
func (c *Central) Scan(ctx context.Context, address string, each func(Advertisement) bool) error {
	if err := c.enable(); err != nil {
		return err
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-scanCtx.Done()
		_ = c.adapter.StopScan()
	}()

	slog.Info("ble: scanning started", "adapter", c.opts.Adapter, "filter_addr", address)

	// adapter.Scan blocks until StopScan() or error.
	err := c.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
		if address != "" && !strings.EqualFold(r.Address.String(), address) {
			return
		}
		data, ok := meterServiceData(r)
		if !ok {
			return
		}
		adv := Advertisement{
			Addr:        r.Address,
			RSSI:        r.RSSI,
			ServiceData: data,
		}
		if !each(adv) {
			_ = a.StopScan()
		}
	})

	// If ctx canceled, treat as clean shutdown.
	if ctx.Err() != nil {
		slog.Info("ble: scanning stopped (context canceled)")
		return nil
	}

	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}

	slog.Info("ble: scanning stopped")
	return nil
}

func meterServiceData(r bluetooth.ScanResult) ([]byte, bool) {
	for _, sd := range r.ServiceData() {
		if sd.UUID == advServiceUUID {
			return append([]byte(nil), sd.Data...), true
		}
	}
	return nil, false
}
