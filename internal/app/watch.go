package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Trundle/meter-reader/internal/ble"
	"github.com/Trundle/meter-reader/internal/config"
	"github.com/Trundle/meter-reader/internal/meter"
	"github.com/Trundle/meter-reader/internal/mqtt"
)

// runWatch scans indefinitely and forwards readings to MQTT, at most one
// message per meter per publish interval. Without a reachable broker it
// keeps watching and logging; readings are dropped, not queued.
func runWatch(ctx context.Context, cfg config.Config, central *ble.Central, address string) error {
	client, err := mqtt.NewClient(cfg.MQTT, slog.Default())
	if err != nil {
		return err
	}
	defer client.Disconnect()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := client.Connect(connectCtx); err != nil {
		slog.Warn("mqtt connect failed, watching without publishing", "error", err)
	}
	cancel()

	gate := newPublishGate(cfg.MQTT.PublishInterval)
	for {
		err := central.Scan(ctx, address, func(adv ble.Advertisement) bool {
			value, ok := meter.DecodeLive(adv.ServiceData)
			if !ok {
				return true
			}
			addr := adv.Addr.String()
			if !gate.allow(addr, time.Now()) {
				return true
			}
			slog.Info("meter reading",
				"addr", addr,
				"temperature_c", value.Temperature,
				"humidity_pct", value.Humidity,
				"battery_pct", value.Battery,
				"rssi", adv.RSSI,
			)
			if !client.IsConnected() {
				return true
			}
			reading := mqtt.Reading{
				Address:     addr,
				Timestamp:   time.Now(),
				Temperature: value.Temperature,
				Humidity:    value.Humidity,
				Battery:     value.Battery,
				RSSI:        adv.RSSI,
			}
			if err := client.PublishReading(reading); err != nil {
				slog.Warn("failed to publish reading", "addr", addr, "error", err)
			}
			return true
		})
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		slog.Warn("ble scan ended early, restarting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

// publishGate rate-limits publishes per meter. Advertisements repeat every
// couple of seconds, far more often than anyone needs telemetry.
type publishGate struct {
	interval time.Duration
	last     map[string]time.Time
}

func newPublishGate(interval time.Duration) *publishGate {
	return &publishGate{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

func (g *publishGate) allow(addr string, now time.Time) bool {
	if g.interval <= 0 {
		return true
	}
	if last, ok := g.last[addr]; ok && now.Sub(last) < g.interval {
		return false
	}
	g.last[addr] = now
	return true
}
