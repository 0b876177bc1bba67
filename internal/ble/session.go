package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tinygo.org/x/bluetooth"
)

// Session is one command-channel connection to a meter. Exchanges are
// strictly serialized: the channel carries no request correlation, so a
// second in-flight command could never tell the responses apart. The notify
// subscription is set up during connect, before anything is written.
type Session struct {
	central *Central
	addr    bluetooth.Address

	mu        sync.Mutex
	connected bool
	device    bluetooth.Device
	write     bluetooth.DeviceCharacteristic

	notifications chan []byte
}

// Session returns an unconnected session for the given device. The link is
// dialed on the first exchange, or by Connect.
func (c *Central) Session(addr bluetooth.Address) *Session {
	return &Session{
		central:       c,
		addr:          addr,
		notifications: make(chan []byte, 8),
	}
}

// Connect dials the device and resolves the command channel. A connected
// session is left as is.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.connected {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.central.enable(); err != nil {
		return err
	}

	slog.Debug("ble: connecting", "addr", s.addr.String())
	device, err := s.central.adapter.Connect(s.addr, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", s.addr.String(), err)
	}

	write, notify, err := commandCharacteristics(device)
	if err != nil {
		_ = device.Disconnect()
		return err
	}

	// Subscribe before the first write; the meter can answer faster than a
	// late subscription would settle.
	if err := notify.EnableNotifications(s.deliver); err != nil {
		_ = device.Disconnect()
		return fmt.Errorf("enable notifications: %w", err)
	}

	s.device = device
	s.write = write
	s.connected = true
	slog.Debug("ble: command channel ready", "addr", s.addr.String())
	return nil
}

func commandCharacteristics(device bluetooth.Device) (write, notify bluetooth.DeviceCharacteristic, err error) {
	srvs, err := device.DiscoverServices([]bluetooth.UUID{commandServiceUUID})
	if err != nil {
		return write, notify, fmt.Errorf("discover command service: %w", err)
	}
	if len(srvs) == 0 {
		return write, notify, errors.New("command service not found")
	}

	chars, err := srvs[0].DiscoverCharacteristics([]bluetooth.UUID{writeCharUUID, notifyCharUUID})
	if err != nil {
		return write, notify, fmt.Errorf("discover command characteristics: %w", err)
	}
	var haveWrite, haveNotify bool
	for _, ch := range chars {
		switch ch.UUID() {
		case writeCharUUID:
			write = ch
			haveWrite = true
		case notifyCharUUID:
			notify = ch
			haveNotify = true
		}
	}
	if !haveWrite || !haveNotify {
		return write, notify, errors.New("command characteristics not found")
	}
	return write, notify, nil
}

func (s *Session) deliver(data []byte) {
	buf := append([]byte(nil), data...)
	select {
	case s.notifications <- buf:
	default:
		slog.Debug("ble: dropping notification, no exchange waiting", "len", len(buf))
	}
}

// Exchange writes one command and returns the next notification, waiting at
// most the central's exchange timeout. It connects first if needed.
func (s *Session) Exchange(ctx context.Context, cmd []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	// Leftover notifications would be misread as this command's response.
	for drained := false; !drained; {
		select {
		case <-s.notifications:
		default:
			drained = true
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.central.opts.ExchangeTimeout)
	defer cancel()

	if _, err := s.write.WriteWithoutResponse(cmd); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	select {
	case resp := <-s.notifications:
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting response: %w", ctx.Err())
	}
}

// Disconnect drops the link. Safe on a session that never connected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}
	if err := s.device.Disconnect(); err != nil {
		slog.Warn("ble: disconnect", "addr", s.addr.String(), "error", err)
	}
	s.connected = false
}
