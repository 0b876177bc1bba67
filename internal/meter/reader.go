package meter

import (
	"context"
	"log/slog"
	"time"
)

// Transport is one logical connection to the meter's command channel. The
// channel carries no request correlation, so implementations must keep at
// most one exchange in flight, and must have their notification subscription
// in place before the first command is written.
type Transport interface {
	// Connect establishes the link and resolves the channel endpoints.
	// Calling it on a connected transport is a no-op.
	Connect(ctx context.Context) error
	// Exchange writes one command and returns the next notification.
	Exchange(ctx context.Context, cmd []byte) ([]byte, error)
	// Disconnect releases the link. Safe to call in any state.
	Disconnect()
}

// Reader drives the command protocol over a Transport it does not own the
// lifecycle of: it connects on demand but never disconnects. Not safe for
// concurrent use.
type Reader struct {
	transport Transport
}

func NewReader(t Transport) *Reader {
	return &Reader{transport: t}
}

// ReadSectionInfo queries the historical store's metadata. ok is false when
// the meter answered with something other than a well-formed section info
// response.
func (r *Reader) ReadSectionInfo(ctx context.Context) (SectionInfo, bool, error) {
	resp, err := r.exchange(ctx, BuildReadSectionInfo())
	if err != nil {
		return SectionInfo{}, false, err
	}
	info, ok := DecodeSectionInfo(resp)
	return info, ok, nil
}

// ReadSamples fetches stored samples, oldest first. A positive last bounds
// the dump to the most recent period, see PlanOffsets. A block the meter
// answers malformed is skipped and leaves a gap; only transport errors abort
// the dump.
func (r *Reader) ReadSamples(ctx context.Context, info SectionInfo, last time.Duration) ([]SampleValue, error) {
	offsets := PlanOffsets(info, last)
	samples := make([]SampleValue, 0, 4*len(offsets))
	for _, offset := range offsets {
		resp, err := r.exchange(ctx, BuildReadSampleBlock(offset))
		if err != nil {
			return nil, err
		}
		block, ok := DecodeSampleBlock(resp)
		if !ok {
			slog.Debug("skipping malformed sample block", "offset", offset, "response_len", len(resp))
			continue
		}
		samples = append(samples, block...)
	}
	return samples, nil
}

// SetTime points the meter's clock at the given time. The meter acknowledges
// with a bare status byte; a refusal is logged rather than returned since
// none of the reading paths depend on it.
func (r *Reader) SetTime(ctx context.Context, now time.Time) error {
	resp, err := r.exchange(ctx, BuildSetTime(now.Unix()))
	if err != nil {
		return err
	}
	if len(resp) == 0 || resp[0] != responseOK {
		slog.Warn("meter did not acknowledge time sync", "response_len", len(resp))
	}
	return nil
}

// ReadStoreSections lists the historical store's section directory. ok is
// false when the meter's answer is malformed.
func (r *Reader) ReadStoreSections(ctx context.Context) ([]uint8, bool, error) {
	resp, err := r.exchange(ctx, BuildReadStoreInfo())
	if err != nil {
		return nil, false, err
	}
	sections, ok := DecodeStoreSections(resp)
	return sections, ok, nil
}

func (r *Reader) exchange(ctx context.Context, cmd []byte) ([]byte, error) {
	if err := r.transport.Connect(ctx); err != nil {
		return nil, err
	}
	return r.transport.Exchange(ctx, cmd)
}
