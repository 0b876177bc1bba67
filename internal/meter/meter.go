// Package meter implements the meter's proprietary command protocol: frame
// construction for the GATT command channel, decoding for the advertisement
// and command-response payloads, and the offset paging that turns the
// historical store into a bounded sequence of block fetches.
package meter

import "encoding/binary"

// responseOK is the status byte leading every well-formed command response.
const responseOK = 1

// liveValueMarker is the device-type byte leading the meter's advertisement
// service data.
const liveValueMarker = 105

// SectionInfo describes the historical store: the time range it covers, its
// size in stored bytes (not samples) and the seconds between samples.
type SectionInfo struct {
	StartTime  uint32
	EndTime    uint32
	DataLength uint16
	Interval   uint16
}

// SampleValue is one stored reading. Temperature carries a single decimal
// digit, the device's native resolution.
type SampleValue struct {
	Temperature float64
	Humidity    uint8
}

// LiveValue is the instantaneous reading broadcast in advertisements,
// available without a connection.
type LiveValue struct {
	Temperature float64
	Humidity    uint8
	Battery     uint8
}

// DecodeLive decodes advertisement service data into a live reading. ok is
// false unless the payload is exactly six bytes and starts with the meter's
// device-type marker.
func DecodeLive(data []byte) (LiveValue, bool) {
	if len(data) != 6 || data[0] != liveValueMarker {
		return LiveValue{}, false
	}
	return LiveValue{
		Temperature: temperature(data[4], data[3]&0x0f),
		Humidity:    data[5] & 0x7f,
		Battery:     data[2] & 0x7f,
	}, true
}

// DecodeSectionInfo decodes the store metadata response. ok is false for
// short responses and non-OK status bytes. The fields themselves are not
// validated: a zero interval or an end time before the start is handed
// through for callers to tolerate.
func DecodeSectionInfo(data []byte) (SectionInfo, bool) {
	if len(data) < 13 || data[0] != responseOK {
		return SectionInfo{}, false
	}
	return SectionInfo{
		StartTime:  binary.BigEndian.Uint32(data[1:5]),
		EndTime:    binary.BigEndian.Uint32(data[5:9]),
		DataLength: binary.BigEndian.Uint16(data[9:11]),
		Interval:   binary.BigEndian.Uint16(data[11:13]),
	}, true
}

// DecodeSampleBlock decodes one block-fetch response into readings, oldest
// first. The payload after the status byte must consist of whole 5-byte
// windows; anything else is rejected as a whole, never decoded partially.
// Each window packs two readings that share its middle byte: one fractional
// digit per nibble.
func DecodeSampleBlock(data []byte) ([]SampleValue, bool) {
	if len(data) < 6 || data[0] != responseOK || (len(data)-1)%5 != 0 {
		return nil, false
	}
	samples := make([]SampleValue, 0, 2*(len(data)-1)/5)
	for i := 1; i < len(data); i += 5 {
		w := data[i : i+5]
		samples = append(samples, firstSample(w), secondSample(w))
	}
	return samples, true
}

// firstSample decodes the leading reading of a window; its fractional digit
// is the high nibble of the shared byte.
func firstSample(w []byte) SampleValue {
	_ = w[2] // bounds check hint
	return SampleValue{
		Temperature: temperature(w[0], w[2]>>4),
		Humidity:    w[1] & 0x7f,
	}
}

// secondSample decodes the trailing reading; its fractional digit is the low
// nibble of the shared byte.
func secondSample(w []byte) SampleValue {
	_ = w[4] // bounds check hint
	return SampleValue{
		Temperature: temperature(w[3], w[2]&0x0f),
		Humidity:    w[4] & 0x7f,
	}
}

// temperature converts the device's sign-and-magnitude fixed-point form.
// whole carries the integer part and the sign bit, where a set bit means
// positive. tenths is the single fractional digit.
func temperature(whole, tenths byte) float64 {
	t := float64(int(whole&0x7f)*10+int(tenths&0x0f)) / 10
	if whole&0x80 == 0 {
		t = -t
	}
	return t
}

// DecodeStoreSections decodes the store directory response: after the status
// byte, the low nibble of the next byte counts the section ids that follow.
func DecodeStoreSections(data []byte) ([]uint8, bool) {
	if len(data) < 2 || data[0] != responseOK {
		return nil, false
	}
	n := int(data[1] & 0x0f)
	if len(data) < 2+n {
		return nil, false
	}
	sections := make([]uint8, n)
	copy(sections, data[2:2+n])
	return sections, true
}
