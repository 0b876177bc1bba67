package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLive(t *testing.T) {
	value, ok := DecodeLive([]byte{105, 0, 228, 9, 152, 40})
	require.True(t, ok)
	assert.Equal(t, 24.9, value.Temperature)
	assert.Equal(t, uint8(40), value.Humidity)
	assert.Equal(t, uint8(100), value.Battery)
}

func TestDecodeLiveNegativeTemperature(t *testing.T) {
	// Sign bit clear in the integer byte means below zero.
	value, ok := DecodeLive([]byte{105, 0, 228, 5, 24, 40})
	require.True(t, ok)
	assert.Equal(t, -24.5, value.Temperature)
}

func TestDecodeLiveRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "too short", data: []byte{105, 0, 228, 9, 152}},
		{name: "too long", data: []byte{105, 0, 228, 9, 152, 40, 0}},
		{name: "wrong device type", data: []byte{84, 0, 228, 9, 152, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeLive(tt.data)
			assert.False(t, ok)
		})
	}
}

func TestDecodeSectionInfo(t *testing.T) {
	info, ok := DecodeSectionInfo([]byte{1, 97, 160, 191, 231, 97, 162, 162, 63, 4, 6, 0, 120})
	require.True(t, ok)
	assert.Equal(t, uint32(1637924839), info.StartTime)
	assert.Equal(t, uint32(1638048319), info.EndTime)
	assert.Equal(t, uint16(1030), info.DataLength)
	assert.Equal(t, uint16(120), info.Interval)
}

func TestDecodeSectionInfoToleratesOddFields(t *testing.T) {
	// Zero interval and an end before the start are the caller's problem.
	info, ok := DecodeSectionInfo([]byte{1, 0, 0, 0, 9, 0, 0, 0, 3, 0, 12, 0, 0})
	require.True(t, ok)
	assert.Equal(t, uint32(9), info.StartTime)
	assert.Equal(t, uint32(3), info.EndTime)
	assert.Equal(t, uint16(0), info.Interval)
}

func TestDecodeSectionInfoRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "one byte short", data: []byte{1, 97, 160, 191, 231, 97, 162, 162, 63, 4, 6, 0}},
		{name: "bad status", data: []byte{0, 97, 160, 191, 231, 97, 162, 162, 63, 4, 6, 0, 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeSectionInfo(tt.data)
			assert.False(t, ok)
		})
	}
}

func TestDecodeSampleBlock(t *testing.T) {
	samples, ok := DecodeSampleBlock([]byte{1, 152, 40, 119, 152, 40, 152, 40, 120, 152, 40})
	require.True(t, ok)
	assert.Equal(t, []SampleValue{
		{Temperature: 24.7, Humidity: 40},
		{Temperature: 24.7, Humidity: 40},
		{Temperature: 24.7, Humidity: 40},
		{Temperature: 24.8, Humidity: 40},
	}, samples)
}

func TestDecodeSampleBlockNegativeTemperatures(t *testing.T) {
	// One window, both readings with the sign bit clear.
	samples, ok := DecodeSampleBlock([]byte{1, 3, 50, 0x29, 12, 61})
	require.True(t, ok)
	require.Len(t, samples, 2)
	assert.Equal(t, -3.2, samples[0].Temperature)
	assert.Equal(t, uint8(50), samples[0].Humidity)
	assert.Equal(t, -12.9, samples[1].Temperature)
	assert.Equal(t, uint8(61), samples[1].Humidity)
}

func TestDecodeSampleBlockYieldsTwoPerWindow(t *testing.T) {
	window := []byte{152, 40, 0x55, 152, 40}
	for windows := 1; windows <= 4; windows++ {
		data := []byte{responseOK}
		for i := 0; i < windows; i++ {
			data = append(data, window...)
		}
		samples, ok := DecodeSampleBlock(data)
		require.True(t, ok)
		assert.Len(t, samples, 2*windows)
	}
}

func TestDecodeSampleBlockRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "status only", data: []byte{1}},
		{name: "bad status", data: []byte{0, 152, 40, 119, 152, 40}},
		{name: "ragged window", data: []byte{1, 152, 40, 119, 152, 40, 152, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeSampleBlock(tt.data)
			assert.False(t, ok)
		})
	}
}

func TestDecodeStoreSections(t *testing.T) {
	sections, ok := DecodeStoreSections([]byte{1, 3, 7, 9, 11})
	require.True(t, ok)
	assert.Equal(t, []uint8{7, 9, 11}, sections)
}

func TestDecodeStoreSectionsCountIsLowNibble(t *testing.T) {
	sections, ok := DecodeStoreSections([]byte{1, 0xf2, 7, 9, 11})
	require.True(t, ok)
	assert.Equal(t, []uint8{7, 9}, sections)
}

func TestDecodeStoreSectionsEmpty(t *testing.T) {
	sections, ok := DecodeStoreSections([]byte{1, 0})
	require.True(t, ok)
	assert.Empty(t, sections)
}

func TestDecodeStoreSectionsRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "status only", data: []byte{1}},
		{name: "bad status", data: []byte{2, 3, 7, 9, 11}},
		{name: "truncated list", data: []byte{1, 5, 7, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodeStoreSections(tt.data)
			assert.False(t, ok)
		})
	}
}
