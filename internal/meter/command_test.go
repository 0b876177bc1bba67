package meter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReadSectionInfo(t *testing.T) {
	assert.Equal(t, []byte{0x57, 0x0f, 59, 0}, BuildReadSectionInfo())
}

func TestBuildReadStoreInfo(t *testing.T) {
	assert.Equal(t, []byte{0x57, 0x0f, 58, 0}, BuildReadStoreInfo())
}

func TestBuildReadSampleBlock(t *testing.T) {
	tests := []struct {
		name   string
		offset uint16
		want   []byte
	}{
		{name: "start of store", offset: 0, want: []byte{0x57, 0x0f, 60, 0, 0, 0, 6}},
		{name: "single byte offset", offset: 6, want: []byte{0x57, 0x0f, 60, 0, 0, 6, 6}},
		{name: "offset spans both bytes", offset: 0x0403, want: []byte{0x57, 0x0f, 60, 0, 4, 3, 6}},
		{name: "end of large store", offset: 1020, want: []byte{0x57, 0x0f, 60, 0, 3, 0xfc, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildReadSampleBlock(tt.offset))
		})
	}
}

func TestBuildSetTime(t *testing.T) {
	cmd := BuildSetTime(1637924839)
	require.Len(t, cmd, 13)
	assert.Equal(t, []byte{0x57, 0, 5, 3, 0}, cmd[:5])
	assert.Equal(t, uint64(1637924839), binary.BigEndian.Uint64(cmd[5:]))
}

func TestBuildSetTimeNegativeEpoch(t *testing.T) {
	cmd := BuildSetTime(-1)
	require.Len(t, cmd, 13)
	assert.Equal(t, int64(-1), int64(binary.BigEndian.Uint64(cmd[5:])))
}
