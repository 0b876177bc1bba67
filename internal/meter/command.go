package meter

import "encoding/binary"

// cmdMarker leads every command frame written to the meter.
const cmdMarker = 0x57

// Command opcodes. The marker's class selector depends on whether the opcode
// sits beyond the low command page.
const (
	cmdSetTime         = 5
	cmdReadStoreInfo   = 58
	cmdReadSectionInfo = 59
	cmdReadSampleBlock = 60
)

// BlockSize is the store's addressing unit: fetch offsets advance in
// multiples of it and every fetch requests exactly one block.
const BlockSize = 6

// newCommand lays out the shared frame: marker, class selector, opcode, and
// a zeroed payload of the given length for the caller to fill in.
func newCommand(opcode byte, payloadLen int) []byte {
	frame := make([]byte, 3+payloadLen)
	frame[0] = cmdMarker
	if opcode > 0x0f {
		frame[1] = 0x0f
	}
	frame[2] = opcode
	return frame
}

// BuildReadSectionInfo builds the query for the historical store's metadata.
func BuildReadSectionInfo() []byte {
	return newCommand(cmdReadSectionInfo, 1)
}

// BuildReadSampleBlock builds the fetch for one block of stored samples at
// the given byte offset.
func BuildReadSampleBlock(offset uint16) []byte {
	cmd := newCommand(cmdReadSampleBlock, 4)
	cmd[4] = byte(offset >> 8)
	cmd[5] = byte(offset)
	cmd[6] = BlockSize
	return cmd
}

// BuildSetTime builds the clock synchronization command carrying the given
// Unix timestamp in seconds.
func BuildSetTime(epochSeconds int64) []byte {
	cmd := newCommand(cmdSetTime, 10)
	cmd[3] = 3
	binary.BigEndian.PutUint64(cmd[5:13], uint64(epochSeconds))
	return cmd
}

// BuildReadStoreInfo builds the query for the store's section directory.
func BuildReadStoreInfo() []byte {
	return newCommand(cmdReadStoreInfo, 1)
}
