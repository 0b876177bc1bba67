package meter

import "time"

// PlanOffsets returns the ordered store offsets a dump has to fetch, one
// block per exchange, oldest first. A trailing partial block is never
// fetched. A positive last restricts the plan to the suffix covering roughly
// that most recent period: the wanted sample count is the period divided by
// the sampling interval, truncated, then rounded up to whole blocks and
// capped at the store size. last <= 0 selects the whole store.
func PlanOffsets(info SectionInfo, last time.Duration) []uint16 {
	blocks := int(info.DataLength) / BlockSize
	if last > 0 {
		if info.Interval == 0 {
			// No way to tell how many samples cover the period.
			return nil
		}
		wanted := int(last/time.Second) / int(info.Interval)
		wantedBlocks := (wanted + BlockSize - 1) / BlockSize
		if wantedBlocks < blocks {
			offsets := make([]uint16, 0, wantedBlocks)
			for i := blocks - wantedBlocks; i < blocks; i++ {
				offsets = append(offsets, uint16(i*BlockSize))
			}
			return offsets
		}
	}
	offsets := make([]uint16, 0, blocks)
	for i := 0; i < blocks; i++ {
		offsets = append(offsets, uint16(i*BlockSize))
	}
	return offsets
}
