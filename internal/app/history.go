package app

import (
	"fmt"
	"io"
	"time"

	"github.com/Trundle/meter-reader/internal/meter"
)

// writeHistory prints one tab-separated row per sample: local RFC 3339
// timestamp, temperature, humidity.
func writeHistory(w io.Writer, info meter.SectionInfo, samples []meter.SampleValue) {
	interval := time.Duration(info.Interval) * time.Second
	ts := historyStart(info, len(samples))
	for _, s := range samples {
		fmt.Fprintf(w, "%s\t%g\t%d\n", ts.Format(time.RFC3339), s.Temperature, s.Humidity)
		ts = ts.Add(interval)
	}
}

// historyStart is the timestamp of the first retrieved sample: the store's
// start time advanced past the entries a bounded dump skipped. The skipped
// count is the store length minus the retrieved count, in the store's own
// units.
func historyStart(info meter.SectionInfo, retrieved int) time.Time {
	skipped := int(info.DataLength) - retrieved
	return time.Unix(int64(info.StartTime), 0).Add(time.Duration(skipped*int(info.Interval)) * time.Second)
}
