package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	dto "github.com/prometheus/client_model/go"

	cache "github.com/krisalay/page-cache"
	"github.com/krisalay/page-cache/metrics"
)

// writeReport prints one row per key: how often it was accessed, when last,
// and what is stored for it right now.
func writeReport(w io.Writer, c *cache.ExpiringCache, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "KEY\tACCESSES\tLAST ACCESS\tSTORED\tSIZE")
	for _, key := range c.Keys() {
		st, _ := c.Stats(key)

		stored, size := "-", "-"
		if ent, ok := c.Entry(key); ok {
			stored = humanize.RelTime(ent.StoredAt, now, "ago", "from now")
			size = humanize.Bytes(uint64(len(ent.Value)))
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			key,
			humanize.Comma(int64(st.Count)),
			humanize.RelTime(st.LastAccess, now, "ago", "from now"),
			stored,
			size,
		)
	}
}

// producerCalls reads how many times the producer ran from the latency
// histogram's sample count.
func producerCalls(m *metrics.Metrics) uint64 {
	var out dto.Metric
	if err := m.ProduceLatency.Write(&out); err != nil {
		return 0
	}
	return out.GetHistogram().GetSampleCount()
}
