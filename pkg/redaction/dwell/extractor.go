// Package dwell extracts the periods a location trace spent inside a
// geofence.
//
// The trace is walked once with a single optional "open" interval:
//
//   - an inside sample with nothing open opens an interval at its timestamp
//   - an inside sample following the previous sample by at least the gap
//     threshold closes the open interval at the previous sample and opens a
//     new one; without frequent fixes presence cannot be assumed
//   - an outside sample closes the open interval at the previous sample
//   - an interval still open at the end closes at the last sample
//
// A single inside sample between two breaks yields a degenerate interval
// (StartTS == EndTS).
package dwell

import (
	"time"

	"privacyviz/redactor/pkg/geo"
	"privacyviz/redactor/pkg/redaction"
)

// DefaultGap is the continuity threshold between consecutive fixes.
const DefaultGap = 11 * time.Minute

// Extractor turns location traces into dwell intervals.
type Extractor struct {
	// Gap is the continuity threshold. Zero means DefaultGap.
	Gap time.Duration
}

// New creates an Extractor with the given gap threshold.
func New(gap time.Duration) *Extractor {
	return &Extractor{Gap: gap}
}

func (e *Extractor) gapMillis() int64 {
	if e == nil || e.Gap <= 0 {
		return DefaultGap.Milliseconds()
	}
	return e.Gap.Milliseconds()
}

// Extract returns the intervals during which the samples stayed inside
// fence. Samples must be ordered by timestamp.
func (e *Extractor) Extract(samples []redaction.LocationSample, fence geo.Fence) []redaction.Interval {
	gap := e.gapMillis()

	var (
		out  []redaction.Interval
		open *redaction.Interval
	)

	for i, s := range samples {
		inside := fence.Contains(geo.Point{Latitude: s.Latitude, Longitude: s.Longitude})

		switch {
		case inside && open == nil:
			open = &redaction.Interval{StartTS: s.Timestamp}
		case inside && s.Timestamp-samples[i-1].Timestamp >= gap:
			open.EndTS = samples[i-1].Timestamp
			out = append(out, *open)
			open = &redaction.Interval{StartTS: s.Timestamp}
		case !inside && open != nil:
			open.EndTS = samples[i-1].Timestamp
			out = append(out, *open)
			open = nil
		}
	}

	if open != nil {
		open.EndTS = samples[len(samples)-1].Timestamp
		out = append(out, *open)
	}

	return out
}
