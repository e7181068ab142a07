package dwell

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"privacyviz/redactor/pkg/geo"
	"privacyviz/redactor/pkg/redaction"
)

const (
	base   int64 = 1682899200000
	minute int64 = 60 * 1000
)

var (
	fence   = geo.Fence{Center: geo.Point{Latitude: 37.5, Longitude: 127.0}, RadiusMeters: 500}
	inside  = geo.Point{Latitude: 37.5005, Longitude: 127.0005}
	outside = geo.Point{Latitude: 37.52, Longitude: 127.0}
)

func sample(ts int64, p geo.Point) redaction.LocationSample {
	return redaction.LocationSample{Email: "alice@example.com", Timestamp: ts, Latitude: p.Latitude, Longitude: p.Longitude}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		samples []redaction.LocationSample
		want    []redaction.Interval
	}{
		{
			name:    "empty trace",
			samples: nil,
			want:    nil,
		},
		{
			name: "never inside",
			samples: []redaction.LocationSample{
				sample(base, outside),
				sample(base+minute, outside),
			},
			want: nil,
		},
		{
			name: "three inside then outside",
			samples: []redaction.LocationSample{
				sample(base, inside),
				sample(base+2*minute, inside),
				sample(base+4*minute, inside),
				sample(base+6*minute, outside),
			},
			want: []redaction.Interval{{StartTS: base, EndTS: base + 4*minute}},
		},
		{
			name: "enter after outside",
			samples: []redaction.LocationSample{
				sample(base, outside),
				sample(base+minute, inside),
				sample(base+2*minute, inside),
			},
			want: []redaction.Interval{{StartTS: base + minute, EndTS: base + 2*minute}},
		},
		{
			name: "gap splits interval",
			samples: []redaction.LocationSample{
				sample(base, inside),
				sample(base+5*minute, inside),
				sample(base+16*minute, inside), // exactly 11 minutes later
				sample(base+20*minute, inside),
			},
			want: []redaction.Interval{
				{StartTS: base, EndTS: base + 5*minute},
				{StartTS: base + 16*minute, EndTS: base + 20*minute},
			},
		},
		{
			name: "gap just under threshold keeps interval",
			samples: []redaction.LocationSample{
				sample(base, inside),
				sample(base+11*minute-1, inside),
			},
			want: []redaction.Interval{{StartTS: base, EndTS: base + 11*minute - 1}},
		},
		{
			name: "isolated fix between gaps is degenerate",
			samples: []redaction.LocationSample{
				sample(base, inside),
				sample(base+20*minute, inside),
				sample(base+40*minute, inside),
			},
			want: []redaction.Interval{
				{StartTS: base, EndTS: base},
				{StartTS: base + 20*minute, EndTS: base + 20*minute},
				{StartTS: base + 40*minute, EndTS: base + 40*minute},
			},
		},
		{
			name: "gap on re-entry does not matter",
			samples: []redaction.LocationSample{
				sample(base, inside),
				sample(base+minute, outside),
				sample(base+60*minute, inside),
				sample(base+61*minute, inside),
			},
			want: []redaction.Interval{
				{StartTS: base, EndTS: base},
				{StartTS: base + 60*minute, EndTS: base + 61*minute},
			},
		},
		{
			name: "single inside sample",
			samples: []redaction.LocationSample{
				sample(base, inside),
			},
			want: []redaction.Interval{{StartTS: base, EndTS: base}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(DefaultGap).Extract(tt.samples, fence)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_UniformInsideTrace(t *testing.T) {
	var samples []redaction.LocationSample
	for i := int64(0); i < 240; i++ {
		samples = append(samples, sample(base+i*minute, inside))
	}

	got := (&Extractor{}).Extract(samples, fence)
	want := []redaction.Interval{{StartTS: base, EndTS: base + 239*minute}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtract_Alternating(t *testing.T) {
	var samples []redaction.LocationSample
	for i := int64(0); i < 10; i++ {
		p := inside
		if i%2 == 1 {
			p = outside
		}
		samples = append(samples, sample(base+i*minute, p))
	}

	got := New(DefaultGap).Extract(samples, fence)
	if len(got) != 5 {
		t.Fatalf("Extract() returned %d intervals, want 5: %v", len(got), got)
	}
	for i, iv := range got {
		ts := base + int64(2*i)*minute
		if iv.StartTS != ts || iv.EndTS != ts {
			t.Errorf("interval %d = %v, want degenerate at %d", i, iv, ts)
		}
	}
}

func TestExtract_StartNotAfterEnd(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		var samples []redaction.LocationSample
		ts := base
		for i := 0; i < 50; i++ {
			ts += int64(rng.Intn(20)) * minute
			p := outside
			if rng.Intn(3) > 0 {
				p = inside
			}
			samples = append(samples, sample(ts, p))
		}

		prevEnd := int64(-1)
		for _, iv := range New(DefaultGap).Extract(samples, fence) {
			if iv.StartTS > iv.EndTS {
				t.Fatalf("trial %d: interval %v has start after end", trial, iv)
			}
			if iv.StartTS < prevEnd {
				t.Fatalf("trial %d: interval %v overlaps previous end %d", trial, iv, prevEnd)
			}
			prevEnd = iv.EndTS
		}
	}
}

func TestExtractor_CustomGap(t *testing.T) {
	samples := []redaction.LocationSample{
		sample(base, inside),
		sample(base+3*minute, inside),
	}

	got := New(2 * time.Minute).Extract(samples, fence)
	if len(got) != 2 {
		t.Errorf("Extract() with 2m gap = %v, want two intervals", got)
	}
}
