package internaldefs

import (
	"strings"
	"testing"
)

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 0, 2, 0, 0, 0, 0, 3, 99}))
	want := [BucketCount]uint64{1, 1, 3, 3, 3, 3, 3, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDefinitionsUnique(t *testing.T) {
	seen := map[string]bool{AuditDroppedName: true, AuditSinkPanicsName: true}
	for _, d := range CounterDefs {
		if seen[d.Name] || !strings.HasSuffix(d.Name, "_total") {
			t.Fatalf("bad counter name %q", d.Name)
		}
		seen[d.Name] = true
	}
	for _, d := range HistogramDefs {
		if seen[d.Name] || !strings.HasSuffix(d.Name, "_seconds") {
			t.Fatalf("bad histogram name %q", d.Name)
		}
		seen[d.Name] = true
	}
	if len(HistogramUpperBounds)+1 != BucketCount {
		t.Fatalf("%d finite bounds for %d buckets", len(HistogramUpperBounds), BucketCount)
	}
	for i := 1; i < len(HistogramUpperBounds); i++ {
		if HistogramUpperBounds[i] <= HistogramUpperBounds[i-1] {
			t.Fatalf("bounds not increasing at %d", i)
		}
	}
}
