package internaldefs

import (
	"reflect"
	"strings"
	"testing"
)

func TestCounterDefsAreUnique(t *testing.T) {
	names := map[string]bool{}
	ids := map[uint64]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "sessiongate_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("counter %q does not follow the naming scheme", def.Name)
		}
		if names[def.Name] || ids[uint64(def.ID)] {
			t.Fatalf("duplicate counter definition %q", def.Name)
		}
		names[def.Name] = true
		ids[uint64(def.ID)] = true
	}
}

func TestBoundSuffixes(t *testing.T) {
	want := []string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}
	if got := BoundSuffixes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("BoundSuffixes() = %v, want %v", got, want)
	}
	if BucketCount != len(want) {
		t.Fatalf("BucketCount = %d, want %d", BucketCount, len(want))
	}
}

func TestCumulativeBuckets(t *testing.T) {
	raw := NormalizeBuckets([]uint64{1, 0, 2})
	if len(raw) != BucketCount {
		t.Fatalf("expected %d buckets, got %d", BucketCount, len(raw))
	}
	got := CumulativeBuckets(raw)
	want := []uint64{1, 1, 3, 3, 3, 3, 3, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CumulativeBuckets = %v, want %v", got, want)
	}
}
