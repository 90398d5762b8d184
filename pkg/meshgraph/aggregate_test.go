package meshgraph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/meshtower/pkg/topology"
)

func TestNewPairKey(t *testing.T) {
	tests := []struct {
		x, y string
		want PairKey
	}{
		{"A1", "B1", PairKey{"A1", "B1"}},
		{"B1", "A1", PairKey{"A1", "B1"}},
		{"a1", "B1", PairKey{"B1", "a1"}}, // ordinal: upper case sorts first
		{"A1", "A1", PairKey{"A1", "A1"}},
		{"", "A1", PairKey{"", "A1"}},
	}

	for _, tt := range tests {
		if got := NewPairKey(tt.x, tt.y); got != tt.want {
			t.Errorf("NewPairKey(%q, %q) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPairKey_String(t *testing.T) {
	if got := NewPairKey("b", "a").String(); got != "a|b" {
		t.Errorf("String() = %q, want %q", got, "a|b")
	}
}

func TestAggregator_FirstObservationWins(t *testing.T) {
	a := NewAggregator()

	k1, created := a.Observe("A1", "B1", topology.LinkMetric{IsBridge: false, Speed: 1000, RSSI: 255})
	if !created {
		t.Error("first observation should create the record")
	}
	k2, created := a.Observe("B1", "A1", topology.LinkMetric{IsBridge: true, Speed: 100, RSSI: 30})
	if created {
		t.Error("reverse observation should not create a new record")
	}
	if k1 != k2 {
		t.Errorf("keys differ: %v vs %v", k1, k2)
	}

	rec, ok := a.Get(k1)
	if !ok {
		t.Fatal("Get() missing record")
	}
	want := AggregatedLink{Bridge: false, Speed: 1000, RSSI: 255, Use: 2}
	if rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}
	if a.Len() != 1 || a.Observations() != 2 {
		t.Errorf("Len() = %d, Observations() = %d; want 1, 2", a.Len(), a.Observations())
	}
}

func TestAggregator_GetReturnsCopy(t *testing.T) {
	a := NewAggregator()
	k, _ := a.Observe("A1", "B1", topology.LinkMetric{Speed: 10, RSSI: 255})
	rec, _ := a.Get(k)
	rec.Use = 99
	if again, _ := a.Get(k); again.Use != 1 {
		t.Errorf("Get() leaked internal state: use = %d", again.Use)
	}
}

func TestAggregator_AllOrder(t *testing.T) {
	a := NewAggregator()
	m := topology.LinkMetric{Speed: 100, RSSI: 255}
	a.Observe("M", "Z", m) // lower M first seen
	a.Observe("B", "C", m) // lower B
	a.Observe("M", "N", m) // joins the M group
	a.Observe("C", "B", m) // existing pair
	a.Observe("A", "M", m) // lower A

	var got []PairKey
	for k := range a.All() {
		got = append(got, k)
	}
	want := []PairKey{{"M", "Z"}, {"M", "N"}, {"B", "C"}, {"A", "M"}}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAggregator_AllStopsEarly(t *testing.T) {
	a := NewAggregator()
	m := topology.LinkMetric{Speed: 100, RSSI: 255}
	a.Observe("A", "B", m)
	a.Observe("A", "C", m)
	a.Observe("D", "E", m)

	n := 0
	for range a.All() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iteration continued after break: %d", n)
	}
}

func TestAggregatorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("pair key is direction independent", prop.ForAll(
		func(x, y string) bool {
			return NewPairKey(x, y) == NewPairKey(y, x)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("pair key is ordered", prop.ForAll(
		func(x, y string) bool {
			k := NewPairKey(x, y)
			return CompareAddresses(k.A, k.B) <= 0
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("both directions fold into one record seeded by the first", prop.ForAll(
		func(x, y string, s1, s2, r1, r2 int, b1, b2 bool) bool {
			a := NewAggregator()
			a.Observe(x, y, topology.LinkMetric{IsBridge: b1, Speed: s1, RSSI: r1})
			a.Observe(y, x, topology.LinkMetric{IsBridge: b2, Speed: s2, RSSI: r2})
			rec, ok := a.Get(NewPairKey(x, y))
			return ok && a.Len() == 1 && rec.Use == 2 &&
				rec.Speed == s1 && rec.RSSI == r1 && rec.Bridge == b1
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 100000),
		gen.IntRange(0, 100000),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("use sums to observations", prop.ForAll(
		func(ends []int) bool {
			addrs := []string{"A1", "B1", "C1", "D1"}
			a := NewAggregator()
			for i := 0; i+1 < len(ends); i += 2 {
				a.Observe(addrs[ends[i]], addrs[ends[i+1]], topology.LinkMetric{RSSI: 255})
			}
			total := 0
			for _, rec := range a.All() {
				total += rec.Use
			}
			return total == a.Observations()
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
