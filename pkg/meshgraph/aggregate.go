package meshgraph

import (
	"iter"
	"strings"

	"github.com/matzehuels/meshtower/pkg/topology"
)

// CompareAddresses orders interface addresses ordinally (byte-wise), with no
// case folding. It returns -1, 0 or +1.
func CompareAddresses(a, b string) int {
	return strings.Compare(a, b)
}

// PairKey identifies an unordered pair of interface addresses. A is never
// greater than B under [CompareAddresses].
type PairKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPairKey returns the canonical key for x and y; NewPairKey(x, y) ==
// NewPairKey(y, x).
func NewPairKey(x, y string) PairKey {
	if CompareAddresses(x, y) < 0 {
		return PairKey{A: x, B: y}
	}
	return PairKey{A: y, B: x}
}

// String returns "A|B".
func (k PairKey) String() string { return k.A + "|" + k.B }

// AggregatedLink is the folded record of every observation of one pair.
type AggregatedLink struct {
	Bridge bool `json:"bridge"`
	Speed  int  `json:"speed"`
	RSSI   int  `json:"rssi"`
	// Use counts the observations that referenced the pair.
	Use int `json:"use"`
}

// Metric returns the displayed metric of the link.
func (l AggregatedLink) Metric() topology.LinkMetric {
	return topology.LinkMetric{IsBridge: l.Bridge, Speed: l.Speed, RSSI: l.RSSI}
}

// Aggregator folds interface-level link observations into one
// [AggregatedLink] per [PairKey].
//
// The first observation of a pair is authoritative: it seeds bridge, speed
// and rssi, and later observations of the same pair (including the reverse
// direction) only increment Use. An Aggregator is not safe for concurrent use.
type Aggregator struct {
	records map[PairKey]*AggregatedLink
	order   []string            // lower addresses, first-seen order
	uppers  map[string][]string // lower address -> upper addresses, first-seen order
	obs     int
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		records: make(map[PairKey]*AggregatedLink),
		uppers:  make(map[string][]string),
	}
}

// Observe records one observation of the link between interfaces x and y.
// It returns the pair key and whether the observation created the record.
func (a *Aggregator) Observe(x, y string, m topology.LinkMetric) (PairKey, bool) {
	a.obs++
	k := NewPairKey(x, y)
	if rec, ok := a.records[k]; ok {
		rec.Use++
		return k, false
	}

	a.records[k] = &AggregatedLink{Bridge: m.IsBridge, Speed: m.Speed, RSSI: m.RSSI, Use: 1}
	if _, ok := a.uppers[k.A]; !ok {
		a.order = append(a.order, k.A)
	}
	a.uppers[k.A] = append(a.uppers[k.A], k.B)
	return k, true
}

// Get returns a copy of the record for k.
func (a *Aggregator) Get(k PairKey) (AggregatedLink, bool) {
	rec, ok := a.records[k]
	if !ok {
		return AggregatedLink{}, false
	}
	return *rec, true
}

// Len returns the number of distinct pairs.
func (a *Aggregator) Len() int { return len(a.records) }

// Observations returns the number of Observe calls.
func (a *Aggregator) Observations() int { return a.obs }

// All yields every pair with a copy of its record. Pairs are grouped by their
// lower address in the order those addresses were first seen, and within a
// group follow the order the pairs were created.
func (a *Aggregator) All() iter.Seq2[PairKey, AggregatedLink] {
	return func(yield func(PairKey, AggregatedLink) bool) {
		for _, lo := range a.order {
			for _, hi := range a.uppers[lo] {
				k := PairKey{A: lo, B: hi}
				if !yield(k, *a.records[k]) {
					return
				}
			}
		}
	}
}
