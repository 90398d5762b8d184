package meshgraph

import (
	"testing"

	"github.com/matzehuels/meshtower/pkg/topology"
)

func TestEdgeLabel(t *testing.T) {
	tests := []struct {
		name   string
		metric topology.LinkMetric
		want   string
	}{
		{"wireless", topology.LinkMetric{RSSI: 40, Speed: 1000}, "40db"},
		{"wireless zero", topology.LinkMetric{RSSI: 0, Speed: 0}, "0db"},
		{"wireless ignores bridge", topology.LinkMetric{RSSI: 254, Speed: 100, IsBridge: true}, "254db"},
		{"whole gigabit", topology.LinkMetric{RSSI: 255, Speed: 1000}, "1GBit/s"},
		{"ten gigabit", topology.LinkMetric{RSSI: 255, Speed: 10000}, "10GBit/s"},
		{"fractional gigabit", topology.LinkMetric{RSSI: 255, Speed: 2500}, "2.5GBit/s"},
		{"one decimal only", topology.LinkMetric{RSSI: 255, Speed: 1234}, "1.2GBit/s"},
		{"tie rounds up", topology.LinkMetric{RSSI: 255, Speed: 1250}, "1.3GBit/s"},
		{"tie rounds up again", topology.LinkMetric{RSSI: 255, Speed: 2250}, "2.3GBit/s"},
		{"binary below tie", topology.LinkMetric{RSSI: 255, Speed: 2550}, "2.5GBit/s"},
		{"binary above tie", topology.LinkMetric{RSSI: 255, Speed: 1050}, "1.1GBit/s"},
		{"rounds into next gigabit", topology.LinkMetric{RSSI: 255, Speed: 1999}, "2.0GBit/s"},
		{"megabit", topology.LinkMetric{RSSI: 255, Speed: 100}, "100MBit/s"},
		{"just below gigabit", topology.LinkMetric{RSSI: 255, Speed: 999}, "999MBit/s"},
		{"zero speed", topology.LinkMetric{RSSI: 255, Speed: 0}, "0MBit/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeLabel(tt.metric); got != tt.want {
				t.Errorf("EdgeLabel(%+v) = %q, want %q", tt.metric, got, tt.want)
			}
		})
	}
}

func TestFixed1(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{0.04, "0.0"},
		{0.05, "0.1"},
		{1.001, "1.0"},
		{3.75, "3.8"},
		{12.34, "12.3"},
	}

	for _, tt := range tests {
		if got := fixed1(tt.in); got != tt.want {
			t.Errorf("fixed1(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
