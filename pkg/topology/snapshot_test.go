package topology

import (
	"bytes"
	"strings"
	"testing"
)

const sampleSnapshot = `{
  "devices": [
    {
      "al_address": "AA",
      "identification": {"friendly_name": "Gateway"},
      "interfaces": [
        {
          "address": "A1",
          "links": {
            "Z9": {"is_bridge": true, "speed": 100, "rssi": 255},
            "B1": {"is_bridge": false, "speed": 1000, "rssi": 255}
          }
        }
      ],
      "neighbors": {"others": {"lan": ["CC", "DD"], "wlan": ["EE"]}}
    },
    {
      "al_address": "BB",
      "interfaces": [{"address": "B1"}]
    }
  ],
  "links": []
}`

func TestReadJSON_Sample(t *testing.T) {
	s, err := ReadJSON(strings.NewReader(sampleSnapshot))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	if len(s.Devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(s.Devices))
	}

	d := s.Devices[0]
	if got := d.DisplayName(); got != "Gateway" {
		t.Errorf("DisplayName() = %q, want %q", got, "Gateway")
	}

	links := d.Interfaces[0].Links
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	if links[0].Remote != "Z9" || links[1].Remote != "B1" {
		t.Errorf("link order = [%s %s], want [Z9 B1]", links[0].Remote, links[1].Remote)
	}
	if m, ok := links.Get("Z9"); !ok || !m.IsBridge || m.Speed != 100 {
		t.Errorf("Get(Z9) = %+v, %v", m, ok)
	}

	groups := d.Neighbors.Others
	if len(groups) != 2 || groups[0].Category != "lan" || groups[1].Category != "wlan" {
		t.Errorf("neighbor groups = %+v", groups)
	}
	if d.NeighborCount() != 3 {
		t.Errorf("NeighborCount() = %d, want 3", d.NeighborCount())
	}

	bb := s.Devices[1]
	if got := bb.DisplayName(); got != "BB" {
		t.Errorf("DisplayName() fallback = %q, want %q", got, "BB")
	}
	if bb.Interfaces[0].Links == nil {
		t.Error("absent links should normalize to an empty set")
	}
	if bb.Neighbors.Others == nil {
		t.Error("absent neighbors should normalize to an empty set")
	}
}

func TestReadJSON_Empty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty document", ""},
		{"whitespace", "  \n"},
		{"null", "null"},
		{"empty object", "{}"},
		{"null devices", `{"devices": null}`},
		{"empty devices", `{"devices": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadJSON(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadJSON() error: %v", err)
			}
			if s == nil || s.Devices == nil || len(s.Devices) != 0 {
				t.Errorf("ReadJSON(%q) = %+v, want zero devices", tt.input, s)
			}
		})
	}
}

func TestReadJSON_OptionalShapes(t *testing.T) {
	input := `{"devices": [{
		"al_address": "AA",
		"identification": null,
		"interfaces": [{"address": "A1", "links": []}, {"address": "A2", "links": null}],
		"neighbors": {"others": {"lan": null}}
	}]}`

	s, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	d := s.Devices[0]
	if d.DisplayName() != "AA" {
		t.Errorf("DisplayName() = %q", d.DisplayName())
	}
	for _, iface := range d.Interfaces {
		if iface.Links == nil || len(iface.Links) != 0 {
			t.Errorf("interface %s links = %v, want empty", iface.Address, iface.Links)
		}
	}
	if g := d.Neighbors.Others; len(g) != 1 || g[0].Addresses == nil || len(g[0].Addresses) != 0 {
		t.Errorf("neighbors = %+v, want one empty group", g)
	}
}

func TestReadJSON_EmptyFriendlyNameKept(t *testing.T) {
	s, err := ReadJSON(strings.NewReader(`{"devices":[{"al_address":"AA","identification":{"friendly_name":""}}]}`))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if got := s.Devices[0].DisplayName(); got != "" {
		t.Errorf("DisplayName() = %q, want empty string", got)
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"devices": [`},
		{"links not object", `{"devices":[{"al_address":"AA","interfaces":[{"address":"A1","links":[1]}]}]}`},
		{"metric not numeric", `{"devices":[{"al_address":"AA","interfaces":[{"address":"A1","links":{"B1":{"speed":"fast"}}}]}]}`},
		{"neighbors not list", `{"devices":[{"al_address":"AA","neighbors":{"others":{"lan":"CC"}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.input)); err == nil {
				t.Errorf("ReadJSON(%q) expected error", tt.input)
			}
		})
	}
}

func TestLinkSet_DuplicateKey(t *testing.T) {
	var ls LinkSet
	err := ls.UnmarshalJSON([]byte(`{"B1":{"speed":10,"rssi":255},"C1":{"speed":20,"rssi":255},"B1":{"speed":30,"rssi":255}}`))
	if err != nil {
		t.Fatalf("UnmarshalJSON() error: %v", err)
	}
	if len(ls) != 2 {
		t.Fatalf("len = %d, want 2", len(ls))
	}
	if ls[0].Remote != "B1" || ls[0].Metric.Speed != 30 {
		t.Errorf("ls[0] = %+v, want B1 with last value", ls[0])
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	s, err := ReadJSON(strings.NewReader(sampleSnapshot))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(s, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	out := buf.String()
	if strings.Index(out, `"Z9"`) > strings.Index(out, `"B1"`) {
		t.Error("WriteJSON() should keep link order")
	}

	again, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("re-read error: %v", err)
	}
	a, _ := Marshal(s)
	b, _ := Marshal(again)
	if !bytes.Equal(a, b) {
		t.Errorf("round trip mismatch:\n%s\n%s", a, b)
	}
}

func TestFoldAddressCase(t *testing.T) {
	s, err := ReadJSON(strings.NewReader(`{"devices":[{
		"al_address":"AA:BB",
		"interfaces":[{"address":"A1:FF","links":{"B1:EE":{"speed":100,"rssi":255}}}],
		"neighbors":{"others":{"LAN":["CC:DD"]}}
	}]}`))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	f := s.FoldAddressCase()
	d := f.Devices[0]
	if d.ALAddress != "aa:bb" {
		t.Errorf("ALAddress = %q", d.ALAddress)
	}
	if d.Interfaces[0].Address != "a1:ff" || d.Interfaces[0].Links[0].Remote != "b1:ee" {
		t.Errorf("interface = %+v", d.Interfaces[0])
	}
	if g := d.Neighbors.Others[0]; g.Category != "LAN" || g.Addresses[0] != "cc:dd" {
		t.Errorf("neighbors = %+v, category must be kept", g)
	}
	if s.Devices[0].ALAddress != "AA:BB" {
		t.Error("FoldAddressCase() must not modify the receiver")
	}
}

func TestCounts(t *testing.T) {
	s, _ := ReadJSON(strings.NewReader(sampleSnapshot))
	devices, ifaces, links := s.Counts()
	if devices != 2 || ifaces != 2 || links != 2 {
		t.Errorf("Counts() = %d, %d, %d; want 2, 2, 2", devices, ifaces, links)
	}

	var nilSnap *Snapshot
	if d, i, l := nilSnap.Counts(); d+i+l != 0 {
		t.Error("Counts() on nil should be zero")
	}
}

func TestLinkMetric_Wireless(t *testing.T) {
	if (LinkMetric{RSSI: RSSIUnknown}).Wireless() {
		t.Error("rssi 255 should not be wireless")
	}
	if !(LinkMetric{RSSI: 40}).Wireless() {
		t.Error("rssi 40 should be wireless")
	}
}
