package topology

import "strings"

// RSSIUnknown is the rssi sentinel reported for wired links and links whose
// signal strength is not known.
const RSSIUnknown = 255

// Snapshot is one get_topology result.
type Snapshot struct {
	Devices []Device `json:"devices" bson:"devices"`
}

// Device is one mesh network member.
type Device struct {
	ALAddress      string         `json:"al_address" bson:"al_address"`
	Identification Identification `json:"identification" bson:"identification"`
	Interfaces     []Interface    `json:"interfaces" bson:"interfaces"`
	Neighbors      Neighbors      `json:"neighbors" bson:"neighbors"`
}

// Identification carries the optional human-facing attributes of a device.
type Identification struct {
	FriendlyName *string `json:"friendly_name,omitempty" bson:"friendly_name,omitempty"`
}

// Neighbors holds the non-mesh neighbours a device has discovered, grouped by
// category label (usually the local interface name).
type Neighbors struct {
	Others NeighborGroups `json:"others" bson:"others"`
}

// Interface is one network attachment of a device.
type Interface struct {
	Address string  `json:"address" bson:"address"`
	Links   LinkSet `json:"links" bson:"links"`
}

// LinkMetric describes one observed interface-to-interface link.
type LinkMetric struct {
	IsBridge bool `json:"is_bridge" bson:"is_bridge"`
	Speed    int  `json:"speed" bson:"speed"`
	RSSI     int  `json:"rssi" bson:"rssi"`
}

// Wireless reports whether the metric carries a signal strength.
func (m LinkMetric) Wireless() bool { return m.RSSI != RSSIUnknown }

// DisplayName returns the friendly name, or the AL address when none was
// reported. An empty friendly name is kept as-is.
func (d *Device) DisplayName() string {
	if d.Identification.FriendlyName != nil {
		return *d.Identification.FriendlyName
	}
	return d.ALAddress
}

// NeighborCount returns the number of neighbour addresses across all categories.
func (d *Device) NeighborCount() int {
	n := 0
	for _, g := range d.Neighbors.Others {
		n += len(g.Addresses)
	}
	return n
}

// Normalize replaces nil collections with empty ones, in place, and returns s.
// A nil receiver yields an empty snapshot.
func (s *Snapshot) Normalize() *Snapshot {
	if s == nil {
		return &Snapshot{Devices: []Device{}}
	}
	if s.Devices == nil {
		s.Devices = []Device{}
	}
	for i := range s.Devices {
		d := &s.Devices[i]
		if d.Interfaces == nil {
			d.Interfaces = []Interface{}
		}
		for j := range d.Interfaces {
			if d.Interfaces[j].Links == nil {
				d.Interfaces[j].Links = LinkSet{}
			}
		}
		if d.Neighbors.Others == nil {
			d.Neighbors.Others = NeighborGroups{}
		}
		for j := range d.Neighbors.Others {
			if d.Neighbors.Others[j].Addresses == nil {
				d.Neighbors.Others[j].Addresses = []string{}
			}
		}
	}
	return s
}

// FoldAddressCase returns a deep copy of s with every AL, interface, link and
// neighbour address lower-cased.
func (s *Snapshot) FoldAddressCase() *Snapshot {
	if s == nil {
		return &Snapshot{Devices: []Device{}}
	}
	out := &Snapshot{Devices: make([]Device, len(s.Devices))}
	for i, d := range s.Devices {
		nd := Device{
			ALAddress:      foldAddress(d.ALAddress),
			Identification: d.Identification,
			Interfaces:     make([]Interface, len(d.Interfaces)),
			Neighbors:      Neighbors{Others: make(NeighborGroups, len(d.Neighbors.Others))},
		}
		for j, iface := range d.Interfaces {
			links := make(LinkSet, len(iface.Links))
			for k, l := range iface.Links {
				links[k] = Link{Remote: foldAddress(l.Remote), Metric: l.Metric}
			}
			nd.Interfaces[j] = Interface{Address: foldAddress(iface.Address), Links: links}
		}
		for j, g := range d.Neighbors.Others {
			addrs := make([]string, len(g.Addresses))
			for k, a := range g.Addresses {
				addrs[k] = foldAddress(a)
			}
			nd.Neighbors.Others[j] = NeighborGroup{Category: g.Category, Addresses: addrs}
		}
		out.Devices[i] = nd
	}
	return out
}

// Counts returns the number of devices, interfaces and interface-level link
// observations in s.
func (s *Snapshot) Counts() (devices, interfaces, links int) {
	if s == nil {
		return 0, 0, 0
	}
	for _, d := range s.Devices {
		interfaces += len(d.Interfaces)
		for _, iface := range d.Interfaces {
			links += len(iface.Links)
		}
	}
	return len(s.Devices), interfaces, links
}

func foldAddress(a string) string { return strings.ToLower(a) }
