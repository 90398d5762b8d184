// Package topology models a mesh network topology snapshot as reported by the
// umap daemon's get_topology call.
//
// # Overview
//
// A [Snapshot] is a device-centric description of an IEEE 1905.1 / EasyMesh
// network. Each [Device] is keyed by its abstraction-layer (AL) address and
// lists its interfaces, the peer links each interface observes, and the
// non-mesh neighbours the device has discovered:
//
//	{
//	  "devices": [
//	    {
//	      "al_address": "02:00:00:00:00:aa",
//	      "identification": {"friendly_name": "Living Room"},
//	      "interfaces": [
//	        {
//	          "address": "02:00:00:00:01:aa",
//	          "links": {
//	            "02:00:00:00:01:bb": {"is_bridge": false, "speed": 1000, "rssi": 255}
//	          }
//	        }
//	      ],
//	      "neighbors": {"others": {"eth0": ["aa:bb:cc:dd:ee:ff"]}}
//	    }
//	  ]
//	}
//
// # Optional fields
//
// identification, interfaces, links and neighbors may all be absent. Absent
// collections decode as empty; [Snapshot.Normalize] replaces any remaining nil
// slices with empty ones so that re-encoded snapshots always carry arrays.
// This is the only place optional fields are resolved.
//
// # Ordering
//
// JSON objects ("links", "neighbors.others") are decoded into ordered slices
// ([LinkSet], [NeighborGroups]) that keep the order keys appear in the source
// document. Graph output order depends on it.
//
// # Address case
//
// Addresses are compared as opaque strings. If a data source mixes upper and
// lower case MACs, [Snapshot.FoldAddressCase] returns a copy with every address
// lower-cased so that both observations of a link collapse to one pair.
package topology
