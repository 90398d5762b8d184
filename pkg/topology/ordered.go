package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Link is one entry of an interface's links object.
type Link struct {
	Remote string     `bson:"remote"`
	Metric LinkMetric `bson:"metric"`
}

// LinkSet is the links object of an interface, keyed by remote interface
// address, in document order.
type LinkSet []Link

// Get returns the metric for remote, if present.
func (ls LinkSet) Get(remote string) (LinkMetric, bool) {
	for _, l := range ls {
		if l.Remote == remote {
			return l.Metric, true
		}
	}
	return LinkMetric{}, false
}

// UnmarshalJSON decodes a JSON object, keeping key order. A repeated key
// keeps its first position and takes the last value.
func (ls *LinkSet) UnmarshalJSON(data []byte) error {
	out := LinkSet{}
	pos := map[string]int{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var m LinkMetric
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("link %s: %w", key, err)
		}
		if i, ok := pos[key]; ok {
			out[i].Metric = m
			return nil
		}
		pos[key] = len(out)
		out = append(out, Link{Remote: key, Metric: m})
		return nil
	})
	if err != nil {
		return err
	}
	*ls = out
	return nil
}

// MarshalJSON encodes the set as a JSON object in slice order.
func (ls LinkSet) MarshalJSON() ([]byte, error) {
	return encodeObject(len(ls), func(i int) (string, any) {
		return ls[i].Remote, ls[i].Metric
	})
}

// NeighborGroup is one category of discovered neighbours.
type NeighborGroup struct {
	Category  string   `bson:"category"`
	Addresses []string `bson:"addresses"`
}

// NeighborGroups is the neighbors.others object, in document order.
type NeighborGroups []NeighborGroup

// UnmarshalJSON decodes a JSON object of string arrays, keeping key order.
// A null array decodes as empty.
func (ng *NeighborGroups) UnmarshalJSON(data []byte) error {
	out := NeighborGroups{}
	pos := map[string]int{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var addrs []string
		if err := json.Unmarshal(raw, &addrs); err != nil {
			return fmt.Errorf("neighbors %s: %w", key, err)
		}
		if addrs == nil {
			addrs = []string{}
		}
		if i, ok := pos[key]; ok {
			out[i].Addresses = addrs
			return nil
		}
		pos[key] = len(out)
		out = append(out, NeighborGroup{Category: key, Addresses: addrs})
		return nil
	})
	if err != nil {
		return err
	}
	*ng = out
	return nil
}

// MarshalJSON encodes the groups as a JSON object in slice order.
func (ng NeighborGroups) MarshalJSON() ([]byte, error) {
	return encodeObject(len(ng), func(i int) (string, any) {
		addrs := ng[i].Addresses
		if addrs == nil {
			addrs = []string{}
		}
		return ng[i].Category, addrs
	})
}

// decodeObject walks the members of a JSON object in order. null and an empty
// array are accepted as an empty object; ubus encodes empty tables either way.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case nil:
		return nil
	case json.Delim('['):
		if end, err := dec.Token(); err != nil || end != json.Delim(']') {
			return fmt.Errorf("expected object, got non-empty array")
		}
		return nil
	case json.Delim('{'):
	default:
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func encodeObject(n int, entry func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range n {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, v := entry(i)
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
