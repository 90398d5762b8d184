package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSON decodes a topology snapshot from r and normalizes it.
//
// An empty document, null, or an object without "devices" yields a snapshot
// with zero devices. Unknown fields are ignored. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data)
}

// Decode is [ReadJSON] over a byte slice.
func Decode(data []byte) (*Snapshot, error) {
	var s *Snapshot
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	}
	return s.Normalize(), nil
}

// ImportJSON reads a snapshot from the file at path. A path of "-" reads
// standard input.
func ImportJSON(path string) (*Snapshot, error) {
	if path == "-" {
		return ReadJSON(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes s as indented JSON to w.
func WriteJSON(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Normalize()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the compact JSON encoding of s. It is used for cache
// payloads and content hashes.
func Marshal(s *Snapshot) ([]byte, error) {
	return json.Marshal(s.Normalize())
}
