package archive

import (
	"context"
	"testing"
	"time"

	errs "github.com/matzehuels/meshtower/pkg/errors"
	"github.com/matzehuels/meshtower/pkg/topology"
)

func sampleSnapshot(t *testing.T, al string) *topology.Snapshot {
	t.Helper()
	s, err := topology.Decode([]byte(`{"devices":[{"al_address":"` + al + `",
		"interfaces":[{"address":"A1","links":{"Z9":{"is_bridge":false,"speed":100,"rssi":255},"B1":{"is_bridge":true,"speed":1000,"rssi":255}}}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	first, err := s.Save(ctx, "file.json", sampleSnapshot(t, "AA"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if first.Devices != 1 || first.Interfaces != 1 || first.Links != 2 {
		t.Errorf("counts = %d/%d/%d", first.Devices, first.Interfaces, first.Links)
	}
	time.Sleep(5 * time.Millisecond) // distinct created_at at millisecond precision
	second, err := s.Save(ctx, "http://router/ubus", sampleSnapshot(t, "BB"))
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Fatal("ids not unique")
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	snap, err := got.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Devices[0].ALAddress != "AA" {
		t.Errorf("snapshot = %+v", snap)
	}
	// Link order survives archiving.
	if links := snap.Devices[0].Interfaces[0].Links; links[0].Remote != "Z9" || links[1].Remote != "B1" {
		t.Errorf("links reordered: %+v", links)
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) < 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("List() not newest first: %+v", list)
	}
	if len(list[0].Data) != 0 {
		t.Error("List() should omit snapshot data")
	}

	one, err := s.List(ctx, 1)
	if err != nil || len(one) != 1 {
		t.Errorf("List(1) = %d entries, %v", len(one), err)
	}

	if _, err := s.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("Get(unknown) error = %v, want NOT_FOUND", err)
	}
	if _, err := s.Get(ctx, "not-a-uuid"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Get(malformed) error = %v, want INVALID_INPUT", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	testStore(t, s)
}

func TestMemoryStore_NilSnapshot(t *testing.T) {
	s := NewMemoryStore()
	e, err := s.Save(context.Background(), "empty", nil)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Devices) != 0 || e.Devices != 0 {
		t.Errorf("entry = %+v", e)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	e, err := s.Save(context.Background(), "x", sampleSnapshot(t, "AA"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(context.Background(), e.ID)
	got.Data[0] = 'X'
	again, _ := s.Get(context.Background(), e.ID)
	if again.Data[0] == 'X' {
		t.Error("Get() exposed internal buffer")
	}
}
