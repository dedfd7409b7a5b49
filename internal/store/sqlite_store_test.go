package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "colormaps.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	rec := &Record{
		Name:        "sunset",
		DisplayName: "Sunset",
		Stops:       [][5]float64{{0, 1, 0.5, 0, 1}, {1, 0.2, 0, 0.4, 1}},
		Source:      json.RawMessage(`["orange","indigo"]`),
		FillMode:    "neighboring",
	}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Fatalf("expected a uuid, got %q", rec.ID)
	}
	if rec.Gamma != 1 || rec.CreatedAt.IsZero() {
		t.Fatalf("expected defaults to be filled in: %+v", rec)
	}

	got, err := s.Get("sunset")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("record mismatch (-saved +loaded):\n%s", diff)
	}

	missing, err := s.Get("nope")
	if err != nil || missing != nil {
		t.Fatalf("Get(nope) = %v, %v", missing, err)
	}
}

func TestSaveReplacesByName(t *testing.T) {
	s := newTestStore(t)

	first := &Record{Name: "mine", Stops: [][5]float64{{0, 0, 0, 0, 1}, {1, 1, 1, 1, 1}}}
	if err := s.Save(first); err != nil {
		t.Fatal(err)
	}
	second := &Record{Name: "mine", Stops: [][5]float64{{0, 1, 0, 0, 1}, {1, 0, 0, 1, 1}}, Gamma: 2}
	if err := s.Save(second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("replacement should keep id %q, got %q", first.ID, second.ID)
	}

	got, err := s.Get("mine")
	if err != nil {
		t.Fatal(err)
	}
	if got.Gamma != 2 || got.Stops[0][1] != 1 {
		t.Fatalf("record not replaced: %+v", got)
	}
	if n, err := s.Count(); err != nil || n != 1 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"b", "c", "a"} {
		if err := s.Save(&Record{Name: name, Stops: [][5]float64{{0, 0, 0, 0, 1}}}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range list {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	ok, err := s.Delete("b")
	if err != nil || !ok {
		t.Fatalf("Delete(b) = %v, %v", ok, err)
	}
	ok, err = s.Delete("b")
	if err != nil || ok {
		t.Fatalf("second Delete(b) = %v, %v", ok, err)
	}
	if n, _ := s.Count(); n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}
}

func TestSaveRequiresName(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(&Record{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemoryStore(t *testing.T) {
	s, err := NewStore(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Save(&Record{Name: "x", Stops: [][5]float64{{0, 0, 0, 0, 1}}}); err != nil {
		t.Fatal(err)
	}
	if rec, err := s.Get("x"); err != nil || rec == nil {
		t.Fatalf("Get(x) = %v, %v", rec, err)
	}
}
