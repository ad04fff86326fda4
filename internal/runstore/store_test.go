package runstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// #region test-save-get
func TestSaveAndGet(t *testing.T) {
	s := tempDB(t)

	saved, err := s.Save(Run{
		ModelName: "car",
		Mode:      "prob",
		Normalize: true,
		Inputs:    map[string]string{"PRICE": "low", "SAFETY": "high"},
		Outputs:   map[string]string{"CAR": "acc/0.5,good/0.5"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.RunID == "" {
		t.Fatal("expected generated run ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := s.Get(saved.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModelName != "car" || got.Mode != "prob" || !got.Normalize {
		t.Errorf("unexpected run header: %+v", got)
	}
	if diff := cmp.Diff(saved.Inputs, got.Inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(saved.Outputs, got.Outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if got.Error != "" {
		t.Errorf("expected empty error, got %q", got.Error)
	}
}

func TestSaveKeepsError(t *testing.T) {
	s := tempDB(t)

	saved, err := s.Save(Run{RunID: "r1", ModelName: "car", Mode: "fast", Error: "missing input: SAFETY"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get(saved.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Error != "missing input: SAFETY" {
		t.Errorf("Error = %q", got.Error)
	}
	if got.Inputs == nil || len(got.Inputs) != 0 {
		t.Errorf("expected empty inputs map, got %v", got.Inputs)
	}
}

func TestGetNotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDuplicateID(t *testing.T) {
	s := tempDB(t)
	if _, err := s.Save(Run{RunID: "dup", ModelName: "m", Mode: "set"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Save(Run{RunID: "dup", ModelName: "m", Mode: "set"}); err == nil {
		t.Fatal("expected primary key violation")
	}
}
// #endregion test-save-get

// #region test-list
func TestListNewestFirst(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, model := range []string{"car", "rim", "car"} {
		_, err := s.Save(Run{
			RunID:     model + string(rune('a'+i)),
			ModelName: model,
			Mode:      "set",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	all, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.RunID)
	}
	if diff := cmp.Diff([]string{"carc", "rimb", "cara"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.List(1)
	if err != nil {
		t.Fatalf("List(1): %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "carc" {
		t.Errorf("List(1) = %+v", limited)
	}

	cars, err := s.ListByModel("car", 10)
	if err != nil {
		t.Fatalf("ListByModel: %v", err)
	}
	if len(cars) != 2 {
		t.Fatalf("expected 2 car runs, got %d", len(cars))
	}
	for _, r := range cars {
		if r.ModelName != "car" {
			t.Errorf("unexpected model %q", r.ModelName)
		}
	}
	if !cars[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt round-trip = %v", cars[0].CreatedAt)
	}
}
// #endregion test-list

// #region test-unresolved-delete
func TestUnresolvedAndDelete(t *testing.T) {
	s := tempDB(t)

	run, err := s.Save(Run{ModelName: "m", Mode: "prob"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, attr := range []string{"Q", "ROOT"} {
		if err := s.LogUnresolved(UnresolvedEntry{RunID: run.RunID, Attribute: attr, Reason: "no function"}); err != nil {
			t.Fatalf("LogUnresolved: %v", err)
		}
	}
	if err := s.LogUnresolved(UnresolvedEntry{RunID: "nope", Attribute: "X"}); err == nil {
		t.Fatal("expected foreign key violation for unknown run")
	}

	entries, err := s.Unresolved(run.RunID)
	if err != nil {
		t.Fatalf("Unresolved: %v", err)
	}
	if len(entries) != 2 || entries[0].Attribute != "Q" || entries[1].Reason != "no function" {
		t.Errorf("entries = %+v", entries)
	}

	if err := s.Delete(run.RunID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(run.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected run gone, got %v", err)
	}
	entries, err = s.Unresolved(run.RunID)
	if err != nil {
		t.Fatalf("Unresolved after delete: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected cascade delete, got %d entries", len(entries))
	}
	if err := s.Delete(run.RunID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v", err)
	}
}
// #endregion test-unresolved-delete
