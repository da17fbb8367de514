package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *stipple.Result {
	return &stipple.Result{
		Width:     64,
		Height:    48,
		Requested: 3,
		Points:    []stipple.Point{{X: 1.25, Y: 2.5}, {X: 30.123456789, Y: 0}, {X: 63, Y: 47}},
		Radii:     []float64{0.5641895835477563, 1.1283791670955126, 0},
		Colors:    []stipple.RGB{{R: 10, G: 20, B: 30}, {R: 255}, {G: 128, B: 64}},
		Costs:     []float64{812.5, 640.25, 639.0000001},
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	want := sampleResult()
	if err := s.Put(ctx, "k1", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Get reported a miss after Put")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestStore_Miss(t *testing.T) {
	s := openTestStore(t, ":memory:")

	got, ok, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || got != nil {
		t.Errorf("miss returned (%v, %v)", got, ok)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ":memory:")

	first := sampleResult()
	second := sampleResult()
	second.Points = second.Points[:1]
	second.Radii = second.Radii[:1]
	second.Colors = second.Colors[:1]

	if err := s.Put(ctx, "k", first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "k", second); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, _, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("got %d points, want the replacement's 1", got.Len())
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestStore_PutNil(t *testing.T) {
	s := openTestStore(t, ":memory:")
	if err := s.Put(context.Background(), "k", nil); err == nil {
		t.Error("Put(nil) should fail")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Put(ctx, "persist", sampleResult()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openTestStore(t, path)
	if _, ok, err := reopened.Get(ctx, "persist"); err != nil || !ok {
		t.Errorf("entry lost after reopen: ok=%v err=%v", ok, err)
	}
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ":memory:")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if err := s.Put(ctx, "old", sampleResult()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	if err := s.Put(ctx, "new", sampleResult()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	removed, err := s.Prune(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
	if _, ok, _ := s.Get(ctx, "old"); ok {
		t.Error("old entry survived Prune")
	}
	if _, ok, _ := s.Get(ctx, "new"); !ok {
		t.Error("new entry was pruned")
	}
}

func TestKey(t *testing.T) {
	type params struct {
		Dots int     `json:"dots"`
		Seed uint64  `json:"seed"`
		Mode string  `json:"mode"`
		Blur float64 `json:"blur"`
	}
	base := params{Dots: 2000, Seed: 42, Mode: "luma"}

	k := Key("abc", base)
	if k != Key("abc", base) {
		t.Error("Key is not deterministic")
	}
	if len(k) != len("stipple:")+64 {
		t.Errorf("key length: got %d", len(k))
	}

	variants := []struct {
		name   string
		digest string
		p      params
	}{
		{"digest", "abd", base},
		{"dots", "abc", params{Dots: 2001, Seed: 42, Mode: "luma"}},
		{"seed", "abc", params{Dots: 2000, Seed: 43, Mode: "luma"}},
		{"mode", "abc", params{Dots: 2000, Seed: 42, Mode: "lab"}},
		{"blur", "abc", params{Dots: 2000, Seed: 42, Mode: "luma", Blur: 0.5}},
	}
	for _, v := range variants {
		if Key(v.digest, v.p) == k {
			t.Errorf("changing %s did not change the key", v.name)
		}
	}
}
