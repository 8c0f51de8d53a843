package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreLoadAbsent(t *testing.T) {
	store := NewStore(t.TempDir())
	r, err := store.Load("nonexistent")
	if err != nil {
		t.Fatalf("absent report must not error: %v", err)
	}
	if r != nil {
		t.Fatalf("absent report must be nil, got %+v", r)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := os.WriteFile(store.Path("broken"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load("broken")
	if err == nil {
		t.Fatal("corrupt report must error, not pass as first run")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("error = %v, want ErrCorrupt", err)
	}
}

func TestStorePath(t *testing.T) {
	store := NewStore("/tmp/reports")
	want := filepath.Join("/tmp/reports", "report_saas_opportunities.json")
	if got := store.Path("saas_opportunities"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestStoreSaveMergedRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "reports"))

	gen1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run1 := runReport(gen1, oppAnalysis("AI Meeting Notes"), 10)

	saved, newItems, _, err := store.SaveMerged(run1)
	if err != nil {
		t.Fatalf("first SaveMerged failed: %v", err)
	}
	if saved.TotalScans != 1 || newItems != 1 {
		t.Errorf("first run: scans=%d new=%d", saved.TotalScans, newItems)
	}

	// Reload and verify structural identity.
	loaded, err := store.Load("saas_opportunities")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != saved.ID || loaded.TotalScans != saved.TotalScans {
		t.Errorf("round trip changed envelope: %+v vs %+v", loaded, saved)
	}
	opps := loaded.Analysis.Opportunity.Opportunities
	if len(opps) != 1 || opps[0].Title != "AI Meeting Notes" || opps[0].AddedAt != "" {
		t.Errorf("round trip changed items: %+v", opps)
	}

	// Second run merges on top of the stored state.
	gen2 := gen1.AddDate(0, 1, 0)
	run2 := runReport(gen2, oppAnalysis("ai meeting notes", "Invoice Automation"), 20)

	merged, newItems, _, err := store.SaveMerged(run2)
	if err != nil {
		t.Fatalf("second SaveMerged failed: %v", err)
	}
	if merged.TotalScans != 2 || newItems != 1 {
		t.Errorf("second run: scans=%d new=%d, want 2/1", merged.TotalScans, newItems)
	}
	if merged.TotalPostsAnalyzed != 30 {
		t.Errorf("total_posts_analyzed = %d, want 30", merged.TotalPostsAnalyzed)
	}

	reloaded, err := store.Load("saas_opportunities")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	opps = reloaded.Analysis.Opportunity.Opportunities
	if len(opps) != 2 || opps[1].AddedAt == "" {
		t.Errorf("merged items after reload: %+v", opps)
	}
	if len(reloaded.ScanHistory) != 2 {
		t.Errorf("scan history = %d entries, want 2", len(reloaded.ScanHistory))
	}
}
