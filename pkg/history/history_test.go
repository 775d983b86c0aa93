package history

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kqlmd/pkg/filter"
	"kqlmd/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save(models.Conversion{
		Source:     "kusto-html",
		Query:      "StormEvents | take 10",
		ClusterURL: "https://help.kusto.windows.net/Samples",
		Rows:       10,
		Columns:    3,
		Markdown:   "### Query\n\n```kql\nStormEvents | take 10\n```",
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if saved.ID == "" {
		t.Error("Save() did not assign an ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("Save() did not assign a creation time")
	}

	got, err := store.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for a saved record")
	}

	if got.Query != saved.Query {
		t.Errorf("Query = %q, want %q", got.Query, saved.Query)
	}
	if got.ClusterURL != saved.ClusterURL {
		t.Errorf("ClusterURL = %q, want %q", got.ClusterURL, saved.ClusterURL)
	}
	if got.Source != saved.Source {
		t.Errorf("Source = %q, want %q", got.Source, saved.Source)
	}
	if got.Rows != 10 || got.Columns != 3 {
		t.Errorf("Rows/Columns = %d/%d, want 10/3", got.Rows, got.Columns)
	}
	if got.Markdown != saved.Markdown {
		t.Errorf("Markdown = %q, want %q", got.Markdown, saved.Markdown)
	}
}

func TestGet_ShortPrefix(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(models.Conversion{
		ID:       "deadbeef-0000-0000-0000-000000000000",
		Source:   "text",
		Markdown: "### Results",
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get("deadbeef")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get() did not resolve the short prefix")
	}
	if got.ID != "deadbeef-0000-0000-0000-000000000000" {
		t.Errorf("Get() resolved to %q", got.ID)
	}
}

func TestGet_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("no-such-id")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestGet_AmbiguousPrefix(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{
		"aaaa1111-0000-0000-0000-000000000000",
		"aaaa2222-0000-0000-0000-000000000000",
	} {
		if _, err := store.Save(models.Conversion{ID: id, Source: "text", Markdown: "x"}); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	_, err := store.Get("aaaa")
	if err == nil {
		t.Fatal("Get() expected an error for an ambiguous prefix")
	}
	if !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("Get() error = %v, want mention of ambiguity", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := store.Save(models.Conversion{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Source:    "text",
			Markdown:  "x",
		})
		if err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	all, err := store.List(0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List(0) returned %d records, want 3", len(all))
	}
	if all[0].ID != "c" || all[1].ID != "b" || all[2].ID != "a" {
		t.Errorf("List(0) order = %s, %s, %s, want c, b, a", all[0].ID, all[1].ID, all[2].ID)
	}

	limited, err := store.List(2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("List(2) returned %d records, want 2", len(limited))
	}
	if limited[0].ID != "c" {
		t.Errorf("List(2) first record = %s, want c", limited[0].ID)
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	records := []models.Conversion{
		{
			ID:         "storm",
			CreatedAt:  base,
			Source:     "kusto-html",
			Query:      "StormEvents | summarize count() by State",
			ClusterURL: "https://help.kusto.windows.net/Samples",
			Markdown:   "x",
		},
		{
			ID:         "perf",
			CreatedAt:  base.Add(time.Hour),
			Source:     "kusto-html",
			Query:      "Perf | take 100",
			ClusterURL: "https://prod.kusto.windows.net/Metrics",
			Markdown:   "x",
		},
		{
			ID:        "plain",
			CreatedAt: base.Add(2 * time.Hour),
			Source:    "text",
			Query:     "Heartbeat | count",
			Markdown:  "x",
		},
	}
	for _, rec := range records {
		if _, err := store.Save(rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		filter  filter.ConversionFilter
		limit   int
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "empty filter returns everything newest first",
			filter:  filter.ConversionFilter{},
			wantIDs: []string{"plain", "perf", "storm"},
		},
		{
			name:    "query contains",
			filter:  filter.ConversionFilter{QueryContains: "summarize"},
			wantIDs: []string{"storm"},
		},
		{
			name:    "query regex",
			filter:  filter.ConversionFilter{QueryRegex: "^Perf"},
			wantIDs: []string{"perf"},
		},
		{
			name:    "query fuzzy",
			filter:  filter.ConversionFilter{QueryFuzzy: "hrtbt"},
			wantIDs: []string{"plain"},
		},
		{
			name:    "cluster substring",
			filter:  filter.ConversionFilter{Cluster: "help.kusto"},
			wantIDs: []string{"storm"},
		},
		{
			name:    "source",
			filter:  filter.ConversionFilter{Source: "text"},
			wantIDs: []string{"plain"},
		},
		{
			name:    "since",
			filter:  filter.ConversionFilter{Since: base.Add(30 * time.Minute)},
			wantIDs: []string{"plain", "perf"},
		},
		{
			name:    "limit applies after filtering",
			filter:  filter.ConversionFilter{Source: "kusto-html"},
			limit:   1,
			wantIDs: []string{"perf"},
		},
		{
			name:    "invalid regex",
			filter:  filter.ConversionFilter{QueryRegex: "[invalid("},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(&tt.filter, tt.limit)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Search() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Search() failed: %v", err)
			}

			gotIDs := make([]string, 0, len(got))
			for _, conv := range got {
				gotIDs = append(gotIDs, conv.ID)
			}

			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("Search() returned %v, want %v", gotIDs, tt.wantIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Errorf("Search() returned %v, want %v", gotIDs, tt.wantIDs)
					break
				}
			}
		})
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save(models.Conversion{Source: "text", Markdown: "x"})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if err := store.Delete(saved.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	got, err := store.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != nil {
		t.Error("Delete() left the record behind")
	}

	// Deleting a missing record is not an error.
	if err := store.Delete("no-such-id"); err != nil {
		t.Errorf("Delete() on missing record failed: %v", err)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	for range 3 {
		if _, err := store.Save(models.Conversion{Source: "text", Markdown: "x"}); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	n, err := store.Clear()
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", count)
	}
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	old := models.Conversion{ID: "old", CreatedAt: cutoff.Add(-time.Hour), Source: "text", Markdown: "x"}
	fresh := models.Conversion{ID: "fresh", CreatedAt: cutoff.Add(time.Hour), Source: "text", Markdown: "x"}

	for _, rec := range []models.Conversion{old, fresh} {
		if _, err := store.Save(rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	n, err := store.Prune(cutoff)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}

	remaining, err := store.List(0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "fresh" {
		t.Errorf("Prune() kept %v, want only fresh", remaining)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Count(); err != nil {
		t.Errorf("Count() on fresh store failed: %v", err)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	saved, err := store.Save(models.Conversion{Source: "text", Markdown: "persisted"})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() after Close() failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got == nil {
		t.Fatal("record did not survive reopening the store")
	}
	if got.Markdown != "persisted" {
		t.Errorf("Markdown = %q, want %q", got.Markdown, "persisted")
	}
}
