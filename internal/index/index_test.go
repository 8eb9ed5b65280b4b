package index

import (
	"strings"
	"testing"

	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

func testRecords() []record.BookRecord {
	return []record.BookRecord{
		{
			ID:      "rec_a",
			Title:   "Corporate Finance",
			Authors: []string{"John Smith"},
			ISBN:    "9781234567890",
			Year:    2018,
		},
		{
			ID:    "rec_b",
			Title: "コーポレートファイナンス",
			ISBN:  "9784873119465",
		},
		{
			ID:       "rec_c",
			Title:    "Corporate Finance",
			Subtitle: "Theory and Practice",
		},
	}
}

func TestBuildAndLookup(t *testing.T) {
	ix := New()
	if err := ix.Build(testRecords()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := ix.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	rec, ok := ix.ByISBN("9781234567890")
	if !ok || rec.ID != "rec_a" {
		t.Errorf("ByISBN = (%q, %v), want rec_a", rec.ID, ok)
	}
	if _, ok := ix.ByISBN("9780000000000"); ok {
		t.Error("ByISBN matched an unindexed code")
	}

	bucket := ix.ByPrefix("978123456789")
	if len(bucket) != 1 || bucket[0].ID != "rec_a" {
		t.Errorf("ByPrefix returned %d records, want [rec_a]", len(bucket))
	}

	exact := ix.ByKey("corporate finance", false)
	if len(exact) != 1 || exact[0].ID != "rec_a" {
		t.Errorf("exact bucket = %v, want [rec_a]", ids(exact))
	}

	// rec_c drops its subtitle at the aggressive level and joins rec_a.
	agg := ix.ByKey("corporatefinance", true)
	if len(agg) != 2 {
		t.Fatalf("aggressive bucket = %v, want [rec_a rec_c]", ids(agg))
	}
	if agg[0].ID != "rec_a" || agg[1].ID != "rec_c" {
		t.Errorf("aggressive bucket = %v, want [rec_a rec_c]", ids(agg))
	}
}

func TestBuildRejectsDuplicateID(t *testing.T) {
	records := []record.BookRecord{
		{ID: "rec_a", Title: "Corporate Finance"},
		{ID: "rec_a", Title: "Something Else"},
	}

	err := New().Build(records)
	if err == nil {
		t.Fatal("Build accepted a duplicate record ID")
	}
	if !strings.Contains(err.Error(), "rec_a") {
		t.Errorf("error %q does not name the duplicate ID", err)
	}
}

func TestAddAssignsSequentialID(t *testing.T) {
	ix := New()
	if err := ix.Add(record.BookRecord{Title: "Corporate Finance"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Add(record.BookRecord{Title: "Security Analysis"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	records := ix.Records()
	if records[0].ID != "rec_00001" || records[1].ID != "rec_00002" {
		t.Errorf("assigned IDs = %v, want [rec_00001 rec_00002]", ids(records))
	}
}

func TestByISBNFirstRecordWins(t *testing.T) {
	ix := New()
	records := []record.BookRecord{
		{ID: "rec_a", Title: "Corporate Finance", ISBN: "9781234567890"},
		{ID: "rec_b", Title: "Corporate Finance 2024 printing", ISBN: "9781234567890"},
	}
	if err := ix.Build(records); err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec, ok := ix.ByISBN("9781234567890")
	if !ok || rec.ID != "rec_a" {
		t.Errorf("ByISBN = (%q, %v), want first-indexed rec_a", rec.ID, ok)
	}
}

func TestKeys(t *testing.T) {
	ix := New()
	if err := ix.Build(testRecords()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	exact, agg, ok := ix.Keys("rec_c")
	if !ok {
		t.Fatal("Keys(rec_c) not found")
	}
	if exact != "corporate finance: theory and practice" {
		t.Errorf("exact key = %q", exact)
	}
	if agg != "corporatefinance" {
		t.Errorf("aggressive key = %q", agg)
	}

	if _, _, ok := ix.Keys("rec_zzz"); ok {
		t.Error("Keys found an unindexed record")
	}
}

func TestBlockingTokens(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want []string
	}{
		{
			name: "words with stopword and short token dropped",
			key:  "corporate finance edition 3",
			want: []string{"corporate", "finance"},
		},
		{
			name: "leading article dropped",
			key:  "the intelligent investor",
			want: []string{"intelligent", "investor"},
		},
		{
			name: "cjk runs become trigrams",
			key:  "コーポレート ファイナンス",
			want: []string{
				"コーポ", "ーポレ", "ポレー", "レート",
				"ファイ", "ァイナ", "イナン", "ナンス",
			},
		},
		{
			name: "short cjk run kept whole",
			key:  "金融",
			want: []string{"金融"},
		},
		{
			name: "duplicates emitted once",
			key:  "finance finance",
			want: []string{"finance"},
		},
		{
			name: "empty key",
			key:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlockingTokens(tt.key)
			if len(got) != len(tt.want) {
				t.Fatalf("BlockingTokens(%q) = %v, want %v", tt.key, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFuzzyCandidates(t *testing.T) {
	ix := New()
	records := []record.BookRecord{
		{ID: "rec_a", Title: "Investment Banking Valuation"},
		{ID: "rec_b", Title: "Investment Banking Practice"},
		{ID: "rec_c", Title: "Quantum Gardening"},
	}
	if err := ix.Build(records); err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := ix.FuzzyCandidates("investment banking valuation")
	if len(got) != 2 {
		t.Fatalf("candidates = %v, want [rec_a rec_b]", ids(got))
	}
	// Best token overlap first.
	if got[0].ID != "rec_a" || got[1].ID != "rec_b" {
		t.Errorf("candidates = %v, want [rec_a rec_b]", ids(got))
	}

	if got := ix.FuzzyCandidates(""); got != nil {
		t.Errorf("empty key produced candidates: %v", ids(got))
	}
}

func TestStats(t *testing.T) {
	ix := New()
	if err := ix.Build(testRecords()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	stats := ix.Stats()
	if stats.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", stats.TotalRecords)
	}
	if stats.WithIdentifier != 2 {
		t.Errorf("WithIdentifier = %d, want 2", stats.WithIdentifier)
	}
	if stats.PrefixBuckets != 2 {
		t.Errorf("PrefixBuckets = %d, want 2", stats.PrefixBuckets)
	}
	if stats.ExactBuckets != 3 {
		t.Errorf("ExactBuckets = %d, want 3", stats.ExactBuckets)
	}
	if stats.AggressiveBuckets != 2 {
		t.Errorf("AggressiveBuckets = %d, want 2", stats.AggressiveBuckets)
	}
	if stats.BlockingTokens == 0 {
		t.Error("BlockingTokens = 0, want > 0")
	}
}

func ids(records []record.BookRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}
