package match

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "corporate finance", b: "corporate finance", want: 1},
		{name: "empty left", a: "", b: "corporate finance", want: 0},
		{name: "empty right", a: "corporate finance", b: "", want: 0},
		{name: "both empty", a: "", b: "", want: 0},
		// Edit distance 1 over 3 runes, no shared tokens:
		// 0.6*(1-1/3) + 0.4*0 = 0.4.
		{name: "single word one edit", a: "abc", b: "abd", want: 0.4},
		// Edit distance 1 over 3 runes, one of three tokens shared:
		// 0.6*(2/3) + 0.4*(1/3).
		{name: "partial token overlap", a: "a b", b: "a c", want: 0.4 + 0.4/3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityBoundsAndOrdering(t *testing.T) {
	pairs := [][2]string{
		{"corporate finance", "corporate finance: theory"},
		{"investment banking valuation", "investment banking practice"},
		{"コーポレート ファイナンス", "コーポレートファイナンス"},
		{"quantum gardening", "corporate finance"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %f out of [0,1]", p[0], p[1], got)
		}
	}

	near := Similarity("corporate finance", "corporate finance: theory")
	far := Similarity("corporate finance", "quantum gardening")
	if near <= far {
		t.Errorf("near pair scored %f, far pair %f; want near > far", near, far)
	}
}

func TestAuthorAgreement(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{
			name: "exact match",
			a:    []string{"John Smith"},
			b:    []string{"John Smith"},
			want: 1,
		},
		{
			name: "order insensitive",
			a:    []string{"Jane Doe", "John Smith"},
			b:    []string{"John Smith", "Jane Doe"},
			want: 1,
		},
		{
			name: "partial name containment",
			a:    []string{"山田"},
			b:    []string{"山田太郎"},
			want: 1,
		},
		{
			name: "single character name claims no containment",
			a:    []string{"李"},
			b:    []string{"張李人"},
			want: 0,
		},
		{
			name: "transcription variant",
			a:    []string{"Jon Smith"},
			b:    []string{"John Smith"},
			want: 1,
		},
		{
			name: "one of two matched",
			a:    []string{"John Smith", "Jane Doe"},
			b:    []string{"John Smith"},
			want: 0.5,
		},
		{
			name: "disjoint",
			a:    []string{"John Smith"},
			b:    []string{"Quentin Zhao"},
			want: 0,
		},
		{
			name: "empty side is no evidence",
			a:    nil,
			b:    []string{"John Smith"},
			want: 0,
		},
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AuthorAgreement(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AuthorAgreement(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
