package record

// BookRecord is a single bibliographic record as gathered from a source.
// Records are immutable once indexed; "updating" a record means replacing
// the entry in the master corpus, never mutating it in place.
type BookRecord struct {
	// ID is the work identifier within the master corpus. Empty for
	// records that have not been deduplicated yet; the master builder
	// assigns one on ingest.
	ID string `json:"work_id,omitempty" parquet:"work_id,optional"`

	Title    string   `json:"title" parquet:"title"`
	Subtitle string   `json:"subtitle,omitempty" parquet:"subtitle,optional"`
	Authors  []string `json:"authors,omitempty" parquet:"authors,list"`

	// ISBN is the raw identifier string as found in the source,
	// hyphens and all. Validation happens in the isbn package.
	ISBN string `json:"isbn,omitempty" parquet:"isbn,optional"`

	// Edition is the free-text edition descriptor, e.g. "3rd Edition"
	// or "第3版".
	Edition string `json:"edition,omitempty" parquet:"edition,optional"`

	Year int `json:"year,omitempty" parquet:"year,optional"`

	// Sources lists the data sources this record was observed in.
	Sources []string `json:"data_sources,omitempty" parquet:"data_sources,list"`
}

// FullTitle returns the title with the subtitle appended, when the
// subtitle is carried as a separate field rather than embedded.
func (r BookRecord) FullTitle() string {
	if r.Subtitle == "" {
		return r.Title
	}
	return r.Title + ": " + r.Subtitle
}

// PrimaryAuthor returns the first author, or "" for anonymous records.
func (r BookRecord) PrimaryAuthor() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0]
}
