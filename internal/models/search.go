package models

// SearchResultSet holds the outcome of one keyword search over the
// searchable PDF: the ordered distinct 1-based page numbers that
// matched, plus a zero-based cursor into them. A new search replaces
// the set wholesale.
type SearchResultSet struct {
	Keyword string `json:"keyword"`
	Pages   []int  `json:"pages"`
	Cursor  int    `json:"cursor"`
}

// Empty reports whether the search produced no matching pages
func (s *SearchResultSet) Empty() bool {
	return s == nil || len(s.Pages) == 0
}

// Current returns the page under the cursor
func (s *SearchResultSet) Current() (int, bool) {
	if s.Empty() || s.Cursor < 0 || s.Cursor >= len(s.Pages) {
		return 0, false
	}
	return s.Pages[s.Cursor], true
}

// Next advances the cursor. A guarded no-op at the last result.
func (s *SearchResultSet) Next() {
	if !s.Empty() && s.Cursor < len(s.Pages)-1 {
		s.Cursor++
	}
}

// Prev moves the cursor back. A guarded no-op at the first result.
func (s *SearchResultSet) Prev() {
	if !s.Empty() && s.Cursor > 0 {
		s.Cursor--
	}
}
