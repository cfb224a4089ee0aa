package interfaces

import "github.com/ternarybob/charta/internal/models"

// SearchService performs keyword search over the searchable PDF,
// stamps matching pages with a highlight marker, and maintains the
// paging cursor over the results.
type SearchService interface {
	// Find searches for the keyword (case-sensitive literal match),
	// highlights matching pages in the searchable PDF, and replaces the
	// current result set. Returns the new result set, which is empty
	// when nothing matched.
	Find(keyword string) (*models.SearchResultSet, error)

	// Next advances the result cursor. Guarded no-op at the last result.
	Next() *models.SearchResultSet

	// Prev moves the result cursor back. Guarded no-op at the first result.
	Prev() *models.SearchResultSet

	// Clear removes all highlights by rebuilding the searchable PDF and
	// empties the result set.
	Clear() error

	// State returns the current result set, nil when no search is active
	State() *models.SearchResultSet
}
