package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/models"
)

type stubSearchService struct {
	state   *models.SearchResultSet
	findErr error
	cleared bool
}

func (s *stubSearchService) Find(keyword string) (*models.SearchResultSet, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.state = &models.SearchResultSet{Keyword: keyword, Pages: []int{2, 5}, Cursor: 0}
	return s.state, nil
}

func (s *stubSearchService) Next() *models.SearchResultSet {
	s.state.Next()
	return s.state
}

func (s *stubSearchService) Prev() *models.SearchResultSet {
	s.state.Prev()
	return s.state
}

func (s *stubSearchService) Clear() error {
	s.cleared = true
	s.state = nil
	return nil
}

func (s *stubSearchService) State() *models.SearchResultSet { return s.state }

func TestFindHandler(t *testing.T) {
	h := NewSearchHandler(&stubSearchService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"keyword":"Glucose"}`))
	rec := httptest.NewRecorder()
	h.FindHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"keyword":"Glucose"`)
	assert.Contains(t, body, `"pages":[2,5]`)
	assert.Contains(t, body, `"current_page":2`)
	assert.Contains(t, body, `"matches":2`)
}

func TestFindHandlerRejectsGet(t *testing.T) {
	h := NewSearchHandler(&stubSearchService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	h.FindHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFindHandlerBadBody(t *testing.T) {
	h := NewSearchHandler(&stubSearchService{}, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.FindHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindHandlerStageError(t *testing.T) {
	stub := &stubSearchService{findErr: models.NewSearchError(assert.AnError)}
	h := NewSearchHandler(stub, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"keyword":"x"}`))
	rec := httptest.NewRecorder()
	h.FindHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stage":"search"`)
}

func TestCursorHandlers(t *testing.T) {
	stub := &stubSearchService{}
	h := NewSearchHandler(stub, arbor.NewLogger())

	// establish a result set first
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"keyword":"Glucose"}`))
	h.FindHandler(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h.NextHandler(rec, httptest.NewRequest(http.MethodPost, "/api/search/next", nil))
	assert.Contains(t, rec.Body.String(), `"cursor":1`)

	rec = httptest.NewRecorder()
	h.PrevHandler(rec, httptest.NewRequest(http.MethodPost, "/api/search/prev", nil))
	assert.Contains(t, rec.Body.String(), `"cursor":0`)
}

func TestStateHandlerInactive(t *testing.T) {
	h := NewSearchHandler(&stubSearchService{}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.StateHandler(rec, httptest.NewRequest(http.MethodGet, "/api/search/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":false`)
}

func TestClearHandler(t *testing.T) {
	stub := &stubSearchService{state: &models.SearchResultSet{Keyword: "x", Pages: []int{1}}}
	h := NewSearchHandler(stub, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.ClearHandler(rec, httptest.NewRequest(http.MethodPost, "/api/search/clear", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stub.cleared)
}
