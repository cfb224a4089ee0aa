package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// SearchHandler exposes keyword search over the searchable PDF and
// the result paging cursor.
type SearchHandler struct {
	searchService interfaces.SearchService
	logger        arbor.ILogger
}

func NewSearchHandler(searchService interfaces.SearchService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

// searchResponse shapes a result set for the Triage view, including
// the page currently under the cursor
type searchResponse struct {
	Keyword     string `json:"keyword"`
	Pages       []int  `json:"pages"`
	Cursor      int    `json:"cursor"`
	CurrentPage int    `json:"current_page,omitempty"`
	Matches     int    `json:"matches"`
}

func toSearchResponse(set *models.SearchResultSet) *searchResponse {
	if set == nil {
		return nil
	}
	resp := &searchResponse{
		Keyword: set.Keyword,
		Pages:   set.Pages,
		Cursor:  set.Cursor,
		Matches: len(set.Pages),
	}
	if page, ok := set.Current(); ok {
		resp.CurrentPage = page
	}
	return resp
}

// FindHandler handles POST /api/search
func (h *SearchHandler) FindHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.searchService.Find(req.Keyword)
	if err != nil {
		WriteStageError(w, http.StatusBadRequest, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSearchResponse(result))
}

// NextHandler handles POST /api/search/next
func (h *SearchHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.writeState(w, h.searchService.Next())
}

// PrevHandler handles POST /api/search/prev
func (h *SearchHandler) PrevHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.writeState(w, h.searchService.Prev())
}

// StateHandler handles GET /api/search/state
func (h *SearchHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	h.writeState(w, h.searchService.State())
}

// ClearHandler handles POST /api/search/clear
func (h *SearchHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.searchService.Clear(); err != nil {
		WriteStageError(w, http.StatusInternalServerError, err)
		return
	}
	WriteSuccess(w, "search cleared")
}

func (h *SearchHandler) writeState(w http.ResponseWriter, set *models.SearchResultSet) {
	if set == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	WriteJSON(w, http.StatusOK, toSearchResponse(set))
}
