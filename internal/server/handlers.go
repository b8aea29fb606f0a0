// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/profiledir/internal/engine"
	"github.com/pdiddy/profiledir/internal/labels"
	"github.com/pdiddy/profiledir/pkg/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Stable machine-readable error codes.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeRateLimited = "rate_limited"
	codeInternal    = "internal_error"
	codeSearch      = "search_failed"
)

// errorResponse is the envelope every failing endpoint returns.
type errorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// handler serves the public API over an opened search store.
type handler struct {
	store *engine.Store
	table *labels.Table
}

// researcherDTO is the wire shape of one researcher. Org collapses the
// two affiliation columns into one list.
type researcherDTO struct {
	ID         string          `json:"id"`
	NameJA     string          `json:"name_ja"`
	NameEN     string          `json:"name_en"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	Org        []string        `json:"org"`
	Position   string          `json:"position"`
	ProfileURL string          `json:"profile_url"`
	Snippets   []types.Snippet `json:"snippets"`
}

func toDTO(r types.Researcher, snippets []types.Snippet) researcherDTO {
	if snippets == nil {
		snippets = []types.Snippet{}
	}
	org := r.Orgs()
	if org == nil {
		org = []string{}
	}
	return researcherDTO{
		ID:         r.ID,
		NameJA:     r.NameJA,
		NameEN:     r.NameEN,
		AvatarURL:  r.AvatarURL,
		Org:        org,
		Position:   r.Position,
		ProfileURL: r.ProfileURL,
		Snippets:   snippets,
	}
}

// parseOrgs splits the comma-separated org filter, dropping blanks.
func parseOrgs(raw string) []string {
	if raw == "" {
		return nil
	}
	var orgs []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			orgs = append(orgs, o)
		}
	}
	return orgs
}

// parsePositiveInt reads an integer query parameter, falling back to
// def on absent or invalid input.
func parsePositiveInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// listResearchers handles GET /api/researchers.
func (h *handler) listResearchers(c *gin.Context) {
	initial := c.Query("initial")
	if len([]rune(initial)) > 1 {
		fail(c, http.StatusBadRequest, codeBadRequest, "initial must be a single character")
		return
	}

	page := parsePositiveInt(c, "page", 1)
	size := parsePositiveInt(c, "page_size", defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}

	params := engine.Params{
		Query:   c.Query("query"),
		Orgs:    parseOrgs(c.Query("org")),
		Initial: initial,
		Limit:   size,
		Offset:  (page - 1) * size,
	}

	result, err := h.store.Search(c.Request.Context(), params)
	if err != nil {
		fail(c, http.StatusInternalServerError, codeSearch, "search failed")
		return
	}

	researchers := make([]researcherDTO, 0, len(result.Researchers))
	for _, hit := range result.Researchers {
		researchers = append(researchers, toDTO(hit.Researcher, hit.Snippets))
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       result.Total,
		"page":        page,
		"page_size":   size,
		"researchers": researchers,
	})
}

// getResearcher handles GET /api/researchers/:id.
func (h *handler) getResearcher(c *gin.Context) {
	id := c.Param("id")

	r, found, err := h.store.Researcher(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, codeInternal, "lookup failed")
		return
	}
	if !found {
		fail(c, http.StatusNotFound, codeNotFound, "researcher not found")
		return
	}

	c.JSON(http.StatusOK, toDTO(r, nil))
}

// listOrganizations handles GET /api/organizations.
func (h *handler) listOrganizations(c *gin.Context) {
	orgs := h.table.Organizations()
	out := make([]gin.H, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, gin.H{"id": o.ID, "name": o.Name})
	}
	c.JSON(http.StatusOK, out)
}

// facetCounts handles GET /api/facet-counts.
func (h *handler) facetCounts(c *gin.Context) {
	counts, err := h.store.Facets(c.Request.Context(), c.Query("query"), parseOrgs(c.Query("org")))
	if err != nil {
		fail(c, http.StatusInternalServerError, codeSearch, "facet computation failed")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// health handles GET /health.
func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
