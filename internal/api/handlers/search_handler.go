package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	scifinderrors "scifind-backend/internal/errors"
	"scifind-backend/internal/services"
)

// SearchHandler serves GET /search (spec 6).
type SearchHandler struct {
	service services.SearchServiceInterface
	logger  *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service services.SearchServiceInterface, logger *slog.Logger) SearchHandlerInterface {
	return &SearchHandler{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse is the shared error body shape for the API.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Search runs the retrieval pipeline against the parsed query string.
// @Summary Search for academic papers
// @Description Runs the fan-out/dedup/rank pipeline across bibliographic sources
// @Tags search
// @Produce json
// @Param q query string true "search query"
// @Param mode query string true "foundational or recent"
// @Success 200 {object} services.SearchResponse
// @Failure 422 {object} ErrorResponse
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	req := parseSearchRequest(c)

	resp, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseSearchRequest(c *gin.Context) *services.SearchRequest {
	req := &services.SearchRequest{
		Query:            c.Query("q"),
		Mode:             c.Query("mode"),
		SortBy:           c.Query("sort_by"),
		OAOnly:           parseBoolParam(c, "oa_only"),
		SurveyOnly:       parseBoolParam(c, "survey_only"),
		IncludePubMed:    parseBoolDefault(c, "include_pubmed", true),
		IncludeArxiv:     parseBoolDefault(c, "include_arxiv", true),
		BypassCache:      parseBoolParam(c, "bypass_cache"),
		Limit:            parseIntParam(c, "limit", 0),
		LimitPerDatabase: parseIntParam(c, "limit_per_database", 0),
	}
	if v := c.Query("year_min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.YearMin = &n
		}
	}
	if v := c.Query("year_max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.YearMax = &n
		}
	}
	if v := c.Query("publication_types"); v != "" {
		req.PublicationTypes = strings.Split(v, ",")
	}
	return req
}

func parseIntParam(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseBoolParam(c *gin.Context, name string) bool {
	return parseBoolDefault(c, name, false)
}

func parseBoolDefault(c *gin.Context, name string, def bool) bool {
	v := c.Query(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// respondError maps a service-layer error to its HTTP status via
// errors.SciFindError.HTTPStatus when available, falling back to 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	var sfErr *scifinderrors.SciFindError
	if errors.As(err, &sfErr) {
		status = sfErr.HTTPStatus()
		code = sfErr.Code
	}

	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		RequestID: requestIDFrom(c),
	})
}

func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get("request_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
