package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scifind-backend/internal/services"
)

// PaperHandler serves single-paper detail, related-papers, and the
// annotation-store-backed endpoints of spec 6.
type PaperHandler struct {
	paperService services.PaperServiceInterface
	logger       *slog.Logger
}

// NewPaperHandler creates a new paper handler
func NewPaperHandler(paperService services.PaperServiceInterface, logger *slog.Logger) *PaperHandler {
	return &PaperHandler{
		paperService: paperService,
		logger:       logger,
	}
}

// GetPaper handles GET /paper/:id
// @Summary Get a merged paper by id
// @Tags papers
// @Produce json
// @Param id path string true "paper id"
// @Success 200 {object} models.MergedPaper
// @Failure 404 {object} ErrorResponse
// @Router /paper/{id} [get]
func (h *PaperHandler) GetPaper(c *gin.Context) {
	id := c.Param("id")
	paper, err := h.paperService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

// Related handles GET /paper/:id/related
// @Summary Related papers, merged and ranked as foundational literature
// @Tags papers
// @Produce json
// @Param id path string true "paper id"
// @Param limit query int false "max results (default 20)"
// @Param s2_id query string false "explicit Semantic Scholar id"
// @Param oa_id query string false "explicit OpenAlex id"
// @Success 200 {array} models.MergedPaper
// @Router /paper/{id}/related [get]
func (h *PaperHandler) Related(c *gin.Context) {
	req := &services.RelatedPapersRequest{
		PaperID: c.Param("id"),
		Limit:   parseIntParam(c, "limit", 0),
		S2ID:    c.Query("s2_id"),
		OAID:    c.Query("oa_id"),
	}

	related, err := h.paperService.Related(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, related)
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

// Select handles PUT /paper/:id/select {"selected": bool}
// @Summary Bookmark or unbookmark a paper
// @Tags papers
// @Accept json
// @Produce json
// @Param id path string true "paper id"
// @Param body body selectRequest true "selected flag"
// @Success 200 {object} services.AnnotationWriteResult
// @Router /paper/{id}/select [put]
func (h *PaperHandler) Select(c *gin.Context) {
	var body selectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "BAD_REQUEST", Message: err.Error()})
		return
	}

	result, err := h.paperService.Select(c.Request.Context(), c.Param("id"), body.Selected)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// Comment handles PUT /paper/:id/comment {"comment": string}
// @Summary Attach a free-text note to a paper
// @Tags papers
// @Accept json
// @Produce json
// @Param id path string true "paper id"
// @Param body body commentRequest true "comment text"
// @Success 200 {object} services.AnnotationWriteResult
// @Router /paper/{id}/comment [put]
func (h *PaperHandler) Comment(c *gin.Context) {
	var body commentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "BAD_REQUEST", Message: err.Error()})
		return
	}

	result, err := h.paperService.Comment(c.Request.Context(), c.Param("id"), body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Bookmarked handles GET /papers/bookmarked
// @Summary List every bookmarked paper
// @Tags papers
// @Produce json
// @Success 200 {array} models.AnnotatedPaper
// @Router /papers/bookmarked [get]
func (h *PaperHandler) Bookmarked(c *gin.Context) {
	papers, err := h.paperService.Bookmarked(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, papers)
}

// WithNotes handles GET /papers/with-notes
// @Summary List every paper carrying a comment
// @Tags papers
// @Produce json
// @Success 200 {array} models.AnnotatedPaper
// @Router /papers/with-notes [get]
func (h *PaperHandler) WithNotes(c *gin.Context) {
	papers, err := h.paperService.WithNotes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, papers)
}
