// Research HTTP handlers.
//
// The crawler posts the text it extracted; expand requests reference the
// stored report by ID.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateResearchRequest is the JSON payload for storing research text.
type CreateResearchRequest struct {
	SourceURL string `json:"source_url" binding:"omitempty,url,max=2048" example:"https://example.com/market-report"`
	Content   string `json:"content"    binding:"required"`
}

// CreateResearch godoc
// @ID          createResearch
// @Summary     Store a research report
// @Description Stores crawler-extracted text for later use as expand context.
// @Tags        Research
// @Accept      json
// @Produce     json
//
// @Param       X-Brand-ID  header  string  false "Brand ID"  example(acme)
// @Param       body        body    handlers.CreateResearchRequest  true  "Report"
//
// @Success     201  {object} domain.ResearchReport
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     500  {object} handlers.ErrorResponse "Persistence failure"
// @Router      /research [post]
func (h *Handlers) CreateResearch(c *gin.Context) {
	var req CreateResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required; source_url must be a URL")
		return
	}
	r, err := h.offers.CreateResearch(c.Request.Context(), brandID(c), req.SourceURL, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}
