package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/claimdocs/internal/money"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
)

type createSavedLineItemRequest struct {
	Description string      `json:"description"`
	Rate        money.Input `json:"rate"`
	Category    *string     `json:"category"`
}

// ListSavedLineItems returns the catalog grouped by category. An optional
// category query narrows the response to one group.
func (s *Server) ListSavedLineItems(c *gin.Context) {
	groups, err := s.savedItemSvc.Grouped(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		groups = groups.Only(category)
	}

	c.JSON(http.StatusOK, gin.H{"data": groups})
}

func (s *Server) CreateSavedLineItem(c *gin.Context) {
	var req createSavedLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.savedItemSvc.Create(c.Request.Context(), savedlineitemdomain.CreateRequest{
		Description: strings.TrimSpace(req.Description),
		Rate:        req.Rate.String(),
		Category:    req.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}
