package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
)

// bindDocumentRequest decodes the draft and stamps the kind of the route group.
func bindDocumentRequest(c *gin.Context) (documentdomain.DocumentRequest, bool) {
	var req documentdomain.DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return req, false
	}
	req.Kind = documentKindFrom(c)
	return req, true
}

func (s *Server) PreviewDocument(c *gin.Context) {
	req, ok := bindDocumentRequest(c)
	if !ok {
		return
	}

	resp, err := s.documentSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDocument(c *gin.Context) {
	req, ok := bindDocumentRequest(c)
	if !ok {
		return
	}

	resp, err := s.documentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetDocument(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	doc, err := s.documentSvc.Get(c.Request.Context(), documentKindFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}
