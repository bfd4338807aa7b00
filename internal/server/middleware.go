package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	documentdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	obscontext "github.com/smallbiznis/claimdocs/internal/observability/context"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
)

const (
	HeaderOrg              = "X-Org-ID"
	contextDocumentKindKey = "document_kind"
)

// OrgContext resolves the organization from the X-Org-ID header, falling back
// to the configured default, and stores it on the request context.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := snowflake.ID(s.cfg.DefaultOrgID)
		if raw := strings.TrimSpace(c.GetHeader(HeaderOrg)); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil || parsed <= 0 {
				AbortWithError(c, newValidationError("organization", "invalid_organization", "invalid organization"))
				return
			}
			orgID = parsed
		}
		if orgID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// DocumentKind pins the document kind for a route group.
func DocumentKind(kind documentdomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextDocumentKindKey, string(kind))
		c.Request = c.Request.WithContext(obscontext.WithDocumentKind(c.Request.Context(), string(kind)))
		c.Next()
	}
}

func documentKindFrom(c *gin.Context) documentdomain.Kind {
	return documentdomain.Kind(c.GetString(contextDocumentKindKey))
}
