package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/catalog"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidDescription  = errors.New("invalid_description")
	ErrInvalidRate         = errors.New("invalid_rate")
)

type Repository interface {
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]docdomain.SavedLineItem, error)
	Create(ctx context.Context, item *docdomain.SavedLineItem) error
}

// CreateRequest adds an entry to the catalog. Rate is raw user input.
type CreateRequest struct {
	Description string
	Rate        string
	Category    *string
}

type Service interface {
	docdomain.SavedItemSource
	Grouped(ctx context.Context) (catalog.Groups, error)
	Create(ctx context.Context, req CreateRequest) (*docdomain.SavedLineItem, error)
}
