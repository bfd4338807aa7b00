package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
	"github.com/smallbiznis/claimdocs/pkg/db/option"
	"github.com/smallbiznis/claimdocs/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[docdomain.SavedLineItem]
}

func NewRepository(db *gorm.DB) savedlineitemdomain.Repository {
	return &repo{store: repository.ProvideStore[docdomain.SavedLineItem](db)}
}

// ListByOrg returns items in insertion order so category grouping is stable.
func (r *repo) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]docdomain.SavedLineItem, error) {
	rows, err := r.store.Find(ctx, &docdomain.SavedLineItem{OrgID: orgID},
		option.WithSortBy(option.SortBy{Column: "created_at"}),
		option.WithSortBy(option.SortBy{Column: "id"}),
	)
	if err != nil {
		return nil, err
	}

	items := make([]docdomain.SavedLineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
	}
	return items, nil
}

func (r *repo) Create(ctx context.Context, item *docdomain.SavedLineItem) error {
	return r.store.Create(ctx, item)
}
