package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/money"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/catalog"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  savedlineitemdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  savedlineitemdomain.Repository
}

func NewService(p serviceParams) savedlineitemdomain.Service {
	return &Service{
		log:   p.Log.Named("savedlineitem.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]docdomain.SavedLineItem, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, savedlineitemdomain.ErrInvalidOrganization
	}
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *Service) Grouped(ctx context.Context) (catalog.Groups, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.GroupByCategory(items), nil
}

func (s *Service) Create(ctx context.Context, req savedlineitemdomain.CreateRequest) (*docdomain.SavedLineItem, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, savedlineitemdomain.ErrInvalidOrganization
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, savedlineitemdomain.ErrInvalidDescription
	}

	rate, err := money.Parse(req.Rate)
	if err != nil {
		return nil, savedlineitemdomain.ErrInvalidRate
	}

	var category *string
	if req.Category != nil {
		if trimmed := strings.TrimSpace(*req.Category); trimmed != "" {
			category = &trimmed
		}
	}

	item := &docdomain.SavedLineItem{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Description: description,
		Rate:        rate,
		Category:    category,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.log.Debug("saved line item created",
		zap.String("org_id", orgID.String()),
		zap.String("saved_line_item_id", item.ID.String()),
	)
	return item, nil
}
