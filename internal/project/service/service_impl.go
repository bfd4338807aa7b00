package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
	projectdomain "github.com/smallbiznis/claimdocs/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log  *zap.Logger
	Repo projectdomain.Repository
}

// Service resolves projects of the organization in context for document prefill.
type Service struct {
	log  *zap.Logger
	repo projectdomain.Repository
}

func NewService(p serviceParams) *Service {
	return &Service{
		log:  p.Log.Named("project.service"),
		repo: p.Repo,
	}
}

func (s *Service) FetchProject(ctx context.Context, id snowflake.ID) (docdomain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return docdomain.Project{}, projectdomain.ErrInvalidOrganization
	}
	if id == 0 {
		return docdomain.Project{}, projectdomain.ErrInvalidID
	}

	project, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return docdomain.Project{}, err
	}
	if project == nil {
		return docdomain.Project{}, projectdomain.ErrNotFound
	}

	return docdomain.Project{
		ID:                project.ID,
		Name:              project.Name,
		ClientName:        project.ClientName,
		ClientEmail:       project.ClientEmail,
		ClientPhoneNumber: project.ClientPhoneNumber,
		Location:          project.Location,
	}, nil
}

var _ docdomain.ProjectSource = (*Service)(nil)
