package project

import (
	docdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/project/repository"
	"github.com/smallbiznis/claimdocs/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) docdomain.ProjectSource { return s }),
)
