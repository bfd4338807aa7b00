package document

import (
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/repository"
	"github.com/smallbiznis/claimdocs/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(func(r *repository.Repository) domain.Repository { return r }),
	fx.Provide(service.NewService),
)
