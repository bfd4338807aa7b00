package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Project, error)
	Create(ctx context.Context, project *Project) error
}
