package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/smallbiznis/claimdocs/internal/project/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) projectdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, client_name, client_email, client_phone_number, location, created_at
		 FROM projects
		 WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repository) Create(ctx context.Context, project *projectdomain.Project) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO projects (
			id, org_id, name, client_name, client_email, client_phone_number, location, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.OrgID,
		project.Name,
		project.ClientName,
		project.ClientEmail,
		project.ClientPhoneNumber,
		project.Location,
		project.CreatedAt,
	).Error
}
