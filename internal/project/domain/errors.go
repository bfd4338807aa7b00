package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_project_id")
	ErrNotFound            = errors.New("project_not_found")
)
