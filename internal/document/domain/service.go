package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/claimdocs/internal/money"
)

// Creator persists an assembled document. Errors are returned unchanged to the caller.
type Creator interface {
	CreateDocument(ctx context.Context, payload Payload) (Created, error)
}

// Repository is the persistence collaborator for documents.
type Repository interface {
	Creator
	NextNumber(ctx context.Context, orgID snowflake.ID, kind Kind, prefix string) (string, error)
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*StoredDocument, error)
}

// ProjectSource pre-seeds document fields from a project.
type ProjectSource interface {
	FetchProject(ctx context.Context, id snowflake.ID) (Project, error)
}

// SavedItemSource lists the catalog of the organization in context.
type SavedItemSource interface {
	List(ctx context.Context) ([]SavedLineItem, error)
}

// ItemInput is one line item as typed by the user.
type ItemInput struct {
	Description         string      `json:"description"`
	DetailedDescription *string     `json:"detailed_description,omitempty"`
	Quantity            money.Input `json:"quantity"`
	Rate                money.Input `json:"rate"`
}

// AdjustmentInput is a toggle plus its raw magnitude.
type AdjustmentInput struct {
	Enabled bool        `json:"enabled"`
	Value   money.Input `json:"value"`
}

// DocumentRequest is a complete draft submitted from an invoice or estimate form.
type DocumentRequest struct {
	Kind          Kind             `json:"-"`
	Number        string           `json:"number"`
	ClientName    string           `json:"client_name"`
	ClientEmail   string           `json:"client_email"`
	ClientPhone   string           `json:"client_phone"`
	ProjectID     string           `json:"project_id"`
	ProjectName   string           `json:"project_name"`
	IssueDate     string           `json:"issue_date"`
	ValidityDays  money.Input      `json:"validity_days"`
	DueDate       string           `json:"due_date"`
	Notes         string           `json:"notes"`
	AdjusterName  string           `json:"adjuster_name"`
	AdjusterPhone string           `json:"adjuster_phone"`
	AdjusterEmail string           `json:"adjuster_email"`
	Items         []ItemInput      `json:"items"`
	SavedItemIDs  []string         `json:"saved_item_ids"`
	SavedCategory string           `json:"saved_category"`
	Markup        *AdjustmentInput `json:"markup"`
	Discount      *AdjustmentInput `json:"discount"`
	Tax           *AdjustmentInput `json:"tax"`
	Deposit       *AdjustmentInput `json:"deposit"`
}

// Preview is the live view of a draft: totals, the derived date and the rows as the engine sees them.
type Preview struct {
	Kind    Kind              `json:"kind"`
	Items   []LineItem        `json:"items"`
	Totals  Totals            `json:"totals"`
	Display map[string]string `json:"display"`
	Dates   DocumentDates     `json:"dates"`
}

// CreateResponse is returned after a document is persisted.
type CreateResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Totals Totals `json:"totals"`
}

// Service drives invoice and estimate creation.
type Service interface {
	Preview(ctx context.Context, req DocumentRequest) (Preview, error)
	Create(ctx context.Context, req DocumentRequest) (CreateResponse, error)
	Get(ctx context.Context, kind Kind, id string) (*StoredDocument, error)
}
