package repository

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/schedule"
	"gorm.io/datatypes"
)

// Document is the stored header of an invoice or estimate.
type Document struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	OrgID          snowflake.ID      `gorm:"column:org_id;not null;uniqueIndex:ux_documents_org_kind_number,priority:1"`
	Kind           domain.Kind       `gorm:"type:text;not null;uniqueIndex:ux_documents_org_kind_number,priority:2"`
	Number         string            `gorm:"type:text;not null;uniqueIndex:ux_documents_org_kind_number,priority:3"`
	ClientName     string            `gorm:"column:client_name;type:text;not null"`
	ClientEmail    *string           `gorm:"column:client_email;type:text"`
	ProjectID      *snowflake.ID     `gorm:"column:project_id"`
	ProjectName    string            `gorm:"column:project_name;type:text"`
	IssueDate      time.Time         `gorm:"column:issue_date;not null"`
	DueDate        time.Time         `gorm:"column:due_date;not null"`
	Subtotal       decimal.Decimal   `gorm:"type:decimal(65,30);not null"`
	MarkupPercent  *decimal.Decimal  `gorm:"column:markup_percent;type:decimal(65,30)"`
	DiscountAmount *decimal.Decimal  `gorm:"column:discount_amount;type:decimal(65,30)"`
	TaxRate        *decimal.Decimal  `gorm:"column:tax_rate;type:decimal(65,30)"`
	Total          decimal.Decimal   `gorm:"type:decimal(65,30);not null"`
	DepositPercent *decimal.Decimal  `gorm:"column:deposit_percent;type:decimal(65,30)"`
	Status         string            `gorm:"type:text;not null"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt      time.Time         `gorm:"not null"`

	Items []DocumentItem `gorm:"-"`
}

func (Document) TableName() string { return "documents" }

// DocumentItem is one stored line of a document.
type DocumentItem struct {
	ID                  snowflake.ID    `gorm:"primaryKey"`
	DocumentID          snowflake.ID    `gorm:"column:document_id;not null;index"`
	OrgID               snowflake.ID    `gorm:"column:org_id;not null"`
	Position            int             `gorm:"not null"`
	Description         string          `gorm:"type:text;not null"`
	DetailedDescription *string         `gorm:"column:detailed_description;type:text"`
	Quantity            decimal.Decimal `gorm:"type:decimal(65,30);not null"`
	Rate                decimal.Decimal `gorm:"type:decimal(65,30);not null"`
	Amount              decimal.Decimal `gorm:"type:decimal(65,30);not null"`
}

func (DocumentItem) TableName() string { return "document_items" }

func (d *Document) toDomain() *domain.StoredDocument {
	out := &domain.StoredDocument{
		ID: d.ID.String(),
		Payload: domain.Payload{
			Kind:            d.Kind,
			Number:          d.Number,
			ClientName:      d.ClientName,
			ClientEmail:     d.ClientEmail,
			ProjectID:       d.ProjectID,
			ProjectName:     d.ProjectName,
			IssueDate:       schedule.FormatDate(d.IssueDate),
			DueOrExpiryDate: schedule.FormatDate(d.DueDate),
			Subtotal:        d.Subtotal,
			Markup:          d.MarkupPercent,
			Discount:        d.DiscountAmount,
			Tax:             d.TaxRate,
			Total:           d.Total,
			Deposit:         d.DepositPercent,
			Status:          d.Status,
			Metadata:        d.Metadata,
			Items:           make([]domain.PayloadItem, 0, len(d.Items)),
		},
		CreatedAt: d.CreatedAt,
	}
	for _, item := range d.Items {
		out.Items = append(out.Items, domain.PayloadItem{
			Description:         item.Description,
			DetailedDescription: item.DetailedDescription,
			Quantity:            item.Quantity,
			Rate:                item.Rate,
			Amount:              item.Amount,
		})
	}
	return out
}
