// Package domain contains the document engine types shared by invoices and estimates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two document flows that share the engine.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindEstimate Kind = "estimate"
)

// Valid reports whether k is a known document kind.
func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindEstimate
}

// StatusDraft is the only status a freshly assembled document carries.
const StatusDraft = "draft"

// LineItem is one billable row of a document.
// Amount always equals Rate * Quantity; the store keeps it that way.
type LineItem struct {
	ID                  snowflake.ID    `json:"id"`
	Description         string          `json:"description"`
	DetailedDescription *string         `json:"detailed_description,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	Rate                decimal.Decimal `json:"rate"`
	Amount              decimal.Decimal `json:"amount"`
}

// Template seeds a new line item. Nil fields take the store defaults.
type Template struct {
	Description         *string
	DetailedDescription *string
	Quantity            *decimal.Decimal
	Rate                *decimal.Decimal
}

// Field names a user-editable line item field.
type Field string

const (
	FieldDescription Field = "description"
	FieldQuantity    Field = "quantity"
	FieldRate        Field = "rate"
)

// SavedLineItem is a reusable catalog entry owned by an organization.
type SavedLineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Rate        decimal.Decimal `gorm:"type:decimal(65,30);not null" json:"rate"`
	Category    *string         `gorm:"type:text" json:"category,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SavedLineItem) TableName() string { return "saved_line_items" }

// Markup is a percentage uplift on the subtotal.
type Markup struct {
	Enabled bool            `json:"enabled"`
	Percent decimal.Decimal `json:"percent"`
}

// Discount is a flat amount subtracted after markup.
type Discount struct {
	Enabled bool            `json:"enabled"`
	Amount  decimal.Decimal `json:"amount"`
}

// Tax is a flat rate applied to the taxable amount.
type Tax struct {
	Enabled bool            `json:"enabled"`
	Rate    decimal.Decimal `json:"rate"`
}

// Deposit is the share of the final total requested upfront.
type Deposit struct {
	Enabled bool            `json:"enabled"`
	Percent decimal.Decimal `json:"percent"`
}

// AdjustmentSet holds the optional toggles of a document. A disabled
// adjustment keeps its magnitude so re-enabling restores it.
type AdjustmentSet struct {
	Markup   Markup   `json:"markup"`
	Discount Discount `json:"discount"`
	Tax      Tax      `json:"tax"`
	Deposit  Deposit  `json:"deposit"`
}

// Totals is derived from the line items and adjustments and is never stored on its own.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	MarkupAmount   decimal.Decimal `json:"markup_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
}

// Equal compares every derived field numerically.
func (t Totals) Equal(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.MarkupAmount.Equal(other.MarkupAmount) &&
		t.DiscountAmount.Equal(other.DiscountAmount) &&
		t.TaxableAmount.Equal(other.TaxableAmount) &&
		t.TaxAmount.Equal(other.TaxAmount) &&
		t.Total.Equal(other.Total) &&
		t.DepositAmount.Equal(other.DepositAmount)
}

// DateSource records which input last set the due/expiry date.
type DateSource string

const (
	DateSourceDerived DateSource = "derived"
	DateSourceManual  DateSource = "manual"
)

// DocumentDates pairs the issue date with the derived due/expiry date.
type DocumentDates struct {
	IssueDate    time.Time  `json:"issue_date"`
	ValidityDays int        `json:"validity_days"`
	DerivedDate  time.Time  `json:"derived_date"`
	Source       DateSource `json:"source"`
}

// Meta carries the document fields that are not part of the calculation.
type Meta struct {
	Kind          Kind
	Number        string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ProjectID     *snowflake.ID
	ProjectName   string
	Notes         string
	AdjusterName  string
	AdjusterPhone string
	AdjusterEmail string
}

// Project is the subset of a project used to pre-seed a document.
type Project struct {
	ID                snowflake.ID `json:"id"`
	Name              string       `json:"name"`
	ClientName        string       `json:"client_name"`
	ClientEmail       string       `json:"client_email"`
	ClientPhoneNumber string       `json:"client_phone_number"`
	Location          string       `json:"location"`
}

// PayloadItem is a line item as handed to persistence.
type PayloadItem struct {
	Description         string          `json:"description"`
	DetailedDescription *string         `json:"detailed_description,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	Rate                decimal.Decimal `json:"rate"`
	Amount              decimal.Decimal `json:"amount"`
}

// Payload is the document shape accepted by the create-document collaborator.
// Markup, Tax and Deposit carry percentages and Discount an amount; each is nil
// when the adjustment is disabled.
type Payload struct {
	Kind            Kind             `json:"kind"`
	Number          string           `json:"number"`
	ClientName      string           `json:"client_name"`
	ClientEmail     *string          `json:"client_email,omitempty"`
	ProjectID       *snowflake.ID    `json:"project_id,omitempty"`
	ProjectName     string           `json:"project_name,omitempty"`
	IssueDate       string           `json:"issue_date"`
	DueOrExpiryDate string           `json:"due_or_expiry_date"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Markup          *decimal.Decimal `json:"markup,omitempty"`
	Discount        *decimal.Decimal `json:"discount,omitempty"`
	Tax             *decimal.Decimal `json:"tax,omitempty"`
	Total           decimal.Decimal  `json:"total"`
	Deposit         *decimal.Decimal `json:"deposit,omitempty"`
	Status          string           `json:"status"`
	Items           []PayloadItem    `json:"items"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// Created is what the persistence collaborator returns for a stored document.
type Created struct {
	ID     snowflake.ID `json:"id"`
	Number string       `json:"number"`
}

// StoredDocument is a persisted document read back with its items.
type StoredDocument struct {
	ID string `json:"id"`
	Payload
	CreatedAt time.Time `json:"created_at"`
}
