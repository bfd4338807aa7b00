// Package assembler turns engine state into the payload handed to persistence.
package assembler

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/schedule"
	"github.com/smallbiznis/claimdocs/internal/document/totals"
)

// Assemble validates the draft and builds the create-document payload.
// Validation happens here and only here: every missing field is reported in
// one *domain.ValidationError and no payload is returned.
func Assemble(items []domain.LineItem, adj domain.AdjustmentSet, dates domain.DocumentDates, meta domain.Meta) (domain.Payload, error) {
	if err := validate(items, meta); err != nil {
		return domain.Payload{}, err
	}

	sums := totals.Compute(items, adj)

	payload := domain.Payload{
		Kind:            meta.Kind,
		Number:          strings.TrimSpace(meta.Number),
		ClientName:      strings.TrimSpace(meta.ClientName),
		ProjectID:       meta.ProjectID,
		ProjectName:     strings.TrimSpace(meta.ProjectName),
		IssueDate:       schedule.FormatDate(dates.IssueDate),
		DueOrExpiryDate: schedule.FormatDate(dates.DerivedDate),
		Subtotal:        sums.Subtotal,
		Total:           sums.Total,
		Status:          domain.StatusDraft,
		Items:           make([]domain.PayloadItem, 0, len(items)),
	}
	if email := strings.TrimSpace(meta.ClientEmail); email != "" {
		payload.ClientEmail = &email
	}
	if adj.Markup.Enabled {
		payload.Markup = ptr(adj.Markup.Percent)
	}
	if adj.Discount.Enabled {
		payload.Discount = ptr(adj.Discount.Amount)
	}
	if adj.Tax.Enabled {
		payload.Tax = ptr(adj.Tax.Rate)
	}
	if adj.Deposit.Enabled {
		payload.Deposit = ptr(adj.Deposit.Percent)
	}

	for _, item := range items {
		payload.Items = append(payload.Items, domain.PayloadItem{
			Description:         strings.TrimSpace(item.Description),
			DetailedDescription: item.DetailedDescription,
			Quantity:            item.Quantity,
			Rate:                item.Rate,
			Amount:              item.Amount,
		})
	}

	if metadata := metadataOf(meta); len(metadata) > 0 {
		payload.Metadata = metadata
	}
	return payload, nil
}

func validate(items []domain.LineItem, meta domain.Meta) error {
	verr := &domain.ValidationError{}
	if !meta.Kind.Valid() {
		verr.Add("kind", "invalid", "unknown document kind")
	}
	if strings.TrimSpace(meta.ClientName) == "" {
		verr.Add("client_name", domain.CodeRequired, "client name is required")
	}
	if meta.ProjectID == nil && strings.TrimSpace(meta.ProjectName) == "" {
		verr.Add("project", domain.CodeRequired, "project name or project id is required")
	}
	if len(items) == 0 {
		verr.Add("items", domain.CodeRequired, "at least one line item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			verr.Add(fmt.Sprintf("items[%d].description", i), domain.CodeRequired, "description is required")
		}
	}
	return verr.OrNil()
}

func metadataOf(meta domain.Meta) map[string]any {
	out := map[string]any{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	set("client_phone", meta.ClientPhone)
	set("notes", meta.Notes)
	set("adjuster_name", meta.AdjusterName)
	set("adjuster_phone", meta.AdjusterPhone)
	set("adjuster_email", meta.AdjusterEmail)
	return out
}

func ptr(v decimal.Decimal) *decimal.Decimal {
	return &v
}
