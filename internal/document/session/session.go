// Package session ties one document draft together: line items, adjustments,
// dates and meta. Every mutation recomputes the totals before returning and
// notifies subscribers synchronously.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/adjustment"
	"github.com/smallbiznis/claimdocs/internal/document/assembler"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/lineitem"
	"github.com/smallbiznis/claimdocs/internal/document/schedule"
	"github.com/smallbiznis/claimdocs/internal/document/totals"
	"github.com/smallbiznis/claimdocs/internal/money"
)

// ProfessionalServicesSuffix is appended to the project name when a project
// prefills the only, still blank, row.
const ProfessionalServicesSuffix = " - Professional Services"

// Defaults seeds a new session.
type Defaults struct {
	IssueDate      time.Time
	ValidityDays   int
	DepositPercent decimal.Decimal
	Number         string
}

// Listener receives the totals after each mutation.
type Listener func(domain.Totals)

// Session is owned by a single document-creation flow and is not safe for
// concurrent use. Discarding it is the only cleanup needed.
type Session struct {
	kind        domain.Kind
	store       *lineitem.Store
	adjustments *adjustment.Set
	dates       *schedule.Tracker
	meta        domain.Meta

	totals    domain.Totals
	listeners []Listener
}

// New starts a draft holding one blank line item.
func New(kind domain.Kind, genID lineitem.IDGenerator, defaults Defaults) *Session {
	adj := adjustment.NewSet()
	_ = adj.SetDeposit(false, clampDeposit(defaults.DepositPercent))

	s := &Session{
		kind:        kind,
		store:       lineitem.NewSeededStore(genID),
		adjustments: adj,
		dates:       schedule.NewTracker(defaults.IssueDate, defaults.ValidityDays),
		meta:        domain.Meta{Kind: kind, Number: defaults.Number},
	}
	s.recompute()
	return s
}

func clampDeposit(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return pct
}

// Subscribe registers fn and immediately calls it with the current totals.
func (s *Session) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	s.listeners = append(s.listeners, fn)
	fn(s.totals)
}

func (s *Session) recompute() {
	s.totals = totals.Compute(s.store.Items(), s.adjustments.Values())
	for _, fn := range s.listeners {
		fn(s.totals)
	}
}

// Kind returns the document kind.
func (s *Session) Kind() domain.Kind { return s.kind }

// Totals returns the totals computed after the last mutation.
func (s *Session) Totals() domain.Totals { return s.totals }

// Items returns the current line items.
func (s *Session) Items() []domain.LineItem { return s.store.Items() }

// Adjustments returns the current adjustments.
func (s *Session) Adjustments() domain.AdjustmentSet { return s.adjustments.Values() }

// Dates returns the issue and due/expiry dates.
func (s *Session) Dates() domain.DocumentDates { return s.dates.Dates() }

// Meta returns the non-financial document fields.
func (s *Session) Meta() domain.Meta { return s.meta }

// AddItem appends a row.
func (s *Session) AddItem(tpl domain.Template) domain.LineItem {
	item := s.store.Add(tpl)
	s.recompute()
	return item
}

// RemoveItem drops a row unless it is the last one.
func (s *Session) RemoveItem(id snowflake.ID) error {
	if err := s.store.Remove(id); err != nil {
		return err
	}
	s.recompute()
	return nil
}

// UpdateField edits one field of a row from raw input.
func (s *Session) UpdateField(id snowflake.ID, field domain.Field, raw string) error {
	if err := s.store.UpdateField(id, field, raw); err != nil {
		return err
	}
	s.recompute()
	return nil
}

// SetDetailedDescription edits the long description of a row.
func (s *Session) SetDetailedDescription(id snowflake.ID, detail string) error {
	return s.store.SetDetailedDescription(id, detail)
}

// AddFromSaved appends one catalog entry.
func (s *Session) AddFromSaved(saved domain.SavedLineItem) (domain.LineItem, error) {
	item, err := s.store.AddFromSaved(saved)
	if err != nil {
		return domain.LineItem{}, err
	}
	s.recompute()
	return item, nil
}

// AddManyFromSaved appends a whole category, or nothing on error.
func (s *Session) AddManyFromSaved(saved []domain.SavedLineItem) ([]domain.LineItem, error) {
	items, err := s.store.AddManyFromSaved(saved)
	if err != nil {
		return nil, err
	}
	s.recompute()
	return items, nil
}

// Reset clears every row. Callers repopulate before submitting.
func (s *Session) Reset() {
	s.store.Clear()
	s.recompute()
}

// SetMarkup updates the markup toggle.
func (s *Session) SetMarkup(enabled bool, percent decimal.Decimal) error {
	return s.mutateAdjustment(func(a *adjustment.Set) error { return a.SetMarkup(enabled, percent) })
}

// SetDiscount updates the discount toggle.
func (s *Session) SetDiscount(enabled bool, amount decimal.Decimal) error {
	return s.mutateAdjustment(func(a *adjustment.Set) error { return a.SetDiscount(enabled, amount) })
}

// SetTax updates the tax toggle.
func (s *Session) SetTax(enabled bool, rate decimal.Decimal) error {
	return s.mutateAdjustment(func(a *adjustment.Set) error { return a.SetTax(enabled, rate) })
}

// SetDeposit updates the deposit toggle.
func (s *Session) SetDeposit(enabled bool, percent decimal.Decimal) error {
	return s.mutateAdjustment(func(a *adjustment.Set) error { return a.SetDeposit(enabled, percent) })
}

// ToggleMarkup enables or disables markup keeping its percentage.
func (s *Session) ToggleMarkup(enabled bool) {
	s.adjustments.ToggleMarkup(enabled)
	s.recompute()
}

// ToggleDiscount enables or disables the discount keeping its amount.
func (s *Session) ToggleDiscount(enabled bool) {
	s.adjustments.ToggleDiscount(enabled)
	s.recompute()
}

// ToggleTax enables or disables tax keeping its rate.
func (s *Session) ToggleTax(enabled bool) {
	s.adjustments.ToggleTax(enabled)
	s.recompute()
}

// ToggleDeposit enables or disables the deposit keeping its percentage.
func (s *Session) ToggleDeposit(enabled bool) {
	s.adjustments.ToggleDeposit(enabled)
	s.recompute()
}

func (s *Session) mutateAdjustment(fn func(*adjustment.Set) error) error {
	if err := fn(s.adjustments); err != nil {
		return err
	}
	s.recompute()
	return nil
}

// SetIssueDate changes the issue date; the due/expiry date is re-derived.
func (s *Session) SetIssueDate(issue time.Time) {
	s.dates.SetIssueDate(issue)
}

// SetValidityDays changes validity from raw input; invalid input counts as zero days.
func (s *Session) SetValidityDays(raw string) {
	s.dates.SetValidityDays(money.CoerceDays(raw))
}

// OverrideDueDate pins the due/expiry date until issue date or validity change again.
func (s *Session) OverrideDueDate(date time.Time) {
	s.dates.Override(date)
}

// UpdateMeta applies fn to the document fields.
func (s *Session) UpdateMeta(fn func(*domain.Meta)) {
	fn(&s.meta)
	s.meta.Kind = s.kind
}

// ApplyProject copies client and project details from p. When the draft
// still holds a single blank row it is renamed after the project.
func (s *Session) ApplyProject(p domain.Project) {
	id := p.ID
	s.meta.ProjectID = &id
	s.meta.ProjectName = p.Name
	if p.ClientName != "" {
		s.meta.ClientName = p.ClientName
	}
	if p.ClientEmail != "" {
		s.meta.ClientEmail = p.ClientEmail
	}
	if p.ClientPhoneNumber != "" {
		s.meta.ClientPhone = p.ClientPhoneNumber
	}

	items := s.store.Items()
	if len(items) == 1 && strings.TrimSpace(items[0].Description) == "" && strings.TrimSpace(p.Name) != "" {
		_ = s.store.UpdateField(items[0].ID, domain.FieldDescription, p.Name+ProfessionalServicesSuffix)
		s.recompute()
	}
}

// Assemble builds the payload from the current state.
func (s *Session) Assemble() (domain.Payload, error) {
	return assembler.Assemble(s.store.Items(), s.adjustments.Values(), s.dates.Dates(), s.meta)
}

// Submit assembles and hands the payload to creator. Creator errors are returned unchanged.
func (s *Session) Submit(ctx context.Context, creator domain.Creator) (domain.Created, error) {
	payload, err := s.Assemble()
	if err != nil {
		return domain.Created{}, err
	}
	return creator.CreateDocument(ctx, payload)
}
