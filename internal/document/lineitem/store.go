// Package lineitem owns the ordered line items of one document and keeps
// each item's amount consistent with its rate and quantity.
package lineitem

import (
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/money"
)

// IDGenerator hands out line item identifiers. *snowflake.Node satisfies it.
type IDGenerator interface {
	Generate() snowflake.ID
}

// Store is session-scoped and not safe for concurrent use.
type Store struct {
	genID IDGenerator
	items []domain.LineItem
}

// NewStore returns an empty store. Callers that follow the form convention
// add the first blank row themselves, see NewSeededStore.
func NewStore(genID IDGenerator) *Store {
	return &Store{genID: genID}
}

// NewSeededStore returns a store holding a single blank row.
func NewSeededStore(genID IDGenerator) *Store {
	s := NewStore(genID)
	s.Add(domain.Template{})
	return s
}

// Add appends a new item built from tpl and returns it.
func (s *Store) Add(tpl domain.Template) domain.LineItem {
	item := s.build(tpl)
	s.items = append(s.items, item)
	return item
}

func (s *Store) build(tpl domain.Template) domain.LineItem {
	item := domain.LineItem{
		ID:       s.genID.Generate(),
		Quantity: decimal.NewFromInt(1),
		Rate:     decimal.Zero,
	}
	if tpl.Description != nil {
		item.Description = *tpl.Description
	}
	if tpl.DetailedDescription != nil {
		detail := *tpl.DetailedDescription
		item.DetailedDescription = &detail
	}
	if tpl.Quantity != nil {
		item.Quantity = money.ClampNonNegative(*tpl.Quantity)
	}
	if tpl.Rate != nil {
		item.Rate = *tpl.Rate
	}
	item.Amount = item.Rate.Mul(item.Quantity)
	return item
}

// Remove drops the item with id. Removing the last remaining item is a no-op.
func (s *Store) Remove(id snowflake.ID) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.ErrLineItemNotFound
	}
	if len(s.items) <= 1 {
		return nil
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return nil
}

// UpdateField sets one field from raw user input. Quantity and rate edits
// re-derive the amount in the same call; unparseable numbers become zero and
// a negative quantity is clamped to zero.
func (s *Store) UpdateField(id snowflake.ID, field domain.Field, raw string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.ErrLineItemNotFound
	}
	item := &s.items[idx]
	switch field {
	case domain.FieldDescription:
		item.Description = raw
	case domain.FieldQuantity:
		item.Quantity = money.CoerceNonNegative(raw)
		item.Amount = item.Rate.Mul(item.Quantity)
	case domain.FieldRate:
		item.Rate = money.Coerce(raw)
		item.Amount = item.Rate.Mul(item.Quantity)
	default:
		return domain.ErrInvalidField
	}
	return nil
}

// SetDetailedDescription sets or clears the optional long description.
func (s *Store) SetDetailedDescription(id snowflake.ID, detail string) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.ErrLineItemNotFound
	}
	if strings.TrimSpace(detail) == "" {
		s.items[idx].DetailedDescription = nil
		return nil
	}
	s.items[idx].DetailedDescription = &detail
	return nil
}

// AddFromSaved appends an item seeded from a catalog entry with quantity 1.
func (s *Store) AddFromSaved(saved domain.SavedLineItem) (domain.LineItem, error) {
	if saved.ID == 0 {
		return domain.LineItem{}, domain.ErrInvalidSavedLineItem
	}
	return s.Add(fromSaved(saved)), nil
}

// AddManyFromSaved appends every catalog entry or none of them.
func (s *Store) AddManyFromSaved(saved []domain.SavedLineItem) ([]domain.LineItem, error) {
	for _, entry := range saved {
		if entry.ID == 0 {
			return nil, domain.ErrInvalidSavedLineItem
		}
	}

	added := make([]domain.LineItem, 0, len(saved))
	for _, entry := range saved {
		added = append(added, s.build(fromSaved(entry)))
	}
	s.items = append(s.items, added...)
	return added, nil
}

func fromSaved(saved domain.SavedLineItem) domain.Template {
	description := saved.Description
	rate := saved.Rate
	return domain.Template{
		Description: &description,
		Rate:        &rate,
	}
}

// Clear empties the store for a full reset.
func (s *Store) Clear() {
	s.items = nil
}

// Items returns a copy of the current items in insertion order.
func (s *Store) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with id.
func (s *Store) Get(id snowflake.ID) (domain.LineItem, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.LineItem{}, false
	}
	return s.items[idx], true
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) indexOf(id snowflake.ID) int {
	return slices.IndexFunc(s.items, func(item domain.LineItem) bool {
		return item.ID == id
	})
}
