// Package catalog groups saved line items by category for the picker UI.
package catalog

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
)

// Uncategorized is the bucket for items without a category.
const Uncategorized = "Uncategorized"

// Group is one category with its items in input order.
type Group struct {
	Name  string                 `json:"name"`
	Key   string                 `json:"key"`
	Items []domain.SavedLineItem `json:"items"`
}

// Groups keeps categories in first-seen order so repeated renders are stable.
type Groups []Group

// CategoryOf returns the bucket name for item.
func CategoryOf(item domain.SavedLineItem) string {
	if item.Category == nil {
		return Uncategorized
	}
	name := strings.TrimSpace(*item.Category)
	if name == "" {
		return Uncategorized
	}
	return name
}

// GroupByCategory buckets items by category. Categories are keyed by their
// slug, so spellings that differ only in case or punctuation share the group
// of the first one seen. Relative order inside a bucket matches the input,
// and buckets appear in the order their first item does.
func GroupByCategory(items []domain.SavedLineItem) Groups {
	index := make(map[string]int)
	groups := make(Groups, 0)
	for _, item := range items {
		name := CategoryOf(item)
		key := slug.Make(name)
		idx, ok := index[key]
		if !ok {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, Group{Name: name, Key: key})
		}
		groups[idx].Items = append(groups[idx].Items, item)
	}
	return groups
}

// Only narrows g to the group matching category by name or slug key.
func (g Groups) Only(category string) Groups {
	if idx := g.find(category); idx >= 0 {
		return g[idx : idx+1]
	}
	return Groups{}
}

// Filter returns the items of the group matching category.
func (g Groups) Filter(category string) []domain.SavedLineItem {
	if idx := g.find(category); idx >= 0 {
		return g[idx].Items
	}
	return nil
}

func (g Groups) find(category string) int {
	key := slug.Make(strings.TrimSpace(category))
	for i, group := range g {
		if group.Key == key {
			return i
		}
	}
	return -1
}
