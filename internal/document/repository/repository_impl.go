package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/schedule"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
	"github.com/smallbiznis/claimdocs/pkg/db"
	"github.com/smallbiznis/claimdocs/pkg/db/option"
	"github.com/smallbiznis/claimdocs/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// numberWidth pads the sequence part of generated numbers, INV-001.
const numberWidth = 3

type Params struct {
	fx.In

	DB    *gorm.DB
	GenID *snowflake.Node
}

type Repository struct {
	db    *gorm.DB
	genID *snowflake.Node
	docs  repository.Repository[Document]
	items repository.Repository[DocumentItem]
}

func NewRepository(p Params) *Repository {
	return &Repository{
		db:    p.DB,
		genID: p.GenID,
		docs:  repository.ProvideStore[Document](p.DB),
		items: repository.ProvideStore[DocumentItem](p.DB),
	}
}

// NextNumber returns prefix-NNN one past the highest numeric suffix already
// issued for the organization and kind.
func (r *Repository) NextNumber(ctx context.Context, orgID snowflake.ID, kind domain.Kind, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&Document{}).
		Where("org_id = ? AND kind = ? AND number LIKE ?", orgID, kind, prefix+"-%").
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}

	next := 1
	for _, number := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix+"-"))
		if err != nil || seq < 0 {
			continue
		}
		if seq >= next {
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s-%0*d", prefix, numberWidth, next), nil
}

// CreateDocument stores the header and its items in one transaction. A
// number already used by the organization for the same kind yields
// domain.ErrDuplicateNumber; other errors are returned as they are.
func (r *Repository) CreateDocument(ctx context.Context, payload domain.Payload) (domain.Created, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Created{}, domain.ErrInvalidOrganization
	}

	record, err := r.toRecord(orgID, payload)
	if err != nil {
		return domain.Created{}, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		items := make([]*DocumentItem, 0, len(record.Items))
		for i := range record.Items {
			items = append(items, &record.Items[i])
		}
		return r.items.WithTrx(tx).BatchCreate(ctx, items)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Created{}, fmt.Errorf("%w: %s", domain.ErrDuplicateNumber, record.Number)
		}
		return domain.Created{}, err
	}

	return domain.Created{ID: record.ID, Number: record.Number}, nil
}

// FindByID loads a document with its items in position order. It returns nil, nil when absent.
func (r *Repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*domain.StoredDocument, error) {
	if orgID == 0 || id == 0 {
		return nil, nil
	}
	doc, err := r.docs.FindOne(ctx, &Document{ID: id, OrgID: orgID})
	if err != nil || doc == nil {
		return nil, err
	}

	items, err := r.items.Find(ctx, &DocumentItem{DocumentID: doc.ID},
		option.WithSortBy(option.SortBy{Column: "position"}),
	)
	if err != nil {
		return nil, err
	}
	doc.Items = make([]DocumentItem, 0, len(items))
	for _, item := range items {
		doc.Items = append(doc.Items, *item)
	}
	return doc.toDomain(), nil
}

func (r *Repository) toRecord(orgID snowflake.ID, payload domain.Payload) (*Document, error) {
	issue, err := schedule.ParseDate(payload.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("parse issue date: %w", err)
	}
	due, err := schedule.ParseDate(payload.DueOrExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("parse due date: %w", err)
	}

	docID := r.genID.Generate()
	record := &Document{
		ID:             docID,
		OrgID:          orgID,
		Kind:           payload.Kind,
		Number:         strings.TrimSpace(payload.Number),
		ClientName:     payload.ClientName,
		ClientEmail:    payload.ClientEmail,
		ProjectID:      payload.ProjectID,
		ProjectName:    payload.ProjectName,
		IssueDate:      issue,
		DueDate:        due,
		Subtotal:       payload.Subtotal,
		MarkupPercent:  payload.Markup,
		DiscountAmount: payload.Discount,
		TaxRate:        payload.Tax,
		Total:          payload.Total,
		DepositPercent: payload.Deposit,
		Status:         payload.Status,
		Metadata:       payload.Metadata,
		CreatedAt:      time.Now().UTC(),
	}

	record.Items = make([]DocumentItem, 0, len(payload.Items))
	for i, item := range payload.Items {
		record.Items = append(record.Items, DocumentItem{
			ID:                  r.genID.Generate(),
			DocumentID:          docID,
			OrgID:               orgID,
			Position:            i,
			Description:         item.Description,
			DetailedDescription: item.DetailedDescription,
			Quantity:            item.Quantity,
			Rate:                item.Rate,
			Amount:              item.Amount,
		})
	}
	return record, nil
}

var _ domain.Repository = (*Repository)(nil)
