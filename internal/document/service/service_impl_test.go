package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/clock"
	"github.com/smallbiznis/claimdocs/internal/config"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/repository"
	"github.com/smallbiznis/claimdocs/internal/money"
	"github.com/smallbiznis/claimdocs/internal/observability/metrics"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProjects struct {
	projects map[snowflake.ID]domain.Project
	err      error
}

func (s *stubProjects) FetchProject(ctx context.Context, id snowflake.ID) (domain.Project, error) {
	if s.err != nil {
		return domain.Project{}, s.err
	}
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, errors.New("project_not_found")
	}
	return p, nil
}

type stubSavedItems struct {
	items []domain.SavedLineItem
}

func (s *stubSavedItems) List(ctx context.Context) ([]domain.SavedLineItem, error) {
	return s.items, nil
}

type fixture struct {
	svc      domain.Service
	orgID    snowflake.ID
	ctx      context.Context
	projects *stubProjects
	saved    *stubSavedItems
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&repository.Document{}, &repository.DocumentItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	docMetrics, err := metrics.NewDocumentMetrics(metrics.Config{ServiceName: "claimdocs-test"}, noop.NewMeterProvider())
	require.NoError(t, err)

	water := "Water Mitigation"
	f := &fixture{
		orgID: node.Generate(),
		projects: &stubProjects{projects: map[snowflake.ID]domain.Project{
			snowflake.ID(500): {ID: 500, Name: "Smith Residence", ClientName: "John Smith", ClientEmail: "john@example.com"},
		}},
		saved: &stubSavedItems{items: []domain.SavedLineItem{
			{ID: 11, Description: "Air mover", Rate: decimal.NewFromInt(35), Category: &water},
			{ID: 12, Description: "Dehumidifier", Rate: decimal.NewFromInt(70), Category: &water},
			{ID: 13, Description: "Trip charge", Rate: decimal.NewFromInt(95)},
		}},
	}
	f.ctx = orgcontext.WithOrgID(context.Background(), f.orgID)
	f.svc = NewService(ServiceParams{
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.NewRepository(repository.Params{DB: db, GenID: node}),
		Defaults:   config.NewStaticDocumentDefaultsHolder(config.DefaultDocumentDefaults()),
		Clock:      clock.NewFakeClock(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)),
		Projects:   f.projects,
		SavedItems: f.saved,
		Metrics:    docMetrics,
	})
	return f
}

func item(description, qty, rate string) domain.ItemInput {
	return domain.ItemInput{Description: description, Quantity: money.Input(qty), Rate: money.Input(rate)}
}

func TestPreviewComputesTotalsAndDates(t *testing.T) {
	f := setup(t)

	preview, err := f.svc.Preview(f.ctx, domain.DocumentRequest{
		Kind:     domain.KindInvoice,
		Items:    []domain.ItemInput{item("Demo", "1", "100")},
		Markup:   &domain.AdjustmentInput{Enabled: true, Value: "10"},
		Discount: &domain.AdjustmentInput{Enabled: true, Value: "20"},
		Tax:      &domain.AdjustmentInput{Enabled: true, Value: "10"},
		Deposit:  &domain.AdjustmentInput{Enabled: true},
	})
	require.NoError(t, err)

	assert.True(t, preview.Totals.Total.Equal(decimal.NewFromInt(99)))
	assert.True(t, preview.Totals.DepositAmount.Equal(decimal.RequireFromString("49.5")))
	assert.Equal(t, "49.50", preview.Display["deposit_amount"])
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), preview.Dates.DerivedDate)
}

func TestPreviewWithoutItemsKeepsBlankRow(t *testing.T) {
	f := setup(t)

	preview, err := f.svc.Preview(f.ctx, domain.DocumentRequest{Kind: domain.KindEstimate})
	require.NoError(t, err)
	assert.Len(t, preview.Items, 1)
	assert.True(t, preview.Totals.Total.IsZero())
}

func TestCreateAllocatesNumbersPerKind(t *testing.T) {
	f := setup(t)
	req := domain.DocumentRequest{
		Kind:        domain.KindInvoice,
		ClientName:  "Acme",
		ProjectName: "Warehouse",
		Items:       []domain.ItemInput{item("Extraction", "2", "50"), item("Moisture mapping", "1", "25")},
	}

	first, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", first.Number)
	assert.True(t, first.Totals.Subtotal.Equal(decimal.NewFromInt(125)))

	second, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-002", second.Number)

	req.Kind = domain.KindEstimate
	estimate, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "EST-001", estimate.Number)

	stored, err := f.svc.Get(f.ctx, domain.KindEstimate, estimate.ID)
	require.NoError(t, err)
	assert.Equal(t, "EST-001", stored.Number)
	assert.Len(t, stored.Items, 2)

	_, err = f.svc.Get(f.ctx, domain.KindInvoice, estimate.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

}

func TestCreateDuplicateNumber(t *testing.T) {
	f := setup(t)
	req := domain.DocumentRequest{
		Kind:        domain.KindInvoice,
		Number:      "INV-100",
		ClientName:  "Acme",
		ProjectName: "Warehouse",
		Items:       []domain.ItemInput{item("Extraction", "1", "50")},
	}

	_, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
}

func TestCreateReportsAllMissingFields(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.ctx, domain.DocumentRequest{
		Kind:  domain.KindEstimate,
		Items: []domain.ItemInput{item("", "1", "10")},
	})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"client_name", "project", "items[0].description"}, fields)
}

func TestCreateRejectsNegativeAdjustment(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.ctx, domain.DocumentRequest{
		Kind:        domain.KindInvoice,
		ClientName:  "Acme",
		ProjectName: "Warehouse",
		Items:       []domain.ItemInput{item("Demo", "1", "10")},
		Discount:    &domain.AdjustmentInput{Enabled: true, Value: "-5"},
	})
	assert.ErrorIs(t, err, domain.ErrNegativeMagnitude)
}

func TestCreateRequiresOrganization(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), domain.DocumentRequest{Kind: domain.KindInvoice})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestInvalidKind(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Preview(f.ctx, domain.DocumentRequest{Kind: "receipt"})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestProjectPrefill(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.Create(f.ctx, domain.DocumentRequest{
		Kind:        domain.KindEstimate,
		ProjectID:   "500",
		ClientEmail: "override@example.com",
	})
	require.NoError(t, err)

	stored, err := f.svc.Get(f.ctx, domain.KindEstimate, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Smith", stored.ClientName)
	require.NotNil(t, stored.ClientEmail)
	assert.Equal(t, "override@example.com", *stored.ClientEmail)
	assert.Equal(t, "Smith Residence", stored.ProjectName)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Smith Residence - Professional Services", stored.Items[0].Description)
}

func TestProjectPrefillFailureIsIgnored(t *testing.T) {
	f := setup(t)
	f.projects.err = errors.New("projects unavailable")

	preview, err := f.svc.Preview(f.ctx, domain.DocumentRequest{Kind: domain.KindInvoice, ProjectID: "500"})
	require.NoError(t, err)
	assert.Equal(t, "", preview.Items[0].Description)

	_, err = f.svc.Preview(f.ctx, domain.DocumentRequest{Kind: domain.KindInvoice, ProjectID: "abc"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "project_id", verr.Fields[0].Field)
}

func TestSavedItemsByIDAndCategory(t *testing.T) {
	f := setup(t)

	preview, err := f.svc.Preview(f.ctx, domain.DocumentRequest{
		Kind:          domain.KindInvoice,
		SavedItemIDs:  []string{"13"},
		SavedCategory: "water-mitigation",
	})
	require.NoError(t, err)

	descriptions := make([]string, 0, len(preview.Items))
	for _, it := range preview.Items {
		descriptions = append(descriptions, it.Description)
	}
	assert.Equal(t, []string{"Trip charge", "Air mover", "Dehumidifier"}, descriptions)
	assert.True(t, preview.Totals.Subtotal.Equal(decimal.NewFromInt(200)))

	_, err = f.svc.Preview(f.ctx, domain.DocumentRequest{Kind: domain.KindInvoice, SavedItemIDs: []string{"99"}})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, domain.CodeNotFound, verr.Fields[0].Code)
}

func TestValidityAndDueDateOverride(t *testing.T) {
	f := setup(t)

	preview, err := f.svc.Preview(f.ctx, domain.DocumentRequest{
		Kind:         domain.KindEstimate,
		IssueDate:    "2024-02-01",
		ValidityDays: "14",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), preview.Dates.DerivedDate)

	preview, err = f.svc.Preview(f.ctx, domain.DocumentRequest{
		Kind:    domain.KindEstimate,
		DueDate: "2024-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), preview.Dates.DerivedDate)
	assert.Equal(t, domain.DateSourceManual, preview.Dates.Source)

	_, err = f.svc.Preview(f.ctx, domain.DocumentRequest{Kind: domain.KindEstimate, IssueDate: "01/02/2024"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "issue_date", verr.Fields[0].Field)
}
