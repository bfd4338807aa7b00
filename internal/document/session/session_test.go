package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sequenceID struct {
	next int64
}

func (s *sequenceID) Generate() snowflake.ID {
	s.next++
	return snowflake.ID(s.next)
}

type creatorMock struct {
	mock.Mock
}

func (m *creatorMock) CreateDocument(ctx context.Context, payload domain.Payload) (domain.Created, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(domain.Created), args.Error(1)
}

func newSession() *Session {
	return New(domain.KindInvoice, &sequenceID{}, Defaults{
		IssueDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidityDays:   30,
		DepositPercent: decimal.NewFromInt(50),
	})
}

func TestNewSessionDefaults(t *testing.T) {
	s := newSession()

	require.Len(t, s.Items(), 1)
	assert.True(t, s.Totals().Total.IsZero())
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), s.Dates().DerivedDate)

	adj := s.Adjustments()
	assert.False(t, adj.Deposit.Enabled)
	assert.True(t, adj.Deposit.Percent.Equal(decimal.NewFromInt(50)))
}

func TestNewSessionClampsDefaultDeposit(t *testing.T) {
	s := New(domain.KindEstimate, &sequenceID{}, Defaults{DepositPercent: decimal.NewFromInt(250)})
	assert.True(t, s.Adjustments().Deposit.Percent.Equal(decimal.NewFromInt(100)))
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	s := newSession()
	var seen []string
	s.Subscribe(func(got domain.Totals) { seen = append(seen, got.Total.String()) })

	id := s.Items()[0].ID
	require.NoError(t, s.UpdateField(id, domain.FieldRate, "100"))
	require.NoError(t, s.SetTax(true, decimal.NewFromInt(10)))
	s.ToggleTax(false)

	assert.Equal(t, []string{"0", "100", "110", "100"}, seen)
}

func TestToggleRoundTripRestoresTotals(t *testing.T) {
	s := newSession()
	id := s.Items()[0].ID
	require.NoError(t, s.UpdateField(id, domain.FieldRate, "100"))
	require.NoError(t, s.SetMarkup(true, decimal.NewFromInt(10)))
	require.NoError(t, s.SetDiscount(true, decimal.NewFromInt(20)))
	require.NoError(t, s.SetTax(true, decimal.NewFromInt(10)))
	s.ToggleDeposit(true)

	before := s.Totals()
	assert.True(t, before.Total.Equal(decimal.NewFromInt(99)))
	assert.True(t, before.DepositAmount.Equal(decimal.RequireFromString("49.5")))

	s.ToggleMarkup(false)
	s.ToggleDiscount(false)
	assert.True(t, s.Totals().Total.Equal(decimal.NewFromInt(110)))

	s.ToggleMarkup(true)
	s.ToggleDiscount(true)
	assert.True(t, before.Equal(s.Totals()))
}

func TestRejectedAdjustmentLeavesTotals(t *testing.T) {
	s := newSession()
	require.NoError(t, s.UpdateField(s.Items()[0].ID, domain.FieldRate, "40"))
	before := s.Totals()

	assert.ErrorIs(t, s.SetDiscount(true, decimal.NewFromInt(-5)), domain.ErrNegativeMagnitude)
	assert.ErrorIs(t, s.SetDeposit(true, decimal.NewFromInt(120)), domain.ErrDepositOutOfRange)
	assert.True(t, before.Equal(s.Totals()))
}

func TestEndToEndSubtotal(t *testing.T) {
	s := newSession()
	first := s.Items()[0].ID
	require.NoError(t, s.UpdateField(first, domain.FieldDescription, "Water extraction"))
	require.NoError(t, s.UpdateField(first, domain.FieldQuantity, "2"))
	require.NoError(t, s.UpdateField(first, domain.FieldRate, "50"))

	_, err := s.AddFromSaved(domain.SavedLineItem{ID: 9, Description: "Moisture mapping", Rate: decimal.NewFromInt(25)})
	require.NoError(t, err)

	assert.True(t, s.Totals().Subtotal.Equal(decimal.NewFromInt(125)))

	extra := s.AddItem(domain.Template{})
	require.NoError(t, s.UpdateField(extra.ID, domain.FieldRate, "10"))
	assert.True(t, s.Totals().Subtotal.Equal(decimal.NewFromInt(135)))

	require.NoError(t, s.RemoveItem(extra.ID))
	assert.True(t, s.Totals().Subtotal.Equal(decimal.NewFromInt(125)))
}

func TestResetThenRepopulateKeepsSubtotal(t *testing.T) {
	s := newSession()
	var seen []string
	s.Subscribe(func(got domain.Totals) { seen = append(seen, got.Subtotal.String()) })

	first := s.Items()[0].ID
	require.NoError(t, s.UpdateField(first, domain.FieldRate, "80"))

	s.Reset()
	assert.Empty(t, s.Items())
	assert.True(t, s.Totals().Subtotal.IsZero())
	assert.True(t, s.Totals().Total.IsZero())
	assert.ErrorIs(t, s.RemoveItem(first), domain.ErrLineItemNotFound)

	a := s.AddItem(domain.Template{})
	require.NoError(t, s.UpdateField(a.ID, domain.FieldDescription, "Dehumidifier"))
	require.NoError(t, s.UpdateField(a.ID, domain.FieldQuantity, "3"))
	require.NoError(t, s.UpdateField(a.ID, domain.FieldRate, "45"))
	_, err := s.AddManyFromSaved([]domain.SavedLineItem{
		{ID: 21, Description: "Air mover", Rate: decimal.NewFromInt(30)},
		{ID: 22, Description: "Trip charge", Rate: decimal.RequireFromString("12.5")},
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range s.Items() {
		sum = sum.Add(item.Amount)
	}
	assert.True(t, sum.Equal(decimal.RequireFromString("177.5")), sum.String())
	assert.True(t, s.Totals().Subtotal.Equal(sum))

	assert.Equal(t, []string{"0", "80", "0", "0", "0", "0", "135", "177.5"}, seen)
}

func TestApplyProjectPrefill(t *testing.T) {
	s := newSession()
	s.UpdateMeta(func(m *domain.Meta) { m.ClientEmail = "typed@example.com" })

	s.ApplyProject(domain.Project{ID: 5, Name: "Smith Residence", ClientName: "John Smith", ClientPhoneNumber: "555-0101"})

	meta := s.Meta()
	require.NotNil(t, meta.ProjectID)
	assert.Equal(t, snowflake.ID(5), *meta.ProjectID)
	assert.Equal(t, "Smith Residence", meta.ProjectName)
	assert.Equal(t, "John Smith", meta.ClientName)
	assert.Equal(t, "typed@example.com", meta.ClientEmail)
	assert.Equal(t, "555-0101", meta.ClientPhone)
	assert.Equal(t, "Smith Residence - Professional Services", s.Items()[0].Description)
}

func TestApplyProjectKeepsTypedRows(t *testing.T) {
	s := newSession()
	require.NoError(t, s.UpdateField(s.Items()[0].ID, domain.FieldDescription, "Mold remediation"))

	s.ApplyProject(domain.Project{ID: 5, Name: "Smith Residence"})

	assert.Equal(t, "Mold remediation", s.Items()[0].Description)
}

func TestValidityDaysAndOverride(t *testing.T) {
	s := newSession()

	s.OverrideDueDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, domain.DateSourceManual, s.Dates().Source)

	s.SetValidityDays("abc")
	assert.Equal(t, 0, s.Dates().ValidityDays)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), s.Dates().DerivedDate)

	s.SetIssueDate(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	s.SetValidityDays("14")
	assert.Equal(t, time.Date(2024, 2, 24, 0, 0, 0, 0, time.UTC), s.Dates().DerivedDate)
}

func TestSubmitPassesPayloadToCreator(t *testing.T) {
	s := newSession()
	require.NoError(t, s.UpdateField(s.Items()[0].ID, domain.FieldDescription, "Demo"))
	require.NoError(t, s.UpdateField(s.Items()[0].ID, domain.FieldRate, "80"))
	s.UpdateMeta(func(m *domain.Meta) {
		m.ClientName = "Acme"
		m.ProjectName = "Warehouse"
		m.Number = "INV-010"
	})

	creator := &creatorMock{}
	creator.On("CreateDocument", mock.Anything, mock.MatchedBy(func(p domain.Payload) bool {
		return p.Number == "INV-010" && p.Total.Equal(decimal.NewFromInt(80)) && p.Kind == domain.KindInvoice
	})).Return(domain.Created{ID: 1, Number: "INV-010"}, nil)

	created, err := s.Submit(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "INV-010", created.Number)
	creator.AssertExpectations(t)
}

func TestSubmitValidationSkipsCreator(t *testing.T) {
	s := newSession()
	creator := &creatorMock{}

	_, err := s.Submit(context.Background(), creator)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	creator.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
}

func TestSubmitReturnsCreatorErrorUnchanged(t *testing.T) {
	s := newSession()
	require.NoError(t, s.UpdateField(s.Items()[0].ID, domain.FieldDescription, "Demo"))
	s.UpdateMeta(func(m *domain.Meta) {
		m.ClientName = "Acme"
		m.ProjectName = "Warehouse"
	})

	boom := errors.New("db unavailable")
	creator := &creatorMock{}
	creator.On("CreateDocument", mock.Anything, mock.Anything).Return(domain.Created{}, boom)

	_, err := s.Submit(context.Background(), creator)
	assert.Equal(t, boom, err)
}
