package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/clock"
	"github.com/smallbiznis/claimdocs/internal/config"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/document/schedule"
	"github.com/smallbiznis/claimdocs/internal/document/session"
	"github.com/smallbiznis/claimdocs/internal/document/totals"
	"github.com/smallbiznis/claimdocs/internal/money"
	obslogger "github.com/smallbiznis/claimdocs/internal/observability/logger"
	"github.com/smallbiznis/claimdocs/internal/observability/metrics"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/catalog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParams struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Defaults   *config.DocumentDefaultsHolder
	Clock      clock.Clock
	Projects   domain.ProjectSource     `optional:"true"`
	SavedItems domain.SavedItemSource   `optional:"true"`
	Metrics    *metrics.DocumentMetrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	defaults   *config.DocumentDefaultsHolder
	clock      clock.Clock
	projects   domain.ProjectSource
	savedItems domain.SavedItemSource
	metrics    *metrics.DocumentMetrics
	tracer     trace.Tracer
}

func NewService(p ServiceParams) domain.Service {
	return &Service{
		log:        p.Log.Named("document.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		defaults:   p.Defaults,
		clock:      p.Clock,
		projects:   p.Projects,
		savedItems: p.SavedItems,
		metrics:    p.Metrics,
		tracer:     otel.Tracer("claimdocs/document"),
	}
}

func (s *Service) Preview(ctx context.Context, req domain.DocumentRequest) (domain.Preview, error) {
	ctx, span := s.tracer.Start(ctx, "document.preview", trace.WithAttributes(attribute.String("document.kind", string(req.Kind))))
	defer span.End()

	sess, err := s.buildSession(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "build draft")
		return domain.Preview{}, err
	}
	s.metrics.RecordPreview(ctx, sess.Kind())

	current := sess.Totals()
	return domain.Preview{
		Kind:    sess.Kind(),
		Items:   sess.Items(),
		Totals:  current,
		Display: totals.Display(current),
		Dates:   sess.Dates(),
	}, nil
}

func (s *Service) Create(ctx context.Context, req domain.DocumentRequest) (domain.CreateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "document.create", trace.WithAttributes(attribute.String("document.kind", string(req.Kind))))
	defer span.End()
	log := obslogger.WithContext(ctx, s.log)

	resp, err := s.create(ctx, req)
	if err != nil {
		s.metrics.RecordRejected(ctx, req.Kind, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, metrics.ClassifyRejectReason(err))
		log.Info("document rejected",
			zap.String("kind", string(req.Kind)),
			zap.String("reason", metrics.ClassifyRejectReason(err)),
			zap.Error(err),
		)
		return domain.CreateResponse{}, err
	}

	s.metrics.RecordCreated(ctx, req.Kind)
	span.SetAttributes(attribute.String("document.id", resp.ID))
	log.Info("document created",
		zap.String("kind", string(req.Kind)),
		zap.String("document_id", resp.ID),
		zap.String("number", resp.Number),
	)
	return resp, nil
}

func (s *Service) create(ctx context.Context, req domain.DocumentRequest) (domain.CreateResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.CreateResponse{}, domain.ErrInvalidOrganization
	}

	sess, err := s.buildSession(ctx, req)
	if err != nil {
		return domain.CreateResponse{}, err
	}

	if strings.TrimSpace(sess.Meta().Number) == "" {
		number, err := s.repo.NextNumber(ctx, orgID, sess.Kind(), s.prefixFor(sess.Kind()))
		if err != nil {
			return domain.CreateResponse{}, fmt.Errorf("allocate number: %w", err)
		}
		sess.UpdateMeta(func(m *domain.Meta) { m.Number = number })
	}

	created, err := sess.Submit(ctx, s.repo)
	if err != nil {
		return domain.CreateResponse{}, err
	}

	return domain.CreateResponse{
		ID:     created.ID.String(),
		Number: created.Number,
		Totals: sess.Totals(),
	}, nil
}

// Get returns a stored document of the given kind owned by the organization in context.
func (s *Service) Get(ctx context.Context, kind domain.Kind, id string) (*domain.StoredDocument, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	docID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || docID == 0 {
		return nil, domain.ErrNotFound
	}

	doc, err := s.repo.FindByID(ctx, orgID, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Kind != kind {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (s *Service) prefixFor(kind domain.Kind) string {
	defaults := s.defaults.Get()
	if kind == domain.KindEstimate {
		return defaults.EstimatePrefix
	}
	return defaults.InvoicePrefix
}

func (s *Service) validityFor(kind domain.Kind) int {
	defaults := s.defaults.Get()
	if kind == domain.KindEstimate {
		return defaults.EstimateDaysValid
	}
	return defaults.InvoiceDaysToPay
}

// buildSession replays a submitted draft onto a fresh session in the order a
// user would fill the form: dates, rows, catalog picks, project, fields, toggles.
func (s *Service) buildSession(ctx context.Context, req domain.DocumentRequest) (*session.Session, error) {
	if !req.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	verr := &domain.ValidationError{}

	issue := s.clock.Now()
	if raw := strings.TrimSpace(req.IssueDate); raw != "" {
		parsed, err := schedule.ParseDate(raw)
		if err != nil {
			verr.Add("issue_date", domain.CodeInvalid, "issue_date must be YYYY-MM-DD")
		} else {
			issue = parsed
		}
	}

	sess := session.New(req.Kind, s.genID, session.Defaults{
		IssueDate:      issue,
		ValidityDays:   s.validityFor(req.Kind),
		DepositPercent: s.defaults.Get().DepositPercent,
		Number:         strings.TrimSpace(req.Number),
	})
	if req.ValidityDays.IsSet() {
		sess.SetValidityDays(req.ValidityDays.String())
	}

	if len(req.Items) > 0 || len(req.SavedItemIDs) > 0 || strings.TrimSpace(req.SavedCategory) != "" {
		sess.Reset()
	}
	for _, in := range req.Items {
		addItem(sess, in)
	}

	if err := s.addSavedItems(ctx, sess, req, verr); err != nil {
		return nil, err
	}

	s.applyProject(ctx, sess, req, verr)
	applyMeta(sess, req)

	if err := applyAdjustments(sess, req); err != nil {
		return nil, err
	}

	if raw := strings.TrimSpace(req.DueDate); raw != "" {
		due, err := schedule.ParseDate(raw)
		if err != nil {
			verr.Add("due_date", domain.CodeInvalid, "due_date must be YYYY-MM-DD")
		} else {
			sess.OverrideDueDate(due)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return sess, nil
}

func addItem(sess *session.Session, in domain.ItemInput) {
	description := in.Description
	item := sess.AddItem(domain.Template{
		Description:         &description,
		DetailedDescription: in.DetailedDescription,
	})
	if in.Quantity.IsSet() {
		_ = sess.UpdateField(item.ID, domain.FieldQuantity, in.Quantity.String())
	}
	if in.Rate.IsSet() {
		_ = sess.UpdateField(item.ID, domain.FieldRate, in.Rate.String())
	}
}

func (s *Service) addSavedItems(ctx context.Context, sess *session.Session, req domain.DocumentRequest, verr *domain.ValidationError) error {
	category := strings.TrimSpace(req.SavedCategory)
	if len(req.SavedItemIDs) == 0 && category == "" {
		return nil
	}
	if s.savedItems == nil {
		verr.Add("saved_item_ids", domain.CodeInvalid, "saved line items are unavailable")
		return nil
	}

	catalogItems, err := s.savedItems.List(ctx)
	if err != nil {
		return fmt.Errorf("list saved line items: %w", err)
	}
	byID := make(map[string]domain.SavedLineItem, len(catalogItems))
	for _, item := range catalogItems {
		byID[item.ID.String()] = item
	}

	selected := make([]domain.SavedLineItem, 0, len(req.SavedItemIDs))
	for i, raw := range req.SavedItemIDs {
		item, ok := byID[strings.TrimSpace(raw)]
		if !ok {
			verr.Add(fmt.Sprintf("saved_item_ids[%d]", i), domain.CodeNotFound, "saved line item not found")
			continue
		}
		selected = append(selected, item)
	}

	if category != "" {
		group := catalog.GroupByCategory(catalogItems).Filter(category)
		if len(group) == 0 {
			verr.Add("saved_category", domain.CodeNotFound, "category not found")
		}
		selected = append(selected, group...)
	}

	if len(selected) == 0 {
		return nil
	}
	_, err = sess.AddManyFromSaved(selected)
	return err
}

// applyProject is best-effort: a missing or failing project source only costs the prefill.
func (s *Service) applyProject(ctx context.Context, sess *session.Session, req domain.DocumentRequest, verr *domain.ValidationError) {
	raw := strings.TrimSpace(req.ProjectID)
	if raw == "" {
		return
	}
	projectID, err := snowflake.ParseString(raw)
	if err != nil || projectID == 0 {
		verr.Add("project_id", domain.CodeInvalid, "project_id is invalid")
		return
	}
	sess.UpdateMeta(func(m *domain.Meta) { m.ProjectID = &projectID })

	if s.projects == nil {
		return
	}
	project, err := s.projects.FetchProject(ctx, projectID)
	if err != nil {
		obslogger.WithContext(ctx, s.log).Warn("project prefill skipped",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
		return
	}
	sess.ApplyProject(project)
}

// applyMeta lets explicit request fields win over project prefill.
func applyMeta(sess *session.Session, req domain.DocumentRequest) {
	sess.UpdateMeta(func(m *domain.Meta) {
		setIfPresent(&m.ClientName, req.ClientName)
		setIfPresent(&m.ClientEmail, req.ClientEmail)
		setIfPresent(&m.ClientPhone, req.ClientPhone)
		setIfPresent(&m.ProjectName, req.ProjectName)
		setIfPresent(&m.Notes, req.Notes)
		setIfPresent(&m.AdjusterName, req.AdjusterName)
		setIfPresent(&m.AdjusterPhone, req.AdjusterPhone)
		setIfPresent(&m.AdjusterEmail, req.AdjusterEmail)
	})
}

func setIfPresent(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

type adjustmentSetter func(enabled bool, magnitude decimal.Decimal) error

func applyAdjustments(sess *session.Session, req domain.DocumentRequest) error {
	steps := []struct {
		input  *domain.AdjustmentInput
		set    adjustmentSetter
		toggle func(bool)
	}{
		{req.Markup, sess.SetMarkup, sess.ToggleMarkup},
		{req.Discount, sess.SetDiscount, sess.ToggleDiscount},
		{req.Tax, sess.SetTax, sess.ToggleTax},
		{req.Deposit, sess.SetDeposit, sess.ToggleDeposit},
	}
	for _, step := range steps {
		if step.input == nil {
			continue
		}
		if !step.input.Value.IsSet() {
			step.toggle(step.input.Enabled)
			continue
		}
		if err := step.set(step.input.Enabled, money.Coerce(step.input.Value.String())); err != nil {
			return err
		}
	}
	return nil
}

var _ domain.Service = (*Service)(nil)
