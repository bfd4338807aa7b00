package metrics

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smallbiznis/claimdocs/internal/document/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const (
	RejectReasonValidation   = "validation"
	RejectReasonMagnitude    = "invalid_magnitude"
	RejectReasonDuplicate    = "duplicate_number"
	RejectReasonDeadline     = "deadline_exceeded"
	RejectReasonDB           = "db"
	RejectReasonUnknown      = "unknown"
	RejectReasonOrganization = "invalid_organization"
)

// DocumentMetrics counts document engine outcomes by kind.
type DocumentMetrics struct {
	created  metric.Int64Counter
	rejected metric.Int64Counter
	previews metric.Int64Counter
}

// NewDocumentMetrics creates the document counters on provider.
func NewDocumentMetrics(cfg Config, provider metric.MeterProvider) (*DocumentMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(serviceNameOf(cfg) + "/document")

	created, err := meter.Int64Counter("claimdocs_documents_created_total",
		metric.WithDescription("Documents persisted by kind."))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("claimdocs_documents_rejected_total",
		metric.WithDescription("Document submissions rejected by kind and reason."))
	if err != nil {
		return nil, err
	}
	previews, err := meter.Int64Counter("claimdocs_document_previews_total",
		metric.WithDescription("Draft previews computed by kind."))
	if err != nil {
		return nil, err
	}

	return &DocumentMetrics{
		created:  created,
		rejected: rejected,
		previews: previews,
	}, nil
}

func (m *DocumentMetrics) RecordCreated(ctx context.Context, kind domain.Kind) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", string(kind)),
	)...))
}

func (m *DocumentMetrics) RecordRejected(ctx context.Context, kind domain.Kind, err error) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("reason", ClassifyRejectReason(err)),
	)...))
}

func (m *DocumentMetrics) RecordPreview(ctx context.Context, kind domain.Kind) {
	if m == nil {
		return
	}
	m.previews.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", string(kind)),
	)...))
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":   {},
	"reason": {},
}

// FilterAttributes drops any attribute outside the bounded label set.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// ClassifyRejectReason maps err onto a bounded label value.
func ClassifyRejectReason(err error) string {
	if err == nil {
		return RejectReasonUnknown
	}
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidSavedLineItem),
		errors.Is(err, domain.ErrDepositOutOfRange):
		return RejectReasonValidation
	case errors.Is(err, domain.ErrNegativeMagnitude):
		return RejectReasonMagnitude
	case errors.Is(err, domain.ErrInvalidOrganization):
		return RejectReasonOrganization
	case errors.Is(err, domain.ErrDuplicateNumber),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return RejectReasonDuplicate
	case errors.Is(err, context.DeadlineExceeded):
		return RejectReasonDeadline
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return RejectReasonDuplicate
		}
		return RejectReasonDB
	}
	return RejectReasonUnknown
}
