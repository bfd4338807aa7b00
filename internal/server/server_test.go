package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/claimdocs/internal/config"
	documentdomain "github.com/smallbiznis/claimdocs/internal/document/domain"
	"github.com/smallbiznis/claimdocs/internal/orgcontext"
	"github.com/smallbiznis/claimdocs/internal/savedlineitem/catalog"
	savedlineitemdomain "github.com/smallbiznis/claimdocs/internal/savedlineitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentService struct {
	lastReq   documentdomain.DocumentRequest
	lastOrgID snowflake.ID
	createErr error
	stored    *documentdomain.StoredDocument
}

func (f *fakeDocumentService) Preview(ctx context.Context, req documentdomain.DocumentRequest) (documentdomain.Preview, error) {
	f.lastReq = req
	f.lastOrgID, _ = orgcontext.OrgIDFromContext(ctx)
	return documentdomain.Preview{
		Kind:   req.Kind,
		Totals: documentdomain.Totals{Subtotal: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
	}, nil
}

func (f *fakeDocumentService) Create(ctx context.Context, req documentdomain.DocumentRequest) (documentdomain.CreateResponse, error) {
	f.lastReq = req
	f.lastOrgID, _ = orgcontext.OrgIDFromContext(ctx)
	if f.createErr != nil {
		return documentdomain.CreateResponse{}, f.createErr
	}
	return documentdomain.CreateResponse{ID: "42", Number: "INV-001"}, nil
}

func (f *fakeDocumentService) Get(ctx context.Context, kind documentdomain.Kind, id string) (*documentdomain.StoredDocument, error) {
	if f.stored == nil || f.stored.ID != id || f.stored.Kind != kind {
		return nil, documentdomain.ErrNotFound
	}
	return f.stored, nil
}

type fakeSavedItemService struct {
	items []documentdomain.SavedLineItem
}

func (f *fakeSavedItemService) List(ctx context.Context) ([]documentdomain.SavedLineItem, error) {
	return f.items, nil
}

func (f *fakeSavedItemService) Grouped(ctx context.Context) (catalog.Groups, error) {
	return catalog.GroupByCategory(f.items), nil
}

func (f *fakeSavedItemService) Create(ctx context.Context, req savedlineitemdomain.CreateRequest) (*documentdomain.SavedLineItem, error) {
	if req.Description == "" {
		return nil, savedlineitemdomain.ErrInvalidDescription
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, savedlineitemdomain.ErrInvalidRate
	}
	item := documentdomain.SavedLineItem{ID: snowflake.ID(len(f.items) + 1), Description: req.Description, Rate: rate, Category: req.Category}
	f.items = append(f.items, item)
	return &item, nil
}

func newTestServer(t *testing.T, docs *fakeDocumentService, saved *fakeSavedItemService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{DefaultOrgID: 7},
		DocumentSvc:  docs,
		SavedItemSvc: saved,
	})
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestPreviewDocumentStampsKindAndOrg(t *testing.T) {
	docs := &fakeDocumentService{}
	engine := newTestServer(t, docs, &fakeSavedItemService{})

	rec := doJSON(t, engine, http.MethodPost, "/api/estimates/preview", map[string]any{
		"client_name": "Acme",
		"items":       []map[string]any{{"description": "Drywall", "quantity": "2", "rate": 50}},
	}, map[string]string{HeaderOrg: "99"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, documentdomain.KindEstimate, docs.lastReq.Kind)
	assert.Equal(t, snowflake.ID(99), docs.lastOrgID)
	require.Len(t, docs.lastReq.Items, 1)
	assert.Equal(t, "2", docs.lastReq.Items[0].Quantity.String())
	assert.Equal(t, "50", docs.lastReq.Items[0].Rate.String())
}

func TestCreateDocumentUsesDefaultOrg(t *testing.T) {
	docs := &fakeDocumentService{}
	engine := newTestServer(t, docs, &fakeSavedItemService{})

	rec := doJSON(t, engine, http.MethodPost, "/api/invoices", map[string]any{"client_name": "Acme"}, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, documentdomain.KindInvoice, docs.lastReq.Kind)
	assert.Equal(t, snowflake.ID(7), docs.lastOrgID)
	assert.Contains(t, rec.Body.String(), "INV-001")
}

func TestCreateDocumentErrorMapping(t *testing.T) {
	verr := &documentdomain.ValidationError{}
	verr.Add("client_name", documentdomain.CodeRequired, "client name is required")
	verr.Add("items", documentdomain.CodeRequired, "at least one line item is required")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantFields []string
	}{
		{
			name:       "aggregate validation",
			err:        verr,
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
			wantFields: []string{"client_name", "items"},
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("apply markup: %w", documentdomain.ErrNegativeMagnitude),
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
			wantFields: []string{"magnitude"},
		},
		{
			name:       "duplicate number",
			err:        fmt.Errorf("%w: INV-001", documentdomain.ErrDuplicateNumber),
			wantStatus: http.StatusConflict,
			wantType:   "conflict",
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestServer(t, &fakeDocumentService{createErr: tt.err}, &fakeSavedItemService{})

			rec := doJSON(t, engine, http.MethodPost, "/api/invoices", map[string]any{}, nil)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			payload := decodeError(t, rec)
			assert.Equal(t, tt.wantType, payload.Type)
			fields := make([]string, 0, len(payload.Errors))
			for _, e := range payload.Errors {
				fields = append(fields, e.Field)
			}
			if tt.wantFields == nil {
				assert.Empty(t, fields)
			} else {
				assert.Equal(t, tt.wantFields, fields)
			}
		})
	}
}

func TestOrgHeaderValidation(t *testing.T) {
	engine := newTestServer(t, &fakeDocumentService{}, &fakeSavedItemService{})

	rec := doJSON(t, engine, http.MethodPost, "/api/invoices/preview", map[string]any{}, map[string]string{HeaderOrg: "not-a-number"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_organization", payload.Errors[0].Code)
}

func TestMalformedBodyIsInvalidRequest(t *testing.T) {
	engine := newTestServer(t, &fakeDocumentService{}, &fakeSavedItemService{})

	req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Errors[0].Code)
}

func TestGetDocumentChecksKind(t *testing.T) {
	docs := &fakeDocumentService{stored: &documentdomain.StoredDocument{
		ID:      "5",
		Payload: documentdomain.Payload{Kind: documentdomain.KindEstimate, Number: "EST-001"},
	}}
	engine := newTestServer(t, docs, &fakeSavedItemService{})

	rec := doJSON(t, engine, http.MethodGet, "/api/estimates/5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EST-001")

	rec = doJSON(t, engine, http.MethodGet, "/api/invoices/5", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavedLineItemsGroupedAndFiltered(t *testing.T) {
	water := "Water Mitigation"
	saved := &fakeSavedItemService{items: []documentdomain.SavedLineItem{
		{ID: 1, Description: "Extraction", Rate: decimal.NewFromInt(3), Category: &water},
		{ID: 2, Description: "Site visit", Rate: decimal.NewFromInt(150)},
		{ID: 3, Description: "Dehumidifier", Rate: decimal.NewFromInt(75), Category: &water},
	}}
	engine := newTestServer(t, &fakeDocumentService{}, saved)

	rec := doJSON(t, engine, http.MethodGet, "/api/saved-line-items", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []catalog.Group `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Water Mitigation", resp.Data[0].Name)
	assert.Equal(t, "water-mitigation", resp.Data[0].Key)
	assert.Len(t, resp.Data[0].Items, 2)
	assert.Equal(t, catalog.Uncategorized, resp.Data[1].Name)

	rec = doJSON(t, engine, http.MethodGet, "/api/saved-line-items?category=water-mitigation", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Water Mitigation", resp.Data[0].Name)
}

func TestSavedLineItemsFilterMatchesCollidingSpellings(t *testing.T) {
	upper, lower := "Water Damage", "water damage"
	saved := &fakeSavedItemService{items: []documentdomain.SavedLineItem{
		{ID: 1, Description: "Extraction", Rate: decimal.NewFromInt(3), Category: &upper},
		{ID: 2, Description: "Fans", Rate: decimal.NewFromInt(25), Category: &lower},
	}}
	engine := newTestServer(t, &fakeDocumentService{}, saved)

	var resp struct {
		Data []catalog.Group `json:"data"`
	}
	for _, query := range []string{"Water%20Damage", "water%20damage", "water-damage"} {
		rec := doJSON(t, engine, http.MethodGet, "/api/saved-line-items?category="+query, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1, query)
		assert.Equal(t, "water-damage", resp.Data[0].Key)
		assert.Len(t, resp.Data[0].Items, 2)
	}

	rec := doJSON(t, engine, http.MethodGet, "/api/saved-line-items?category=roofing", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestCreateSavedLineItem(t *testing.T) {
	saved := &fakeSavedItemService{}
	engine := newTestServer(t, &fakeDocumentService{}, saved)

	rec := doJSON(t, engine, http.MethodPost, "/api/saved-line-items", map[string]any{
		"description": "Antimicrobial",
		"rate":        0.45,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, saved.items, 1)
	assert.True(t, saved.items[0].Rate.Equal(decimal.RequireFromString("0.45")))

	rec = doJSON(t, engine, http.MethodPost, "/api/saved-line-items", map[string]any{"description": "x", "rate": "abc"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rate", decodeError(t, rec).Errors[0].Field)
}
