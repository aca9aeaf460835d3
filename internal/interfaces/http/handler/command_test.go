package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/backoffice/internal/application/command"
	apptrade "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/inventory"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	infraevent "github.com/erp/backoffice/internal/infrastructure/event"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	httpUser    = testutil.NewTestUUID("http-user")
	httpBranch  = testutil.NewTestUUID("http-branch-1")
	otherBranch = testutil.NewTestUUID("http-branch-2")
)

type commandAPI struct {
	engine   *gin.Engine
	customer uuid.UUID
}

func newCommandAPI(t *testing.T) *commandAPI {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	d := command.NewPipeline(command.PipelineConfig{
		Logger:      zap.NewNop(),
		Validator:   command.NewValidator(),
		Idempotency: store,
		UnitOfWork:  persistence.NewTxCoordinator(db),
	})
	contacts := persistence.NewGormContactRepository(db)
	apptrade.NewHandlers(
		persistence.NewGormOrderRepository(db),
		persistence.NewGormInvoiceRepository(db),
		contacts,
		inventory.NewStockService(persistence.NewGormStockLevelRepository(db)),
		infraevent.NewOutboxPublisher(infraevent.NewGormOutboxRepository(db), infraevent.NewDefaultSerializer(), 0),
	).Register(d)

	customer, err := partner.NewContact("C-100", "Acme", partner.ContactCustomer)
	require.NoError(t, err)
	require.NoError(t, contacts.Save(context.Background(), customer))

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Recovery(), middleware.BodyLimit(4096), middleware.Caller())
	NewCommandHandler(d).RegisterRoutes(engine.Group("/api/v1"))

	return &commandAPI{engine: engine, customer: customer.ID}
}

func (a *commandAPI) post(t *testing.T, branch uuid.UUID, name, body string) (int, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/"+name, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, httpUser.String())
	req.Header.Set(middleware.HeaderBranchID, branch.String())
	req.Header.Set(middleware.HeaderRequestID, "corr-"+name)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (a *commandAPI) createOrder(t *testing.T) (id, token string) {
	t.Helper()
	status, resp := a.post(t, httpBranch, "CreateOrder", `{
		"type": "SALES",
		"contact_id": "`+a.customer.String()+`",
		"lines": [{"description": "Consulting", "quantity": "2", "unit_price": "10.50", "vat_rate": "20"}]
	}`)
	require.Equal(t, http.StatusOK, status, resp.Error)
	data := resp.Data.(map[string]any)
	return data["id"].(string), data["version_token"].(string)
}

func TestCommandHandler_CreateOrder(t *testing.T) {
	api := newCommandAPI(t)
	status, resp := api.post(t, httpBranch, "CreateOrder", `{
		"type": "SALES",
		"contact_id": "`+api.customer.String()+`",
		"lines": [{"description": "Consulting", "quantity": "2", "unit_price": "10.50", "vat_rate": "20"}]
	}`)

	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "DRAFT", data["status"])
	assert.Equal(t, httpBranch.String(), data["branch_id"])
	assert.Equal(t, "25.20", data["totals"].(map[string]any)["gross"])
	assert.NotEmpty(t, data["version_token"])
}

func TestCommandHandler_ErrorStatuses(t *testing.T) {
	api := newCommandAPI(t)
	id, token := api.createOrder(t)

	status, resp := api.post(t, httpBranch, "CancelOrder", `{"id":"`+id+`","version_token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, status)
	newToken := resp.Data.(map[string]any)["version_token"].(string)
	require.NotEqual(t, token, newToken)

	tests := []struct {
		name    string
		branch  uuid.UUID
		command string
		body    string
		status  int
		kind    string
		code    string
	}{
		{"stale token", httpBranch, "CancelOrder", `{"id":"` + id + `","version_token":"` + token + `"}`,
			http.StatusConflict, "CONCURRENCY_CONFLICT", ""},
		{"terminal state", httpBranch, "CancelOrder", `{"id":"` + id + `","version_token":"` + newToken + `"}`,
			http.StatusUnprocessableEntity, "BUSINESS_RULE", ""},
		{"other branch", otherBranch, "GetOrder", `{"id":"` + id + `"}`,
			http.StatusNotFound, "NOT_FOUND", ""},
		{"missing contact", httpBranch, "CreateOrder", `{"type":"SALES","contact_id":"` + uuid.NewString() + `"}`,
			http.StatusNotFound, "NOT_FOUND", ""},
		{"failed validation", httpBranch, "CreateOrder", `{"type":"RENTAL","contact_id":"` + api.customer.String() + `"}`,
			http.StatusBadRequest, "VALIDATION", ""},
		{"malformed json", httpBranch, "CreateOrder", `{"type":`,
			http.StatusBadRequest, "VALIDATION", "INVALID_PAYLOAD"},
		{"unknown field", httpBranch, "GetOrder", `{"id":"` + id + `","tenant":"x"}`,
			http.StatusBadRequest, "VALIDATION", "INVALID_PAYLOAD"},
		{"unknown command", httpBranch, "TransferFunds", `{}`,
			http.StatusNotFound, "NOT_FOUND", "UNKNOWN_COMMAND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := api.post(t, tt.branch, tt.command, tt.body)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.Error.Kind)
			if tt.code != "" {
				assert.Equal(t, tt.code, resp.Error.Code)
			}
			assert.Equal(t, "corr-"+tt.command, resp.Error.CorrelationID)
		})
	}
}

// brokenBody fails every read
type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestCommandHandler_UnknownCommandSkipsBody(t *testing.T) {
	api := newCommandAPI(t)

	send := func(name string) (int, dto.Response) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/"+name, brokenBody{})
		req.ContentLength = -1
		req.Header.Set(middleware.HeaderUserID, httpUser.String())
		req.Header.Set(middleware.HeaderBranchID, httpBranch.String())
		w := httptest.NewRecorder()
		api.engine.ServeHTTP(w, req)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
		return w.Code, resp
	}

	status, resp := send("TransferFunds")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UNKNOWN_COMMAND", resp.Error.Code)

	status, resp = send("CreateOrder")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrCodeInvalidBody, resp.Error.Code)
}

func TestCommandHandler_BodyTooLarge(t *testing.T) {
	api := newCommandAPI(t)
	status, resp := api.post(t, httpBranch, "CreateOrder", `{"notes":"`+strings.Repeat("x", 5000)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
}

func TestCommandHandler_RequiresCaller(t *testing.T) {
	api := newCommandAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/ListOrders", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommandHandler_List(t *testing.T) {
	api := newCommandAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	req.Header.Set(middleware.HeaderUserID, httpUser.String())
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data CommandListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Data.Commands, "CreateOrder")
	assert.Contains(t, resp.Data.Commands, "CancelInvoice")
}
