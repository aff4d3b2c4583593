package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	activityrepo "github.com/fekuna/omnipos-workshop-service/internal/activity/repository"
	activityuc "github.com/fekuna/omnipos-workshop-service/internal/activity/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/auth"
	customerrepo "github.com/fekuna/omnipos-workshop-service/internal/customer/repository"
	customeruc "github.com/fekuna/omnipos-workshop-service/internal/customer/usecase"
	inventoryrepo "github.com/fekuna/omnipos-workshop-service/internal/inventory/repository"
	inventoryuc "github.com/fekuna/omnipos-workshop-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/repository"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	testingrepo "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/repository"
	"github.com/fekuna/omnipos-workshop-service/internal/testutil"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, *sqlx.DB) {
	t.Helper()
	db := testutil.NewSQLite(t)
	txm := txn.NewManager(db)
	log := logger.NewNop()
	rec := activityuc.NewRecorder(activityrepo.NewPGRepository(db), log)
	uc, materials := usecase.NewJobCardUseCase(usecase.Dependencies{
		TxManager:      txm,
		Cards:          repository.NewPGRepository(db),
		Materials:      repository.NewMaterialPGRepository(db),
		Ledger:         inventoryuc.NewInventoryUseCase(txm, inventoryrepo.NewPGRepository(db), rec, outbox.Discard{}, log),
		Recorder:       rec,
		Customers:      customeruc.NewCustomerUseCase(txm, customerrepo.NewPGRepository(db), log),
		TestingRecords: testingrepo.NewPGRepository(db),
		Logger:         log,
	}, usecase.Config{})
	h := NewJobCardHandler(uc, materials, log)

	r := chi.NewRouter()
	r.Use(auth.Authenticate)
	r.Route("/api/job-cards", func(r chi.Router) { h.Routes(r, r) })
	return r, db
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(auth.HeaderUserID, "7")
	req.Header.Set(auth.HeaderUserRole, auth.RoleTechnician)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestJobCardLifecycleOverHTTP(t *testing.T) {
	h, db := newRouter(t)
	itemID := testutil.SeedItem(t, db, testutil.ItemFixture{Name: "Nozzle", Stock: 3})

	code, env := do(t, h, http.MethodPost, "/api/job-cards/", fmt.Sprintf(`{
        "customerName": "Ravi Motors", "vehicleType": "Truck", "jobType": "Injector", "brand": "Bosch",
        "materials": [{"inventoryItemId": %d, "quantity": 2}, {"inventoryItemId": %d, "quantity": 2}]
    }`, itemID, itemID))
	require.Equal(t, http.StatusCreated, code, env.Error)
	var card model.JobCardDetail
	require.NoError(t, json.Unmarshal(env.Data, &card))
	assert.Equal(t, "JC-001", card.JobNo)
	require.Len(t, card.Materials, 2)

	path := fmt.Sprintf("/api/job-cards/%d", card.ID)
	code, env = do(t, h, http.MethodPut, path, `{"status": "Under Repair"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "Insufficient stock for Nozzle")
	assert.Equal(t, 3, testutil.Stock(t, db, itemID))

	code, env = do(t, h, http.MethodDelete, fmt.Sprintf("%s/materials/%d", path, card.Materials[1].ID), "")
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = do(t, h, http.MethodPut, path, `{"status": "Under Repair"}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, 1, testutil.Stock(t, db, itemID))

	code, env = do(t, h, http.MethodGet, path+"/materials", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestJobCardStatusCodes(t *testing.T) {
	h, db := newRouter(t)
	cardID := testutil.SeedJobCard(t, db, "JC-900", model.JobStatusReceived)

	code, _ := do(t, h, http.MethodGet, "/api/job-cards/999", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/api/job-cards/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := do(t, h, http.MethodPost, "/api/job-cards/", `{"customerName": "Ravi"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, _ = do(t, h, http.MethodPost, fmt.Sprintf("/api/job-cards/%d/materials", cardID), `{"quantity": 1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/job-cards/999/materials", `{"materialName": "Rag", "quantity": 1}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodDelete, fmt.Sprintf("/api/job-cards/%d/materials/5", cardID), "")
	assert.Equal(t, http.StatusNotFound, code)
}
