package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-workshop-service/internal/auth"
	jobcardrepo "github.com/fekuna/omnipos-workshop-service/internal/jobcard/repository"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord/repository"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/testutil"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, *sqlx.DB) {
	t.Helper()
	db := testutil.NewSQLite(t)
	log := logger.NewNop()
	uc := usecase.NewTestingRecordUseCase(txn.NewManager(db), repository.NewPGRepository(db), jobcardrepo.NewPGRepository(db), log)
	h := NewTestingRecordHandler(uc, log)

	r := chi.NewRouter()
	r.Use(auth.Authenticate)
	r.Get("/api/job-cards/{id}/testing-records", h.ListByJobCard)
	r.Route("/api/testing-records", func(r chi.Router) { h.Routes(r, r) })
	return r, db
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, role, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set(auth.HeaderUserID, "3")
		req.Header.Set(auth.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestTestingRecordsOverHTTP(t *testing.T) {
	h, db := newRouter(t)
	cardID := testutil.SeedJobCard(t, db, "JC-001", model.JobStatusTesting)

	code, env := do(t, h, http.MethodPost, "/api/testing-records/", auth.RoleTechnician, fmt.Sprintf(`{
        "jobCardId": %d, "testedBy": "Anil",
        "beforeRepair": {"pressure": "180", "passFail": "Fail"},
        "afterData": {"nozzles": [1, 2], "finalResult": {"passFail": "Pass"}}
    }`, cardID))
	require.Equal(t, http.StatusCreated, code, env.Error)
	var rec model.TestingRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, model.ReadingsStructured, rec.SchemaVersion)
	assert.Equal(t, "Fail", rec.Before.PassFail)
	assert.Equal(t, "Pass", rec.After.PassFail)

	code, env = do(t, h, http.MethodGet, fmt.Sprintf("/api/job-cards/%d/testing-records", cardID), auth.RoleTechnician, "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	path := fmt.Sprintf("/api/testing-records/%d", rec.ID)
	code, _ = do(t, h, http.MethodGet, path, auth.RoleTechnician, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodDelete, path, auth.RoleTechnician, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodGet, path, auth.RoleTechnician, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTestingRecordStatusCodes(t *testing.T) {
	h, _ := newRouter(t)

	code, env := do(t, h, http.MethodGet, "/api/testing-records/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = do(t, h, http.MethodPost, "/api/testing-records/", auth.RoleTechnician, `{"jobCardId": 999}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPost, "/api/testing-records/", auth.RoleTechnician, `{"testedBy": "Anil"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodGet, "/api/job-cards/999/testing-records", auth.RoleTechnician, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodDelete, "/api/testing-records/999", auth.RoleTechnician, "")
	assert.Equal(t, http.StatusNotFound, code)
}
