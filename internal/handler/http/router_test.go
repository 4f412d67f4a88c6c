package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// ========== FAKES ==========

type fakePayrollService struct {
	runResp    payroll.RunResponse
	runErr     error
	lastReq    payroll.RunPayrollRequest
	lastActor  string
	lastFilter payroll.RunFilter
	listResp   payroll.ListRunResponse
	getErr     error
	file       payroll.ExportFile
}

func (f *fakePayrollService) RunPayroll(ctx context.Context, businessID string, actorID string, req payroll.RunPayrollRequest) (payroll.RunResponse, error) {
	f.lastReq = req
	f.lastActor = actorID
	return f.runResp, f.runErr
}

func (f *fakePayrollService) GetRun(ctx context.Context, businessID string, id string) (payroll.RunResponse, error) {
	if f.getErr != nil {
		return payroll.RunResponse{}, f.getErr
	}
	return payroll.RunResponse{ID: id, BusinessID: businessID}, nil
}

func (f *fakePayrollService) ListRuns(ctx context.Context, businessID string, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	f.lastFilter = filter
	return f.listResp, nil
}

func (f *fakePayrollService) ListRunRecords(ctx context.Context, businessID string, runID string) ([]payroll.RecordResponse, error) {
	return []payroll.RecordResponse{{RunID: runID}}, nil
}

func (f *fakePayrollService) ExportRun(ctx context.Context, businessID string, runID string) (payroll.ExportFile, error) {
	if f.getErr != nil {
		return payroll.ExportFile{}, f.getErr
	}
	return f.file, nil
}

type fakeSettingsService struct {
	updateErr error
}

func (f *fakeSettingsService) GetSettings(ctx context.Context, businessID string) (business.SettingsResponse, error) {
	return business.SettingsResponse{BusinessID: businessID, PaySchedule: "bi-weekly"}, nil
}

func (f *fakeSettingsService) UpdateSettings(ctx context.Context, businessID string, req business.UpdateSettingsRequest) (business.SettingsResponse, error) {
	if f.updateErr != nil {
		return business.SettingsResponse{}, f.updateErr
	}
	return business.SettingsResponse{BusinessID: businessID, PaySchedule: *req.PaySchedule}, nil
}

type fakeSettlementService struct {
	verifier string
	err      error
}

func (f *fakeSettlementService) GetSettlement(ctx context.Context, businessID string, assignmentID string) (subcontractor.SettlementResponse, error) {
	return subcontractor.SettlementResponse{AssignmentID: assignmentID}, f.err
}

func (f *fakeSettlementService) VerifyCompletion(ctx context.Context, businessID string, assignmentID string, verifierID string) (subcontractor.SettlementResponse, error) {
	f.verifier = verifierID
	return subcontractor.SettlementResponse{AssignmentID: assignmentID, CompletionVerified: true}, f.err
}

func (f *fakeSettlementService) ReleaseHoldback(ctx context.Context, businessID string, assignmentID string) (subcontractor.SettlementResponse, error) {
	return subcontractor.SettlementResponse{AssignmentID: assignmentID}, f.err
}

func (f *fakeSettlementService) ProcessPayment(ctx context.Context, businessID string, assignmentID string) (subcontractor.SettlementResponse, error) {
	return subcontractor.SettlementResponse{AssignmentID: assignmentID}, f.err
}

type testServer struct {
	router     *chi.Mux
	jwt        jwt.Service
	payroll    *fakePayrollService
	settings   *fakeSettingsService
	settlement *fakeSettlementService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		jwt:        jwt.NewJWTService("test-secret", time.Hour),
		payroll:    &fakePayrollService{},
		settings:   &fakeSettingsService{},
		settlement: &fakeSettlementService{},
	}
	ts.router = NewRouter(RouterOptions{
		AllowedOrigins: []string{"http://localhost:3000"},
		Env:            "test",
		Version:        "test",
		LogLevel:       slog.LevelError,
	}, ts.jwt, Handlers{
		Payroll:       NewPayrollHandler(ts.payroll),
		Settings:      NewSettingsHandler(ts.settings),
		Subcontractor: NewSubcontractorHandler(ts.settlement),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, role user.Role, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, _, err := ts.jwt.GenerateAccessToken("user-1", "biz-1", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// ========== AUTH ==========

func TestRouter_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/runs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsForeignSignature(t *testing.T) {
	ts := newTestServer(t)
	other := jwt.NewJWTService("other-secret", time.Hour)
	token, _, err := other.GenerateAccessToken("user-1", "biz-1", user.RoleOwner)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/runs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_WorkerCannotRunPayroll(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", user.RoleWorker, payroll.RunPayrollRequest{StartDate: "2024-03-01", EndDate: "2024-03-14"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_HeartbeatAndNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v2/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ========== PAYROLL ==========

func TestRunPayroll_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		resp     payroll.RunResponse
		err      error
		wantCode int
		wantErr  string
	}{
		{"completed", payroll.RunResponse{ID: "run-1", Status: "completed"}, nil, http.StatusCreated, ""},
		{"partial", payroll.RunResponse{ID: "run-1", Status: "partial"}, nil, http.StatusMultiStatus, ""},
		{"source data unavailable", payroll.RunResponse{ID: "run-1", Status: "failed"}, payroll.ErrDataUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"failed", payroll.RunResponse{ID: "run-1", Status: "failed"}, payroll.ErrPayrollRunFailed, http.StatusInternalServerError, "PAYROLL_RUN_FAILED"},
		{"in progress", payroll.RunResponse{}, payroll.ErrPayrollRunInProgress, http.StatusConflict, "CONFLICT"},
		{"settings unavailable before run", payroll.RunResponse{}, payroll.ErrDataUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"invalid", payroll.RunResponse{}, validator.ValidationErrors{{Field: "end_date", Message: "bad"}}, http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.payroll.runResp = tt.resp
			ts.payroll.runErr = tt.err

			rec := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", user.RoleManager, payroll.RunPayrollRequest{StartDate: "2024-03-01", EndDate: "2024-03-14"})
			assert.Equal(t, tt.wantCode, rec.Code)

			env := decode(t, rec)
			if tt.wantErr != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantErr, env.Error.Code)
			}
			if tt.resp.ID != "" {
				var run payroll.RunResponse
				require.NoError(t, json.Unmarshal(env.Data, &run))
				assert.Equal(t, tt.resp.ID, run.ID)
			}
		})
	}
}

func TestRunPayroll_PassesCaller(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.runResp = payroll.RunResponse{ID: "run-1", Status: "completed"}

	rec := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", user.RoleOwner, map[string]string{
		"start_date":   "2024-03-01",
		"end_date":     "2024-03-31",
		"pay_schedule": "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "user-1", ts.payroll.lastActor)
	assert.Equal(t, "2024-03-31", ts.payroll.lastReq.EndDate)
	require.NotNil(t, ts.payroll.lastReq.PaySchedule)
	assert.Equal(t, "monthly", *ts.payroll.lastReq.PaySchedule)
}

func TestRunPayroll_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", user.RoleOwner, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRuns_QueryAndMeta(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.listResp = payroll.ListRunResponse{
		Data:       []payroll.RunResponse{{ID: "run-1"}},
		TotalCount: 11,
		Page:       2,
		Limit:      5,
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/runs?page=2&limit=5&status=partial", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, ts.payroll.lastFilter.Page)
	assert.Equal(t, 5, ts.payroll.lastFilter.Limit)
	require.NotNil(t, ts.payroll.lastFilter.Status)
	assert.Equal(t, "partial", *ts.payroll.lastFilter.Status)

	env := decode(t, rec)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 11, env.Meta.TotalItems)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestGetRun_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.getErr = payroll.ErrPayrollRunNotFound

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/runs/run-1", user.RoleOwner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRunRecords(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/runs/run-1/records", user.RoleOwner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []payroll.RecordResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "run-1", records[0].RunID)
}

func TestExportRun(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.file = payroll.ExportFile{
		Filename:    "payroll_2024-03-01_2024-03-14.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     []byte("xlsx"),
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/runs/run-1/export", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, ts.payroll.file.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll_2024-03-01_2024-03-14.xlsx")
	assert.Equal(t, "xlsx", rec.Body.String())
}

func TestExportRun_InProgress(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.getErr = payroll.ErrPayrollRunInProgress

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/runs/run-1/export", user.RoleManager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ========== SETTINGS ==========

func TestSettings_WorkerCanViewButNotManage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/settings", user.RoleWorker, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/settings", user.RoleWorker, map[string]string{"pay_schedule": "weekly"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSettings_Update(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/settings", user.RoleOwner, map[string]string{"pay_schedule": "weekly"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got business.SettingsResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	assert.Equal(t, "weekly", got.PaySchedule)
}

// ========== SETTLEMENT ==========

func TestVerifyCompletion_UsesCallerAsVerifier(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/subcontractors/assignments/asg-1/verify", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", ts.settlement.verifier)
}

func TestSettlement_Conflicts(t *testing.T) {
	for _, err := range []error{
		subcontractor.ErrCompletionNotVerified,
		subcontractor.ErrHoldbackAlreadyReleased,
		subcontractor.ErrPaymentAlreadyProcessed,
		subcontractor.ErrAssignmentStateChanged,
	} {
		ts := newTestServer(t)
		ts.settlement.err = err

		rec := ts.do(t, http.MethodPost, "/api/v1/subcontractors/assignments/asg-1/process-payment", user.RoleOwner, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, err.Error())
	}
}

func TestReleaseHoldback_RequiresVerification(t *testing.T) {
	ts := newTestServer(t)
	ts.settlement.err = subcontractor.ErrCompletionNotVerified

	rec := ts.do(t, http.MethodPost, "/api/v1/subcontractors/assignments/asg-1/release-holdback", user.RoleOwner, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "Completion must be verified first", env.Error.Message)
}

func TestSettlement_WorkerForbidden(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/subcontractors/assignments/asg-1/settlement", user.RoleWorker, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSettlement_UnexpectedError(t *testing.T) {
	ts := newTestServer(t)
	ts.settlement.err = errors.New("boom")

	rec := ts.do(t, http.MethodGet, "/api/v1/subcontractors/assignments/asg-1/settlement", user.RoleOwner, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
