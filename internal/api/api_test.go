package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"membership-signup/internal/admin/auth"
	"membership-signup/internal/admin/export"
	"membership-signup/internal/admin/listing"
	"membership-signup/internal/common/config"
	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"
	"membership-signup/internal/signup/payment"
	"membership-signup/internal/signup/submission"
	"membership-signup/internal/signup/wizard"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

type fakeIntents struct{}

func (fakeIntents) CreateIntent(_ context.Context, amount float64, _ map[string]string, _ string) (*payment.Intent, error) {
	return &payment.Intent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret_x",
		AmountCents:  int64(math.Round(amount * 100)),
	}, nil
}

func (fakeIntents) UpdateIntent(_ context.Context, id string, amount float64, _ map[string]string) (*payment.Intent, error) {
	return &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_x",
		AmountCents:  int64(math.Round(amount * 100)),
	}, nil
}

type fakeProvider struct {
	status string
}

func (p *fakeProvider) CreateIntent(_ context.Context, req payment.CreateRequest) (*payment.Intent, error) {
	return &payment.Intent{ID: "pi_direct", ClientSecret: "pi_direct_secret", AmountCents: req.AmountCents}, nil
}

func (p *fakeProvider) UpdateIntent(_ context.Context, req payment.UpdateRequest) (*payment.Intent, error) {
	return &payment.Intent{ID: req.IntentID, ClientSecret: req.IntentID + "_secret", AmountCents: req.AmountCents}, nil
}

func (p *fakeProvider) Confirm(context.Context, payment.ConfirmRequest) (*payment.Status, error) {
	return &payment.Status{IntentID: "pi_1", Status: p.status}, nil
}

func (p *fakeProvider) Retrieve(context.Context, string) (*payment.Status, error) {
	return &payment.Status{IntentID: "pi_1", Status: p.status}, nil
}

type memPersister struct {
	mu   sync.Mutex
	rows []submission.Request
}

func (p *memPersister) Persist(_ context.Context, req submission.Request) (*models.Membership, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append(p.rows, req)
	return &models.Membership{ID: "row-1", PaymentIntentID: req.PaymentIntentID}, nil
}

type memAdmins struct {
	users map[string]*models.AdminUser
}

func (m *memAdmins) CreateAdminUser(_ context.Context, email, hash string) (*models.AdminUser, error) {
	u := &models.AdminUser{ID: "admin-1", Email: email, PasswordHash: hash}
	m.users[email] = u
	return u, nil
}

func (m *memAdmins) FindAdminByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, errors.NewResourceNotFoundError("admin_users", email)
}

type MockSubmissions struct {
	mock.Mock
}

func (m *MockSubmissions) List(ctx context.Context, query string) (*listing.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Result), args.Error(1)
}

func (m *MockSubmissions) All(ctx context.Context) ([]*models.Membership, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Membership), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	handler     http.Handler
	persister   *memPersister
	provider    *fakeProvider
	submissions *MockSubmissions
	checks      map[string]Check
}

func newTestEnv(t *testing.T) *testEnv {
	log := logger.NewTestLogger(t)
	env := &testEnv{
		persister:   &memPersister{},
		provider:    &fakeProvider{status: payment.StatusSucceeded},
		submissions: &MockSubmissions{},
		checks:      map[string]Check{},
	}

	runs := wizard.NewRegistry(wizard.Dependencies{
		Intents:   fakeIntents{},
		Provider:  env.provider,
		Persister: env.persister,
		Flow: payment.FlowConfig{
			AfterFunc: func(_ time.Duration, fn func()) { fn() },
		},
		PublishableKey: "pk_test_1",
		Logger:         log,
		Now:            func() time.Time { return testNow },
	}, time.Hour)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	admins := &memAdmins{users: map[string]*models.AdminUser{}}
	_, _ = admins.CreateAdminUser(context.Background(), "admin@fanclub.example", hash)

	authSvc := auth.NewService(admins, rdb, auth.Config{
		JWTSecret:   []byte("test-secret"),
		SessionTTL:  time.Hour,
		MaxAttempts: 2,
		Window:      time.Minute,
	}, log)

	srv := NewServer(Dependencies{
		Runs:        runs,
		Intents:     payment.NewInitiator(env.provider, config.PaymentConfig{Currency: "USD"}, log),
		Auth:        authSvc,
		Submissions: env.submissions,
		Checks:      env.checks,
		Logger:      log,
		Now:         func() time.Time { return testNow },
	})
	env.handler = srv.Routes()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) wizard.Snapshot {
	t.Helper()
	var snap wizard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

type errorResponse struct {
	Error struct {
		Code     string                 `json:"code"`
		Message  string                 `json:"message"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
	Run *wizard.Snapshot `json:"run"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var stepBodies = []string{
	`{"firstName":"Ana","lastName":"Lopez","nickname":"N/A","email":"ana@example.com","phone":"(555) 123-4567","birthDate":"1990-06-15"}`,
	`{"address1":"12 Main Street","city":"Austin","state":"TX","zipCode":"78701","referralSource":"social","birthCityState":"Dallas, TX"}`,
	`{"membershipStatus":"new","membershipLevel":"plus","shirtSize":"Medium","jacketSize":"Large","isDbnMember":"no"}`,
	`{"termsAccepted":true}`,
}

func (e *testEnv) startRun(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/signup/runs", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeSnapshot(t, rec).RunID
}

func (e *testEnv) toPayment(t *testing.T, id string) wizard.Snapshot {
	t.Helper()
	var snap wizard.Snapshot
	for _, body := range stepBodies {
		rec := e.do(t, http.MethodPatch, "/api/signup/runs/"+id+"/fields", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = e.do(t, http.MethodPost, "/api/signup/runs/"+id+"/next", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		snap = decodeSnapshot(t, rec)
	}
	return snap
}

// ==========================
// Health Tests
// ==========================

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestReady_FailingCheck(t *testing.T) {
	env := newTestEnv(t)
	env.checks["postgres"] = func(context.Context) error { return nil }
	env.checks["redis"] = func(context.Context) error { return stderrors.New("connection refused") }

	rec := env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

// ==========================
// Signup Wizard Tests
// ==========================

func TestStartAndGetRun(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	rec := env.do(t, http.MethodGet, "/api/signup/runs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, id, snap.RunID)
	assert.Equal(t, 1, snap.Step)
	assert.Equal(t, 5, snap.TotalSteps)
}

func TestGetRun_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/signup/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(errors.ErrCodeRunNotFound), decodeError(t, rec).Error.Code)
}

func TestSetFields_RejectsNonScalarValues(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	rec := env.do(t, http.MethodPatch, "/api/signup/runs/"+id+"/fields", `{"firstName":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(errors.ErrCodeValidationFailed), body.Error.Code)
	require.NotNil(t, body.Run)
	assert.Equal(t, id, body.Run.RunID)
}

func TestSetFields_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	rec := env.do(t, http.MethodPatch, "/api/signup/runs/"+id+"/fields", `{"firstName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNext_ShowsFieldErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	rec := env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/next", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.NotNil(t, body.Run)
	assert.Equal(t, 1, body.Run.Step)
	assert.Equal(t, "First name is required", body.Run.Errors["firstName"])
}

func TestBirthDate_InputAndBackspace(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)
	path := "/api/signup/runs/" + id + "/birth-date"

	for _, body := range []string{
		`{"segment":"month","input":"06"}`,
		`{"segment":"day","input":"15"}`,
		`{"segment":"year","input":"1990"}`,
	} {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path, body).Code)
	}
	rec := env.do(t, http.MethodGet, "/api/signup/runs/"+id, "")
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, "06", snap.BirthDate.Month)
	assert.Equal(t, "1990", snap.BirthDate.Year)
	require.NotNil(t, snap.Record.BirthDate)
	assert.Equal(t, "1990-06-15", snap.Record.BirthDateString())

	rec = env.do(t, http.MethodPost, path, `{"segment":"year","key":"Backspace"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	assert.Equal(t, "199", snap.BirthDate.Year)
	assert.Nil(t, snap.Record.BirthDate)
}

func TestBirthDate_RejectsAmbiguousBody(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	tests := []string{
		`{"segment":"month","input":"06","key":"Backspace"}`,
		`{"segment":"month"}`,
		`{"segment":"week","input":"1"}`,
		`{"segment":"day","key":"Delete"}`,
	}
	for _, body := range tests {
		t.Run(body, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/birth-date", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestBackAndReset(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)
	env.do(t, http.MethodPatch, "/api/signup/runs/"+id+"/fields", stepBodies[0])
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/next", "").Code)

	rec := env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/back", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, 1, snap.Step)
	assert.Equal(t, wizard.Backward, snap.Direction)
	assert.Equal(t, "Ana", snap.Record.FirstName)

	rec = env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeSnapshot(t, rec).Record.FirstName)
}

func TestPayment_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	snap := env.toPayment(t, id)
	assert.Equal(t, 5, snap.Step)
	assert.Equal(t, "pi_1_secret_x", snap.Payment.ClientSecret)
	assert.Equal(t, int64(17500), snap.Payment.AmountCents)
	assert.Equal(t, "pk_test_1", snap.Payment.PublishableKey)

	rec := env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/payment/confirm", `{"paymentMethod":"pm_card_visa"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body paymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, payment.OutcomeSucceeded, body.Result.Outcome)
	assert.True(t, body.Run.Frozen)
	assert.True(t, body.Run.Submission.Submitted)
	require.Len(t, env.persister.rows, 1)
	assert.Equal(t, "pi_1", env.persister.rows[0].PaymentIntentID)

	rec = env.do(t, http.MethodPatch, "/api/signup/runs/"+id+"/fields", `{"couponCode":"LATE"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(errors.ErrCodeRecordFrozen), decodeError(t, rec).Error.Code)
}

func TestPayment_ConfirmBeforePaymentStep(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	rec := env.do(t, http.MethodPost, "/api/signup/runs/"+id+"/payment/confirm", `{"paymentMethod":"pm_card_visa"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(errors.ErrCodePaymentNotReady), decodeError(t, rec).Error.Code)
}

func TestPayment_ReturnRequiresSecret(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)

	rec := env.do(t, http.MethodGet, "/api/signup/runs/"+id+"/payment/return", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Metadata["fields"], "payment_intent_client_secret")
}

func TestPayment_ReturnResumes(t *testing.T) {
	env := newTestEnv(t)
	id := env.startRun(t)
	env.toPayment(t, id)

	rec := env.do(t, http.MethodGet, "/api/signup/runs/"+id+"/payment/return?payment_intent_client_secret=pi_1_secret_x", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body paymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, payment.OutcomeSucceeded, body.Result.Outcome)
}

// ==========================
// Payment Intent Endpoint Tests
// ==========================

func TestCreatePaymentIntent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/payment-intents", `{"amount":175,"metadata":{"email":"ana@example.com"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body intentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pi_direct_secret", body.ClientSecret)
}

func TestCreatePaymentIntent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"zero amount", `{"amount":0}`, http.StatusBadRequest, errors.ErrCodeInvalidAmount},
		{"negative amount", `{"amount":-5}`, http.StatusBadRequest, errors.ErrCodeInvalidAmount},
		{"amount missing", `{}`, http.StatusBadRequest, errors.ErrCodeValidationFailed},
		{"amount as string", `{"amount":"175"}`, http.StatusBadRequest, errors.ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/payment-intents", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.code), decodeError(t, rec).Error.Code)
		})
	}
}

func TestCreatePaymentIntent_NotConfigured(t *testing.T) {
	log := logger.NewTestLogger(t)
	srv := NewServer(Dependencies{
		Runs:    wizard.NewRegistry(wizard.Dependencies{Logger: log}, time.Hour),
		Intents: payment.NewInitiator(nil, config.PaymentConfig{}, log),
		Logger:  log,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payment-intents", strings.NewReader(`{"amount":100}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), string(errors.ErrCodeConfiguration))
}

// ==========================
// Admin Tests
// ==========================

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/admin/login", `{"email":"admin@fanclub.example","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestAdmin_LoginSessionLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	bearer := "Bearer " + token

	rec := env.do(t, http.MethodGet, "/api/admin/session", "", "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin@fanclub.example")

	rec = env.do(t, http.MethodPost, "/api/admin/logout", "", "Authorization", bearer)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/session", "", "Authorization", bearer)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/admin/session", "/api/admin/submissions", "/api/admin/submissions/export"} {
		rec := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := env.do(t, http.MethodGet, "/api/admin/submissions", "", "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_LoginThrottled(t *testing.T) {
	env := newTestEnv(t)
	bad := `{"email":"admin@fanclub.example","password":"wrong-password"}`

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/admin/login", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/admin/login", bad).Code)

	rec := env.do(t, http.MethodPost, "/api/admin/login", bad)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAdmin_LoginValidation(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/admin/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Metadata["fields"], "email")
}

func TestAdmin_ListSubmissions(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.submissions.On("List", mock.Anything, "lopez").Return(&listing.Result{
		Submissions: []*models.Membership{{ID: "1", FirstName: "Ana", LastName: "Lopez"}},
		Query:       "lopez",
		Total:       3,
		Matched:     1,
	}, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/admin/submissions?q=lopez", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	var res listing.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Matched)
	env.submissions.AssertExpectations(t)
}

func TestAdmin_ExportCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.submissions.On("All", mock.Anything).Return([]*models.Membership{{
		ID:         "1",
		CreatedAt:  testNow,
		FirstName:  "Ana",
		LastName:   "Lopez",
		City:       "Austin, Downtown",
		TotalPrice: 175,
	}}, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/admin/submissions/export", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="membership-submissions-2026-03-01.csv"`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, export.Headers, records[0])
	assert.Equal(t, "Austin, Downtown", records[1][11])
}

func TestAdmin_ExportStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.submissions.On("All", mock.Anything).Return(nil, errors.NewQueryExecutionFailedError("list", stderrors.New("db down"))).Once()

	rec := env.do(t, http.MethodGet, "/api/admin/submissions/export", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
