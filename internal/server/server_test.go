package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"apcc-pipeline/internal/admin"
	"apcc-pipeline/internal/common/config"
	"apcc-pipeline/internal/common/database"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/confirmation"
	"apcc-pipeline/internal/intake"
	"apcc-pipeline/internal/models"
	"apcc-pipeline/internal/payment"
	"apcc-pipeline/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedger backs both the confirmation sink and the admin source in
// tests, with the same dedup rules as the Postgres ledger.
type memoryLedger struct {
	candidates []models.CandidateLedgerEntry
	agents     []models.AgentLedgerEntry
}

func (m *memoryLedger) AppendCandidate(ctx context.Context, entry models.CandidateLedgerEntry) error {
	m.candidates = append(m.candidates, entry)
	return nil
}

func (m *memoryLedger) AppendAgent(ctx context.Context, entry models.AgentLedgerEntry) error {
	for _, e := range m.agents {
		if e.Registration.AgentCode == entry.Registration.AgentCode {
			return nil
		}
	}
	m.agents = append(m.agents, entry)
	return nil
}

func (m *memoryLedger) Candidates(ctx context.Context) ([]models.CandidateLedgerEntry, error) {
	return m.candidates, nil
}

func (m *memoryLedger) Agents(ctx context.Context) ([]models.AgentLedgerEntry, error) {
	return m.agents, nil
}

type fakeGateway struct {
	verifyOK bool
}

func (f *fakeGateway) EnsureCheckout(ctx context.Context) error { return nil }

func (f *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64) (*models.Order, error) {
	return &models.Order{ID: "order_test", Amount: amountPaise, Currency: "INR"}, nil
}

func (f *fakeGateway) VerifyPayment(ctx context.Context, rawCallback []byte) (bool, error) {
	return f.verifyOK, nil
}

func (f *fakeGateway) KeyID() string    { return "key_test" }
func (f *fakeGateway) Currency() string { return "INR" }

type harness struct {
	server *httptest.Server
	ledger *memoryLedger
}

func newHarness(t *testing.T) *harness {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	session := store.NewSession(store.NewRedisStore(&database.RedisClient{Client: rdb}))
	led := &memoryLedger{}

	orchestrator := payment.NewOrchestrator(&fakeGateway{verifyOK: true}, session,
		config.GatewayConfig{DisplayName: "APCC", Theme: "#003366"},
		config.PaymentConfig{AwaitTimeout: 15000},
		log)

	srv := New(
		intake.NewService(session, log),
		orchestrator,
		confirmation.NewMaterializer(session, led, nil, log),
		admin.NewService(led, log),
		log,
	)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &harness{server: ts, ledger: led}
}

func (h *harness) post(t *testing.T, path string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(h.server.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func (h *harness) postRaw(t *testing.T, path string, body []byte) *http.Response {
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func validCandidateBody() map[string]interface{} {
	return map[string]interface{}{
		"firstName":          "Rahul",
		"lastName":           "Deshmukh",
		"dob":                "2000-01-15",
		"mobile":             "9876543210",
		"email":              "rahul@example.com",
		"aadhaar":            "123412341234",
		"address":            "Pune, Maharashtra",
		"gender":             "male",
		"preferredSector":    []string{"IT"},
		"preferredJobType":   "Full Time",
		"careerGoal":         "Software engineer",
		"skills":             "Go, SQL",
		"englishProficiency": "yes",
		"expectedSalary":     25000,
		"preferredLocation":  "Pune",
		"signature":          "Rahul Deshmukh",
	}
}

func validAgentBody() map[string]interface{} {
	return map[string]interface{}{
		"fullName": "Tejas Pandit",
		"mobile":   "9123456789",
		"email":    "tejas@example.com",
		"aadhaar":  "432143214321",
		"address":  "Nashik, Maharashtra",
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestSubmitCandidate(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/candidates", validCandidateBody())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "candidate", body["context"])
}

func TestSubmitCandidateInvalid(t *testing.T) {
	h := newHarness(t)

	body := validCandidateBody()
	body["email"] = "not-an-email"

	resp := h.post(t, "/api/candidates", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var notice map[string]interface{}
	decode(t, resp, &notice)
	assert.Equal(t, "DRAFT_VALIDATION_FAILED", notice["code"])
}

func TestRegisterAgent(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/agents", validAgentBody())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "agent", body["context"])
	assert.Regexp(t, `^[a-z-]+\d{4}$`, body["agentCode"])
}

func TestPayWithoutDraft(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/payment/pay", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var notice map[string]interface{}
	decode(t, resp, &notice)
	assert.Equal(t, "DRAFT_MISSING", notice["code"])
}

func TestConfirmationUnpaid(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/confirmation")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	var notice map[string]interface{}
	decode(t, resp, &notice)
	assert.Equal(t, "UNPAID_SESSION", notice["code"])
}

func TestCandidateFunnelEndToEnd(t *testing.T) {
	h := newHarness(t)

	// Intake.
	resp := h.post(t, "/api/candidates", validCandidateBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Pay: checkout session for 236 rupees in paise.
	resp = h.post(t, "/api/payment/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cs payment.CheckoutSession
	decode(t, resp, &cs)
	assert.Equal(t, "order_test", cs.OrderID)
	assert.Equal(t, int64(23600), cs.Amount)
	assert.Equal(t, "Rahul Deshmukh", cs.Prefill.Name)

	// Success callback.
	resp = h.postRaw(t, "/api/payment/callbacks/success",
		[]byte(`{"order_id":"order_test","payment_id":"pay_901","signature":"sig"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome models.PaymentOutcome
	decode(t, resp, &outcome)
	assert.Equal(t, "pay_901", outcome.TransactionID)

	// Confirmation materializes the invoice and the ledger row.
	resp = h.get(t, "/api/confirmation")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var inv confirmation.Invoice
	decode(t, resp, &inv)
	assert.Regexp(t, `^INV/APCC/\d{4}/\d{4}$`, inv.Number)
	assert.Equal(t, "pay_901", inv.TransactionID)
	assert.Equal(t, int64(236), inv.Quote.Total)

	require.Len(t, h.ledger.candidates, 1)

	// Admin report reflects the single payment.
	resp = h.get(t, "/api/admin/report")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report admin.Report
	decode(t, resp, &report)
	assert.Equal(t, 1, report.Summary.CandidateCount)
	assert.Equal(t, int64(236), report.Summary.TotalRevenue)
	assert.Equal(t, int64(18), report.Summary.CGST)
}

func TestPaymentDismissCallback(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/candidates", validCandidateBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/api/payment/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Dismiss is benign: 200 with an info notice.
	resp = h.post(t, "/api/payment/callbacks/dismiss", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var notice map[string]interface{}
	decode(t, resp, &notice)
	assert.Equal(t, "USER_CANCELLED", notice["code"])
	assert.Equal(t, "info", notice["severity"])

	// Session is retryable, not paid.
	resp = h.get(t, "/api/confirmation")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	resp.Body.Close()
}

func TestStaleCallbackConflict(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/payment/callbacks/dismiss", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestPaymentFailureCallback(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/candidates", validCandidateBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/api/payment/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/api/payment/callbacks/failure", map[string]string{"reason": "card declined"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var notice map[string]interface{}
	decode(t, resp, &notice)
	assert.Equal(t, "GATEWAY_FAILURE", notice["code"])
	assert.Equal(t, "error", notice["severity"])
}

func TestAgentFunnelDedupsLedger(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/agents", validAgentBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/api/payment/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cs payment.CheckoutSession
	decode(t, resp, &cs)
	assert.Equal(t, int64(35400), cs.Amount)

	resp = h.postRaw(t, "/api/payment/callbacks/success",
		[]byte(`{"order_id":"order_test","payment_id":"pay_902","signature":"sig"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Two confirmation loads, one agent row.
	resp = h.get(t, "/api/confirmation")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = h.get(t, "/api/confirmation")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Len(t, h.ledger.agents, 1)
}
