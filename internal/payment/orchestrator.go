// Package payment runs the checkout state machine: widget availability,
// order creation, the awaiting-user window, and verification of the
// gateway's success callback.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"apcc-pipeline/internal/common/config"
	"apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/common/metrics"
	"apcc-pipeline/internal/fees"
	"apcc-pipeline/internal/models"
	"apcc-pipeline/internal/store"
)

// State is the orchestrator's position in a payment attempt. Terminal
// states collapse back to Idle before the lock is released; callers only
// ever observe Idle or one of the in-flight states.
type State string

const (
	StateIdle               State = "IDLE"
	StateLoadingWidget      State = "LOADING_WIDGET"
	StateCreatingOrder      State = "CREATING_ORDER"
	StateAwaitingUserAction State = "AWAITING_USER_ACTION"
	StateVerifying          State = "VERIFYING"
)

// Gateway is the slice of the checkout provider the orchestrator needs.
type Gateway interface {
	EnsureCheckout(ctx context.Context) error
	CreateOrder(ctx context.Context, amountPaise int64) (*models.Order, error)
	VerifyPayment(ctx context.Context, rawCallback []byte) (bool, error)
	KeyID() string
	Currency() string
}

// CheckoutSession is everything the client needs to open the hosted
// checkout for an order the orchestrator just created.
type CheckoutSession struct {
	Key         string `json:"key"`
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"` // paise
	Currency    string `json:"currency"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ThemeColor  string `json:"themeColor"`

	Prefill struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
		Email   string `json:"email"`
	} `json:"prefill"`
}

// attempt carries the quote and order of the in-flight payment from order
// creation through verification, so the outcome records the amounts that
// were actually charged, not a recomputation.
type attempt struct {
	context models.Context
	quote   models.FeeQuote
	order   *models.Order
	started time.Time
}

type Orchestrator struct {
	gateway Gateway
	session *store.Session
	logger  logger.Logger

	displayName  string
	themeColor   string
	awaitTimeout time.Duration

	mu          sync.Mutex
	state       State
	widgetReady bool
	pending     *attempt
	awaitTimer  *time.Timer
}

func NewOrchestrator(gw Gateway, session *store.Session, gwCfg config.GatewayConfig, payCfg config.PaymentConfig, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:      gw,
		session:      session,
		logger:       log,
		displayName:  gwCfg.DisplayName,
		themeColor:   gwCfg.Theme,
		awaitTimeout: config.GetDuration(payCfg.AwaitTimeout),
		state:        StateIdle,
	}
}

// State returns the current machine state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Pay starts a payment attempt for whatever draft the session holds. A
// second call while an attempt is in flight is rejected without touching
// the running attempt. On success the machine sits in AwaitingUserAction
// until a callback arrives or the safety timeout fires.
func (o *Orchestrator) Pay(ctx context.Context) (*CheckoutSession, error) {
	o.mu.Lock()
	if o.state != StateIdle {
		state := o.state
		o.mu.Unlock()
		o.logger.Warn("pay attempt rejected, payment already in flight", map[string]interface{}{
			"state": string(state),
		})
		return nil, errors.NewPaymentInFlightError(string(state))
	}
	o.state = StateLoadingWidget
	o.mu.Unlock()

	session, err := o.run(ctx)
	if err != nil {
		o.reset()
		return nil, err
	}
	return session, nil
}

func (o *Orchestrator) run(ctx context.Context) (*CheckoutSession, error) {
	started := time.Now()

	if err := o.ensureWidget(ctx); err != nil {
		return nil, err
	}

	payCtx, err := o.session.Context(ctx)
	if err != nil {
		return nil, errors.NewStoreReadFailedError(store.KeyPaymentContext, err)
	}

	prefillName, prefillContact, prefillEmail, err := o.prefill(ctx, payCtx)
	if err != nil {
		return nil, err
	}

	quote := fees.Quote(payCtx)
	metrics.PaymentsInitiated.WithLabelValues(string(payCtx)).Inc()

	o.transition(StateCreatingOrder)
	orderStart := time.Now()

	order, err := o.gateway.CreateOrder(ctx, quote.TotalPaise())
	if err != nil {
		o.failed(payCtx, errors.ErrCodeOrderCreationFailed)
		o.logger.WithError(err).Error("order creation failed", map[string]interface{}{
			"context":     string(payCtx),
			"amountPaise": quote.TotalPaise(),
		})
		return nil, errors.NewOrderCreationFailedError(err.Error())
	}
	metrics.PaymentPhaseDuration.WithLabelValues("create_order").Observe(time.Since(orderStart).Seconds())

	o.mu.Lock()
	o.state = StateAwaitingUserAction
	o.pending = &attempt{context: payCtx, quote: quote, order: order, started: started}
	o.awaitTimer = time.AfterFunc(o.awaitTimeout, o.expire)
	o.mu.Unlock()

	o.logger.Info("order created, awaiting checkout", map[string]interface{}{
		"orderId":     order.ID,
		"context":     string(payCtx),
		"amountPaise": quote.TotalPaise(),
	})

	cs := &CheckoutSession{
		Key:         o.gateway.KeyID(),
		OrderID:     order.ID,
		Amount:      quote.TotalPaise(),
		Currency:    o.gateway.Currency(),
		Name:        o.displayName,
		Description: description(payCtx),
		ThemeColor:  o.themeColor,
	}
	cs.Prefill.Name = prefillName
	cs.Prefill.Contact = prefillContact
	cs.Prefill.Email = prefillEmail
	return cs, nil
}

// ensureWidget probes the checkout script once and caches the result for
// the life of the process.
func (o *Orchestrator) ensureWidget(ctx context.Context) error {
	o.mu.Lock()
	ready := o.widgetReady
	o.mu.Unlock()
	if ready {
		return nil
	}

	start := time.Now()
	if err := o.gateway.EnsureCheckout(ctx); err != nil {
		o.logger.WithError(err).Error("checkout widget unavailable", nil)
		return errors.NewWidgetLoadFailureError(err)
	}
	metrics.PaymentPhaseDuration.WithLabelValues("load_widget").Observe(time.Since(start).Seconds())

	o.mu.Lock()
	o.widgetReady = true
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) prefill(ctx context.Context, payCtx models.Context) (name, contact, email string, err error) {
	switch payCtx {
	case models.ContextAgent:
		draft, derr := o.session.AgentDraft(ctx)
		if derr != nil {
			if derr == store.ErrNotFound {
				return "", "", "", errors.NewDraftMissingError(string(payCtx))
			}
			return "", "", "", errors.NewStoreReadFailedError(store.KeyPendingAgent, derr)
		}
		return draft.FullName, draft.Mobile, draft.Email, nil
	default:
		draft, derr := o.session.CandidateDraft(ctx)
		if derr != nil {
			if derr == store.ErrNotFound {
				return "", "", "", errors.NewDraftMissingError(string(payCtx))
			}
			return "", "", "", errors.NewStoreReadFailedError(store.KeyPendingCandidate, derr)
		}
		return draft.FullName(), draft.Mobile, draft.Email, nil
	}
}

// HandleSuccess processes the gateway's success callback. The raw payload
// is forwarded to verification unchanged; only a verified callback writes
// the transaction id and payment snapshot to the session.
func (o *Orchestrator) HandleSuccess(ctx context.Context, rawCallback []byte) (*models.PaymentOutcome, error) {
	pending, err := o.claim(StateVerifying)
	if err != nil {
		return nil, err
	}

	verifyStart := time.Now()
	ok, err := o.gateway.VerifyPayment(ctx, rawCallback)
	metrics.PaymentPhaseDuration.WithLabelValues("verify").Observe(time.Since(verifyStart).Seconds())

	if err != nil {
		o.failed(pending.context, errors.ErrCodeVerificationFailed)
		o.reset()
		o.logger.WithError(err).Error("verification call failed", map[string]interface{}{
			"orderId": pending.order.ID,
		})
		return nil, errors.NewVerificationFailedError(err.Error())
	}
	if !ok {
		o.failed(pending.context, errors.ErrCodeVerificationFailed)
		o.reset()
		o.logger.Error("verification rejected callback", map[string]interface{}{
			"orderId": pending.order.ID,
		})
		return nil, errors.NewVerificationFailedError("verify endpoint returned success=false")
	}

	var cb models.CheckoutCallback
	if err := json.Unmarshal(rawCallback, &cb); err != nil || cb.PaymentID == "" {
		o.failed(pending.context, errors.ErrCodeVerificationFailed)
		o.reset()
		return nil, errors.NewVerificationFailedError(fmt.Sprintf("verified callback missing payment id: %v", err))
	}

	outcome := models.PaymentOutcome{
		TransactionID: cb.PaymentID,
		OrderID:       cb.OrderID,
		Quote:         pending.quote,
	}
	if err := o.session.RecordOutcome(ctx, outcome); err != nil {
		o.reset()
		return nil, errors.NewStoreWriteFailedError(store.KeyTransactionID, err)
	}

	metrics.PaymentsVerified.WithLabelValues(string(pending.context)).Inc()
	o.logger.Info("payment verified", map[string]interface{}{
		"transactionId": cb.PaymentID,
		"orderId":       cb.OrderID,
		"context":       string(pending.context),
	})

	o.reset()
	return &outcome, nil
}

// HandleFailure processes an explicit failure callback from the checkout.
// The session is left untouched so the draft survives for a retry.
func (o *Orchestrator) HandleFailure(reason string) error {
	pending, err := o.claim(StateIdle)
	if err != nil {
		return err
	}

	o.failed(pending.context, errors.ErrCodeGatewayFailure)
	o.logger.Warn("payment failed at gateway", map[string]interface{}{
		"orderId": pending.order.ID,
		"reason":  reason,
	})
	return errors.NewGatewayFailureError(reason)
}

// HandleDismiss processes the user closing the checkout without paying.
// Benign: no error counter, no session write.
func (o *Orchestrator) HandleDismiss() error {
	pending, err := o.claim(StateIdle)
	if err != nil {
		return err
	}

	o.logger.Info("checkout dismissed by user", map[string]interface{}{
		"orderId": pending.order.ID,
	})
	return errors.NewUserCancelledError()
}

// claim transitions AwaitingUserAction to next and hands the pending
// attempt to the caller. Any callback that arrives in another state is
// stale (late, duplicate, or post-timeout) and is rejected.
func (o *Orchestrator) claim(next State) (*attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateAwaitingUserAction || o.pending == nil {
		return nil, errors.NewPaymentInFlightError(string(o.state))
	}
	if o.awaitTimer != nil {
		o.awaitTimer.Stop()
		o.awaitTimer = nil
	}

	pending := o.pending
	o.state = next
	if next == StateIdle {
		o.pending = nil
	}
	return pending, nil
}

// expire fires when no callback arrived within the await timeout. Local
// state resets so the user can retry; the remote order may still exist,
// which is why the event is logged at warn with the order id.
func (o *Orchestrator) expire() {
	o.mu.Lock()
	if o.state != StateAwaitingUserAction || o.pending == nil {
		o.mu.Unlock()
		return
	}
	pending := o.pending
	o.state = StateIdle
	o.pending = nil
	o.awaitTimer = nil
	o.mu.Unlock()

	metrics.PaymentsFailed.WithLabelValues(string(pending.context), string(errors.ErrCodePaymentTimeout)).Inc()
	o.logger.Warn("checkout timed out without user action", map[string]interface{}{
		"orderId": pending.order.ID,
		"waited":  o.awaitTimeout.String(),
	})
}

func (o *Orchestrator) transition(next State) {
	o.mu.Lock()
	o.state = next
	o.mu.Unlock()
}

func (o *Orchestrator) failed(payCtx models.Context, code errors.ErrorCode) {
	metrics.PaymentsFailed.WithLabelValues(string(payCtx), string(code)).Inc()
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.state = StateIdle
	o.pending = nil
	if o.awaitTimer != nil {
		o.awaitTimer.Stop()
		o.awaitTimer = nil
	}
	o.mu.Unlock()
}

func description(payCtx models.Context) string {
	if payCtx == models.ContextAgent {
		return "Agent Registration Fee"
	}
	return "Candidate Registration Fee"
}
