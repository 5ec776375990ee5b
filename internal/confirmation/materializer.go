// Package confirmation turns a paid session into durable records: the
// invoice shown to the payer, the ledger rows the admin sees, and the
// outbound notifications.
package confirmation

import (
	"context"
	"time"

	"apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/fees"
	"apcc-pipeline/internal/models"
	"apcc-pipeline/internal/store"
)

// Ledger is the admin-record sink. Candidate appends are unconditional;
// agent appends dedup on agent code inside the implementation.
type Ledger interface {
	AppendCandidate(ctx context.Context, entry models.CandidateLedgerEntry) error
	AppendAgent(ctx context.Context, entry models.AgentLedgerEntry) error
}

// Notifier sends the invoice out of band. Optional; a nil notifier
// disables sending without changing anything else.
type Notifier interface {
	SendInvoice(ctx context.Context, inv Invoice) error
}

type Materializer struct {
	session  *store.Session
	ledger   Ledger
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

func NewMaterializer(session *store.Session, ledger Ledger, notifier Notifier, log logger.Logger) *Materializer {
	return &Materializer{
		session:  session,
		ledger:   ledger,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

// Materialize builds the invoice for the current session and appends the
// admin ledger row. The transaction id is the sole gate: without it the
// session is unpaid and nothing is written. Each call appends a candidate
// row, so reloading a candidate confirmation duplicates the record; agent
// rows dedup on code.
func (m *Materializer) Materialize(ctx context.Context) (*Invoice, error) {
	txnID, paid, err := m.session.TransactionID(ctx)
	if err != nil {
		return nil, errors.NewStoreReadFailedError(store.KeyTransactionID, err)
	}
	if !paid {
		m.logger.Warn("confirmation requested for unpaid session", nil)
		return nil, errors.NewUnpaidSessionError()
	}

	payCtx, err := m.session.Context(ctx)
	if err != nil {
		return nil, errors.NewStoreReadFailedError(store.KeyPaymentContext, err)
	}

	quote, orderID := m.quoteFor(ctx, payCtx)

	now := m.now()
	inv := &Invoice{
		Number:        newInvoiceNumber(now),
		Date:          now.Format("02/01/2006"),
		Context:       payCtx,
		Quote:         quote,
		TransactionID: txnID,
		OrderID:       orderID,
	}

	switch payCtx {
	case models.ContextAgent:
		if err := m.materializeAgent(ctx, inv, txnID); err != nil {
			return nil, err
		}
	default:
		if err := m.materializeCandidate(ctx, inv, txnID); err != nil {
			return nil, err
		}
	}

	m.notify(ctx, *inv)

	m.logger.Info("confirmation materialized", map[string]interface{}{
		"invoiceNo":     inv.Number,
		"context":       string(payCtx),
		"transactionId": txnID,
	})
	return inv, nil
}

// quoteFor prefers the snapshot written at verification time; only a
// session paid before snapshots existed falls back to recomputing.
func (m *Materializer) quoteFor(ctx context.Context, payCtx models.Context) (models.FeeQuote, string) {
	snap, ok, err := m.session.OutcomeSnapshot(ctx)
	if err != nil || !ok {
		if err != nil {
			m.logger.WithError(err).Warn("payment snapshot unreadable, recomputing quote", nil)
		}
		return fees.Quote(payCtx), ""
	}
	return snap.Quote, snap.OrderID
}

func (m *Materializer) materializeCandidate(ctx context.Context, inv *Invoice, txnID string) error {
	draft, err := m.session.CandidateDraft(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.NewDraftMissingError(string(models.ContextCandidate))
		}
		return errors.NewStoreReadFailedError(store.KeyPendingCandidate, err)
	}

	inv.Name = draft.FullName()
	inv.Mobile = draft.Mobile
	inv.Email = draft.Email

	entry := models.CandidateLedgerEntry{
		Application: *draft,
		TxnID:       txnID,
		InvoiceNo:   inv.Number,
		Payment:     inv.Quote,
	}
	if err := m.ledger.AppendCandidate(ctx, entry); err != nil {
		return errors.NewLedgerInsertFailedError("candidates", err)
	}
	return nil
}

func (m *Materializer) materializeAgent(ctx context.Context, inv *Invoice, txnID string) error {
	draft, err := m.session.AgentDraft(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			return errors.NewDraftMissingError(string(models.ContextAgent))
		}
		return errors.NewStoreReadFailedError(store.KeyPendingAgent, err)
	}

	inv.Name = draft.FullName
	inv.Mobile = draft.Mobile
	inv.Email = draft.Email
	inv.AgentCode = draft.AgentCode

	entry := models.AgentLedgerEntry{
		Registration: *draft,
		TxnID:        txnID,
		InvoiceNo:    inv.Number,
		Payment:      inv.Quote,
	}
	if err := m.ledger.AppendAgent(ctx, entry); err != nil {
		return errors.NewLedgerInsertFailedError("agents", err)
	}
	return nil
}

// notify is best effort. A failed send is logged and dropped; the payer
// already has the on-screen invoice.
func (m *Materializer) notify(ctx context.Context, inv Invoice) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.SendInvoice(ctx, inv); err != nil {
		m.logger.WithError(err).Warn("invoice notification failed", map[string]interface{}{
			"invoiceNo": inv.Number,
		})
	}
}
