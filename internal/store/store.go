// Package store is the shared persistence surface of the funnel: a flat
// key-value store scoped to one registration session.
//
// Ownership contract: single process, single session. There is no
// transactional isolation and no multi-client consistency; two sessions
// racing on the same store is outside the design, the same way two browser
// tabs were for the reference implementation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pipelineerrors "apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/models"
)

// Store key layout. The discriminator and the active draft are written
// together at submit; txn_id is absent until a payment is verified.
const (
	KeyPaymentContext    = "payment_context"
	KeyPendingCandidate  = "pending_application"
	KeyPendingAgent      = "pending_agent_registration"
	KeyTransactionID     = "txn_id"
	KeyPaymentDetails    = "payment_details"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Store is the injected get/set/remove surface the pipeline components
// share. Implementations must return ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Session wraps a Store with the typed operations the pipeline needs.
type Session struct {
	store Store
}

func NewSession(s Store) *Session {
	return &Session{store: s}
}

// SaveCandidateDraft writes the candidate draft and the context
// discriminator together, the precondition for navigating to payment.
func (s *Session) SaveCandidateDraft(ctx context.Context, app *models.CandidateApplication) error {
	raw, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal candidate draft: %w", err)
	}
	if err := s.store.Set(ctx, KeyPendingCandidate, string(raw)); err != nil {
		return pipelineerrors.NewStoreWriteFailedError(KeyPendingCandidate, err)
	}
	if err := s.store.Set(ctx, KeyPaymentContext, string(models.ContextCandidate)); err != nil {
		return pipelineerrors.NewStoreWriteFailedError(KeyPaymentContext, err)
	}
	return nil
}

// SaveAgentDraft writes the agent draft and the context discriminator.
func (s *Session) SaveAgentDraft(ctx context.Context, reg *models.AgentRegistration) error {
	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal agent draft: %w", err)
	}
	if err := s.store.Set(ctx, KeyPendingAgent, string(raw)); err != nil {
		return pipelineerrors.NewStoreWriteFailedError(KeyPendingAgent, err)
	}
	if err := s.store.Set(ctx, KeyPaymentContext, string(models.ContextAgent)); err != nil {
		return pipelineerrors.NewStoreWriteFailedError(KeyPaymentContext, err)
	}
	return nil
}

// Context reads the discriminator. A missing discriminator defaults to
// candidate, matching the reference behavior.
func (s *Session) Context(ctx context.Context) (models.Context, error) {
	raw, err := s.store.Get(ctx, KeyPaymentContext)
	if errors.Is(err, ErrNotFound) {
		return models.ContextCandidate, nil
	}
	if err != nil {
		return "", pipelineerrors.NewStoreReadFailedError(KeyPaymentContext, err)
	}
	c := models.Context(raw)
	if !c.Valid() {
		return models.ContextCandidate, nil
	}
	return c, nil
}

// CandidateDraft reads back the pending candidate application.
func (s *Session) CandidateDraft(ctx context.Context) (*models.CandidateApplication, error) {
	raw, err := s.store.Get(ctx, KeyPendingCandidate)
	if errors.Is(err, ErrNotFound) {
		return nil, pipelineerrors.NewDraftMissingError(string(models.ContextCandidate))
	}
	if err != nil {
		return nil, pipelineerrors.NewStoreReadFailedError(KeyPendingCandidate, err)
	}
	var app models.CandidateApplication
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		return nil, fmt.Errorf("unmarshal candidate draft: %w", err)
	}
	return &app, nil
}

// AgentDraft reads back the pending agent registration.
func (s *Session) AgentDraft(ctx context.Context) (*models.AgentRegistration, error) {
	raw, err := s.store.Get(ctx, KeyPendingAgent)
	if errors.Is(err, ErrNotFound) {
		return nil, pipelineerrors.NewDraftMissingError(string(models.ContextAgent))
	}
	if err != nil {
		return nil, pipelineerrors.NewStoreReadFailedError(KeyPendingAgent, err)
	}
	var reg models.AgentRegistration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return nil, fmt.Errorf("unmarshal agent draft: %w", err)
	}
	return &reg, nil
}

// RecordOutcome persists a verified payment. The outcome snapshot is
// written before the transaction identifier so that the presence of txn_id
// always implies a readable snapshot.
func (s *Session) RecordOutcome(ctx context.Context, outcome models.PaymentOutcome) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal payment snapshot: %w", err)
	}
	if err := s.store.Set(ctx, KeyPaymentDetails, string(raw)); err != nil {
		return pipelineerrors.NewStoreWriteFailedError(KeyPaymentDetails, err)
	}
	if err := s.store.Set(ctx, KeyTransactionID, outcome.TransactionID); err != nil {
		return pipelineerrors.NewStoreWriteFailedError(KeyTransactionID, err)
	}
	return nil
}

// TransactionID reads the verified transaction identifier. Absence means no
// verified payment occurred.
func (s *Session) TransactionID(ctx context.Context) (string, bool, error) {
	raw, err := s.store.Get(ctx, KeyTransactionID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pipelineerrors.NewStoreReadFailedError(KeyTransactionID, err)
	}
	return raw, raw != "", nil
}

// OutcomeSnapshot reads the payment recorded at verification time. ok is
// false when no snapshot was written.
func (s *Session) OutcomeSnapshot(ctx context.Context) (models.PaymentOutcome, bool, error) {
	raw, err := s.store.Get(ctx, KeyPaymentDetails)
	if errors.Is(err, ErrNotFound) {
		return models.PaymentOutcome{}, false, nil
	}
	if err != nil {
		return models.PaymentOutcome{}, false, pipelineerrors.NewStoreReadFailedError(KeyPaymentDetails, err)
	}
	var o models.PaymentOutcome
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return models.PaymentOutcome{}, false, fmt.Errorf("unmarshal payment snapshot: %w", err)
	}
	return o, true, nil
}

// Clear removes every session key, resetting the funnel.
func (s *Session) Clear(ctx context.Context) error {
	keys := []string{
		KeyPaymentContext,
		KeyPendingCandidate,
		KeyPendingAgent,
		KeyTransactionID,
		KeyPaymentDetails,
	}
	for _, k := range keys {
		if err := s.store.Remove(ctx, k); err != nil && !errors.Is(err, ErrNotFound) {
			return pipelineerrors.NewStoreWriteFailedError(k, err)
		}
	}
	return nil
}
