// Package ledger persists the admin-visible record of completed payments:
// one Postgres table per funnel. Candidate rows are append-only; agent rows
// dedup on agent code.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"apcc-pipeline/internal/common/database"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/common/metrics"
	"apcc-pipeline/internal/models"

	"github.com/google/uuid"
)

type Ledger struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func New(db *database.PostgresClient, log logger.Logger) *Ledger {
	return &Ledger{db: db, logger: log}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	_, err := l.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admin_candidates (
			id UUID PRIMARY KEY,
			full_name TEXT NOT NULL,
			mobile TEXT NOT NULL,
			email TEXT NOT NULL,
			agent_code TEXT,
			application JSONB NOT NULL,
			txn_id TEXT NOT NULL,
			invoice_no TEXT NOT NULL,
			base_amount BIGINT NOT NULL,
			gst_amount BIGINT NOT NULL,
			total_amount BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create admin_candidates: %w", err)
	}

	_, err = l.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS admin_agents (
			id UUID PRIMARY KEY,
			agent_code TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL,
			mobile TEXT NOT NULL,
			email TEXT NOT NULL,
			registration JSONB NOT NULL,
			txn_id TEXT NOT NULL,
			invoice_no TEXT NOT NULL,
			base_amount BIGINT NOT NULL,
			gst_amount BIGINT NOT NULL,
			total_amount BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create admin_agents: %w", err)
	}
	return nil
}

// AppendCandidate inserts a candidate row. Every completed payment appends;
// there is no dedup on this ledger, so a re-materialized confirmation shows
// up as a second row with the same txn_id.
func (l *Ledger) AppendCandidate(ctx context.Context, entry models.CandidateLedgerEntry) error {
	applicationJSON, err := json.Marshal(entry.Application)
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("candidates", "error").Inc()
		return fmt.Errorf("marshal application: %w", err)
	}

	rowID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = l.db.Exec(ctx, `
		INSERT INTO admin_candidates (
			id, full_name, mobile, email, agent_code, application,
			txn_id, invoice_no, base_amount, gst_amount, total_amount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rowID,
		entry.Application.FullName(),
		entry.Application.Mobile,
		entry.Application.Email,
		entry.Application.AgentCode,
		applicationJSON,
		entry.TxnID,
		entry.InvoiceNo,
		entry.Payment.Base,
		entry.Payment.GST,
		entry.Payment.Total,
		createdAt,
	)
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("candidates", "error").Inc()
		return fmt.Errorf("insert candidate row: %w", err)
	}

	metrics.LedgerAppends.WithLabelValues("candidates", "appended").Inc()
	l.logger.Info("candidate ledger row appended", map[string]interface{}{
		"rowId":     rowID,
		"txnId":     entry.TxnID,
		"invoiceNo": entry.InvoiceNo,
	})
	return nil
}

// AppendAgent inserts an agent row unless the agent code is already
// present. A duplicate is not an error; the existing row stands.
func (l *Ledger) AppendAgent(ctx context.Context, entry models.AgentLedgerEntry) error {
	var exists bool
	err := l.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM admin_agents
			WHERE agent_code = $1
		)`, entry.Registration.AgentCode).Scan(&exists)
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("agents", "error").Inc()
		return fmt.Errorf("agent dedup check failed: %w", err)
	}
	if exists {
		metrics.LedgerAppends.WithLabelValues("agents", "deduped").Inc()
		l.logger.Info("agent already on ledger, skipping", map[string]interface{}{
			"agentCode": entry.Registration.AgentCode,
		})
		return nil
	}

	registrationJSON, err := json.Marshal(entry.Registration)
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("agents", "error").Inc()
		return fmt.Errorf("marshal registration: %w", err)
	}

	rowID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = l.db.Exec(ctx, `
		INSERT INTO admin_agents (
			id, agent_code, full_name, mobile, email, registration,
			txn_id, invoice_no, base_amount, gst_amount, total_amount, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rowID,
		entry.Registration.AgentCode,
		entry.Registration.FullName,
		entry.Registration.Mobile,
		entry.Registration.Email,
		registrationJSON,
		entry.TxnID,
		entry.InvoiceNo,
		entry.Payment.Base,
		entry.Payment.GST,
		entry.Payment.Total,
		createdAt,
	)
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("agents", "error").Inc()
		return fmt.Errorf("insert agent row: %w", err)
	}

	metrics.LedgerAppends.WithLabelValues("agents", "appended").Inc()
	l.logger.Info("agent ledger row appended", map[string]interface{}{
		"rowId":     rowID,
		"agentCode": entry.Registration.AgentCode,
		"txnId":     entry.TxnID,
	})
	return nil
}

// Candidates returns every candidate row, newest first.
func (l *Ledger) Candidates(ctx context.Context) ([]models.CandidateLedgerEntry, error) {
	rows, err := l.db.Query(ctx, `
		SELECT application, txn_id, invoice_no, base_amount, gst_amount, total_amount
		FROM admin_candidates
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query candidate rows: %w", err)
	}
	defer rows.Close()

	var entries []models.CandidateLedgerEntry
	for rows.Next() {
		var (
			applicationJSON []byte
			entry           models.CandidateLedgerEntry
		)
		if err := rows.Scan(&applicationJSON, &entry.TxnID, &entry.InvoiceNo,
			&entry.Payment.Base, &entry.Payment.GST, &entry.Payment.Total); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		if err := json.Unmarshal(applicationJSON, &entry.Application); err != nil {
			return nil, fmt.Errorf("unmarshal application: %w", err)
		}
		entry.Payment.CGST = entry.Payment.GST / 2
		entry.Payment.SGST = entry.Payment.GST / 2
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Agents returns every agent row, newest first.
func (l *Ledger) Agents(ctx context.Context) ([]models.AgentLedgerEntry, error) {
	rows, err := l.db.Query(ctx, `
		SELECT registration, txn_id, invoice_no, base_amount, gst_amount, total_amount
		FROM admin_agents
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query agent rows: %w", err)
	}
	defer rows.Close()

	var entries []models.AgentLedgerEntry
	for rows.Next() {
		var (
			registrationJSON []byte
			entry            models.AgentLedgerEntry
		)
		if err := rows.Scan(&registrationJSON, &entry.TxnID, &entry.InvoiceNo,
			&entry.Payment.Base, &entry.Payment.GST, &entry.Payment.Total); err != nil {
			return nil, fmt.Errorf("scan agent row: %w", err)
		}
		if err := json.Unmarshal(registrationJSON, &entry.Registration); err != nil {
			return nil, fmt.Errorf("unmarshal registration: %w", err)
		}
		entry.Payment.CGST = entry.Payment.GST / 2
		entry.Payment.SGST = entry.Payment.GST / 2
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
