// Package admin builds the back-office view over the payment ledgers:
// row listings plus the revenue summary.
package admin

import (
	"context"

	"apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/models"
)

// Source reads ledger rows. Implemented by the Postgres ledger.
type Source interface {
	Candidates(ctx context.Context) ([]models.CandidateLedgerEntry, error)
	Agents(ctx context.Context) ([]models.AgentLedgerEntry, error)
}

// Summary is the dashboard header. All amounts are integer rupees.
type Summary struct {
	CandidateCount   int   `json:"candidateCount"`
	AgentCount       int   `json:"agentCount"`
	CandidateRevenue int64 `json:"candidateRevenue"`
	AgentRevenue     int64 `json:"agentRevenue"`
	TotalRevenue     int64 `json:"totalRevenue"`
	TotalGST         int64 `json:"totalGst"`
	CGST             int64 `json:"cgst"`
	SGST             int64 `json:"sgst"`
}

// Report is everything the dashboard renders in one fetch.
type Report struct {
	Summary    Summary                       `json:"summary"`
	Candidates []models.CandidateLedgerEntry `json:"candidates"`
	Agents     []models.AgentLedgerEntry     `json:"agents"`
}

type Service struct {
	source Source
	logger logger.Logger
}

func NewService(source Source, log logger.Logger) *Service {
	return &Service{source: source, logger: log}
}

// Report reads both ledgers and derives the summary from the rows, so the
// header always agrees with the tables below it.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	candidates, err := s.source.Candidates(ctx)
	if err != nil {
		return nil, errors.NewLedgerQueryFailedError("candidates", err)
	}
	agents, err := s.source.Agents(ctx)
	if err != nil {
		return nil, errors.NewLedgerQueryFailedError("agents", err)
	}

	report := &Report{
		Candidates: candidates,
		Agents:     agents,
		Summary:    summarize(candidates, agents),
	}

	s.logger.Debug("admin report built", map[string]interface{}{
		"candidates": report.Summary.CandidateCount,
		"agents":     report.Summary.AgentCount,
		"revenue":    report.Summary.TotalRevenue,
	})
	return report, nil
}

func summarize(candidates []models.CandidateLedgerEntry, agents []models.AgentLedgerEntry) Summary {
	var sum Summary
	sum.CandidateCount = len(candidates)
	sum.AgentCount = len(agents)

	for _, c := range candidates {
		sum.CandidateRevenue += c.Payment.Total
		sum.TotalGST += c.Payment.GST
	}
	for _, a := range agents {
		sum.AgentRevenue += a.Payment.Total
		sum.TotalGST += a.Payment.GST
	}

	sum.TotalRevenue = sum.CandidateRevenue + sum.AgentRevenue
	sum.CGST = sum.TotalGST / 2
	sum.SGST = sum.TotalGST / 2
	return sum
}
