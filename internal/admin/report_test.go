package admin

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	candidates []models.CandidateLedgerEntry
	agents     []models.AgentLedgerEntry
	failWith   error
}

func (f *fakeSource) Candidates(ctx context.Context) ([]models.CandidateLedgerEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.candidates, nil
}

func (f *fakeSource) Agents(ctx context.Context) ([]models.AgentLedgerEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.agents, nil
}

func candidateRow(txn string) models.CandidateLedgerEntry {
	return models.CandidateLedgerEntry{
		TxnID:   txn,
		Payment: models.FeeQuote{Base: 200, GST: 36, CGST: 18, SGST: 18, Total: 236},
	}
}

func agentRow(code string) models.AgentLedgerEntry {
	return models.AgentLedgerEntry{
		Registration: models.AgentRegistration{AgentCode: code},
		Payment:      models.FeeQuote{Base: 300, GST: 54, CGST: 27, SGST: 27, Total: 354},
	}
}

func TestReportEmpty(t *testing.T) {
	s := NewService(&fakeSource{}, logger.NewTestLogger(t))

	report, err := s.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.CandidateCount)
	assert.Equal(t, 0, report.Summary.AgentCount)
	assert.Equal(t, int64(0), report.Summary.TotalRevenue)
	assert.Empty(t, report.Candidates)
	assert.Empty(t, report.Agents)
}

func TestReportSummaryArithmetic(t *testing.T) {
	src := &fakeSource{
		candidates: []models.CandidateLedgerEntry{
			candidateRow("pay_1"), candidateRow("pay_2"), candidateRow("pay_3"),
		},
		agents: []models.AgentLedgerEntry{
			agentRow("a-one1001"), agentRow("b-two1002"),
		},
	}
	s := NewService(src, logger.NewTestLogger(t))

	report, err := s.Report(context.Background())
	require.NoError(t, err)

	sum := report.Summary
	assert.Equal(t, 3, sum.CandidateCount)
	assert.Equal(t, 2, sum.AgentCount)
	assert.Equal(t, int64(3*236), sum.CandidateRevenue)
	assert.Equal(t, int64(2*354), sum.AgentRevenue)
	assert.Equal(t, int64(3*236+2*354), sum.TotalRevenue)
	assert.Equal(t, int64(3*36+2*54), sum.TotalGST)
	assert.Equal(t, sum.TotalGST/2, sum.CGST)
	assert.Equal(t, sum.CGST, sum.SGST)
}

func TestReportCountsDuplicateCandidateRows(t *testing.T) {
	// Two rows with the same txn both count: the summary reports ledger
	// rows, not distinct payments.
	src := &fakeSource{
		candidates: []models.CandidateLedgerEntry{
			candidateRow("pay_1"), candidateRow("pay_1"),
		},
	}
	s := NewService(src, logger.NewTestLogger(t))

	report, err := s.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.CandidateCount)
	assert.Equal(t, int64(472), report.Summary.CandidateRevenue)
}

func TestReportSourceFailure(t *testing.T) {
	s := NewService(&fakeSource{failWith: fmt.Errorf("db down")}, logger.NewTestLogger(t))

	report, err := s.Report(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeLedgerQueryFailed, stdErr.Code)
}
