package models

// CandidateLedgerEntry is one admin-visible row in the candidates ledger.
// Candidate entries are appended unconditionally, one per completed payment.
type CandidateLedgerEntry struct {
	Application CandidateApplication `json:"application"`
	TxnID       string               `json:"txnId"`
	InvoiceNo   string               `json:"invNo"`
	Payment     FeeQuote             `json:"payment"`
}

// AgentLedgerEntry is one admin-visible row in the agents ledger. A given
// agent code appears at most once; inserts dedup on it.
type AgentLedgerEntry struct {
	Registration AgentRegistration `json:"registration"`
	TxnID        string            `json:"txnId"`
	InvoiceNo    string            `json:"invNo"`
	Payment      FeeQuote          `json:"payment"`
}
