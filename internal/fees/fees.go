// Package fees derives the fee breakdown for a registration context.
//
// Quote is the only fee authority in the pipeline: the payment orchestrator
// charges from it and the confirmation materializer invoices from it, so the
// amount charged and the amount displayed can never diverge.
package fees

import "apcc-pipeline/internal/models"

const (
	CandidateBase int64 = 200
	AgentBase     int64 = 300

	// GST is 18% of base, split evenly into CGST and SGST (9% each).
	gstPercent = 18
)

// Quote computes the fee breakdown for a context. Pure and deterministic:
// no I/O, no clock, no state. Unknown contexts fall back to the candidate
// schedule, matching the reference behavior for a missing discriminator.
func Quote(ctx models.Context) models.FeeQuote {
	base := CandidateBase
	if ctx == models.ContextAgent {
		base = AgentBase
	}

	gst := base * gstPercent / 100
	half := gst / 2

	return models.FeeQuote{
		Base:  base,
		GST:   gst,
		CGST:  half,
		SGST:  half,
		Total: base + gst,
	}
}
