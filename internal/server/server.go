// Package server exposes the registration funnel over HTTP: intake
// submissions, the payment endpoints, the confirmation view, and the
// admin report.
package server

import (
	"encoding/json"
	"io"
	"net/http"

	"apcc-pipeline/internal/admin"
	"apcc-pipeline/internal/common/errors"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/confirmation"
	"apcc-pipeline/internal/intake"
	"apcc-pipeline/internal/models"
	"apcc-pipeline/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	intake        *intake.Service
	payments      *payment.Orchestrator
	confirmations *confirmation.Materializer
	reports       *admin.Service
	errs          *errors.Handler
	logger        logger.Logger
}

func New(
	intakeSvc *intake.Service,
	payments *payment.Orchestrator,
	confirmations *confirmation.Materializer,
	reports *admin.Service,
	log logger.Logger,
) *Server {
	return &Server{
		intake:        intakeSvc,
		payments:      payments,
		confirmations: confirmations,
		reports:       reports,
		errs:          errors.NewHandler(log),
		logger:        log,
	}
}

// Router builds the chi handler. The payment callbacks mirror the three
// exits of the hosted checkout: success, failure, dismiss.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/candidates", s.handleSubmitCandidate)
		r.Post("/agents", s.handleRegisterAgent)

		r.Route("/payment", func(r chi.Router) {
			r.Post("/pay", s.handlePay)
			r.Post("/callbacks/success", s.handleCallbackSuccess)
			r.Post("/callbacks/failure", s.handleCallbackFailure)
			r.Post("/callbacks/dismiss", s.handleCallbackDismiss)
		})

		r.Get("/confirmation", s.handleConfirmation)
		r.Get("/admin/report", s.handleAdminReport)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitCandidate(w http.ResponseWriter, r *http.Request) {
	var app models.CandidateApplication
	if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
		s.respondError(w, errors.NewDraftValidationFailedError("malformed request body"))
		return
	}

	if err := s.intake.SubmitCandidate(r.Context(), &app); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]string{
		"context": string(models.ContextCandidate),
	})
}

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var in intake.AgentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, errors.NewDraftValidationFailedError("malformed request body"))
		return
	}

	reg, err := s.intake.SubmitAgent(r.Context(), &in)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]string{
		"context":   string(models.ContextAgent),
		"agentCode": reg.AgentCode,
	})
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	session, err := s.payments.Pay(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleCallbackSuccess(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		s.respondError(w, errors.NewVerificationFailedError("empty callback body"))
		return
	}

	outcome, err := s.payments.HandleSuccess(r.Context(), raw)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleCallbackFailure(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	err := s.payments.HandleFailure(body.Reason)
	s.respondOutcomeNotice(w, err)
}

func (s *Server) handleCallbackDismiss(w http.ResponseWriter, r *http.Request) {
	err := s.payments.HandleDismiss()
	s.respondOutcomeNotice(w, err)
}

func (s *Server) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	inv, err := s.confirmations.Materialize(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, inv)
}

func (s *Server) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Report(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// respondOutcomeNotice answers the failure and dismiss callbacks. The
// returned error is the user-facing notice for a completed callback, not a
// server fault, so it goes out as 200; a stale callback is a conflict.
func (s *Server) respondOutcomeNotice(w http.ResponseWriter, err error) {
	if err == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	stdErr := errors.Normalize(err)
	if stdErr.Code == errors.ErrCodePaymentInFlight {
		s.respondError(w, err)
		return
	}
	notice := s.errs.Handle(err)
	s.respondJSON(w, http.StatusOK, notice)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	notice := s.errs.Handle(err)
	s.respondJSON(w, statusFor(notice.Code), notice)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("response encode failed", nil)
	}
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeDraftValidationFailed:
		return http.StatusBadRequest
	case errors.ErrCodeDraftMissing, errors.ErrCodePaymentInFlight:
		return http.StatusConflict
	case errors.ErrCodeUnpaidSession:
		return http.StatusPaymentRequired
	case errors.ErrCodePaymentTimeout:
		return http.StatusRequestTimeout
	case errors.ErrCodeWidgetLoadFailure,
		errors.ErrCodeOrderCreationFailed,
		errors.ErrCodeGatewayFailure,
		errors.ErrCodeVerificationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
