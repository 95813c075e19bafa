package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/collabmarket/settlement-hub/internal/application/audit"
	appCampaign "github.com/collabmarket/settlement-hub/internal/application/campaign"
	"github.com/collabmarket/settlement-hub/internal/application/completion"
	appDispute "github.com/collabmarket/settlement-hub/internal/application/dispute"
	appLedger "github.com/collabmarket/settlement-hub/internal/application/ledger"
	appPayment "github.com/collabmarket/settlement-hub/internal/application/payment"
	"github.com/collabmarket/settlement-hub/internal/application/payout"
	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
	domainUser "github.com/collabmarket/settlement-hub/internal/domain/user"
)

// Services groups the application services exposed over HTTP.
type Services struct {
	Completion *completion.Coordinator
	Campaigns  *appCampaign.Service
	Payouts    *payout.Engine
	Payments   *appPayment.Service
	Disputes   *appDispute.Service
	Ledger     *appLedger.Service
	Audit      *appAudit.Service
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	completionSvc *completion.Coordinator
	campaignSvc   *appCampaign.Service
	payoutEngine  *payout.Engine
	paymentSvc    *appPayment.Service
	disputeSvc    *appDispute.Service
	ledgerSvc     *appLedger.Service
	auditSvc      *appAudit.Service
	tokens        *TokenVerifier
	logger        zerolog.Logger
}

func NewServer(svcs Services, tokens *TokenVerifier, logger zerolog.Logger) *Server {
	return &Server{
		completionSvc: svcs.Completion,
		campaignSvc:   svcs.Campaigns,
		payoutEngine:  svcs.Payouts,
		paymentSvc:    svcs.Payments,
		disputeSvc:    svcs.Disputes,
		ledgerSvc:     svcs.Ledger,
		auditSvc:      svcs.Audit,
		tokens:        tokens,
		logger:        logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	admin := s.requireRole(string(domainUser.RoleAdmin))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.With(s.requireRole(string(domainUser.RoleInfluencer))).
			Post("/campaigns/{campaignId}/complete", s.markCampaignComplete)

		r.Route("/proposals/{proposalId}", func(r chi.Router) {
			r.Use(s.requireRole(string(domainUser.RoleBrand), string(domainUser.RoleAdmin)))
			r.Post("/payment-intent", s.createPaymentIntent)
			r.Post("/payment-confirm", s.confirmPayment)
		})

		r.With(s.requireRole(string(domainUser.RoleInfluencer))).
			Get("/payouts/account", s.payoutAccountStatus)

		r.Route("/disputes", func(r chi.Router) {
			r.Post("/", s.createDispute)
			r.Get("/", s.listDisputes)
			r.Get("/{disputeId}", s.getDispute)
			r.Post("/{disputeId}/evidence", s.addDisputeEvidence)
			r.Post("/{disputeId}/messages", s.addDisputeMessage)
			r.With(admin).Post("/{disputeId}/decision", s.decideDispute)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin)
			r.Put("/campaigns/{campaignId}/status", s.setCampaignStatus)
			r.Post("/proposals/{proposalId}/payout", s.manualPayout)
			r.Post("/ledger/summary", s.ledgerSummary)
			r.Get("/audit", s.queryAudit)
		})
	})

	return r
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps sentinel errors from the application layer to HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, apperr.ErrPrecondition):
		respondError(w, http.StatusBadRequest, "PRECONDITION_FAILED", err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, apperr.ErrConflict):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, apperr.ErrExternal):
		respondError(w, http.StatusBadGateway, "EXTERNAL_ERROR", err.Error())
	default:
		s.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
