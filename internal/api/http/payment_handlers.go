package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	appPayment "github.com/collabmarket/settlement-hub/internal/application/payment"
	"github.com/collabmarket/settlement-hub/internal/domain/audit"
)

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ChargeID        string `json:"chargeId"`
}

type ledgerSummaryRequest struct {
	CampaignIDs []uuid.UUID `json:"campaignIds"`
}

func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	proposalID, err := parseUUIDParam(r, "proposalId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid proposalId")
		return
	}
	res, err := s.paymentSvc.CreateIntent(r.Context(), actorFromContext(r.Context()), proposalID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	proposalID, err := parseUUIDParam(r, "proposalId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid proposalId")
		return
	}
	var req confirmPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	txn, err := s.paymentSvc.Confirm(r.Context(), actorFromContext(r.Context()), proposalID, appPayment.ConfirmInput{
		PaymentIntentID: req.PaymentIntentID,
		ChargeID:        req.ChargeID,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (s *Server) manualPayout(w http.ResponseWriter, r *http.Request) {
	proposalID, err := parseUUIDParam(r, "proposalId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid proposalId")
		return
	}
	out, err := s.payoutEngine.ManualPayout(r.Context(), actorFromContext(r.Context()), proposalID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) payoutAccountStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.payoutEngine.AccountStatus(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) ledgerSummary(w http.ResponseWriter, r *http.Request) {
	var req ledgerSummaryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	summary, err := s.ledgerSvc.Summary(r.Context(), actorFromContext(r.Context()), req.CampaignIDs)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	entityType := audit.EntityType(r.URL.Query().Get("entityType"))
	entityID := r.URL.Query().Get("entityId")
	switch entityType {
	case audit.EntityCampaign, audit.EntityProposal, audit.EntityDispute:
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "entityType must be campaign, proposal or dispute")
		return
	}
	if entityID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "entityId is required")
		return
	}
	history, err := s.auditSvc.GetEntityHistory(r.Context(), entityType, entityID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": history})
}
