package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	appDispute "github.com/collabmarket/settlement-hub/internal/application/dispute"
	"github.com/collabmarket/settlement-hub/internal/domain/dispute"
)

type createDisputeRequest struct {
	CampaignID    uuid.UUID          `json:"campaignId"`
	Reason        string             `json:"reason"`
	Description   string             `json:"description"`
	Evidence      []dispute.Evidence `json:"evidence,omitempty"`
	AgainstUserID *uuid.UUID         `json:"againstUserId,omitempty"`
}

type evidenceRequest struct {
	Evidence []dispute.Evidence `json:"evidence"`
}

type messageRequest struct {
	Message     string   `json:"message"`
	Attachments []string `json:"attachments,omitempty"`
}

type decisionRequest struct {
	Decision string   `json:"decision"`
	Notes    string   `json:"notes,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
}

func (s *Server) createDispute(w http.ResponseWriter, r *http.Request) {
	var req createDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	d, err := s.disputeSvc.Create(r.Context(), actorFromContext(r.Context()), appDispute.CreateInput{
		CampaignID:    req.CampaignID,
		Reason:        req.Reason,
		Description:   req.Description,
		Evidence:      req.Evidence,
		AgainstUserID: req.AgainstUserID,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) listDisputes(w http.ResponseWriter, r *http.Request) {
	in := appDispute.ListInput{Page: queryInt(r, "page"), Limit: queryInt(r, "limit")}
	if v := r.URL.Query().Get("status"); v != "" {
		st := dispute.Status(strings.ToLower(v))
		if !st.Valid() {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid status")
			return
		}
		in.Status = &st
	}
	if v := r.URL.Query().Get("campaignId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid campaignId")
			return
		}
		in.CampaignID = &id
	}
	res, err := s.disputeSvc.List(r.Context(), actorFromContext(r.Context()), in)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) getDispute(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	d, err := s.disputeSvc.Get(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) addDisputeEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	var req evidenceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	d, err := s.disputeSvc.AddEvidence(r.Context(), actorFromContext(r.Context()), id, req.Evidence)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) addDisputeMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	d, err := s.disputeSvc.AddMessage(r.Context(), actorFromContext(r.Context()), id, appDispute.MessageInput{
		Message:     req.Message,
		Attachments: req.Attachments,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) decideDispute(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "disputeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid disputeId")
		return
	}
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	d, err := s.disputeSvc.Decide(r.Context(), actorFromContext(r.Context()), id, appDispute.DecisionInput{
		Decision: dispute.Decision(strings.ToLower(strings.TrimSpace(req.Decision))),
		Notes:    req.Notes,
		Amount:   req.Amount,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}
