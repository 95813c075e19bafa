package httpapi

import (
	"net/http"
	"strings"

	"github.com/collabmarket/settlement-hub/internal/domain/campaign"
)

type campaignStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) markCampaignComplete(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseUUIDParam(r, "campaignId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid campaignId")
		return
	}
	res, err := s.completionSvc.MarkInfluencerComplete(r.Context(), actorFromContext(r.Context()), campaignID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) setCampaignStatus(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseUUIDParam(r, "campaignId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid campaignId")
		return
	}
	var req campaignStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	status := campaign.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	res, err := s.campaignSvc.SetStatus(r.Context(), actorFromContext(r.Context()), campaignID, status)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
