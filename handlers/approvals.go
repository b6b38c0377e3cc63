// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/models"
)

type ApprovalHandler struct {
	eng *engine.Engine
}

func NewApprovalHandler(eng *engine.Engine) *ApprovalHandler {
	return &ApprovalHandler{eng: eng}
}

// Approve handles POST /campaigns/{id}/approvals. Approving twice is not an
// error; the second call returns the original approval.
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.eng.Approve(r.Context(), r.PathValue("id"), middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, receipt)
}

// GetApprovals handles GET /campaigns/{id}/approvals
func (h *ApprovalHandler) GetApprovals(w http.ResponseWriter, r *http.Request) {
	st, err := h.eng.Approvals(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ApprovalsResponse{
		CampaignID: st.CampaignID,
		Count:      st.Count,
		Required:   st.Required,
		QuorumMet:  st.Count >= st.Required,
		Approvals:  st.Approvals,
	})
}
