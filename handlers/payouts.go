// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/models"
)

type PayoutHandler struct {
	eng *engine.Engine
}

func NewPayoutHandler(eng *engine.Engine) *PayoutHandler {
	return &PayoutHandler{eng: eng}
}

// Withdraw handles POST /campaigns/{id}/withdrawal
func (h *PayoutHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.Withdraw(r.Context(), r.PathValue("id"), middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// Refund handles POST /campaigns/{id}/refunds for the caller's own funds.
func (h *PayoutHandler) Refund(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.Refund(r.Context(), r.PathValue("id"), middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// SweepRefunds handles POST /campaigns/{id}/refunds/sweep
func (h *PayoutHandler) SweepRefunds(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	results, err := h.eng.SweepRefunds(r.Context(), id, middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.SweepResponse{CampaignID: id, Refunds: results}
	if resp.Refunds == nil {
		resp.Refunds = []ledger.RefundResult{}
	}
	for _, res := range results {
		resp.Total += res.Amount
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
