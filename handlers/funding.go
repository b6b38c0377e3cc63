// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/models"
)

// IdempotencyHeader carries the client's retry key for contributions.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKey = 128

type FundingHandler struct {
	eng *engine.Engine
}

func NewFundingHandler(eng *engine.Engine) *FundingHandler {
	return &FundingHandler{eng: eng}
}

// Contribute handles POST /campaigns/{id}/contributions
//
// A retry carrying the same Idempotency-Key returns the original receipt with
// 200 instead of 201.
func (h *FundingHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	var req models.ContributeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(key) > maxIdempotencyKey {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Idempotency-Key too long")
		return
	}

	receipt, err := h.eng.Contribute(r.Context(), r.PathValue("id"), middleware.Principal(r), req.Amount, req.TierIndex, key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, receipt)
}

// GetContributor handles GET /campaigns/{id}/contributors/{principal}
func (h *FundingHandler) GetContributor(w http.ResponseWriter, r *http.Request) {
	p := ledger.Principal(r.PathValue("principal"))
	if p == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "principal is required")
		return
	}

	st, err := h.eng.Contributor(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.FromContributorStatus(st))
}

// MyContributions handles GET /me/contributions
func (h *FundingHandler) MyContributions(w http.ResponseWriter, r *http.Request) {
	p := middleware.Principal(r)
	records, err := h.eng.ContributionsBy(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.MyContributionsResponse{
		Principal:     p,
		Contributions: make([]models.MyContribution, 0, len(records)),
	}
	for _, rec := range records {
		resp.Total += rec.Amount
		resp.Contributions = append(resp.Contributions, models.MyContribution{
			CampaignID:    rec.CampaignID,
			CampaignTitle: rec.CampaignTitle,
			Seq:           rec.Seq,
			Amount:        rec.Amount,
			TierIndex:     rec.TierIndex,
			At:            rec.At,
		})
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
