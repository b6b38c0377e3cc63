// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/events"
	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/models"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
	maxListLimit      = 200
)

type CampaignHandler struct {
	eng *engine.Engine
}

func NewCampaignHandler(eng *engine.Engine) *CampaignHandler {
	return &CampaignHandler{eng: eng}
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCampaignRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if strings.TrimSpace(req.Title) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Deadline.IsZero() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "deadline is required")
		return
	}
	kind, err := ledger.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tiers := make([]ledger.Tier, len(req.Tiers))
	for i, t := range req.Tiers {
		tiers[i] = ledger.Tier{Name: t.Name, Amount: t.Amount, Description: t.Description}
	}

	snap, err := h.eng.CreateCampaign(r.Context(), middleware.Principal(r), ledger.Params{
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Kind:              kind,
		Target:            req.Target,
		Deadline:          req.Deadline,
		ApprovalThreshold: req.ApprovalThreshold,
		RequiredApprovals: req.RequiredApprovals,
		Tiers:             tiers,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.NewCampaignResponse(snap, snap.State, 0))
}

// ListCampaigns handles GET /campaigns?owner=&state=&kind=&limit=
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := parseLimit(q.Get("limit"), 0, maxListLimit)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	filter := engine.ListFilter{
		Owner: ledger.Principal(q.Get("owner")),
		State: ledger.State(strings.ToLower(q.Get("state"))),
		Kind:  ledger.Kind(strings.ToLower(q.Get("kind"))),
		Limit: limit,
	}
	snaps, err := h.eng.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.CampaignListResponse{Campaigns: make([]models.CampaignSummary, 0, len(snaps))}
	for _, s := range snaps {
		resp.Campaigns = append(resp.Campaigns, models.FromSnapshot(s))
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetCampaign handles GET /campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	v, err := h.eng.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.FromView(v))
}

// RefreshStatus handles POST /campaigns/{id}/status. It persists a deadline
// transition that has not been observed yet.
func (h *CampaignHandler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.eng.Refresh(r.Context(), r.PathValue("id"), middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.FromView(v))
}

// EmergencyStop handles POST /campaigns/{id}/emergency-stop
func (h *CampaignHandler) EmergencyStop(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.EmergencyStop(r.Context(), r.PathValue("id"), middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// PostUpdate handles POST /campaigns/{id}/updates
func (h *CampaignHandler) PostUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.PostUpdateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	u, err := h.eng.PostUpdate(r.Context(), r.PathValue("id"), middleware.Principal(r), req.Title, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, u)
}

// GetEvents handles GET /campaigns/{id}/events?limit=
func (h *CampaignHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"), defaultEventLimit, maxEventLimit)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	id := r.PathValue("id")
	evs, err := h.eng.Events(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.EventsResponse{CampaignID: id, Events: make([]models.EventResponse, 0, len(evs))}
	for _, ev := range evs {
		resp.Events = append(resp.Events, models.EventResponse{Event: ev, Notification: events.Render(ev)})
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// parseLimit reads an optional positive limit, capped at max.
func parseLimit(raw string, def, max int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > max {
		n = max
	}
	return n, true
}
