// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/models"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

type SubscriptionHandler struct {
	eng *engine.Engine
}

func NewSubscriptionHandler(eng *engine.Engine) *SubscriptionHandler {
	return &SubscriptionHandler{eng: eng}
}

// Subscribe handles POST /campaigns/{id}/subscription
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := h.eng.Subscribe(r.Context(), r.PathValue("id"), middleware.Principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SubscriptionResponse{
		CampaignID: sub.CampaignID,
		Principal:  sub.Principal,
		Subscribed: true,
		Since:      &sub.Since,
	})
}

// Unsubscribe handles DELETE /campaigns/{id}/subscription. Unsubscribing when
// not subscribed is not an error.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := middleware.Principal(r)
	if _, err := h.eng.Unsubscribe(r.Context(), id, p); err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SubscriptionResponse{CampaignID: id, Principal: p})
}

// MyNotifications handles GET /me/notifications?limit=
func (h *SubscriptionHandler) MyNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"), defaultFeedLimit, maxFeedLimit)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	p := middleware.Principal(r)
	evs, err := h.eng.Notifications(r.Context(), p, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.NotificationsResponse{Principal: p, Notifications: make([]models.NotificationItem, 0, len(evs))}
	for _, ev := range evs {
		resp.Notifications = append(resp.Notifications, models.FromEvent(ev))
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ClearNotifications handles DELETE /me/notifications
func (h *SubscriptionHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	p := middleware.Principal(r)
	n, err := h.eng.ClearNotifications(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ClearNotificationsResponse{Principal: p, Cleared: n})
}
