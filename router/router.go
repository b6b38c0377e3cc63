// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/fundgate/cliparse"
	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/handlers"
	"github.com/danielhkuo/fundgate/middleware"
)

func NewRouter(eng *engine.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(eng)
	fundingHandler := handlers.NewFundingHandler(eng)
	approvalHandler := handlers.NewApprovalHandler(eng)
	payoutHandler := handlers.NewPayoutHandler(eng)
	subscriptionHandler := handlers.NewSubscriptionHandler(eng)

	// authed requires a bearer token and logs the request
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.Authenticate(cfg.TokenSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Campaign lifecycle
	mux.HandleFunc("POST /campaigns", authed(campaignHandler.CreateCampaign))
	mux.HandleFunc("GET /campaigns", middleware.WithLogging(campaignHandler.ListCampaigns))
	mux.HandleFunc("GET /campaigns/{id}", middleware.WithLogging(campaignHandler.GetCampaign))
	mux.HandleFunc("POST /campaigns/{id}/status", authed(campaignHandler.RefreshStatus))
	mux.HandleFunc("POST /campaigns/{id}/emergency-stop", authed(campaignHandler.EmergencyStop))
	mux.HandleFunc("GET /campaigns/{id}/events", middleware.WithLogging(campaignHandler.GetEvents))

	// Funding
	mux.HandleFunc("POST /campaigns/{id}/contributions", authed(fundingHandler.Contribute))
	mux.HandleFunc("GET /campaigns/{id}/contributors/{principal}", middleware.WithLogging(fundingHandler.GetContributor))
	mux.HandleFunc("GET /me/contributions", authed(fundingHandler.MyContributions))

	// Withdrawal approvals
	mux.HandleFunc("POST /campaigns/{id}/approvals", authed(approvalHandler.Approve))
	mux.HandleFunc("GET /campaigns/{id}/approvals", middleware.WithLogging(approvalHandler.GetApprovals))

	// Payouts
	mux.HandleFunc("POST /campaigns/{id}/withdrawal", authed(payoutHandler.Withdraw))
	mux.HandleFunc("POST /campaigns/{id}/refunds", authed(payoutHandler.Refund))
	mux.HandleFunc("POST /campaigns/{id}/refunds/sweep", authed(payoutHandler.SweepRefunds))

	// Owner updates and subscriber feed
	mux.HandleFunc("POST /campaigns/{id}/updates", authed(campaignHandler.PostUpdate))
	mux.HandleFunc("POST /campaigns/{id}/subscription", authed(subscriptionHandler.Subscribe))
	mux.HandleFunc("DELETE /campaigns/{id}/subscription", authed(subscriptionHandler.Unsubscribe))
	mux.HandleFunc("GET /me/notifications", authed(subscriptionHandler.MyNotifications))
	mux.HandleFunc("DELETE /me/notifications", authed(subscriptionHandler.ClearNotifications))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("fundgate API v1"))
	})

	return mux
}
