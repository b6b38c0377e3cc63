// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "errors"

// Validation errors. The campaign is never mutated when one is returned.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidTierIndex    = errors.New("invalid tier index")
	ErrInvalidTierCatalog  = errors.New("invalid tier catalog")
	ErrInvalidCampaign     = errors.New("invalid campaign")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different contribution")
	ErrInvalidUpdate       = errors.New("invalid campaign update")
)

// State-eligibility errors.
var (
	ErrCampaignNotActive   = errors.New("campaign is not active")
	ErrCampaignNotEligible = errors.New("campaign is not eligible for this operation")
	ErrCampaignClosed      = errors.New("campaign is closed")
	ErrDeadlinePassed      = errors.New("campaign deadline has passed")
)

// Authorization errors.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotQualified = errors.New("contributor does not meet the approval threshold")
)

// Quorum errors. The caller may retry once more approvals or time accrue.
var (
	ErrInsufficientApprovals = errors.New("insufficient approvals")
	ErrNothingToRefund       = errors.New("nothing to refund")
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrUnavailable wraps persistence and delivery failures from collaborators.
	// It is always safe to retry the command that produced it.
	ErrUnavailable = errors.New("ledger unavailable")
)

type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryEligibility   Category = "eligibility"
	CategoryAuthorization Category = "authorization"
	CategoryQuorum        Category = "quorum"
	CategoryNotFound      Category = "not_found"
	CategoryUnavailable   Category = "unavailable"
	CategoryUnknown       Category = "unknown"
)

// Classify reports which error group err belongs to.
func Classify(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnavailable):
		return CategoryUnavailable
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTierIndex),
		errors.Is(err, ErrInvalidTierCatalog),
		errors.Is(err, ErrInvalidCampaign),
		errors.Is(err, ErrIdempotencyConflict),
		errors.Is(err, ErrInvalidUpdate):
		return CategoryValidation
	case errors.Is(err, ErrCampaignNotActive),
		errors.Is(err, ErrCampaignNotEligible),
		errors.Is(err, ErrCampaignClosed),
		errors.Is(err, ErrDeadlinePassed):
		return CategoryEligibility
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotQualified):
		return CategoryAuthorization
	case errors.Is(err, ErrInsufficientApprovals), errors.Is(err, ErrNothingToRefund):
		return CategoryQuorum
	case errors.Is(err, ErrCampaignNotFound):
		return CategoryNotFound
	default:
		return CategoryUnknown
	}
}

// Code returns a stable snake_case identifier for err, suitable for API clients.
func Code(err error) string {
	codes := []struct {
		err  error
		code string
	}{
		{ErrUnavailable, "unavailable"},
		{ErrInvalidAmount, "invalid_amount"},
		{ErrInvalidTierIndex, "invalid_tier_index"},
		{ErrInvalidTierCatalog, "invalid_tier_catalog"},
		{ErrInvalidCampaign, "invalid_campaign"},
		{ErrIdempotencyConflict, "idempotency_conflict"},
		{ErrInvalidUpdate, "invalid_update"},
		{ErrCampaignNotActive, "campaign_not_active"},
		{ErrCampaignNotEligible, "campaign_not_eligible"},
		{ErrCampaignClosed, "campaign_closed"},
		{ErrDeadlinePassed, "deadline_passed"},
		{ErrUnauthorized, "unauthorized"},
		{ErrNotQualified, "not_qualified"},
		{ErrInsufficientApprovals, "insufficient_approvals"},
		{ErrNothingToRefund, "nothing_to_refund"},
		{ErrCampaignNotFound, "campaign_not_found"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
