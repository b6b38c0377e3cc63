// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUpdateTitle   = 200
	MaxUpdateMessage = 5000
)

// PostUpdate validates an owner announcement. It records nothing on the
// campaign itself; the update lives in the event feed.
func (c *Campaign) PostUpdate(requestor Principal, title, message string, now time.Time) (Update, error) {
	if c.state == StateClosed {
		return Update{}, ErrCampaignClosed
	}
	if requestor != c.owner {
		return Update{}, ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	switch {
	case title == "":
		return Update{}, fmt.Errorf("%w: title is required", ErrInvalidUpdate)
	case message == "":
		return Update{}, fmt.Errorf("%w: message is required", ErrInvalidUpdate)
	case utf8.RuneCountInString(title) > MaxUpdateTitle:
		return Update{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidUpdate, MaxUpdateTitle)
	case utf8.RuneCountInString(message) > MaxUpdateMessage:
		return Update{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidUpdate, MaxUpdateMessage)
	}
	return Update{
		CampaignID: c.id,
		Author:     requestor,
		Title:      title,
		Message:    message,
		State:      c.state,
		At:         now.UTC(),
	}, nil
}
