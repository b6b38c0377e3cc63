// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package events delivers campaign domain events to the log, Redis pub/sub
// and Kafka. Each event travels as a JSON Envelope holding the raw event and
// a rendered Notification.
package events
