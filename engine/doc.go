// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine runs ledger commands against stored campaigns.

Every command follows the same path:

 1. take the campaign's write lock
 2. load it from the Store
 3. re-derive its state at the current time
 4. apply the command to a private clone
 5. save the clone and its events in one write, then publish the events

Commands on one campaign are serialized by a per-campaign lock; commands on
different campaigns run in parallel. If step 3 finds a transition (say the
deadline has passed) it is saved even when the command itself is rejected, so
the stored state never lags behind what a caller was told.

Reads take the read lock and never persist. Get reports the projected state
alongside the stored one.

Store failures surface as ledger.ErrUnavailable. A failed
publish is logged and does not undo the command.

Subscriptions sit outside the command path. A subscriber's feed is every event
recorded on a followed campaign after the subscriber's cursor, minus the
subscriber's own actions; ClearNotifications moves the cursors forward.
*/
package engine
