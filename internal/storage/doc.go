// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps small per-user hints on disk.
//
// A hint records whether the user's last known history contained an
// analysis, so the chat panel can be shown before the first load finishes.
// Hints expire after a TTL and are rewritten from server history on every
// successful load; they never decide anything on their own.
//
// # Usage
//
//	hints, err := storage.NewHintStore(ttl)
//	hints.Put(userID, true)
//	h, ok := hints.Get(userID)
//
// # Storage Location
//
// Hints are stored in ~/.insights/hints/ as JSON files, one per user.
package storage
