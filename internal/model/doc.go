// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat turns and uploads.
//
// # Key Types
//
//   - Message: Single chat turn with role, text, kind, and a local correlation ID
//   - Role: Message role (user, assistant)
//   - Kind: What the message is for (chat, analysis, placeholder, notice)
//   - PendingUpload: A stored report waiting to be analyzed
//   - ValidationError: Input rejected before any network call
//
// # Usage
//
//	msg := model.NewUserMessage("What does my LDL mean?")
//	if i := model.IndexOf(msgs, msg.ID); i >= 0 {
//	    msgs[i].Text = "edited"
//	}
package model
