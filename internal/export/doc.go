// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves a Health Insights conversation as Markdown, HTML or
// JSON.
//
// # Key Types
//
//   - Transcript: the messages to export plus header metadata
//   - Exporter: one output format
//   - Options: output directory, metadata header and HTML theme
//
// Placeholders never reach an export. Notices are kept and marked.
//
// # Usage
//
//	t := export.NewTranscript(store.Messages(), subject)
//	e, err := export.ForFormat("html", nil)
//	path, err := export.WriteFile(t, e, nil)
package export
