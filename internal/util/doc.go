// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across insights.
//
// # Key Functions
//
// Text:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth, PadRight: terminal-column aware helpers
//   - SingleLine: collapses whitespace for one-line previews
//
// Files:
//   - AtomicWriteFile, AtomicWriteFileWithDir: crash-safe writes with fsync
package util
