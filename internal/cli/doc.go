// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli builds the insights command tree with cobra.
//
// Running insights with no arguments starts the full-screen interface.
// The subcommands cover the same flows for scripts and plain terminals.
//
// # Commands
//
//   - history: print the conversation
//   - ask: send one follow-up question and print the reply
//   - upload: upload a report, with --analyze to analyze it right away
//   - chat: line-based REPL with /upload and /analyze commands
//   - export: save the conversation as Markdown, HTML or JSON
//   - login / logout: save or remove the access token
//   - config: show, path, init, get, set, keys
//
// Every command shares the persistent flags --config, --api and --verbose.
// Configuration comes from ~/.insights/config.toml, a .env file in the
// working directory, and INSIGHTS_* environment variables, in that order.
//
// # Usage
//
//	os.Exit(cli.Execute(context.Background()))
package cli
