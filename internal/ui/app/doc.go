// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package app is the bubbletea program for the insights TUI.

The model owns no conversation state of its own. It asks the intake gate
which view to show (spinner, login, upload, chat), reads the message store
through snapshots, and re-renders whenever the store publishes a change.
Every network call runs in a tea.Cmd and comes back as a message.

# Keys

	enter    upload the file path (upload view) or send the message (chat)
	ctrl+a   analyze the uploaded report
	ctrl+u   upload another report from the chat view
	esc      back to the chat from the upload view
	ctrl+r   reload the conversation
	r        retry sign-in or the first load
	ctrl+c   quit
*/
package app
