// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jeranaias/insights-tui/internal/model"
)

// Backend paths.
const (
	PathMessages  = "/messages"
	PathChat      = "/chat"
	PathUploadURL = "/reports/upload-url"
	PathAnalyze   = "/reports/analyze"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

type wireMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Messages []wireMessage `json:"messages"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the backend's answer to a chat turn.
type ChatReply struct {
	ThreadID   string `json:"thread_id"`
	AgentReply string `json:"agent_reply"`
}

// UploadRequest asks for a pre-signed upload URL.
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// UploadSlot is a pre-signed URL to PUT the file to, and the blob URL the
// stored file will have.
type UploadSlot struct {
	UploadURL string
	BlobURL   string
}

type uploadSlotResponse struct {
	SasURL    string `json:"sasUrl"`
	UploadURL string `json:"uploadUrl"`
	BlobURL   string `json:"blobUrl"`
}

// AnalyzeRequest asks the backend to analyze a stored report.
type AnalyzeRequest struct {
	BlobURL  string `json:"blobUrl"`
	MimeType string `json:"mimeType,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// AnalyzeResponse carries the analysis, which is either an object or a
// string. It is left raw for the analysis package to interpret.
type AnalyzeResponse struct {
	ReportID string          `json:"reportId,omitempty"`
	BlobURL  string          `json:"blobUrl,omitempty"`
	Analysis json.RawMessage `json:"analysis"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ListMessages returns the full chat history, oldest first.
// The backend may wrap the list in {"messages": [...]} or send a bare array.
func (c *Client) ListMessages(ctx context.Context) ([]model.Message, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathMessages, nil, &raw); err != nil {
		return nil, err
	}

	var wire []wireMessage
	data := bytes.TrimSpace(raw)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
	case data[0] == '[':
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", PathMessages, err)
		}
	default:
		var resp messagesResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", PathMessages, err)
		}
		wire = resp.Messages
	}

	msgs := make([]model.Message, 0, len(wire))
	for _, w := range wire {
		msgs = append(msgs, model.Message{Role: model.ParseRole(w.Role), Text: w.Text})
	}
	return msgs, nil
}

// SendChat sends one user turn and returns the agent's reply.
func (c *Client) SendChat(ctx context.Context, text string) (ChatReply, error) {
	var reply ChatReply
	err := c.do(ctx, http.MethodPost, PathChat, chatRequest{Message: text}, &reply)
	return reply, err
}

// StartUpload requests a pre-signed upload URL for a file.
func (c *Client) StartUpload(ctx context.Context, req UploadRequest) (UploadSlot, error) {
	var resp uploadSlotResponse
	if err := c.do(ctx, http.MethodPost, PathUploadURL, req, &resp); err != nil {
		return UploadSlot{}, err
	}

	slot := UploadSlot{UploadURL: resp.SasURL, BlobURL: resp.BlobURL}
	if slot.UploadURL == "" {
		slot.UploadURL = resp.UploadURL
	}
	if slot.UploadURL == "" || slot.BlobURL == "" {
		return UploadSlot{}, &RemoteCallError{
			Method: http.MethodPost,
			Path:   PathUploadURL,
			Status: http.StatusOK,
			Body:   "upload endpoint did not return an upload URL and blob URL",
		}
	}
	return slot, nil
}

// Analyze asks the backend to analyze a stored report.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	var resp AnalyzeResponse
	err := c.do(ctx, http.MethodPost, PathAnalyze, req, &resp)
	return resp, err
}
