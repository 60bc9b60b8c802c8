// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/model"
	"github.com/jeranaias/insights-tui/internal/util"
)

// BlobTypeHeader must be set for Azure to accept a single-shot PUT.
const (
	BlobTypeHeader = "x-ms-blob-type"
	BlobTypeBlock  = "BlockBlob"
)

// ErrUploadInFlight indicates another upload is still running on this transport.
var ErrUploadInFlight = errors.New("an upload is already in progress")

// TransportError indicates the PUT to blob storage failed.
// Status is zero when the request never got a response.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("network error while uploading: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("upload error %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("upload error %d", e.Status)
	}
}

// Unwrap returns the network error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Progress reports how much of the file has been sent.
type Progress struct {
	Percent int
	Sent    int64
	Total   int64
}

// String formats the progress for display, e.g. "1.2 MB of 3.4 MB (35%)".
func (p Progress) String() string {
	return fmt.Sprintf("%s of %s (%d%%)",
		humanize.Bytes(uint64(p.Sent)), humanize.Bytes(uint64(p.Total)), p.Percent)
}

// ProgressFunc receives progress updates. Percent never decreases.
type ProgressFunc func(Progress)

// SlotRequester hands out pre-signed upload URLs. *api.Client implements it.
type SlotRequester interface {
	StartUpload(ctx context.Context, req api.UploadRequest) (api.UploadSlot, error)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// Transport uploads one file at a time.
type Transport struct {
	slots      SlotRequester
	httpClient *http.Client
	log        *zap.Logger
	busy       atomic.Bool
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the client used for the blob PUT.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Transport) {
		if hc != nil {
			t.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTransport creates a transport that gets its upload URLs from slots.
func NewTransport(slots SlotRequester, opts ...Option) *Transport {
	t := &Transport{
		slots: slots,
		// No overall timeout: large scans on slow links are bounded by ctx.
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// InFlight reports whether an upload is running.
func (t *Transport) InFlight() bool {
	return t.busy.Load()
}

// RequestSlot asks the backend for a pre-signed URL for file.
func (t *Transport) RequestSlot(ctx context.Context, file *File) (api.UploadSlot, error) {
	return t.slots.StartUpload(ctx, api.UploadRequest{
		Filename:    file.Name,
		ContentType: file.MimeType,
	})
}

// PutBytes streams the file body to uploadURL.
func (t *Transport) PutBytes(ctx context.Context, uploadURL string, file *File, onProgress ProgressFunc) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	body := &progressReader{r: f, total: file.Size, fn: onProgress, last: -1}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.ContentLength = file.Size
	if file.Size == 0 {
		req.Body = http.NoBody
	}
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set(BlobTypeHeader, BlobTypeBlock)
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Warn("blob upload failed", zap.String("file", file.Name), zap.Error(err))
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// The URL carries a SAS signature, so only the host is logged.
	t.log.Info("blob upload finished",
		zap.String("file", file.Name),
		zap.String("host", req.URL.Host),
		zap.Int("status", resp.StatusCode),
		zap.Int64("bytes", file.Size),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{
			Status: resp.StatusCode,
			Body:   util.TruncateRunes(strings.TrimSpace(string(data)), 512),
		}
	}

	body.finish()
	return nil
}

// Upload validates the file, requests a slot, and PUTs the bytes. The type
// check runs before any network call.
func (t *Transport) Upload(ctx context.Context, file *File, onProgress ProgressFunc) (model.PendingUpload, error) {
	if file == nil {
		return model.PendingUpload{}, model.Invalid("file", "no file selected")
	}
	if err := Validate(file.MimeType); err != nil {
		return model.PendingUpload{}, err
	}
	if !t.busy.CompareAndSwap(false, true) {
		return model.PendingUpload{}, ErrUploadInFlight
	}
	defer t.busy.Store(false)

	slot, err := t.RequestSlot(ctx, file)
	if err != nil {
		return model.PendingUpload{}, fmt.Errorf("failed to start upload: %w", err)
	}
	if err := t.PutBytes(ctx, slot.UploadURL, file, onProgress); err != nil {
		return model.PendingUpload{}, err
	}

	return model.PendingUpload{
		BlobURL:  slot.BlobURL,
		MimeType: NormalizeMime(file.MimeType),
		FileName: file.Name,
	}, nil
}

// =============================================================================
// PROGRESS READER
// =============================================================================

// progressReader reports progress as the HTTP client reads the body.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	last  int
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.fn == nil || p.total <= 0 {
		return
	}
	pct := int((p.sent*100 + p.total/2) / p.total)
	if pct > 100 {
		pct = 100
	}
	if pct <= p.last {
		return
	}
	p.last = pct
	p.fn(Progress{Percent: pct, Sent: p.sent, Total: p.total})
}

// finish reports 100% once the server has accepted the body.
func (p *progressReader) finish() {
	if p.fn == nil || p.last >= 100 {
		return
	}
	p.last = 100
	p.fn(Progress{Percent: 100, Sent: p.total, Total: p.total})
}
