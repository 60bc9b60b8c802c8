// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCandidate(t *testing.T) {
	assert.True(t, candidate("/in/cbc.pdf"))
	assert.True(t, candidate("/in/scan.TIFF"))
	assert.False(t, candidate("/in/notes.txt"))
	assert.False(t, candidate("/in/.cbc.pdf"))
	assert.False(t, candidate("/in/cbc.pdf.crdownload"))
	assert.False(t, candidate("/in/~lock.pdf"))
}

func TestNew_RejectsMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), 0, nil)
	assert.Error(t, err)
}

func TestWatcher_OffersSettledReports(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lab.pdf"), []byte("%PDF-1.4"), 0600))

	select {
	case f := <-w.Files():
		require.NotNil(t, f)
		assert.Equal(t, "lab.pdf", f.Name)
		assert.Equal(t, "application/pdf", f.MimeType)
	case <-time.After(3 * time.Second):
		t.Fatal("no file offered")
	}

	cancel()
	assert.NoError(t, <-done)
	_, open := <-w.Files()
	assert.False(t, open, "Files should close after Run returns")
}

func TestWatcher_SettledDebounce(t *testing.T) {
	w := &Watcher{debounce: time.Second, pending: map[string]time.Time{}}
	now := time.Now()
	w.pending["/a.pdf"] = now.Add(-2 * time.Second)
	w.pending["/b.pdf"] = now

	assert.Equal(t, []string{"/a.pdf"}, w.settled(now))
	assert.Contains(t, w.pending, "/b.pdf")
	assert.NotContains(t, w.pending, "/a.pdf")
}
