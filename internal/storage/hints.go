// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/insights-tui/internal/util"
)

// DefaultHintTTL is how long a hint is trusted without a load confirming it.
const DefaultHintTTL = 10 * time.Minute

// =============================================================================
// HINT TYPE
// =============================================================================

// Hint is the cached "analysis done" flag for one user.
type Hint struct {
	UserID      string    `json:"user_id"`
	ChatEnabled bool      `json:"chat_enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// =============================================================================
// HINT STORE
// =============================================================================

// HintStore handles hint persistence.
type HintStore struct {
	// BaseDir is the directory for storing hints.
	// Default: ~/.insights/hints/
	BaseDir string

	// TTL bounds how old a hint Get will return.
	TTL time.Duration

	now func() time.Time
}

// NewHintStore creates a hint store in the default location.
func NewHintStore(ttl time.Duration) (*HintStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewHintStoreWithDir(filepath.Join(homeDir, ".insights", "hints"), ttl)
}

// NewHintStoreWithDir creates a store with a custom directory.
func NewHintStoreWithDir(baseDir string, ttl time.Duration) (*HintStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultHintTTL
	}
	return &HintStore{
		BaseDir: baseDir,
		TTL:     ttl,
		now:     time.Now,
	}, nil
}

// Get returns the user's hint if one exists and has not expired.
// Expired or unreadable hints are removed.
func (s *HintStore) Get(userID string) (Hint, bool) {
	path := s.filePath(userID)
	data, err := os.ReadFile(path)
	if err != nil {
		return Hint{}, false
	}

	var h Hint
	if err := json.Unmarshal(data, &h); err != nil || h.UserID != userID {
		os.Remove(path)
		return Hint{}, false
	}
	if s.now().Sub(h.UpdatedAt) > s.TTL {
		os.Remove(path)
		return Hint{}, false
	}
	return h, true
}

// Put records the user's flag.
func (s *HintStore) Put(userID string, chatEnabled bool) error {
	h := Hint{
		UserID:      userID,
		ChatEnabled: chatEnabled,
		UpdatedAt:   s.now(),
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	// RELIABILITY: Atomic write with fsync prevents a torn hint file on crash
	return util.AtomicWriteFileWithDir(s.filePath(userID), data, 0600, 0700)
}

// Delete removes the user's hint. A missing hint is not an error.
func (s *HintStore) Delete(userID string) error {
	if err := os.Remove(s.filePath(userID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all hints.
func (s *HintStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

// filePath returns the file for a user. The ID is hashed so that any
// subject string yields a safe file name.
func (s *HintStore) filePath(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return filepath.Join(s.BaseDir, hex.EncodeToString(sum[:8])+".json")
}
