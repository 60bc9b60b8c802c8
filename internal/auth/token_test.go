// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestStatic(t *testing.T) {
	tok, err := Static("  abc  ").Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("Static = %q, %v", tok, err)
	}
	if _, err := Static("").Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty static: got %v, want ErrNoToken", err)
	}
}

func TestFileSource_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "token")
	src := File(path)

	if _, err := src.Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("missing file: got %v, want ErrNoToken", err)
	}
	if err := src.Save("secret-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file perm = %o, want 600", perm)
	}
	tok, err := src.Token(context.Background())
	if err != nil || tok != "secret-token" {
		t.Fatalf("Token = %q, %v", tok, err)
	}
	if err := src.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := src.Clear(); err != nil {
		t.Errorf("second Clear should be a no-op, got %v", err)
	}
	if err := src.Save("  "); !errors.Is(err, ErrNoToken) {
		t.Errorf("Save(blank) = %v, want ErrNoToken", err)
	}
}

func TestCommandSource_CachesForTTL(t *testing.T) {
	var calls atomic.Int32
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	src := Command("idp token", time.Minute)
	src.now = func() time.Time { return now }
	src.run = func(ctx context.Context, argv []string) ([]byte, error) {
		calls.Add(1)
		if argv[0] != "idp" || argv[1] != "token" {
			t.Errorf("unexpected argv %v", argv)
		}
		return []byte("tok-1\n"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tok, err := src.Token(context.Background()); err != nil || tok != "tok-1" {
				t.Errorf("Token = %q, %v", tok, err)
			}
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("command ran %d times, want 1", calls.Load())
	}

	now = now.Add(2 * time.Minute)
	if _, err := src.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("expired token not refreshed, calls = %d", calls.Load())
	}

	src.Invalidate()
	if _, err := src.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("Invalidate did not force refresh, calls = %d", calls.Load())
	}
}

func TestCommandSource_Errors(t *testing.T) {
	if _, err := Command("", time.Minute).Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty command: got %v", err)
	}

	src := Command("idp", time.Minute)
	src.run = func(context.Context, []string) ([]byte, error) { return []byte("  \n"), nil }
	if _, err := src.Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("blank output: got %v, want ErrNoToken", err)
	}

	boom := errors.New("exit status 1")
	src.run = func(context.Context, []string) ([]byte, error) { return nil, boom }
	if _, err := src.Token(context.Background()); !errors.Is(err, boom) {
		t.Errorf("failing command: got %v", err)
	}
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()

	tok, err := Chain(Static(""), nil, Static("second")).Token(ctx)
	if err != nil || tok != "second" {
		t.Errorf("Chain skip = %q, %v", tok, err)
	}

	failing := TokenFunc(func(context.Context) (string, error) { return "", boom })
	if _, err := Chain(failing, Static("never")).Token(ctx); !errors.Is(err, boom) {
		t.Errorf("Chain should stop on hard error, got %v", err)
	}

	if _, err := Chain(Static("")).Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty chain: got %v", err)
	}
}

func TestChain_InvalidateRefetchesRejectedToken(t *testing.T) {
	var runs atomic.Int32
	src := Command("idp token", time.Hour)
	src.run = func(context.Context, []string) ([]byte, error) {
		if runs.Add(1) == 1 {
			return []byte("revoked"), nil
		}
		return []byte("fresh"), nil
	}
	ts := Chain(File(filepath.Join(t.TempDir(), "missing")), src)
	ctx := context.Background()

	if tok, _ := ts.Token(ctx); tok != "revoked" {
		t.Fatalf("first token = %q", tok)
	}
	if tok, _ := ts.Token(ctx); tok != "revoked" || runs.Load() != 1 {
		t.Fatalf("cached token = %q after %d runs", tok, runs.Load())
	}

	Invalidate(ts)
	if tok, _ := ts.Token(ctx); tok != "fresh" {
		t.Errorf("after Invalidate token = %q, want fresh", tok)
	}
	if runs.Load() != 2 {
		t.Errorf("command ran %d times, want 2", runs.Load())
	}

	// Sources without a cache are ignored.
	Invalidate(Static("x"))
}

func TestSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "auth0|user-1"}).
		SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	if got := Subject(token); got != "auth0|user-1" {
		t.Errorf("Subject = %q", got)
	}
	if got := Subject("opaque-token"); got != "" {
		t.Errorf("Subject(opaque) = %q, want empty", got)
	}
}
