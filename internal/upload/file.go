// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload moves a report file from disk to blob storage through a
// pre-signed URL handed out by the backend.
package upload

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/insights-tui/internal/model"
)

// Accepted report types.
const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeTIFF = "image/tiff"
)

var accepted = map[string]bool{
	MimePDF:  true,
	MimePNG:  true,
	MimeJPEG: true,
	MimeTIFF: true,
}

// extensionTypes wins over the system MIME table, which differs by OS.
var extensionTypes = map[string]string{
	".pdf":  MimePDF,
	".png":  MimePNG,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".tif":  MimeTIFF,
	".tiff": MimeTIFF,
}

// NormalizeMime strips parameters and folds case.
func NormalizeMime(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Validate rejects anything that is not a PDF, PNG, JPEG, or TIFF.
func Validate(contentType string) error {
	if !accepted[NormalizeMime(contentType)] {
		return model.Invalid("file", "unsupported file type %q: please select a PDF, PNG, JPEG, or TIFF file", contentType)
	}
	return nil
}

// Accepted reports whether the type passes Validate.
func Accepted(contentType string) bool {
	return Validate(contentType) == nil
}

// =============================================================================
// FILE
// =============================================================================

// File is a local report ready to be uploaded.
type File struct {
	Path     string
	Name     string
	MimeType string
	Size     int64
}

// DetectMime guesses the type of a file from its extension, falling back to
// sniffing the first 512 bytes.
func DetectMime(path string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return NormalizeMime(mt)
	}
	if len(head) > 0 {
		return NormalizeMime(http.DetectContentType(head))
	}
	return "application/octet-stream"
}

// Open stats a local file, detects and validates its type. Nothing is sent
// over the network.
func Open(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, model.Invalid("file", "no file selected")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	if info.IsDir() {
		return nil, model.Invalid("file", "%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	f.Close()

	file := &File{
		Path:     path,
		Name:     filepath.Base(path),
		MimeType: DetectMime(path, head[:n]),
		Size:     info.Size(),
	}
	if err := Validate(file.MimeType); err != nil {
		return nil, err
	}
	return file, nil
}
