// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analysis turns structured report analyses into display documents.
package analysis

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// =============================================================================
// SCALAR
// =============================================================================

// Scalar is a JSON value flattened to display text.
//
// Strings are kept verbatim, numbers keep their shortest form, booleans
// render as true/false, and null renders as the empty string. Objects and
// arrays keep their compact JSON text.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	*s = Scalar(scalarText(data))
	return nil
}

func scalarText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err == nil {
			return str
		}
		return string(data)
	case 't', 'f':
		return string(data)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err == nil {
			return buf.String()
		}
		return string(data)
	default:
		if f, err := strconv.ParseFloat(string(data), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return string(data)
	}
}

// String returns the display text.
func (s Scalar) String() string {
	return string(s)
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// Metric is one extracted lab value.
type Metric struct {
	Name           Scalar `json:"name"`
	Value          Scalar `json:"value"`
	Unit           Scalar `json:"unit"`
	ReferenceRange Scalar `json:"reference_range"`
	Status         Scalar `json:"status"`
}

// Result is the structured analysis produced by the backend.
type Result struct {
	Summary    Scalar   `json:"summary"`
	Disclaimer Scalar   `json:"disclaimer,omitempty"`
	Metrics    []Metric `json:"metrics,omitempty"`
}

// UnmarshalJSON tolerates a metrics field that is not an array and array
// entries that are not objects; both render as nothing and an empty row.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Summary    Scalar          `json:"summary"`
		Disclaimer Scalar          `json:"disclaimer"`
		Metrics    json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Summary = raw.Summary
	r.Disclaimer = raw.Disclaimer
	r.Metrics = nil

	metrics := bytes.TrimSpace(raw.Metrics)
	if len(metrics) == 0 || metrics[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(metrics, &items); err != nil {
		return nil
	}
	r.Metrics = make([]Metric, 0, len(items))
	for _, item := range items {
		var m Metric
		if t := bytes.TrimSpace(item); len(t) > 0 && t[0] == '{' {
			_ = json.Unmarshal(t, &m)
		}
		r.Metrics = append(r.Metrics, m)
	}
	return nil
}

// =============================================================================
// PAYLOAD
// =============================================================================

// Payload is the analysis field of an analyze response. The backend sends
// either a structured object or a string; a string may itself hold the
// object as JSON, or be ready markdown.
type Payload struct {
	Result   *Result
	Markdown string
}

// Parse decodes an analysis field.
func Parse(raw json.RawMessage) Payload {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Payload{Result: &Result{}}
	}

	switch data[0] {
	case '{':
		var r Result
		if err := json.Unmarshal(data, &r); err != nil {
			return Payload{Result: &Result{}}
		}
		return Payload{Result: &r}
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return Payload{Result: &Result{}}
		}
		if r, ok := decodeResult(text); ok {
			return Payload{Result: r}
		}
		if strings.TrimSpace(text) == "" {
			return Payload{Result: &Result{}}
		}
		return Payload{Markdown: text}
	default:
		return Payload{Result: &Result{}}
	}
}

// IsStructured reports whether the payload carried a structured result.
func (p Payload) IsStructured() bool {
	return p.Result != nil
}

// Document returns the markdown document for display.
func (p Payload) Document() string {
	if p.Result != nil {
		return Render(*p.Result)
	}
	return p.Markdown
}

// Document parses an analysis field and renders it.
func Document(raw json.RawMessage) string {
	return Parse(raw).Document()
}

// decodeResult parses text as a JSON analysis object with a string summary.
func decodeResult(text string) (*Result, bool) {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	summary, ok := probe["summary"]
	if !ok {
		return nil, false
	}
	if t := bytes.TrimSpace(summary); len(t) == 0 || t[0] != '"' {
		return nil, false
	}
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false
	}
	return &r, true
}
