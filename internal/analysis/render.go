// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"strings"
)

const (
	// Heading opens every rendered analysis.
	Heading = "### Report analysis"

	// NoSummary replaces an absent summary.
	NoSummary = "No summary available."

	detailsTitle = "See extracted values"
	tableHeader  = "| Metric | Value | Unit | Range | Status |\n|---|---:|---|---|---|\n"
)

// Render formats an analysis as a markdown document.
//
// The output is a pure function of r: the same input always yields the same
// bytes. Metrics go in a collapsible details section with a fixed column
// order, and the disclaimer trails in italics.
func Render(r Result) string {
	summary := r.Summary.String()
	if summary == "" {
		summary = NoSummary
	}

	var b strings.Builder
	b.WriteString(Heading)
	b.WriteString("\n\n")
	b.WriteString(summary)

	if len(r.Metrics) > 0 {
		b.WriteString("\n\n<details>\n<summary>")
		b.WriteString(detailsTitle)
		b.WriteString("</summary>\n\n")
		b.WriteString(tableHeader)
		for i, m := range r.Metrics {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(metricRow(m))
		}
		b.WriteString("\n\n</details>")
	}

	if d := r.Disclaimer.String(); d != "" {
		b.WriteString("\n\n_")
		b.WriteString(d)
		b.WriteString("_")
	}

	return b.String()
}

func metricRow(m Metric) string {
	cells := []string{
		m.Name.String(),
		m.Value.String(),
		m.Unit.String(),
		m.ReferenceRange.String(),
		m.Status.String(),
	}
	return "| " + strings.Join(cells, " | ") + " |"
}
