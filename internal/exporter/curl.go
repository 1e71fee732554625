// Package exporter renders stored requests as shell-ready curl commands.
package exporter

import (
	"fmt"
	"strings"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interpolate"
)

// CurlExporter renders a request as a curl invocation. Variables are resolved
// against the supplied map before rendering, so the output is runnable as-is.
type CurlExporter struct {
	// Pretty uses line continuations, one flag per line.
	Pretty bool
}

// NewCurlExporter returns an exporter with pretty output enabled.
func NewCurlExporter() *CurlExporter {
	return &CurlExporter{Pretty: true}
}

// ExportRequest renders the request. vars may be nil, in which case
// placeholders pass through verbatim.
func (c *CurlExporter) ExportRequest(r *core.Request, vars map[string]string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no request to export")
	}
	if vars == nil {
		vars = map[string]string{}
	}

	parts := []string{"curl"}

	if r.Method() != core.MethodGet {
		parts = append(parts, "-X", r.Method().String())
	}

	pairs, err := r.Headers().Normalize()
	if err != nil {
		return "", fmt.Errorf("failed to export headers: %w", err)
	}
	hasContentType := false
	for _, pair := range pairs {
		key := interpolate.Resolve(pair.Key, vars)
		value := interpolate.Resolve(pair.Value, vars)
		if strings.EqualFold(key, "Content-Type") {
			hasContentType = true
		}
		parts = append(parts, "-H", fmt.Sprintf("%s: %s", key, value))
	}

	body, err := r.Body().Encode()
	if err != nil {
		return "", fmt.Errorf("failed to export body: %w", err)
	}
	if body != "" {
		if !hasContentType {
			if ct := r.Body().ContentType(); ct != "" {
				parts = append(parts, "-H", "Content-Type: "+ct)
			}
		}
		parts = append(parts, "--data-raw", interpolate.Resolve(body, vars))
	}

	if auth := interpolate.Resolve(r.Auth(), vars); auth != "" {
		parts = append(parts, "-H", "Authorization: "+auth)
	}

	parts = append(parts, interpolate.Resolve(r.URL(), vars))

	if c.Pretty {
		return formatPretty(parts), nil
	}
	return formatInline(parts), nil
}

func formatInline(parts []string) string {
	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = shellQuote(part)
	}
	return strings.Join(quoted, " ")
}

func formatPretty(parts []string) string {
	var sb strings.Builder
	sb.WriteString("curl")

	for i := 1; i < len(parts); i++ {
		part := parts[i]
		if strings.HasPrefix(part, "-") && i+1 < len(parts) {
			sb.WriteString(" \\\n  ")
			sb.WriteString(part)
			sb.WriteString(" ")
			i++
			sb.WriteString(shellQuote(parts[i]))
			continue
		}
		// The URL sits on its own line.
		sb.WriteString(" \\\n  ")
		sb.WriteString(shellQuote(part))
	}
	return sb.String()
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
