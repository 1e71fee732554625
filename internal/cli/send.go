package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/d-elbel/curlew/internal/classify"
	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
	httpclient "github.com/d-elbel/curlew/internal/protocol/http"
)

// SendOptions holds options for the send command.
type SendOptions struct {
	Headers []string
	Body    string
	JSON    bool
	Timeout time.Duration
}

// NewSendCommand creates the send command for ad-hoc requests outside the
// workspace.
func NewSendCommand() *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Send a one-off HTTP request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, strings.ToUpper(args[0]), args[1], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request headers (format: Key:Value)")
	cmd.Flags().StringVarP(&opts.Body, "body", "d", "", "Request body")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output response as JSON")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Request timeout")

	return cmd
}

func runSend(cmd *cobra.Command, method, url string, opts *SendOptions) error {
	if !core.Method(method).Valid() {
		return fmt.Errorf("unsupported method: %s", method)
	}

	var pairs []core.HeaderPair
	for _, h := range opts.Headers {
		key, value, found := strings.Cut(h, ":")
		if !found {
			return fmt.Errorf("invalid header %q, expected Key:Value", h)
		}
		pairs = append(pairs, core.HeaderPair{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}

	plan := interfaces.ExecutionPlan{
		Method:  method,
		URL:     url,
		Headers: pairs,
		Body:    opts.Body,
	}

	client := httpclient.NewClient(httpclient.WithTimeout(opts.Timeout))
	resp, err := client.Execute(context.Background(), plan)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if opts.JSON {
		return outputJSON(cmd, resp)
	}
	return outputHuman(cmd, resp)
}

func outputJSON(cmd *cobra.Command, resp *core.Response) error {
	var headers map[string]string
	json.Unmarshal([]byte(resp.Headers()), &headers)

	result := map[string]any{
		"status":     resp.StatusCode(),
		"headers":    headers,
		"body":       resp.Body(),
		"runtime_ms": resp.RuntimeMS(),
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputHuman(cmd *cobra.Command, resp *core.Response) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "HTTP %d\n", resp.StatusCode())
	fmt.Fprintf(out, "Time: %dms\n\n", resp.RuntimeMS())

	var headers map[string]string
	if err := json.Unmarshal([]byte(resp.Headers()), &headers); err == nil && len(headers) > 0 {
		fmt.Fprintln(out, "Headers:")
		for key, value := range headers {
			fmt.Fprintf(out, "  %s: %s\n", key, value)
		}
		fmt.Fprintln(out)
	}

	contentType := headers["Content-Type"]
	kind := classify.Detect(contentType, resp.Body())
	fmt.Fprintln(out, classify.Format(resp.Body(), kind))
	return nil
}
