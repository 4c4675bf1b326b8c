package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/adminclient"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

func bindRemoteFlags(cmd *cobra.Command, opts *remoteOptions) {
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Send the request to a running server (MATRIX_ACTIONS_API_URL)")
	cmd.Flags().IntVar(&opts.timeoutSec, "timeout-sec", 60, "Request timeout in seconds (max 600)")
}

func newDispatchCommand(logger *slog.Logger) *cobra.Command {
	var opts remoteOptions
	var pairs []string
	var paramsJSON string

	cmd := &cobra.Command{
		Use:   "dispatch <verb>",
		Short: "Dispatch a canonical action verb",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := buildParams(paramsJSON, pairs)
			if err != nil {
				return err
			}
			return runWithBackend(cmd, opts, logger, func(ctx context.Context, b backend) (any, error) {
				return b.Dispatch(ctx, args[0], raw)
			})
		},
	}
	bindRemoteFlags(cmd, &opts)
	cmd.Flags().StringArrayVar(&pairs, "param", nil, "Parameter as key=value; JSON values are decoded (repeatable)")
	cmd.Flags().StringVar(&paramsJSON, "params-json", "", "Parameters as a JSON object")
	return cmd
}

func newHandleCommand(logger *slog.Logger) *cobra.Command {
	var opts remoteOptions
	var pairs []string
	var paramsJSON string
	var accountID string
	var clientName string

	cmd := &cobra.Command{
		Use:   "handle <action>",
		Short: "Run a channel-level action name through the adapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := buildParams(paramsJSON, pairs)
			if err != nil {
				return err
			}
			input := adminclient.HandleActionRequest{
				Action:     args[0],
				Params:     raw,
				AccountID:  accountID,
				ClientName: clientName,
			}
			return runWithBackend(cmd, opts, logger, func(ctx context.Context, b backend) (any, error) {
				return b.HandleAction(ctx, input)
			})
		},
	}
	bindRemoteFlags(cmd, &opts)
	cmd.Flags().StringArrayVar(&pairs, "param", nil, "Parameter as key=value; JSON values are decoded (repeatable)")
	cmd.Flags().StringVar(&paramsJSON, "params-json", "", "Parameters as a JSON object")
	cmd.Flags().StringVar(&accountID, "account", "", "Account id to act as")
	cmd.Flags().StringVar(&clientName, "client-name", "", "Client name used when no account is given")
	return cmd
}

func newActionsCommand(logger *slog.Logger) *cobra.Command {
	var opts remoteOptions
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the actions enabled by the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithBackend(cmd, opts, logger, func(ctx context.Context, b backend) (any, error) {
				return b.ListActions(ctx)
			})
		},
	}
	bindRemoteFlags(cmd, &opts)
	return cmd
}

func newAuditCommand(logger *slog.Logger) *cobra.Command {
	var opts remoteOptions
	var input store.ListActionAuditInput

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent action audit records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithBackend(cmd, opts, logger, func(ctx context.Context, b backend) (any, error) {
				items, err := b.ListAudit(ctx, input)
				if err != nil {
					return nil, err
				}
				return adminclient.ListAuditResponse{Items: items, Count: len(items)}, nil
			})
		},
	}
	bindRemoteFlags(cmd, &opts)
	cmd.Flags().StringVar(&input.Verb, "verb", "", "Filter by verb")
	cmd.Flags().StringVar(&input.Outcome, "outcome", "", "Filter by outcome (ok|error)")
	cmd.Flags().StringVar(&input.AccountID, "account", "", "Filter by account id")
	cmd.Flags().IntVar(&input.Limit, "limit", 50, "Max records")
	return cmd
}

func runWithBackend(cmd *cobra.Command, opts remoteOptions, logger *slog.Logger, run func(context.Context, backend) (any, error)) error {
	b, closeBackend, err := openBackend(opts, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout(opts.timeoutSec))
	defer cancel()

	out, err := run(ctx, b)
	if err != nil {
		writeError(cmd.ErrOrStderr(), err)
		return err
	}
	return writeOutput(cmd.OutOrStdout(), out)
}

// buildParams merges --params-json with --param pairs; pairs win.
func buildParams(paramsJSON string, pairs []string) (params.Params, error) {
	raw := params.Params{}
	if trimmed := strings.TrimSpace(paramsJSON); trimmed != "" {
		decoder := json.NewDecoder(strings.NewReader(trimmed))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode --params-json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		raw[key] = paramValue(value)
	}
	return raw, nil
}

// paramValue decodes JSON literals (numbers, booleans, arrays, objects) and
// keeps anything else as a plain string.
func paramValue(value string) any {
	decoder := json.NewDecoder(strings.NewReader(value))
	decoder.UseNumber()
	var decoded any
	if err := decoder.Decode(&decoded); err != nil || decoder.More() {
		return value
	}
	if decoded == nil {
		return value
	}
	return decoded
}

func writeOutput(w io.Writer, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeError(w io.Writer, err error) {
	body := map[string]any{"error": err.Error()}
	var apiErr *adminclient.APIError
	switch {
	case errors.As(err, &apiErr):
		body["error"] = apiErr.Message
		if apiErr.Kind != "" {
			body["kind"] = apiErr.Kind
		}
		if len(apiErr.Added) > 0 {
			body["added"] = apiErr.Added
		}
	default:
		body["kind"] = actionerr.Kind(err)
		if added, ok := actionerr.Added(err); ok {
			body["added"] = added
		}
	}
	_ = writeOutput(w, body)
}
