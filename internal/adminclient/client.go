// Package adminclient talks to a running matrix-actions HTTP API.
package adminclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/store"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// APIError is a non-2xx response. Kind and Added mirror the server's error
// body.
type APIError struct {
	Status  int
	Message string
	Kind    string
	Added   []string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

type ListActionsResponse struct {
	Actions []string           `json:"actions"`
	Verbs   []actions.VerbInfo `json:"verbs"`
}

type ListAuditResponse struct {
	Items []store.ActionAuditRecord `json:"items"`
	Count int                       `json:"count"`
}

type HandleActionRequest struct {
	Action     string        `json:"action"`
	Params     params.Params `json:"params,omitempty"`
	AccountID  string        `json:"accountId,omitempty"`
	ClientName string        `json:"clientName,omitempty"`
}

func New(cfg config.Config) (*Client, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.APITLSSkipVerify,
	}
	if cfg.APITLSCAFile != "" {
		caBytes, err := os.ReadFile(cfg.APITLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read api tls ca file: %w", err)
		}
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM(caBytes); !ok {
			return nil, fmt.Errorf("parse api tls ca file")
		}
		tlsConfig.RootCAs = certPool
	}
	timeout := time.Duration(cfg.APITimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
			Timeout:   timeout,
		},
	}, nil
}

func (c *Client) Dispatch(ctx context.Context, verb string, raw params.Params) (actions.Result, error) {
	var result actions.Result
	if err := c.postJSON(ctx, "/api/v1/actions/dispatch", map[string]any{"verb": verb, "params": raw}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) HandleAction(ctx context.Context, input HandleActionRequest) (actions.Result, error) {
	var result actions.Result
	if err := c.postJSON(ctx, "/api/v1/actions/handle", input, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListActions(ctx context.Context) (ListActionsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/actions", nil)
	if err != nil {
		return ListActionsResponse{}, err
	}
	var response ListActionsResponse
	if err := c.doJSON(req, &response); err != nil {
		return ListActionsResponse{}, err
	}
	return response, nil
}

func (c *Client) ListAudit(ctx context.Context, input store.ListActionAuditInput) ([]store.ActionAuditRecord, error) {
	query := url.Values{}
	if verb := strings.TrimSpace(input.Verb); verb != "" {
		query.Set("verb", verb)
	}
	if outcome := strings.TrimSpace(input.Outcome); outcome != "" {
		query.Set("outcome", outcome)
	}
	if accountID := strings.TrimSpace(input.AccountID); accountID != "" {
		query.Set("account_id", accountID)
	}
	if input.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", input.Limit))
	}
	endpoint := c.baseURL + "/api/v1/actions/audit"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var response ListAuditResponse
	if err := c.doJSON(req, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(requestBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var body struct {
			Error string   `json:"error"`
			Kind  string   `json:"kind"`
			Added []string `json:"added"`
		}
		_ = json.NewDecoder(res.Body).Decode(&body)
		if strings.TrimSpace(body.Error) == "" {
			body.Error = res.Status
		}
		return &APIError{Status: res.StatusCode, Message: body.Error, Kind: body.Kind, Added: body.Added}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
