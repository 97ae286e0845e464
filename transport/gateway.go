package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-verify/core"
)

const ResponseSignatureHeader = "X-Verify-Signature"

// HTTPGateway signs requests with the configured shared secret and decodes
// the JSON envelope returned by every endpoint.
type HTTPGateway struct {
	config  core.Config
	adapter *RESTAdapter
	signer  Signer
	now     func() time.Time
}

type GatewayOption func(*HTTPGateway)

func WithHTTPClient(client HTTPDoer) GatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.adapter.Client = client
		}
	}
}

func WithRESTAdapter(adapter *RESTAdapter) GatewayOption {
	return func(g *HTTPGateway) {
		if adapter != nil {
			g.adapter = adapter
		}
	}
}

func WithClock(now func() time.Time) GatewayOption {
	return func(g *HTTPGateway) {
		if now != nil {
			g.now = now
		}
	}
}

func NewHTTPGateway(cfg core.Config, opts ...GatewayOption) (*HTTPGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = core.DefaultConfig().BaseURL
	}
	gateway := &HTTPGateway{
		config:  cfg,
		adapter: NewRESTAdapter(nil),
		signer:  Signer{Secret: cfg.SharedSecret},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(gateway)
	}
	return gateway, nil
}

func (g *HTTPGateway) PerformSignedRequest(ctx context.Context, req core.SignedRequest) (core.Response, error) {
	if g == nil || g.adapter == nil {
		return core.Response{}, transportError(
			"transport: gateway is not configured",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	params, err := g.signedParams(req)
	if err != nil {
		return core.Response{}, transportWrapError(
			err,
			goerrors.CategoryInternal,
			"transport: sign request",
			http.StatusInternalServerError,
			map[string]any{"path": req.Path},
		)
	}

	httpReq := Request{
		Method:  http.MethodGet,
		URL:     joinURL(g.config.BaseURL, req.Path),
		Timeout: g.config.RequestTimeout,
	}
	if req.Post {
		httpReq.Method = http.MethodPost
		httpReq.Form = params
	} else {
		httpReq.Query = params
	}

	res, err := g.adapter.Do(ctx, httpReq)
	if err != nil {
		return core.Response{}, err
	}

	decoded, decodeErr := decodeResponse(res.Body)
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		if decodeErr != nil {
			return core.Response{}, transportError(
				fmt.Sprintf("transport: unexpected status %d", res.StatusCode),
				statusCategory(res.StatusCode),
				res.StatusCode,
				map[string]any{"path": req.Path, "status_code": res.StatusCode},
			)
		}
	}
	if decodeErr != nil {
		return core.Response{}, transportWrapError(
			decodeErr,
			goerrors.CategoryExternal,
			"transport: decode response",
			http.StatusBadGateway,
			map[string]any{"path": req.Path, "status_code": res.StatusCode},
		)
	}

	signedBody := res.Body
	if signature := strings.TrimSpace(res.Headers[ResponseSignatureHeader]); signature != "" {
		decoded.Signature = signature
	} else if g.config.VerifyResponseSignature {
		signedBody, err = bodyWithoutSignature(res.Body)
		if err != nil {
			return core.Response{}, signatureError(err.Error(), map[string]any{"path": req.Path})
		}
	}
	if g.config.VerifyResponseSignature {
		if err := g.signer.VerifyBody(signedBody, decoded.Signature); err != nil {
			return core.Response{}, signatureError(err.Error(), map[string]any{"path": req.Path})
		}
	}
	return decoded, nil
}

// bodyWithoutSignature re-encodes a JSON object without its "sig" member.
// Members are emitted compact with sorted keys, which is the form a body
// signature covers.
func bodyWithoutSignature(body []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("transport: decode signed body: %w", err)
	}
	delete(fields, core.ParamSignature)
	return json.Marshal(fields)
}

func (g *HTTPGateway) signedParams(req core.SignedRequest) (map[string]string, error) {
	params := make(map[string]string, len(req.Params)+3)
	for key, value := range req.Params {
		params[key] = value
	}
	if appID := strings.TrimSpace(g.config.AppID); appID != "" {
		params[core.ParamAppID] = appID
	}
	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = g.now()
	}
	params[core.ParamTimestamp] = strconv.FormatInt(timestamp.Unix(), 10)
	delete(params, core.ParamSignature)
	if strings.TrimSpace(g.config.SharedSecret) == "" {
		return params, nil
	}
	signature, err := g.signer.Sign(params)
	if err != nil {
		return nil, err
	}
	params[core.ParamSignature] = signature
	return params, nil
}

type wireResponse struct {
	ResultCode    json.RawMessage `json:"result_code"`
	ResultMessage string          `json:"result_message"`
	UserStatus    string          `json:"user_status"`
	Signature     string          `json:"sig"`
	Timestamp     json.RawMessage `json:"timestamp"`
}

func decodeResponse(body []byte) (core.Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return core.Response{}, fmt.Errorf("transport: empty response body")
	}
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return core.Response{}, err
	}
	code, err := parseResultCode(wire.ResultCode)
	if err != nil {
		return core.Response{}, err
	}
	resp := core.Response{
		ResultCode:    code,
		ResultMessage: strings.TrimSpace(wire.ResultMessage),
		Signature:     strings.TrimSpace(wire.Signature),
		Timestamp:     strings.Trim(strings.TrimSpace(string(wire.Timestamp)), `"`),
		MessageBody:   string(body),
	}
	if status := strings.TrimSpace(wire.UserStatus); status != "" {
		resp.UserStatus = core.ParseUserStatus(status)
	}
	return resp, nil
}

// parseResultCode accepts both numeric and quoted result codes.
func parseResultCode(raw json.RawMessage) (int, error) {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if value == "" || value == "null" {
		return 0, fmt.Errorf("transport: result_code is required")
	}
	code, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("transport: invalid result_code %q", value)
	}
	return code, nil
}

func statusCategory(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

func joinURL(base string, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

var _ core.Gateway = (*HTTPGateway)(nil)
