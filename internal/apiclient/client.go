// Package apiclient 远端 HR 接口适配层
// 远端通过 ?action=xxx 分发：读操作为 GET + 查询串，写操作为 POST + JSON 请求体
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
)

// API 远端接口抽象
type API interface {
	// Fetch GET ?action=xxx&token=...&<query>
	Fetch(ctx context.Context, action, token string, query url.Values) (json.RawMessage, error)
	// Send POST ?action=xxx&token=...，body 序列化为 JSON
	Send(ctx context.Context, action, token string, body interface{}) (json.RawMessage, error)
}

// 响应体上限
const maxResponseBytes = 8 << 20

// Client API 的 HTTP 实现
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient 创建远端接口客户端，传输层接入 OpenTelemetry
func NewClient(cfg *config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.APIURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

func (c *Client) Fetch(ctx context.Context, action, token string, query url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(action, token, query), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, action, token)
}

func (c *Client) Send(ctx context.Context, action, token string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(action, token, nil), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return c.do(req, action, token)
}

func (c *Client) endpoint(action, token string, query url.Values) string {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("action", action)
	if token != "" {
		q.Set("token", token)
	}
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) do(req *http.Request, action, token string) (json.RawMessage, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("远端接口请求失败",
			zap.String("action", action),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, &pkgerrors.UpstreamError{Action: action, Err: pkgerrors.ErrUpstreamUnavailable}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &pkgerrors.UpstreamError{Action: action, Status: resp.StatusCode, Err: pkgerrors.ErrUpstreamUnavailable}
	}

	c.logger.Debug("远端接口响应",
		zap.String("action", action),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	return checkResponse(action, resp.StatusCode, body)
}

// checkResponse 统一处理 HTTP 状态码与 {success:false, message} 约定
func checkResponse(action string, status int, body []byte) (json.RawMessage, error) {
	msg := Message(body)
	switch {
	case status == http.StatusUnauthorized:
		return nil, &pkgerrors.UpstreamError{Action: action, Status: status, Message: msg, Err: pkgerrors.ErrUnauthorized}
	case status < 200 || status >= 300:
		return nil, &pkgerrors.UpstreamError{Action: action, Status: status, Message: msg, Err: pkgerrors.ErrUpstreamRejected}
	}

	var env struct {
		Success *bool `json:"success"`
	}
	if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
		return nil, &pkgerrors.UpstreamError{Action: action, Status: status, Message: msg, Err: pkgerrors.ErrUpstreamRejected}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}

// Message 读取响应中的 message 字段
func Message(body []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

// IsUnavailable 网络层失败（视图显示重试面板）
func IsUnavailable(err error) bool {
	return errors.Is(err, pkgerrors.ErrUpstreamUnavailable)
}
