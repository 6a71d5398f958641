// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StatusError 表示下游返回了非 2xx 状态码
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Resolver 把服务名解析成 base URL，例如 http://10.0.0.3:8090
type Resolver interface {
	Resolve(serviceName string) (string, error)
}

// Client 是一个可追踪的 HTTP 客户端
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	resolver   Resolver
}

// NewClient 创建客户端。http.Client 不设置 Timeout，超时完全由调用方的 context 控制。
func NewClient(tracer trace.Tracer, resolver Resolver) *Client {
	return &Client{
		Tracer: tracer,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		resolver: resolver,
	}
}

// CallService 通过 Resolver 找到服务地址后 POST JSON
func (c *Client) CallService(ctx context.Context, serviceName, path string, body, out any) error {
	if c.resolver == nil {
		return fmt.Errorf("no resolver configured for service %s", serviceName)
	}
	base, err := c.resolver.Resolve(serviceName)
	if err != nil {
		return err
	}
	return c.PostJSON(ctx, strings.TrimRight(base, "/")+path, body, out)
}

// GetService 通过 Resolver 找到服务地址后 GET，并把响应解码到 out
func (c *Client) GetService(ctx context.Context, serviceName, path string, out any) error {
	if c.resolver == nil {
		return fmt.Errorf("no resolver configured for service %s", serviceName)
	}
	base, err := c.resolver.Resolve(serviceName)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, strings.TrimRight(base, "/")+path, nil, out)
}

// PostJSON 发送 JSON 请求体，并在 out 非空时解码响应
func (c *Client) PostJSON(ctx context.Context, serviceURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, serviceURL, bytes.NewReader(payload), out)
}

// Post 以 query 参数的形式调用下游，不关心响应体
func (c *Client) Post(ctx context.Context, serviceURL string, params url.Values) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return err
	}
	q := parsedURL.Query()
	for key, values := range params {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	parsedURL.RawQuery = q.Encode()
	return c.do(ctx, http.MethodPost, parsedURL.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, out any) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	spanName := fmt.Sprintf("call-%s", strings.Split(parsedURL.Host, ":")[0])

	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	span.SetAttributes(
		attribute.String("http.url", rawURL),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}
	return nil
}

// StaticResolver 总是返回同一个地址，用于未启用服务发现的环境
type StaticResolver string

func (s StaticResolver) Resolve(string) (string, error) { return string(s), nil }
