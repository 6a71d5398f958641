package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Pinger 是任何可以探活的存储
type Pinger interface {
	Ping(ctx context.Context) error
}

type DatabaseIndicator struct {
	db       Pinger
	database string
}

func NewDatabaseIndicator(database string, db Pinger) *DatabaseIndicator {
	return &DatabaseIndicator{db: db, database: database}
}

func (d *DatabaseIndicator) Name() string { return "database" }

func (d *DatabaseIndicator) Check(ctx context.Context) Result {
	started := time.Now()
	if err := d.db.Ping(ctx); err != nil {
		return Result{Status: StatusDown, Details: map[string]any{"database": d.database, "error": err.Error()}}
	}
	return Result{Status: StatusUp, Details: map[string]any{
		"database":      d.database,
		"response_time": time.Since(started).String(),
	}}
}

// ExternalAPIIndicator 对外部服务的健康地址发 GET，非 2xx 视为 DOWN
type ExternalAPIIndicator struct {
	name   string
	url    func() (string, error)
	client *http.Client
}

// NewExternalAPIIndicator 的 url 是一个函数，支持通过服务发现动态解析地址
func NewExternalAPIIndicator(name string, url func() (string, error), timeout time.Duration) *ExternalAPIIndicator {
	return &ExternalAPIIndicator{name: name, url: url, client: &http.Client{Timeout: timeout}}
}

func (e *ExternalAPIIndicator) Name() string { return e.name }

func (e *ExternalAPIIndicator) Check(ctx context.Context) Result {
	target, err := e.url()
	if err != nil {
		return Result{Status: StatusDown, Details: map[string]any{"error": err.Error()}}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Status: StatusDown, Details: map[string]any{"url": target, "error": err.Error()}}
	}
	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return Result{Status: StatusDown, Details: map[string]any{"url": target, "error": err.Error()}}
	}
	defer resp.Body.Close()

	details := map[string]any{
		"url":           target,
		"status_code":   resp.StatusCode,
		"response_time": time.Since(started).String(),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Status: StatusDown, Details: details}
	}
	return Result{Status: StatusUp, Details: details}
}

// Counter 提供累计请求数和错误数
type Counter interface {
	Counts() (requests, errors int64)
}

// BusinessIndicator 根据错误率判断：>10% DOWN，>5% DEGRADED，否则 UP；没有请求时 UNKNOWN
type BusinessIndicator struct {
	counter Counter
}

func NewBusinessIndicator(counter Counter) *BusinessIndicator {
	return &BusinessIndicator{counter: counter}
}

func (b *BusinessIndicator) Name() string { return "business" }

func (b *BusinessIndicator) Check(context.Context) Result {
	requests, errors := b.counter.Counts()
	if requests == 0 {
		return Result{Status: StatusUnknown, Details: map[string]any{"status": "no requests processed yet"}}
	}
	rate := float64(errors) / float64(requests)
	details := map[string]any{
		"error_rate":     fmt.Sprintf("%.2f%%", rate*100),
		"total_requests": requests,
		"total_errors":   errors,
	}
	switch {
	case rate > 0.10:
		return Result{Status: StatusDown, Details: details}
	case rate > 0.05:
		return Result{Status: StatusDegraded, Details: details}
	default:
		return Result{Status: StatusUp, Details: details}
	}
}
