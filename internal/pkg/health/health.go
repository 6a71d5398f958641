// Package health 实现组件健康指标以及聚合报告
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp       Status = "UP"
	StatusDegraded Status = "DEGRADED"
	StatusDown     Status = "DOWN"
	StatusUnknown  Status = "UNKNOWN"
)

// severity 越大越严重，聚合结果取最严重的一项
var severity = map[Status]int{
	StatusUnknown:  0,
	StatusUp:       1,
	StatusDegraded: 2,
	StatusDown:     3,
}

type Result struct {
	Status  Status         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

type Indicator interface {
	Name() string
	Check(ctx context.Context) Result
}

type Report struct {
	Status     Status            `json:"status"`
	Components map[string]Result `json:"components"`
}

// Registry 并发执行所有指标，每个指标有独立的超时
type Registry struct {
	indicators []Indicator
	timeout    time.Duration
}

func NewRegistry(timeout time.Duration, indicators ...Indicator) *Registry {
	return &Registry{indicators: indicators, timeout: timeout}
}

func (r *Registry) Register(ind Indicator) { r.indicators = append(r.indicators, ind) }

func (r *Registry) Check(ctx context.Context) Report {
	report := Report{Status: StatusUnknown, Components: make(map[string]Result, len(r.indicators))}
	if len(r.indicators) == 0 {
		report.Status = StatusUp
		return report
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, ind := range r.indicators {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()
			res := ind.Check(cctx)
			mu.Lock()
			report.Components[ind.Name()] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Components {
		if severity[res.Status] > severity[report.Status] {
			report.Status = res.Status
		}
	}
	return report
}

// Handler 输出 JSON 报告，DOWN 时返回 503
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report := r.Check(req.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}
