// Package metrics 定义业务操作的 prometheus 指标，并保留一份进程内的请求/错误计数供健康检查使用。
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"txflow/internal/pkg/apperr"
)

type Recorder struct {
	duration      *prometheus.HistogramVec
	total         *prometheus.CounterVec
	compensations *prometheus.CounterVec

	requests atomic.Int64
	errors   atomic.Int64
}

// NewRecorder 创建并注册指标。reg 为 nil 时不注册（测试用）。
func NewRecorder(namespace string, reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of business operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Business operations by outcome kind.",
		}, []string{"operation", "outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_compensations_total",
			Help:      "Compensation actions executed by the order saga.",
		}, []string{"action", "result"}),
	}
	if reg != nil {
		reg.MustRegister(r.duration, r.total, r.compensations)
	}
	return r
}

// Observe 记录一次操作的耗时与结果
func (r *Recorder) Observe(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	r.duration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
	r.total.WithLabelValues(operation, outcome).Inc()

	r.requests.Add(1)
	if isServerSide(err) {
		r.errors.Add(1)
	}
}

func (r *Recorder) Compensation(action string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	r.compensations.WithLabelValues(action, result).Inc()
}

// Counts 返回累计请求数和服务端错误数
func (r *Recorder) Counts() (requests, errors int64) {
	return r.requests.Load(), r.errors.Load()
}

// 调用方输入导致的失败不算业务错误率
func isServerSide(err error) bool {
	if err == nil {
		return false
	}
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument, apperr.KindNotFound, apperr.KindAlreadyExists, apperr.KindUnauthorized:
		return false
	}
	return true
}
