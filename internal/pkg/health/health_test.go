package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type staticIndicator struct {
	name   string
	status Status
}

func (s staticIndicator) Name() string                 { return s.name }
func (s staticIndicator) Check(context.Context) Result { return Result{Status: s.status} }

type fixedCounter struct{ requests, errors int64 }

func (c fixedCounter) Counts() (int64, int64) { return c.requests, c.errors }

func TestBusinessIndicatorThresholds(t *testing.T) {
	cases := []struct {
		requests, errors int64
		want             Status
	}{
		{0, 0, StatusUnknown},
		{100, 0, StatusUp},
		{100, 5, StatusUp},
		{100, 6, StatusDegraded},
		{100, 10, StatusDegraded},
		{100, 11, StatusDown},
	}
	for _, tc := range cases {
		res := NewBusinessIndicator(fixedCounter{tc.requests, tc.errors}).Check(context.Background())
		assert.Equal(t, tc.want, res.Status, "requests=%d errors=%d", tc.requests, tc.errors)
	}
}

func TestDatabaseIndicator(t *testing.T) {
	up := NewDatabaseIndicator("memory", pingerFunc(func(context.Context) error { return nil }))
	assert.Equal(t, StatusUp, up.Check(context.Background()).Status)

	down := NewDatabaseIndicator("mysql", pingerFunc(func(context.Context) error { return errors.New("refused") }))
	res := down.Check(context.Background())
	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, "refused", res.Details["error"])
}

func TestExternalAPIIndicator(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	static := func(u string) func() (string, error) { return func() (string, error) { return u, nil } }

	assert.Equal(t, StatusUp, NewExternalAPIIndicator("payment", static(ok.URL), time.Second).Check(context.Background()).Status)
	assert.Equal(t, StatusDown, NewExternalAPIIndicator("payment", static(broken.URL), time.Second).Check(context.Background()).Status)

	unresolved := func() (string, error) { return "", errors.New("no instance") }
	assert.Equal(t, StatusDown, NewExternalAPIIndicator("payment", unresolved, time.Second).Check(context.Background()).Status)
}

func TestRegistryAggregatesWorstStatus(t *testing.T) {
	reg := NewRegistry(time.Second,
		NewDatabaseIndicator("memory", pingerFunc(func(context.Context) error { return nil })),
		NewBusinessIndicator(fixedCounter{100, 7}),
	)
	report := reg.Check(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Len(t, report.Components, 2)

	reg.Register(staticIndicator{name: "zookeeper", status: StatusDown})
	assert.Equal(t, StatusDown, reg.Check(context.Background()).Status)
}

func TestRegistryUnknownDoesNotMaskUp(t *testing.T) {
	reg := NewRegistry(time.Second,
		NewDatabaseIndicator("memory", pingerFunc(func(context.Context) error { return nil })),
		NewBusinessIndicator(fixedCounter{}),
	)
	assert.Equal(t, StatusUp, reg.Check(context.Background()).Status)
}

func TestHandlerReturns503WhenDown(t *testing.T) {
	reg := NewRegistry(time.Second, NewDatabaseIndicator("mysql", pingerFunc(func(context.Context) error { return errors.New("x") })))
	rec := httptest.NewRecorder()
	reg.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDown, report.Status)
}
