// cmd/payment-gateway/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"txflow/internal/pkg/bootstrap"
	"txflow/internal/pkg/config"
	"txflow/internal/pkg/httpserver"
	"txflow/internal/pkg/logger"
	"txflow/internal/service/order/infrastructure/adapter"
)

const serviceName = "payment-gateway"

var tracer = otel.Tracer(serviceName)

// 一个本地联调用的支付网关：超过限额拒付，可以注入延迟来演练超时
func main() {
	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Config:      cfg,
		RegisterHandlers: func(app *bootstrap.AppCtx) error {
			limit := decimal.Zero
			if cfg.Payment.DeclineAbove != "" {
				if limit, err = decimal.NewFromString(cfg.Payment.DeclineAbove); err != nil {
					return err
				}
			}
			latency, _ := time.ParseDuration(getEnv("PAYMENT_LATENCY", "0s"))
			app.Mux.HandleFunc("POST /charges", chargeHandler(adapter.NewFakePaymentGateway(limit), latency))
			return nil
		},
	})
}

func chargeHandler(gateway *adapter.FakePaymentGateway, latency time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(httpserver.ExtractContext(r), "payment-gateway.Charge")
		defer span.End()

		var req adapter.ChargeRequest
		if err := httpserver.DecodeJSON(r, &req); err != nil {
			httpserver.WriteError(ctx, w, err)
			return
		}
		span.SetAttributes(attribute.String("order.number", req.OrderNumber), attribute.String("amount", req.Amount.String()))

		// <<<<<<< 故障注入点 >>>>>>>>>
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-ctx.Done():
				return
			}
		}

		paymentID, err := gateway.Charge(ctx, req.OrderNumber, req.Amount)
		if err != nil {
			span.RecordError(err)
			httpserver.WriteError(ctx, w, err)
			return
		}
		httpserver.WriteJSON(w, http.StatusOK, adapter.ChargeResponse{PaymentID: paymentID})
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
