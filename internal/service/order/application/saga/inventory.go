package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"txflow/internal/pkg/logger"
)

// InventoryHandler 负责库存预占步骤。
// 按明细顺序逐个预占，每成功一个就压入对应的释放补偿。
type InventoryHandler struct {
	NextHandler
}

func (h *InventoryHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.InventoryReserve")
	defer span.End()

	logger.Ctx(ctx).Info().Str("order", orderCtx.Order.OrderNumber).Int("items", len(orderCtx.Order.Items)).Msg("【Saga】=> 步骤 1: 预占库存...")

	for _, item := range orderCtx.Order.Items {
		if err := orderCtx.InventoryService.Reserve(ctx, item.SKU, item.Quantity); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Inventory reservation failed")
			span.SetAttributes(attribute.String("failed.sku", item.SKU))
			return err
		}

		sku, qty := item.SKU, item.Quantity
		orderCtx.AddCompensation("release:"+sku, func(compCtx context.Context) error {
			compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
			defer compSpan.End()
			compSpan.SetAttributes(attribute.String("sku", sku), attribute.Int("quantity", qty))

			err := orderCtx.InventoryService.Release(compCtx, sku, qty)
			if err != nil {
				compSpan.RecordError(err)
			}
			return err
		})
		span.AddEvent("item reserved", traceAttrs(sku, qty))
	}

	span.AddEvent("All items reserved successfully")
	return h.executeNext(orderCtx)
}
