package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownHooksRunInReverse(t *testing.T) {
	var order []string
	hooks := &shutdownHooks{}
	appCtx := &AppCtx{hooks: hooks}

	appCtx.OnShutdown("tracer", func(context.Context) error { order = append(order, "tracer"); return nil })
	appCtx.OnShutdown("kafka", func(context.Context) error { order = append(order, "kafka"); return errors.New("broker gone") })
	appCtx.OnShutdown("consumer", func(context.Context) error { order = append(order, "consumer"); return nil })

	hooks.run(context.Background())
	assert.Equal(t, []string{"consumer", "kafka", "tracer"}, order)

	// 第二次执行不会重复清理
	hooks.run(context.Background())
	assert.Len(t, order, 3)
}
