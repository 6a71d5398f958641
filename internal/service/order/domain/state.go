// internal/service/order/domain/state.go
package domain

// State 定义了订单的生命周期状态
type State string

const (
	StatePending   State = "PENDING"   // 已创建，尚未处理
	StateConfirmed State = "CONFIRMED" // 库存已预占且支付成功
	StateFailed    State = "FAILED"    // 处理失败，已触发补偿
)

// Terminal 表示订单不会再被处理
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}
