// Package money 约定金额的精度。所有金额列都是 decimal(19,2)，
// 超出两位小数的值写入时会被数据库四舍五入，因此在入口处直接拒绝。
package money

import "github.com/shopspring/decimal"

// Scale 是金额允许的小数位数
const Scale = 2

// FitsScale 判断金额能否无损地存入 decimal(19,2)
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}
