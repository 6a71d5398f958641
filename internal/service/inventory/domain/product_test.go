package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txflow/internal/pkg/apperr"
)

func TestReserveAndReleaseStatusTransitions(t *testing.T) {
	p, err := NewProduct("X1", "widget", decimal.NewFromInt(5), 2)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusActive, p.Status)

	require.NoError(t, p.Reserve(2))
	assert.Equal(t, 0, p.StockQuantity)
	assert.Equal(t, ProductStatusOutOfStock, p.Status)

	p.Release(2)
	assert.Equal(t, 2, p.StockQuantity)
	assert.Equal(t, ProductStatusActive, p.Status)
}

func TestReserveInsufficientLeavesStock(t *testing.T) {
	p, err := NewProduct("X1", "widget", decimal.NewFromInt(5), 1)
	require.NoError(t, err)

	err = p.Reserve(2)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
	assert.Equal(t, 1, p.StockQuantity)
	assert.Equal(t, ProductStatusActive, p.Status)
}

func TestNewProductValidation(t *testing.T) {
	_, err := NewProduct("", "n", decimal.Zero, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
	_, err = NewProduct("S", "n", decimal.NewFromInt(-1), 1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
	_, err = NewProduct("S", "n", decimal.RequireFromString("9.999"), 1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
	_, err = NewProduct("S", "n", decimal.Zero, -1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	p, err := NewProduct("S", "n", decimal.Zero, 0)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusOutOfStock, p.Status)
}
