package database

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"txflow/internal/pkg/apperr"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"record not found", gorm.ErrRecordNotFound, apperr.KindNotFound},
		{"wrapped not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), apperr.KindNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, apperr.KindAlreadyExists},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, apperr.KindAlreadyExists},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, apperr.KindConcurrencyConflict},
		{"deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, apperr.KindConcurrencyConflict},
		{"other mysql", &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, apperr.KindInternal},
		{"plain", errors.New("connection refused"), apperr.KindInternal},
		{"already classified", apperr.InsufficientFunds("low"), apperr.KindInsufficientFunds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperr.KindOf(MapError(tc.err, "account")))
		})
	}
	assert.NoError(t, MapError(nil, "account"))
}
