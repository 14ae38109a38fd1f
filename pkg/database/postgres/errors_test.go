package pg

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMapping(t *testing.T) {
	errOut := errors.New("mapped")
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	serialization := &pgconn.PgError{Code: pgerrcode.SerializationFailure}

	assert.Equal(t, errOut, CheckNoRows(sql.ErrNoRows, errOut))
	assert.Equal(t, errOut, CheckNoRows(pkgerrors.Wrap(sql.ErrNoRows, "wrapped"), errOut))
	assert.Nil(t, CheckNoRows(nil, errOut))

	assert.Equal(t, errOut, CheckUniqueViolation(unique, errOut))
	assert.Equal(t, errOut, CheckUniqueViolation(pkgerrors.Wrap(unique, "wrapped"), errOut))
	assert.Equal(t, serialization, CheckUniqueViolation(serialization, errOut))
	assert.Nil(t, CheckUniqueViolation(nil, errOut))

	assert.True(t, IsSerializationFailure(serialization))
	assert.False(t, IsSerializationFailure(unique))
	assert.False(t, IsUniqueViolation(nil))
}

func TestExecuteRetryable(t *testing.T) {
	serialization := &pgconn.PgError{Code: pgerrcode.SerializationFailure}

	var calls int
	err := ExecuteRetryable(func() error {
		calls++
		if calls < 3 {
			return serialization
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = ExecuteRetryable(func() error {
		calls++
		return serialization
	})
	assert.Equal(t, serialization, err)
	assert.Equal(t, maxSerializationRetries, calls)

	calls = 0
	other := errors.New("other")
	err = ExecuteRetryable(func() error {
		calls++
		return other
	})
	assert.Equal(t, other, err)
	assert.Equal(t, 1, calls)
}
