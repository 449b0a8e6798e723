package booking

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/pgerrors"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

func TestStatesCondition(t *testing.T) {
	professional := domain.PartyProfessional

	sql, args, err := psqlbuilder.Select("id").
		From(bookingsTable).
		Where(statesCondition([]domain.StateMatch{
			{Status: domain.StatusPending},
			{Status: domain.StatusCanceled, CanceledBy: &professional},
		})).
		ToSql()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM bookings WHERE (status = $1 OR (status = $2 AND canceled_by = $3))", sql)
	assert.Equal(t, []interface{}{domain.StatusPending, domain.StatusCanceled, domain.PartyProfessional}, args)
}

func TestNullParty(t *testing.T) {
	assert.False(t, nullParty(nil).Valid)

	client := domain.PartyClient
	value := nullParty(&client)
	assert.True(t, value.Valid)
	assert.Equal(t, "client", value.String)
}

func TestWrapScanError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		notWant error
	}{
		{name: "serialization failure", err: &pq.Error{Code: pgerrors.CodeSerializationFailure}, want: pgerrors.ErrSerializationFailure, notWant: ErrScanRow},
		{name: "deadlock", err: &pq.Error{Code: pgerrors.CodeDeadlockDetected}, want: pgerrors.ErrSerializationFailure, notWant: ErrScanRow},
		{name: "other driver error", err: &pq.Error{Code: pgerrors.CodeUniqueViolation}, want: ErrScanRow, notWant: pgerrors.ErrSerializationFailure},
		{name: "conversion error", err: errors.New("sql: Scan error"), want: ErrScanRow, notWant: pgerrors.ErrSerializationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapScanError("GetByID - scan booking", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, tt.notWant)
			assert.NotErrorIs(t, err, sql.ErrNoRows)
		})
	}
}

func TestWrapWriteError(t *testing.T) {
	assert.ErrorIs(t, wrapWriteError("Create", &pq.Error{Code: pgerrors.CodeExclusionViolation}), ErrOverlap)
	assert.ErrorIs(t, wrapWriteError("UpdateState", &pq.Error{Code: pgerrors.CodeSerializationFailure}), pgerrors.ErrSerializationFailure)
	assert.ErrorIs(t, wrapWriteError("UpdateState", errors.New("conn reset")), ErrExecQuery)
}
