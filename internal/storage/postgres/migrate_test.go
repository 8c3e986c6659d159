package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresConstraints(t *testing.T) {
	for _, name := range []string{"raffles_one_active", "raffle_tickets_number_key", "raffle_tickets_signature_key"} {
		assert.Contains(t, schema, name)
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`create table if not exists users`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`create table`).WillReturnError(errors.New("permission denied"))
	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "apply schema")
}
