// internal/source/mysql_test.go
//
// Unit-tests for MySQLLoader using sqlmock.
//
// Run: go test ./internal/source -v

package source

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestMySQLLoader_Load(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(settingsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"layer", "scope", "name", "value"}).
			AddRow("domain", "example.org", "in_host", `"mail.example.org"`).
			AddRow("provider", "", "domains", `["example.com"]`).
			AddRow("provider", "", "in_port", `993`).
			AddRow("provider", "", "in_host", `imap.example.com`).
			AddRow("user", "vip@example.com", "out_auth", `["OAuth2"]`).
			AddRow("tenant", "x", "y", `"z"`))

	rc, err := MySQLLoader{DB: db}.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com"}, rc.ServedDomains())
	assert.Equal(t, 993, rc.Provider["in_port"])
	assert.Equal(t, "imap.example.com", rc.Provider["in_host"])
	assert.Equal(t, "mail.example.org", rc.Domain["example.org"]["in_host"])
	assert.Equal(t, []string{"OAuth2"}, rc.User["vip@example.com"]["out_auth"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLoader_QueryError(t *testing.T) {
	db, mock := newMock(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(settingsQuery)).WillReturnError(boom)

	_, err := MySQLLoader{DB: db}.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", decodeValue(`"plain"`))
	assert.Equal(t, "bare.host", decodeValue(`bare.host`))
	assert.Equal(t, 587, decodeValue(`587`))
	assert.Equal(t, []string{"a", "b"}, decodeValue(`["a","b"]`))
	assert.Nil(t, decodeValue(`null`))
}
