package db

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/platform/apperror"
)

var (
	identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	columnTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ,()]*$`)
)

// ValidIdentifier reports whether name is a plain lower-case SQL identifier.
func ValidIdentifier(name string) bool {
	return len(name) <= 63 && identifierPattern.MatchString(name)
}

// Store is what the schema manager needs from a pool.
type Store interface {
	Querier
	TxStarter
}

type tableDef struct {
	name string
	ddl  string
}

type columnDef struct {
	table, column, typ string
}

var tables = []tableDef{
	{"users", `username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL`},
	{"patients", `id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		gender TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT ''`},
	{"appointments", `id BIGSERIAL PRIMARY KEY,
		patient_id BIGINT NOT NULL,
		doctor TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Scheduled'`},
	{"billing", `id BIGSERIAL PRIMARY KEY,
		patient_id BIGINT NOT NULL,
		items TEXT NOT NULL,
		total NUMERIC(12,2) NOT NULL`},
}

// Columns added after the first release. Appended only, never rewritten.
var additiveColumns = []columnDef{
	{"users", "specialization", "TEXT"},
	{"users", "created_at", "TIMESTAMPTZ DEFAULT NOW()"},
	{"patients", "created_at", "TIMESTAMPTZ DEFAULT NOW()"},
	{"patients", "created_by", "TEXT"},
	{"appointments", "created_at", "TIMESTAMPTZ DEFAULT NOW()"},
	{"appointments", "created_by", "TEXT"},
	{"billing", "created_at", "TIMESTAMPTZ DEFAULT NOW()"},
	{"billing", "created_by", "TEXT"},
}

// SchemaManager creates the record tables and applies additive columns.
type SchemaManager struct {
	store  Store
	schema string
	logger zerolog.Logger
}

func NewSchemaManager(store Store, schema string, logger zerolog.Logger) *SchemaManager {
	return &SchemaManager{store: store, schema: schema, logger: logger.With().Str("component", "schema").Logger()}
}

// EnsureSchema creates any missing table and column in one transaction.
// It is safe to call on every start.
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	if !ValidIdentifier(m.schema) {
		return apperror.Invalid("schema", "invalid schema name %q", m.schema)
	}

	err := WithTx(ctx, m.store, func(ctx context.Context) error {
		q := Conn(ctx, m.store)
		if _, err := q.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{m.schema}.Sanitize()); err != nil {
			return apperror.Storage("create schema", err)
		}
		for _, t := range tables {
			sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", m.qualify(t.name), t.ddl)
			if _, err := q.Exec(ctx, sql); err != nil {
				return apperror.Storage("create table "+t.name, err)
			}
		}
		for _, c := range additiveColumns {
			if err := m.EnsureColumn(ctx, c.table, c.column, c.typ); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperror.Storage("ensure schema", err)
	}

	m.logger.Debug().Str("schema", m.schema).Msg("schema up to date")
	return nil
}

// EnsureColumn adds a nullable column to table when it is not present.
func (m *SchemaManager) EnsureColumn(ctx context.Context, table, column, typ string) error {
	if !ValidIdentifier(table) {
		return apperror.Invalid("table", "invalid table name %q", table)
	}
	if !ValidIdentifier(column) {
		return apperror.Invalid("column", "invalid column name %q", column)
	}
	if !columnTypePattern.MatchString(typ) {
		return apperror.Invalid("type", "unsupported column type %q", typ)
	}

	q := Conn(ctx, m.store)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2 AND column_name = $3)`,
		m.schema, table, column).Scan(&exists)
	if err != nil {
		return apperror.Storage("inspect columns of "+table, err)
	}
	if exists {
		return nil
	}

	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		m.qualify(table), pgx.Identifier{column}.Sanitize(), typ)
	if _, err := q.Exec(ctx, sql); err != nil {
		return apperror.Storage("add column "+table+"."+column, err)
	}

	m.logger.Info().Str("table", table).Str("column", column).Str("type", typ).Msg("added column")
	return nil
}

func (m *SchemaManager) qualify(table string) string {
	return pgx.Identifier{m.schema, table}.Sanitize()
}
