package policycache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const defaultSQLTable = "policycache_records"

// sqlStore keeps one serialized record per row, keyed by the prefixed store key.
type sqlStore struct {
	db      *sql.DB
	table   string
	dialect sqlDialect
	prefix  string
}

// sqlDialect captures what differs between the supported database families.
type sqlDialect struct {
	positional bool // $n placeholders instead of ?
	keyType    string
	recordType string
	engine     string
	upsert     string // conflict clause; %s is the new record placeholder
}

func dialectFor(driverName string) sqlDialect {
	switch driverName {
	case "postgres", "pgx":
		return sqlDialect{
			positional: true,
			keyType:    "TEXT",
			recordType: "BYTEA",
			upsert:     "ON CONFLICT (record_key) DO UPDATE SET record = %s",
		}
	case "mysql":
		return sqlDialect{
			keyType:    "VARBINARY(767)",
			recordType: "LONGBLOB",
			engine:     " ENGINE=InnoDB",
			upsert:     "ON DUPLICATE KEY UPDATE record = %s",
		}
	default: // sqlite
		return sqlDialect{
			keyType:    "TEXT",
			recordType: "BLOB",
			upsert:     "ON CONFLICT(record_key) DO UPDATE SET record = %s",
		}
	}
}

func (d sqlDialect) ph(i int) string {
	if d.positional {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

var sqlIdentPartRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newSQLStore(cfg StoreConfig) (Store, error) {
	if cfg.SQLDriverName == "" || cfg.SQLDSN == "" {
		return nil, errors.New("sql driver requires driver name and dsn")
	}
	table := cfg.SQLTable
	if table == "" {
		table = defaultSQLTable
	}
	if err := validateSQLTableName(table); err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.SQLDriverName, cfg.SQLDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &sqlStore{
		db:      db,
		table:   table,
		dialect: dialectFor(cfg.SQLDriverName),
		prefix:  cfg.Prefix,
	}
	if _, err := db.Exec(s.schemaSQL()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return s, nil
}

func (s *sqlStore) Driver() Driver { return DriverSQL }

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, s.getSQL(), s.recordKey(key)).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cloneBytes(record), true, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, s.upsertSQL(), s.recordKey(key), value, value)
	return err
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.deleteSQL(), s.recordKey(key))
	return err
}

func (s *sqlStore) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = s.dialect.ph(i + 1)
		args[i] = s.recordKey(k)
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE record_key IN (%s)", s.table, strings.Join(placeholders, ","))
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

// Flush removes rows within this store's prefix, or every row when unprefixed.
func (s *sqlStore) Flush(ctx context.Context) error {
	if s.prefix == "" {
		_, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table)
		return err
	}
	scope := s.prefix + ":"
	args := []any{scope}
	if !s.dialect.positional {
		args = append(args, scope)
	}
	_, err := s.db.ExecContext(ctx, s.flushSQL(), args...)
	return err
}

func (s *sqlStore) recordKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *sqlStore) schemaSQL() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (record_key %s PRIMARY KEY, record %s NOT NULL)%s",
		s.table, s.dialect.keyType, s.dialect.recordType, s.dialect.engine)
}

func (s *sqlStore) upsertSQL() string {
	d := s.dialect
	return fmt.Sprintf("INSERT INTO %s (record_key, record) VALUES (%s, %s) %s",
		s.table, d.ph(1), d.ph(2), fmt.Sprintf(d.upsert, d.ph(3)))
}

func (s *sqlStore) getSQL() string {
	return fmt.Sprintf("SELECT record FROM %s WHERE record_key = %s", s.table, s.dialect.ph(1))
}

func (s *sqlStore) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE record_key = %s", s.table, s.dialect.ph(1))
}

// flushSQL matches the key prefix with substr rather than LIKE, which is
// case-insensitive on sqlite and needs wildcard escaping everywhere.
func (s *sqlStore) flushSQL() string {
	if s.dialect.positional {
		return fmt.Sprintf("DELETE FROM %s WHERE substr(record_key, 1, length($1)) = $1", s.table)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE substr(record_key, 1, length(?)) = ?", s.table)
}

func validateSQLTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("sql table name is required")
	}
	for _, part := range strings.Split(name, ".") {
		if !sqlIdentPartRE.MatchString(part) {
			return fmt.Errorf("invalid sql table name %q", name)
		}
	}
	return nil
}
