package services

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// SQLExecutor는 서비스 계층이 데이터베이스 구현 세부사항으로부터 분리되도록 해주는 최소한의 인터페이스입니다.
// 쿼리는 '?' 플레이스홀더로 작성하며, 엔진에 맞는 형식으로의 변환은 실행기가 담당합니다.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
	Dialect() string
	Close() error
}

type sqlDBExecutor struct {
	db      *sql.DB
	dialect string
}

// NewSQLExecutor는 *sql.DB를 감싸는 SQLExecutor를 생성합니다.
// dialect는 "mysql", "postgres", "sqlite" 중 하나입니다.
func NewSQLExecutor(db *sql.DB, dialect string) SQLExecutor {
	return &sqlDBExecutor{db: db, dialect: dialect}
}

func (s *sqlDBExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *sqlDBExecutor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *sqlDBExecutor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *sqlDBExecutor) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlDBExecutor) Dialect() string {
	return s.dialect
}

func (s *sqlDBExecutor) Close() error {
	return s.db.Close()
}

func (s *sqlDBExecutor) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	return rebindDollar(query)
}

// rebindDollar rewrites '?' placeholders to $1..$n, leaving quoted text alone.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteIdent quotes a camelCase column for the dialect.
func quoteIdent(dialect, name string) string {
	switch dialect {
	case "postgres":
		return `"` + name + `"`
	case "mysql":
		return "`" + name + "`"
	default:
		return name
	}
}
