package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errNoQuery = errors.New("consulta no soportada en la prueba")

type recordedCall struct {
	sql  string
	args []any
}

// querierSpy registra el SQL que arman los repos; las respuestas salen de tag, execErr y rows.
type querierSpy struct {
	calls   []recordedCall
	tag     pgconn.CommandTag
	execErr error
	rows    []func(dest ...any) error
}

func (q *querierSpy) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, recordedCall{sql, args})
	return q.tag, q.execErr
}

func (q *querierSpy) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.calls = append(q.calls, recordedCall{sql, args})
	return nil, errNoQuery
}

func (q *querierSpy) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, recordedCall{sql, args})
	if len(q.rows) == 0 {
		return rowFunc(func(...any) error { return pgx.ErrNoRows })
	}
	next := q.rows[0]
	q.rows = q.rows[1:]
	return rowFunc(next)
}

func (q *querierSpy) last() recordedCall { return q.calls[len(q.calls)-1] }

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// stockRow simula la lectura de current_stock.
func stockRow(n int64) func(dest ...any) error {
	return func(dest ...any) error {
		*dest[0].(*int64) = n
		return nil
	}
}
