package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/desertthunder/ytbot/internal/shared"
)

var tableNameRx = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence increments and returns the counter of the <table>_sequence table.
//
// The sequence table must hold a single row whose id is 1. Run it inside the transaction
// that inserts the row so a failed insert does not consume a number.
func NextSequence(q rowQuerier, table string) (int, error) {
	if !tableNameRx.MatchString(table) {
		return 0, fmt.Errorf("%w: table name %q", shared.ErrInvalidArgument, table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := q.QueryRowContext(context.Background(), query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}
