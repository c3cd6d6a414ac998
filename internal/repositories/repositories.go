package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// rowsChanged returns [sql.ErrNoRows] when res touched nothing.
func rowsChanged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
