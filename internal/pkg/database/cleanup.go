package database

import (
	"context"
	"time"
)

// Cleanup removes readings older than the given number of days and reports
// how many went.
func (db *Database) Cleanup(ctx context.Context, days int) (int64, error) {
	tag, err := db.pool.Exec(ctx, "DELETE FROM reading WHERE time_stamp < $1", time.Now().AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
