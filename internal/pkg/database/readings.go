package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// DefaultLimit is a week of readings at a 5 minute cadence.
const DefaultLimit = 2016

func (db *Database) AppendReading(ctx context.Context, reading model.Reading) error {
	const insertSQL = `
	INSERT INTO reading (time_stamp, air_temp, pool_temp, spa_temp, heater, heater_active, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := db.pool.Exec(ctx, insertSQL,
		reading.Timestamp,
		reading.AirTemp,
		reading.PoolTemp,
		reading.SpaTemp,
		reading.HeaterSetpoint,
		reading.HeaterActive,
		reading.Status,
	)
	return err
}

// RecentReadings returns up to limit readings, newest first. A limit of zero
// or less means DefaultLimit.
func (db *Database) RecentReadings(ctx context.Context, limit int) (model.Readings, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	const query = `
	SELECT time_stamp, air_temp, pool_temp, spa_temp, heater, heater_active, status
	FROM reading
	ORDER BY time_stamp DESC
	LIMIT $1;
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows pgx.Rows) (model.Readings, error) {
	readings := model.Readings{}
	for rows.Next() {
		var r model.Reading
		if err := rows.Scan(&r.Timestamp, &r.AirTemp, &r.PoolTemp, &r.SpaTemp, &r.HeaterSetpoint, &r.HeaterActive, &r.Status); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return readings, nil
		}
		return nil, err
	}
	return readings, nil
}
