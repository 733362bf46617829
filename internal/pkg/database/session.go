package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

const sessionKey = "default"

// GetSession returns the stored session, or nil when there is none.
func (db *Database) GetSession(ctx context.Context) (*model.Session, error) {
	const query = `
	SELECT session_id, user_id, authentication_token, device_serial
	FROM vendor_session
	WHERE key = $1;
	`
	session := &model.Session{}
	err := db.pool.QueryRow(ctx, query, sessionKey).Scan(&session.ID, &session.UserID, &session.AuthToken, &session.DeviceSerial)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// PutSession replaces the stored session wholesale.
func (db *Database) PutSession(ctx context.Context, session *model.Session) error {
	if !session.Usable() {
		return model.ErrIncompleteSession
	}
	const upsertSQL = `
	INSERT INTO vendor_session (key, session_id, user_id, authentication_token, device_serial, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (key) DO UPDATE SET
		session_id = excluded.session_id,
		user_id = excluded.user_id,
		authentication_token = excluded.authentication_token,
		device_serial = excluded.device_serial,
		updated_at = excluded.updated_at;
	`
	_, err := db.pool.Exec(ctx, upsertSQL, sessionKey, session.ID, session.UserID, session.AuthToken, session.DeviceSerial)
	return err
}
