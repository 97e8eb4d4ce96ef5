package model

import (
	"database/sql"
	"errors"
	"time"
)

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrSessionNotFound = errors.New("session not found")

func CreateSession(db *sql.DB, s *Session) error {
	res, err := db.Exec(
		`INSERT INTO sessions (user_id, token, refresh_token, expires_at) VALUES (?, ?, ?, ?)`,
		s.UserID, s.Token, s.RefreshToken, s.ExpiresAt,
	)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	var s Session
	err := db.QueryRow(
		`SELECT id, user_id, token, refresh_token, expires_at, created_at FROM sessions WHERE token = ?`, token,
	).Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
