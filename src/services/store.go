package services

import (
	"database/sql"
	"fmt"

	"github.com/username/wheeltracker/src/models"
)

const dateLayout = "2006-01-02"

type sqlPositionStore struct {
	db *sql.DB
}

// NewPositionStore returns a PositionStore backed by the sqlite database.
func NewPositionStore(db *sql.DB) PositionStore {
	return &sqlPositionStore{db: db}
}

// CreatePositionWithTransaction inserts the position and its sell-to-open
// transaction inside a single database transaction and returns the new
// position ID.
func (s *sqlPositionStore) CreatePositionWithTransaction(userID int64, opt models.ParsedOption) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO positions (user_id, symbol, option_type, strike_price, expiration_date, open_date, open_price, contracts, premium, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		opt.Symbol,
		string(opt.OptionType),
		opt.Strike.String(),
		opt.Expiration.Format(dateLayout),
		opt.OpenDate.Format(dateLayout),
		opt.OpenPrice.String(),
		opt.Contracts,
		opt.Premium.String(),
		models.PositionStatusOpen,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting position: %w", err)
	}

	positionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading position id: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO transactions (user_id, position_id, action, trade_date, price, amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		positionID,
		models.TransCodeSellToOpen,
		opt.OpenDate.Format(dateLayout),
		opt.OpenPrice.String(),
		opt.Premium.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return positionID, nil
}

func (s *sqlPositionStore) ListPositions(userID int64) ([]models.Position, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, symbol, option_type, strike_price, expiration_date, open_date, open_price, contracts, premium, status
		 FROM positions WHERE user_id = ? ORDER BY open_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		var optType string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &optType, &p.Strike, &p.Expiration, &p.OpenDate, &p.OpenPrice, &p.Contracts, &p.Premium, &p.Status); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		p.OptionType = models.OptionType(optType)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *sqlPositionStore) ListTransactions(userID int64) ([]models.OptionTransaction, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, position_id, action, trade_date, price, amount
		 FROM transactions WHERE user_id = ? ORDER BY trade_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.OptionTransaction
	for rows.Next() {
		var t models.OptionTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.PositionID, &t.Action, &t.TradeDate, &t.Price, &t.Amount); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
