package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_take_profit/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// withForeignKeys appends the foreign key pragma to the DSN, keeping any
// parameters already present.
func withForeignKeys(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			base_currency TEXT NOT NULL,
			quote_currency TEXT NOT NULL,
			side TEXT NOT NULL,
			price REAL NOT NULL,
			amount REAL NOT NULL,
			total TEXT NOT NULL,
			projected_profit TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at);`,
		`CREATE TABLE IF NOT EXISTS ticket_targets (
			ticket_id TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			profit_pct REAL NOT NULL,
			trade_price REAL NOT NULL,
			amount_pct REAL NOT NULL,
			PRIMARY KEY (ticket_id, position)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// TicketJournal Implementation

func (s *SQLiteStore) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO tickets (id, base_currency, quote_currency, side, price, amount, total, projected_profit, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		ticket.ID, ticket.Pair.Base, ticket.Pair.Quote, string(ticket.Side), ticket.Price, ticket.Amount,
		ticket.Total, ticket.ProjectedProfit, ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", ticket.ID, err)
	}

	targetQuery := `INSERT INTO ticket_targets (ticket_id, position, profit_pct, trade_price, amount_pct)
					VALUES (?, ?, ?, ?, ?)`
	for i, t := range ticket.Targets {
		if _, err := tx.ExecContext(ctx, targetQuery, ticket.ID, i, t.ProfitPercent, t.TradePrice, t.AmountPercent); err != nil {
			return fmt.Errorf("insert target %d of ticket %s: %w", i, ticket.ID, err)
		}
	}

	return tx.Commit()
}

// ListTickets returns the newest tickets first, targets in ladder order.
func (s *SQLiteStore) ListTickets(ctx context.Context, limit int) ([]*domain.Ticket, error) {
	query := `SELECT id, base_currency, quote_currency, side, price, amount, total, projected_profit, created_at
			  FROM tickets ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	var tickets []*domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var side string
		if err := rows.Scan(&t.ID, &t.Pair.Base, &t.Pair.Quote, &side, &t.Price, &t.Amount, &t.Total, &t.ProjectedProfit, &t.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		t.Side = domain.OrderSide(side)
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, t := range tickets {
		targets, err := s.listTicketTargets(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Targets = targets
	}
	return tickets, nil
}

func (s *SQLiteStore) listTicketTargets(ctx context.Context, ticketID string) ([]domain.TicketTarget, error) {
	query := `SELECT profit_pct, trade_price, amount_pct FROM ticket_targets WHERE ticket_id = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := []domain.TicketTarget{}
	for rows.Next() {
		var t domain.TicketTarget
		if err := rows.Scan(&t.ProfitPercent, &t.TradePrice, &t.AmountPercent); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
