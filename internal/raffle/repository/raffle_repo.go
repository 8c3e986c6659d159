package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/smithos/smithos-backend/internal/raffle/domain"
)

const uniqueViolation = "23505"

// RaffleRepository handles PostgreSQL operations for raffles and tickets
type RaffleRepository struct {
	db *sql.DB
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *sql.DB) *RaffleRepository {
	return &RaffleRepository{db: db}
}

const raffleColumns = `id, prize_pool, is_active, winning_number, start_time, end_time`

// Current returns the most recently started raffle, active or not.
func (r *RaffleRepository) Current(ctx context.Context) (*domain.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles ORDER BY start_time DESC LIMIT 1`

	raffle, err := scanRaffle(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, domain.ErrRaffleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current raffle: %w", err)
	}

	tickets, err := r.ticketsFor(ctx, raffle.ID)
	if err != nil {
		return nil, err
	}
	raffle.Tickets = tickets[raffle.ID]
	if raffle.Tickets == nil {
		raffle.Tickets = []domain.Ticket{}
	}
	return raffle, nil
}

// Create inserts a new raffle. Only one raffle may be active at a time.
func (r *RaffleRepository) Create(ctx context.Context, raffle *domain.Raffle) error {
	if raffle.ID == "" {
		raffle.ID = uuid.New().String()
	}

	query := `
		INSERT INTO raffles (id, prize_pool, is_active, start_time)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, raffle.ID, raffle.PrizePool, raffle.IsActive, raffle.StartTime); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrActiveRaffleExists
		}
		return fmt.Errorf("failed to create raffle: %w", err)
	}
	return nil
}

// Reset closes any active raffle without a winner and starts raffle.
func (r *RaffleRepository) Reset(ctx context.Context, raffle *domain.Raffle) error {
	if raffle.ID == "" {
		raffle.ID = uuid.New().String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE raffles SET is_active = false, end_time = $1 WHERE is_active`,
		raffle.StartTime,
	); err != nil {
		return fmt.Errorf("failed to close active raffle: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO raffles (id, prize_pool, is_active, start_time) VALUES ($1, $2, $3, $4)`,
		raffle.ID, raffle.PrizePool, raffle.IsActive, raffle.StartTime,
	); err != nil {
		return fmt.Errorf("failed to create raffle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// AddTicket records a ticket and grows the prize pool atomically. The raffle
// must still be active.
func (r *RaffleRepository) AddTicket(ctx context.Context, raffleID string, t *domain.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ticket purchase: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE raffles SET prize_pool = prize_pool + $2 WHERE id = $1 AND is_active`,
		raffleID, t.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to update prize pool: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrRaffleNotActive
	}

	query := `
		INSERT INTO raffle_tickets (
			raffle_id, number, wallet_address, price, purchase_time, signature,
			confirmed_at, verified_amount, verified_sender, verified_receiver
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := tx.ExecContext(ctx, query,
		raffleID,
		t.Number,
		t.WalletAddress,
		t.Price,
		t.PurchaseTime,
		t.Signature,
		t.Verification.ConfirmedAt,
		t.Verification.Amount,
		t.Verification.Sender,
		t.Verification.Receiver,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == "raffle_tickets_signature_key" {
				return domain.ErrSignatureUsed
			}
			return domain.ErrTicketTaken
		}
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket purchase: %w", err)
	}
	return nil
}

// Close ends an active raffle with the given winning number.
func (r *RaffleRepository) Close(ctx context.Context, raffleID string, winningNumber int, endTime time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE raffles SET is_active = false, winning_number = $2, end_time = $3 WHERE id = $1 AND is_active`,
		raffleID, winningNumber, endTime,
	)
	if err != nil {
		return fmt.Errorf("failed to close raffle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRaffleNotActive
	}
	return nil
}

// History lists drawn raffles, most recent first.
func (r *RaffleRepository) History(ctx context.Context) ([]domain.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE winning_number IS NOT NULL ORDER BY end_time DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}
	defer rows.Close()

	raffles := []domain.Raffle{}
	var ids []string
	for rows.Next() {
		raffle, err := scanRaffle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle: %w", err)
		}
		raffles = append(raffles, *raffle)
		ids = append(ids, raffle.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return raffles, nil
	}

	tickets, err := r.ticketsFor(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range raffles {
		raffles[i].Tickets = tickets[raffles[i].ID]
		if raffles[i].Tickets == nil {
			raffles[i].Tickets = []domain.Ticket{}
		}
	}
	return raffles, nil
}

// SignatureUsed reports whether any ticket was paid with signature.
func (r *RaffleRepository) SignatureUsed(ctx context.Context, signature string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM raffle_tickets WHERE signature = $1)`, signature,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check signature: %w", err)
	}
	return exists, nil
}

func (r *RaffleRepository) ticketsFor(ctx context.Context, raffleIDs ...string) (map[string][]domain.Ticket, error) {
	query := `
		SELECT raffle_id, number, wallet_address, price, purchase_time, signature,
		       confirmed_at, verified_amount, verified_sender, verified_receiver
		FROM raffle_tickets
		WHERE raffle_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(raffleIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Ticket, len(raffleIDs))
	for rows.Next() {
		var raffleID string
		var t domain.Ticket
		if err := rows.Scan(
			&raffleID,
			&t.Number,
			&t.WalletAddress,
			&t.Price,
			&t.PurchaseTime,
			&t.Signature,
			&t.Verification.ConfirmedAt,
			&t.Verification.Amount,
			&t.Verification.Sender,
			&t.Verification.Receiver,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out[raffleID] = append(out[raffleID], t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRaffle(s scanner) (*domain.Raffle, error) {
	var raffle domain.Raffle
	var winning sql.NullInt64
	var endTime sql.NullTime

	if err := s.Scan(
		&raffle.ID,
		&raffle.PrizePool,
		&raffle.IsActive,
		&winning,
		&raffle.StartTime,
		&endTime,
	); err != nil {
		return nil, err
	}

	// Handle nullable fields
	if winning.Valid {
		n := int(winning.Int64)
		raffle.WinningNumber = &n
	}
	if endTime.Valid {
		raffle.EndTime = &endTime.Time
	}
	return &raffle, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
