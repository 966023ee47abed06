package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/impactlens/internal/domain"
)

// TicketStore is the persistent read-through layer in front of the
// ticket source. Get returns (nil, nil) when the key is unknown.
type TicketStore interface {
	Get(ctx context.Context, key string) (*domain.Ticket, error)
	Put(ctx context.Context, ticket *domain.Ticket) error
	Search(ctx context.Context, query string) ([]domain.Ticket, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ticketStore struct {
	pool        *pgxpool.Pool
	searchLimit int
}

// NewTicketStore instantiates the pgx-backed store.
func NewTicketStore(pool *pgxpool.Pool, searchLimit int) TicketStore {
	if searchLimit <= 0 {
		searchLimit = 25
	}
	return &ticketStore{pool: pool, searchLimit: searchLimit}
}

const ticketColumns = `id, ticket_key, source_id, summary, description, status, priority,
           assignee, reporter, raw_data, created_at, updated_at, last_synced_at, ttl_expires_at`

func (r *ticketStore) Get(ctx context.Context, key string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_key=$1`, ticketColumns)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketStore) Put(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_key, source_id, summary, description, status, priority,
            assignee, reporter, raw_data, created_at, updated_at, last_synced_at, ttl_expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (ticket_key) DO UPDATE SET
            source_id=EXCLUDED.source_id, summary=EXCLUDED.summary,
            description=EXCLUDED.description, status=EXCLUDED.status,
            priority=EXCLUDED.priority, assignee=EXCLUDED.assignee,
            reporter=EXCLUDED.reporter, raw_data=EXCLUDED.raw_data,
            updated_at=EXCLUDED.updated_at, last_synced_at=EXCLUDED.last_synced_at,
            ttl_expires_at=EXCLUDED.ttl_expires_at
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.Key,
		ticket.SourceID,
		ticket.Summary,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Assignee,
		ticket.Reporter,
		ticket.RawData,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.LastSyncedAt,
		ticket.ExpiresAt,
	).Scan(&ticket.ID)
}

func (r *ticketStore) Search(ctx context.Context, queryText string) ([]domain.Ticket, error) {
	term := strings.TrimSpace(queryText)
	if term == "" {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE (LOWER(summary) LIKE $1 OR LOWER(description) LIKE $1)
        ORDER BY updated_at DESC LIMIT %d`, ticketColumns, r.searchLimit)
	rows, err := r.pool.Query(ctx, query, "%"+strings.ToLower(term)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM tickets WHERE ttl_expires_at IS NOT NULL AND ttl_expires_at <= $1`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Key,
		&ticket.SourceID,
		&ticket.Summary,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Assignee,
		&ticket.Reporter,
		&ticket.RawData,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.LastSyncedAt,
		&ticket.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
