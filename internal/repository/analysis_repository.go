package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/impactlens/internal/domain"
)

// AnalysisRepository persists completed analysis results for the
// status and history endpoints.
type AnalysisRepository interface {
	Save(ctx context.Context, result *domain.AnalysisResult) error
	GetByID(ctx context.Context, analysisID string) (*domain.AnalysisResult, error)
	List(ctx context.Context, limit, offset int) ([]domain.AnalysisResult, error)
	Delete(ctx context.Context, analysisID string) error
}

type analysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository instantiates repository.
func NewAnalysisRepository(pool *pgxpool.Pool) AnalysisRepository {
	return &analysisRepository{pool: pool}
}

func (r *analysisRepository) Save(ctx context.Context, result *domain.AnalysisResult) error {
	report, err := json.Marshal(result.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	const query = `
        INSERT INTO analysis_results (analysis_id, ticket_key, status, report,
            processing_time_ms, tickets_analyzed, model_used, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = r.pool.Exec(ctx, query,
		result.AnalysisID,
		result.TicketKey,
		result.Status,
		report,
		result.Metadata.ProcessingTimeMillis,
		result.Metadata.TicketsAnalyzed,
		result.Metadata.ModelUsed,
		result.Metadata.CompletedAt,
	)
	return err
}

func (r *analysisRepository) GetByID(ctx context.Context, analysisID string) (*domain.AnalysisResult, error) {
	const query = `
        SELECT analysis_id, ticket_key, status, report, processing_time_ms,
               tickets_analyzed, model_used, completed_at
        FROM analysis_results WHERE analysis_id=$1`
	result, err := scanAnalysis(r.pool.QueryRow(ctx, query, analysisID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (r *analysisRepository) List(ctx context.Context, limit, offset int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT analysis_id, ticket_key, status, report, processing_time_ms,
               tickets_analyzed, model_used, completed_at
        FROM analysis_results ORDER BY completed_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.AnalysisResult
	for rows.Next() {
		result, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

func (r *analysisRepository) Delete(ctx context.Context, analysisID string) error {
	const query = `DELETE FROM analysis_results WHERE analysis_id=$1`
	cmd, err := r.pool.Exec(ctx, query, analysisID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAnalysis(row pgx.Row) (*domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	var report []byte
	if err := row.Scan(
		&result.AnalysisID,
		&result.TicketKey,
		&result.Status,
		&report,
		&result.Metadata.ProcessingTimeMillis,
		&result.Metadata.TicketsAnalyzed,
		&result.Metadata.ModelUsed,
		&result.Metadata.CompletedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(report, &result.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &result, nil
}
