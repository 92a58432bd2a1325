// Package storage persists review records in Postgres.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/merge-warden/internal/core"
)

// ErrNotFound is returned when no review record exists for a pull request.
var ErrNotFound = errors.New("review record not found")

// Store defines the record operations the review workflow needs: point
// lookup by the unique pr_id key, insert, and full-row update. No multi-row
// transactions are required by the core logic.
//
//go:generate mockgen -destination=../mocks/mock_store.go -package=mocks . Store
type Store interface {
	GetReview(ctx context.Context, prID string) (*core.ReviewRecord, error)
	CreateReview(ctx context.Context, record *core.ReviewRecord) error
	UpdateReview(ctx context.Context, record *core.ReviewRecord) error
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// reviewRow maps the reviews table; JSON columns and nullable fields are
// converted to and from the core type explicitly.
type reviewRow struct {
	ID               int64          `db:"id"`
	PRID             string         `db:"pr_id"`
	PRSHA            string         `db:"pr_sha"`
	InstallationID   int64          `db:"installation_id"`
	Questions        []byte         `db:"questions"`
	DiffHash         string         `db:"diff_hash"`
	ReviewerAnswers  []byte         `db:"reviewer_answers"`
	GradingResult    []byte         `db:"grading_result"`
	Status           string         `db:"status"`
	ReviewerUsername sql.NullString `db:"reviewer_username"`
	BotCommentID     sql.NullInt64  `db:"bot_comment_id"`
	CreatedAt        time.Time      `db:"created_at"`
	ReviewedAt       sql.NullTime   `db:"reviewed_at"`
}

// GetReview retrieves the record for a pull request by its composite key.
func (s *postgresStore) GetReview(ctx context.Context, prID string) (*core.ReviewRecord, error) {
	query := `
		SELECT id, pr_id, pr_sha, installation_id, questions, diff_hash,
		       reviewer_answers, grading_result, status, reviewer_username,
		       bot_comment_id, created_at, reviewed_at
		FROM reviews
		WHERE pr_id = $1`

	var row reviewRow
	if err := s.db.GetContext(ctx, &row, query, prID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load review for %s: %w", prID, err)
	}

	return rowToRecord(&row)
}

// CreateReview inserts a new review record and backfills its generated ID.
func (s *postgresStore) CreateReview(ctx context.Context, record *core.ReviewRecord) error {
	row, err := recordToRow(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reviews (pr_id, pr_sha, installation_id, questions, diff_hash,
		                     reviewer_answers, grading_result, status, reviewer_username,
		                     bot_comment_id, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err = s.db.QueryRowContext(ctx, query,
		row.PRID, row.PRSHA, row.InstallationID, row.Questions, row.DiffHash,
		row.ReviewerAnswers, row.GradingResult, row.Status, row.ReviewerUsername,
		row.BotCommentID, time.Now().UTC(), row.ReviewedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert review for %s: %w", record.PRID, err)
	}
	return nil
}

// UpdateReview overwrites all mutable columns of an existing record.
func (s *postgresStore) UpdateReview(ctx context.Context, record *core.ReviewRecord) error {
	row, err := recordToRow(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE reviews
		SET pr_sha = $2, installation_id = $3, questions = $4, diff_hash = $5,
		    reviewer_answers = $6, grading_result = $7, status = $8,
		    reviewer_username = $9, bot_comment_id = $10, reviewed_at = $11
		WHERE pr_id = $1`

	result, err := s.db.ExecContext(ctx, query,
		row.PRID, row.PRSHA, row.InstallationID, row.Questions, row.DiffHash,
		row.ReviewerAnswers, row.GradingResult, row.Status, row.ReviewerUsername,
		row.BotCommentID, row.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update review for %s: %w", record.PRID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func recordToRow(record *core.ReviewRecord) (*reviewRow, error) {
	questions, err := json.Marshal(record.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	row := &reviewRow{
		PRID:           record.PRID,
		PRSHA:          record.PRSHA,
		InstallationID: record.InstallationID,
		Questions:      questions,
		DiffHash:       record.DiffHash,
		Status:         string(record.Status),
	}

	if record.ReviewerAnswers != nil {
		if row.ReviewerAnswers, err = json.Marshal(record.ReviewerAnswers); err != nil {
			return nil, fmt.Errorf("failed to encode reviewer answers: %w", err)
		}
	}
	if record.GradingResult != nil {
		if row.GradingResult, err = json.Marshal(record.GradingResult); err != nil {
			return nil, fmt.Errorf("failed to encode grading result: %w", err)
		}
	}
	if record.ReviewerUsername != "" {
		row.ReviewerUsername = sql.NullString{String: record.ReviewerUsername, Valid: true}
	}
	if record.BotCommentID != 0 {
		row.BotCommentID = sql.NullInt64{Int64: record.BotCommentID, Valid: true}
	}
	if record.ReviewedAt != nil {
		row.ReviewedAt = sql.NullTime{Time: *record.ReviewedAt, Valid: true}
	}
	return row, nil
}

func rowToRecord(row *reviewRow) (*core.ReviewRecord, error) {
	record := &core.ReviewRecord{
		ID:             row.ID,
		PRID:           row.PRID,
		PRSHA:          row.PRSHA,
		InstallationID: row.InstallationID,
		DiffHash:       row.DiffHash,
		Status:         core.ReviewStatus(row.Status),
		CreatedAt:      row.CreatedAt,
	}

	if err := json.Unmarshal(row.Questions, &record.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for %s: %w", row.PRID, err)
	}
	if len(row.ReviewerAnswers) > 0 {
		if err := json.Unmarshal(row.ReviewerAnswers, &record.ReviewerAnswers); err != nil {
			return nil, fmt.Errorf("failed to decode reviewer answers for %s: %w", row.PRID, err)
		}
	}
	if len(row.GradingResult) > 0 {
		record.GradingResult = &core.GradingResult{}
		if err := json.Unmarshal(row.GradingResult, record.GradingResult); err != nil {
			return nil, fmt.Errorf("failed to decode grading result for %s: %w", row.PRID, err)
		}
	}
	if row.ReviewerUsername.Valid {
		record.ReviewerUsername = row.ReviewerUsername.String
	}
	if row.BotCommentID.Valid {
		record.BotCommentID = row.BotCommentID.Int64
	}
	if row.ReviewedAt.Valid {
		reviewedAt := row.ReviewedAt.Time
		record.ReviewedAt = &reviewedAt
	}
	return record, nil
}
