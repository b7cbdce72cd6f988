package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"interview-quiz-service/internal/domain"
)

// Store is the remote data store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Questions returns active questions in creation order.
func (s *Store) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, criteria_id, set_label, section, subsection, category, text, options, correct_answer, active
		FROM questions
		WHERE active
		  AND criteria_id = $1
		  AND ($2::text = '' OR set_label = $2::text)
		  AND ($3::text = '' OR section = $3::text)
		  AND ($4::text = '' OR subsection = $4::text)
		ORDER BY created_at, id`,
		filter.CriteriaID, filter.SetLabel, string(filter.Section), filter.Subsection)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			section string
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.CriteriaID, &q.SetLabel, &section, &q.Subsection, &q.Category,
			&q.Text, &options, &q.CorrectAnswer, &q.Active); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Section = domain.Section(section)
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, &domain.QuestionError{QuestionID: q.ID, Err: err}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) Criteria(ctx context.Context, criteriaID string) (domain.Criteria, error) {
	var c domain.Criteria
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, pass_threshold, timer_minutes, active FROM criteria WHERE id = $1`, criteriaID,
	).Scan(&c.ID, &c.Name, &c.PassThreshold, &c.TimerMinutes, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Criteria{}, domain.ErrCriteriaNotFound
	}
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("load criteria: %w", err)
	}
	return c, nil
}

func (s *Store) SiteSettings(ctx context.Context) (domain.SiteSettings, error) {
	var site domain.SiteSettings
	err := s.pool.QueryRow(ctx, `SELECT screenshot_blocking FROM site_settings WHERE id = 1`).Scan(&site.ScreenshotBlocking)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SiteSettings{}, nil
	}
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("load site settings: %w", err)
	}
	return site, nil
}

func (s *Store) DriveOverride(ctx context.Context, criteriaID string, day time.Time) (*domain.DriveOverride, error) {
	o := domain.DriveOverride{CriteriaID: criteriaID}
	err := s.pool.QueryRow(ctx, `
		SELECT drive_date, time_limit_minutes
		FROM drive_schedules
		WHERE criteria_id = $1 AND drive_date = $2::date
		ORDER BY id DESC
		LIMIT 1`, criteriaID, day.Format("2006-01-02"),
	).Scan(&o.Day, &o.TimeLimitMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load drive schedule: %w", err)
	}
	return &o, nil
}

func (s *Store) Attempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var (
		a      domain.Attempt
		status string
		reason string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, candidate_id, criteria_id, set_label, status, started_at, completed_at,
		       score, total_questions, percentage, passed, device_fingerprint, submit_reason
		FROM interviews WHERE id = $1`, attemptID,
	).Scan(&a.ID, &a.CandidateID, &a.CriteriaID, &a.SetLabel, &status, &a.StartedAt, &a.CompletedAt,
		&a.Score, &a.TotalQuestions, &a.Percentage, &a.Passed, &a.DeviceFingerprint, &reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load interview: %w", err)
	}
	a.Status = domain.AttemptStatus(status)
	a.SubmitReason = domain.SubmitReason(reason)
	return a, nil
}

// ReplaceAnswers deletes and re-inserts the attempt's answers in one transaction,
// so a retried submission never leaves duplicates behind. The interview row is
// locked first; answers of a completed interview are never rewritten.
func (s *Store) ReplaceAnswers(ctx context.Context, attemptID string, records []domain.AnswerRecord) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM interviews WHERE id = $1 FOR UPDATE`, attemptID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAttemptNotFound
		}
		if err != nil {
			return fmt.Errorf("lock interview: %w", err)
		}
		if domain.AttemptStatus(status) == domain.AttemptCompleted {
			return domain.ErrAttemptCompleted
		}
		if _, err := tx.Exec(ctx, `DELETE FROM interview_answers WHERE interview_id = $1`, attemptID); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(`
				INSERT INTO interview_answers (interview_id, question_id, selected_answer, is_correct)
				VALUES ($1, $2, $3, $4)`, attemptID, r.QuestionID, r.SelectedAnswer, r.IsCorrect)
		}
		br := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return br.Close()
	})
}

// CompleteAttempt is a no-op for an attempt that is already completed.
func (s *Store) CompleteAttempt(ctx context.Context, attemptID string, result domain.AttemptResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE interviews
		SET status = 'completed', completed_at = $2, score = $3, total_questions = $4,
		    percentage = $5, passed = $6, device_fingerprint = $7, submit_reason = $8
		WHERE id = $1 AND status <> 'completed'`,
		attemptID, result.CompletedAt, result.Score, result.TotalQuestions,
		result.Percentage, result.Passed, result.DeviceFingerprint, string(result.Reason))
	if err != nil {
		return fmt.Errorf("complete interview: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM interviews WHERE id = $1)`, attemptID).Scan(&exists); err != nil {
		return fmt.Errorf("check interview: %w", err)
	}
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *Store) RecordProctorEvent(ctx context.Context, ev domain.ProctorEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO proctor_events (id, interview_id, kind, outcome, strikes, at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.AttemptID, string(ev.Kind), string(ev.Outcome), ev.Strikes, ev.At)
	if err != nil {
		return fmt.Errorf("record proctor event: %w", err)
	}
	return nil
}

// ProctorEvents returns the audit trail of an attempt in time order.
func (s *Store) ProctorEvents(ctx context.Context, attemptID string) ([]domain.ProctorEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, interview_id, kind, outcome, strikes, at
		FROM proctor_events WHERE interview_id = $1 ORDER BY at, id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("query proctor events: %w", err)
	}
	defer rows.Close()

	var out []domain.ProctorEvent
	for rows.Next() {
		var (
			ev            domain.ProctorEvent
			kind, outcome string
		)
		if err := rows.Scan(&ev.ID, &ev.AttemptID, &kind, &outcome, &ev.Strikes, &ev.At); err != nil {
			return nil, fmt.Errorf("scan proctor event: %w", err)
		}
		ev.Kind = domain.ViolationKind(kind)
		ev.Outcome = domain.ProctorOutcome(outcome)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Answers returns the persisted answer records of an attempt.
func (s *Store) Answers(ctx context.Context, attemptID string) ([]domain.AnswerRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT interview_id, question_id, selected_answer, is_correct
		FROM interview_answers WHERE interview_id = $1 ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []domain.AnswerRecord
	for rows.Next() {
		var r domain.AnswerRecord
		if err := rows.Scan(&r.AttemptID, &r.QuestionID, &r.SelectedAnswer, &r.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
