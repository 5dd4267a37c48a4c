package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/iWorld-y/lucidly/internal/config"
	"github.com/iWorld-y/lucidly/internal/model"
	"github.com/iWorld-y/lucidly/internal/workflow"
)

// Storage check-in 历史，保存在 PostgreSQL
type Storage struct {
	db *sql.DB
}

// Record 一条已保存的 check-in，ID 在 Entry 中
type Record struct {
	CreatedAt time.Time
	workflow.Entry
}

func connString(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}

func NewStorage(ctx context.Context, cfg config.DBConfig) (*Storage, error) {
	db, err := sql.Open("postgres", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS check_ins (
			id SERIAL PRIMARY KEY,
			feeling TEXT,
			energy TEXT,
			stressors TEXT,
			stress_score DOUBLE PRECISION NOT NULL,
			explanation TEXT,
			keywords TEXT[],
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS check_in_recommendations (
			id SERIAL PRIMARY KEY,
			check_in_id INTEGER REFERENCES check_ins(id),
			position INTEGER NOT NULL,
			content TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// SaveCheckIn e.ID 为 0 时新增 check-in 并回填 ID，否则替换该 check-in 的建议
func (s *Storage) SaveCheckIn(ctx context.Context, e *workflow.Entry) error {
	if e.Result == nil {
		return fmt.Errorf("check-in has no result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := e.ID
	if id == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO check_ins (feeling, energy, stressors, stress_score, explanation, keywords)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			e.Answers[model.FieldFeeling], e.Answers[model.FieldEnergy], e.Answers[model.FieldStressors],
			e.Result.StressScore, e.Result.Explanation, pq.Array(e.Result.Keywords)).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert check-in: %w", err)
		}
	} else if _, err = tx.ExecContext(ctx,
		`DELETE FROM check_in_recommendations WHERE check_in_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	for i, rec := range e.Recommendations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO check_in_recommendations (check_in_id, position, content)
			VALUES ($1, $2, $3)`,
			id, i, rec)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListRecent 按时间倒序返回最近 limit 条记录
func (s *Storage) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, feeling, energy, stressors, stress_score, explanation, keywords, created_at
		FROM check_ins
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var (
		records []*Record
		byID    = make(map[int]*Record)
		ids     []int64
	)
	for rows.Next() {
		var (
			r           Record
			explanation sql.NullString
			keywords    []string
		)
		r.Result = &model.CheckInResult{}
		err := rows.Scan(&r.ID,
			&r.Answers[model.FieldFeeling], &r.Answers[model.FieldEnergy], &r.Answers[model.FieldStressors],
			&r.Result.StressScore, &explanation, pq.Array(&keywords), &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		r.Result.Explanation = explanation.String
		if keywords == nil {
			keywords = []string{}
		}
		r.Result.Keywords = keywords
		r.Recommendations = model.Recommendations{}

		records = append(records, &r)
		byID[r.ID] = &r
		ids = append(ids, int64(r.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return records, nil
	}

	recRows, err := s.db.QueryContext(ctx, `
		SELECT check_in_id, content
		FROM check_in_recommendations
		WHERE check_in_id = ANY($1)
		ORDER BY check_in_id, position`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var (
			id      int
			content sql.NullString
		)
		if err := recRows.Scan(&id, &content); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		if r, ok := byID[id]; ok {
			r.Recommendations = append(r.Recommendations, content.String)
		}
	}
	return records, recRows.Err()
}
