package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/polyterm/polyterm/internal/config"
	"github.com/polyterm/polyterm/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id SERIAL PRIMARY KEY,
	job_id VARCHAR(64) NOT NULL UNIQUE,
	market_id VARCHAR(128) NOT NULL,
	headline_summary TEXT NOT NULL DEFAULT '',
	news_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	reddit_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	citation_count INT NOT NULL DEFAULT 0,
	result JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analyses_market_id ON analyses (market_id);
`

// PostgresArchive 已完成分析的持久化归档。
// 归档写入是尽力而为的，失败不影响任务终态。
type PostgresArchive struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	log *logrus.Logger
}

// NewPostgresArchive 建连并确保表结构存在。配置未给出 host 时返回 (nil, nil)，
// 调用方据此跳过归档。
func NewPostgresArchive(cfg config.ArchiveConfig, log *logrus.Logger) (*PostgresArchive, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres failed: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema failed: %w", err)
	}

	return &PostgresArchive{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		log: log,
	}, nil
}

// SaveAnalysis 写入一条归档记录，job_id 冲突时覆盖
func (a *PostgresArchive) SaveAnalysis(ctx context.Context, jobID, marketID string, result *models.ExplainMoveResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result failed: %w", err)
	}

	query, args, err := a.sb.
		Insert("analyses").
		Columns("job_id", "market_id", "headline_summary", "news_score", "reddit_score", "citation_count", "result").
		Values(jobID, marketID, result.HeadlineSummary, result.Sentiment.NewsScore, result.Sentiment.RedditScore, len(result.Citations), payload).
		Suffix("ON CONFLICT (job_id) DO UPDATE SET result = EXCLUDED.result").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert failed: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert analysis failed: %w", err)
	}
	return nil
}

// RecentAnalyses 查询某市场最近的归档记录
func (a *PostgresArchive) RecentAnalyses(ctx context.Context, marketID string, limit int) ([]models.ArchivedAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := a.sb.
		Select("job_id", "market_id", "headline_summary", "created_at").
		From("analyses").
		Where(sq.Eq{"market_id": marketID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select failed: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses failed: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchivedAnalysis, 0)
	for rows.Next() {
		var rec models.ArchivedAnalysis
		if err := rows.Scan(&rec.JobID, &rec.MarketID, &rec.HeadlineSummary, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis row failed: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
