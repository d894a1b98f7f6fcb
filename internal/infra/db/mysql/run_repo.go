package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/runs"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO leaderboard_runs
  (id, target_url, target_type, output_format, status, exit_code, duration_ms, artifact_url, triggered_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), exit_code=VALUES(exit_code), duration_ms=VALUES(duration_ms),
  artifact_url=VALUES(artifact_url);
`
	// Ensure non-nullable string fields have safe defaults
	target := stringOrDash(run.TargetURL)
	targetType := stringOrDash(run.TargetType)
	format := stringOrDash(run.OutputFormat)
	status := stringOrDash(string(run.Status))
	triggered := run.TriggeredAt
	if triggered.IsZero() {
		triggered = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, q,
		run.ID, target, targetType, format, status,
		run.ExitCode, run.DurationMS, run.ArtifactURL, triggered,
	)
	return err
}

// Latest runs, newest first
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*domain.Run, error) {
	const q = `
SELECT id, target_url, target_type, output_format, status, exit_code, duration_ms, artifact_url, triggered_at
FROM leaderboard_runs
ORDER BY triggered_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Run{}
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(
			&run.ID, &run.TargetURL, &run.TargetType, &run.OutputFormat, &run.Status,
			&run.ExitCode, &run.DurationMS, &run.ArtifactURL, &run.TriggeredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}
