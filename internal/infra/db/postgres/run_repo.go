package postgres

import (
    "context"
    "database/sql"
    "strings"
    "time"

    domain "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/runs"
)

type RunRepository struct {
    db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
    return &RunRepository{db: db}
}

// Save inserts or updates a run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
    const q = `
INSERT INTO leaderboard_runs
  (id, target_url, target_type, output_format, status, exit_code, duration_ms, artifact_url, triggered_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  exit_code=EXCLUDED.exit_code,
  duration_ms=EXCLUDED.duration_ms,
  artifact_url=EXCLUDED.artifact_url;
`
    triggered := run.TriggeredAt
    if triggered.IsZero() { triggered = time.Now().UTC() }

    _, err := r.db.ExecContext(ctx, q,
        string(run.ID), dashIfEmpty(run.TargetURL), dashIfEmpty(run.TargetType),
        dashIfEmpty(run.OutputFormat), dashIfEmpty(string(run.Status)),
        run.ExitCode, run.DurationMS, run.ArtifactURL, triggered,
    )
    return err
}

// Latest returns the newest runs first
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*domain.Run, error) {
    if limit <= 0 { limit = 20 }
    if limit > 100 { limit = 100 }

    const q = `
SELECT id, target_url, target_type, output_format, status, exit_code, duration_ms, artifact_url, triggered_at
FROM leaderboard_runs
ORDER BY triggered_at DESC, id DESC
LIMIT $1;
`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil { return nil, err }
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

func dashIfEmpty(s string) string { if strings.TrimSpace(s) == "" { return "-" }; return s }
