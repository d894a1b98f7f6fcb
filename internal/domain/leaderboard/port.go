package leaderboard

import "context"

// Runner port (interface untuk eksekusi slim-leaderboard).
// Implementations must keep each call isolated: own arguments, own output buffers,
// own config file.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ArtifactStore port (interface untuk arsip output)
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
