package ai

import "context"

// Client summarises a leaderboard output in plain language.
type Client interface {
	Summarize(ctx context.Context, target, format, output string) (string, error)
}
