package runs

import "context"

// Repository port (interface untuk persistence riwayat run)
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Latest(ctx context.Context, limit int) ([]*Run, error)
}
