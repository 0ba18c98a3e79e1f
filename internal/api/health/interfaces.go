package health

import "context"

// Pinger reports whether one backing service is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// DBPinger matches pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}
