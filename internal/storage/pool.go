package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"llmobservatory/internal/apierr"
	"llmobservatory/internal/config"
)

// Pool wraps a pgxpool.Pool with the saturation and health semantics
// described for the shared connection pool: bounded size, FIFO waiters,
// liveness independent of connectivity, readiness gated on a live
// round-trip.
type Pool struct {
	pg      *pgxpool.Pool
	maxConn int32
	ready   bool
}

// OpenPool creates the shared Postgres connection pool bounded by cfg.
// Acquisition beyond max_conns queues FIFO on pgxpool's internal
// semaphore. cfg.AcquireTimeout bounds only the startup ping, whose
// timeout surfaces as a retryable KindTimeout error; later acquisitions
// are not bounded by it and wait as long as the caller's context allows.
func OpenPool(ctx context.Context, cfg config.PoolConfig, dsn string) (*Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindConfiguration, "parse database url", err)
	}
	pcfg.MinConns = int32(cfg.MinConns)
	pcfg.MaxConns = int32(cfg.MaxConns)
	pcfg.MaxConnLifetime = cfg.MaxLifetime
	pcfg.MaxConnIdleTime = cfg.IdleTimeout
	pcfg.HealthCheckPeriod = time.Minute

	pg, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindConnection, "create connection pool", err)
	}

	p := &Pool{pg: pg, maxConn: int32(cfg.MaxConns)}

	acqCtx, cancel := context.WithTimeout(ctx, cfg.AcquireTimeout)
	defer cancel()
	if err := pg.Ping(acqCtx); err != nil {
		pg.Close()
		if acqCtx.Err() != nil {
			return nil, apierr.Wrap(apierr.KindTimeout, "acquire connection at startup", err)
		}
		return nil, apierr.Wrap(apierr.KindConnection, "ping database at startup", err)
	}
	p.ready = true
	return p, nil
}

// Pg exposes the underlying pool for query execution and pgx.CopyFrom.
func (p *Pool) Pg() *pgxpool.Pool { return p.pg }

// Close releases all connections. Callers should invoke this as the last
// step of a graceful shutdown, after every writer has been flushed.
func (p *Pool) Close() { p.pg.Close() }

// Stats is the {size, active, idle, max, utilization} snapshot described
// for the pool's observable state.
type Stats struct {
	Size        int32
	Active      int32
	Idle        int32
	Max         int32
	Utilization float64
}

// Stats reports the current pool occupancy.
func (p *Pool) Stats() Stats {
	s := p.pg.Stat()
	max := p.maxConn
	var util float64
	if max > 0 {
		util = float64(s.AcquiredConns()) / float64(max)
	}
	return Stats{
		Size:        s.TotalConns(),
		Active:      s.AcquiredConns(),
		Idle:        s.IdleConns(),
		Max:         max,
		Utilization: util,
	}
}

// Live is the liveness probe: true once the pool has been constructed,
// independent of current database connectivity.
func (p *Pool) Live() bool { return p != nil }

// Ready is the readiness probe: a SELECT 1 round-trip on a freshly
// acquired connection within budget. Returns a retryable error on
// failure so health handlers can distinguish it from a validation
// failure.
func (p *Pool) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var out int
	if err := p.pg.QueryRow(ctx, "SELECT 1").Scan(&out); err != nil {
		return apierr.Wrap(apierr.KindConnection, "readiness probe", err)
	}
	return nil
}
