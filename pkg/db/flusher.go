package db

import (
	"log/slog"
	"sync"
	"time"
)

// Flusher persists committed state to durable storage in the background.
// SQLite commits land in the WAL immediately; checkpointing the WAL back
// into the main database file is decoupled from commit and runs here,
// best-effort and coalesced. At most one flush is in flight at a time, and
// requests arriving while one is already pending are no-ops. A crash between
// commit and checkpoint can lose the WAL tail of the most recent
// transaction; that is an accepted risk of this local single-user system.
type Flusher struct {
	interval   time.Duration
	checkpoint func() error

	// requests has capacity 1: the single pending-flush slot.
	requests chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewFlusher starts the background flush loop on a connection. interval
// controls the idle flush cadence; Close stops the loop and drains any
// pending request.
func NewFlusher(conn *Connection, interval time.Duration) *Flusher {
	return newFlusher(interval, func() error {
		_, err := conn.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
		return err
	})
}

func newFlusher(interval time.Duration, checkpoint func() error) *Flusher {
	f := &Flusher{
		interval:   interval,
		checkpoint: checkpoint,
		requests:   make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// Request schedules a flush. It never blocks: if a flush is already pending
// the request coalesces into it.
func (f *Flusher) Request() {
	select {
	case f.requests <- struct{}{}:
	default:
	}
}

// Close stops the flush loop after draining any pending request.
func (f *Flusher) Close() {
	close(f.done)
	f.wg.Wait()
}

func (f *Flusher) run() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			select {
			case <-f.requests:
				f.flush()
			default:
			}
			return
		case <-f.requests:
			f.flush()
		case <-ticker.C:
			// Idle flush. Cheap when the WAL is already empty.
			f.flush()
		}
	}
}

func (f *Flusher) flush() {
	if err := f.checkpoint(); err != nil {
		// Best-effort: the commit already succeeded, so log and move on.
		slog.Warn("wal checkpoint failed", "error", err)
		return
	}
	slog.Debug("wal checkpoint complete")
}
