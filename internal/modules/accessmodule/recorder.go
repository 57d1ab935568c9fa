package accessmodule

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/utils"
	"gorm.io/gorm"
)

// Recorder persists access-log entries on a bounded worker pool. Writes
// are best effort: a full queue drops the entry and failures are only
// logged.
type Recorder struct {
	db    *gorm.DB
	pool  *utils.WorkerPool
	log   hclog.Logger
	write time.Duration
}

// NewRecorder starts a recorder with the given worker and queue sizes
func NewRecorder(db *gorm.DB, workers, queueSize int) *Recorder {
	r := &Recorder{
		db:    db,
		pool:  utils.NewWorkerPool(workers, queueSize),
		log:   logger.Named("access"),
		write: 5 * time.Second,
	}
	r.pool.Start()
	return r
}

// Record queues entry without blocking. It returns false when the entry
// was dropped.
func (r *Recorder) Record(entry database.AccessLog) bool {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	queued := r.pool.Submit(func() { r.persist(entry) })
	if !queued {
		metrics.AccessLogs.WithLabelValues("dropped").Inc()
		r.log.Warn("access log queue full, dropping entry", "path", entry.Path, "ip", entry.IP)
	}
	return queued
}

func (r *Recorder) persist(entry database.AccessLog) {
	ctx, cancel := context.WithTimeout(context.Background(), r.write)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		metrics.AccessLogs.WithLabelValues("failed").Inc()
		r.log.Error("failed to record access log", "path", entry.Path, "error", err)
		return
	}
	metrics.AccessLogs.WithLabelValues("recorded").Inc()
}

// Pending returns the number of queued entries
func (r *Recorder) Pending() int {
	return r.pool.QueueLength()
}

// Capacity returns the queue capacity
func (r *Recorder) Capacity() int {
	return r.pool.Capacity()
}

// Stop flushes queued entries and stops the workers
func (r *Recorder) Stop() {
	r.pool.Stop()
}
