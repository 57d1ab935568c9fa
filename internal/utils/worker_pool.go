// Package utils holds small concurrency helpers shared by modules.
package utils

import (
	"sync"
)

// WorkerPool runs submitted functions on a fixed number of goroutines fed
// by a bounded queue. Submit never blocks.
type WorkerPool struct {
	workers   int
	workQueue chan func()
	wg        sync.WaitGroup
	running   bool
	mu        sync.RWMutex
}

// NewWorkerPool creates a pool with the given worker count and queue
// capacity. A non-positive queue size defaults to twice the worker count.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = workers * 2
	}
	return &WorkerPool{
		workers:   workers,
		workQueue: make(chan func(), queueSize),
	}
}

// Start begins processing work items. Calling it on a running pool has no
// effect.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}
	wp.running = true

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the queue and waits until every queued item has run. A
// stopped pool cannot be restarted.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	close(wp.workQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
}

// Submit queues work. It returns false when the queue is full or the pool
// is not running.
func (wp *WorkerPool) Submit(work func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return false
	}

	select {
	case wp.workQueue <- work:
		return true
	default:
		return false
	}
}

// QueueLength returns the number of items waiting to run
func (wp *WorkerPool) QueueLength() int {
	return len(wp.workQueue)
}

// Capacity returns the queue capacity
func (wp *WorkerPool) Capacity() int {
	return cap(wp.workQueue)
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for work := range wp.workQueue {
		if work != nil {
			work()
		}
	}
}
