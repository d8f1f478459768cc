package accel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool is a fixed set of goroutines draining a shared queue of waves.
//
// Thread safety: workerPool is safe for concurrent use.
type workerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	// Submitters hold sendMu for reading. Close holds it for writing, so
	// nothing reaches queue once the workers start draining.
	sendMu sync.RWMutex
}

// newWorkerPool starts a pool. If workers is 0 or negative, GOMAXPROCS is used.
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &workerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.drain()
			return
		case work := <-p.queue:
			work()
		}
	}
}

// drain runs whatever is still queued when the pool closes
func (p *workerPool) drain() {
	for {
		select {
		case work := <-p.queue:
			work()
		default:
			return
		}
	}
}

// ExecuteAll runs every item and waits for all of them. Items submitted after
// Close run on the calling goroutine.
func (p *workerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}

	var completion sync.WaitGroup
	completion.Add(len(work))

	wrapped := make([]func(), len(work))
	for i, fn := range work {
		wrapped[i] = func() {
			defer completion.Done()
			fn()
		}
	}

	p.sendMu.RLock()
	inline := !p.running.Load()
	if !inline {
		for _, w := range wrapped {
			p.queue <- w
		}
	}
	p.sendMu.RUnlock()

	if inline {
		for _, w := range wrapped {
			w()
		}
	}

	completion.Wait()
}

// Close stops the workers after the queue drains. Safe to call multiple times.
func (p *workerPool) Close() {
	p.sendMu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.sendMu.Unlock()
		return
	}
	close(p.done)
	p.sendMu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of worker goroutines
func (p *workerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work
func (p *workerPool) IsRunning() bool {
	return p.running.Load()
}
