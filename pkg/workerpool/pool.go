// Package workerpool provides a bounded goroutine pool with join semantics.
//
// The image acquisition fan-out submits one task per photo and waits for the
// whole set; the pool caps how many downloads run at once so a large order
// cannot spawn unbounded goroutines.
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	for _, photo := range photos {
//	    photo := photo
//	    pool.Submit(func() { download(photo) })
//	}
//	pool.Join()
package workerpool

import "sync"

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks    chan func()
	workers  sync.WaitGroup
	inflight sync.WaitGroup
	once     sync.Once
}

// New creates a Pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{tasks: make(chan func(), size)}
	for i := 0; i < size; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task, blocking while all workers are busy and the buffer
// is full. Do not call after Shutdown.
func (p *Pool) Submit(task func()) {
	p.inflight.Add(1)
	p.tasks <- task
}

// Join blocks until every submitted task has finished.
func (p *Pool) Join() {
	p.inflight.Wait()
}

// Shutdown waits for in-flight tasks and releases the workers. Safe to call
// multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.inflight.Wait()
		close(p.tasks)
		p.workers.Wait()
	})
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes task, recovering from panics so a bad task cannot kill a
// worker goroutine.
func (p *Pool) run(task func()) {
	defer p.inflight.Done()
	defer func() { recover() }() //nolint:errcheck
	task()
}
