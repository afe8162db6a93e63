package renderer

import (
	"runtime"
	"sync"
)

// parallelRowThreshold is the minimum tile-row count to dispatch to workers.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelRowThreshold = 4

// rowChunk is a half-open range of tile rows for one worker.
type rowChunk struct {
	start, end int
}

// rowPool runs a fixed job over disjoint tile-row ranges on persistent
// workers. The job writes only pixels inside its rows, so no locking is
// needed.
type rowPool struct {
	numWorkers int
	job        func(start, end int)

	workChan chan rowChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newRowPool(job func(start, end int)) *rowPool {
	return &rowPool{
		numWorkers: runtime.GOMAXPROCS(0),
		job:        job,
	}
}

// start launches the persistent worker goroutines.
func (p *rowPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for range p.numWorkers {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *rowPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *rowPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.job(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run processes n tile rows and blocks until all are done. Small frames run
// inline on the calling goroutine.
func (p *rowPool) run(n int) {
	if n <= 0 {
		return
	}
	if n < parallelRowThreshold || p.numWorkers <= 1 {
		p.job(0, n)
		return
	}
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for start := 0; start < n; start += chunkSize {
		p.workChan <- rowChunk{start: start, end: min(start+chunkSize, n)}
		dispatched++
	}
	for range dispatched {
		<-p.doneChan
	}
}
