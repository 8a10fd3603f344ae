/*
 * Copyright 2024 The FlowGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pool provides a goroutine worker pool that reuses idle workers
// instead of spawning a goroutine per task.
package pool

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// ErrPoolOverload is returned by Submit when every worker is busy and the
// pool is at MaxWorkersCount.
var ErrPoolOverload = errors.New("worker pool overload")

const defaultMaxIdleWorkerDuration = 10 * time.Second

// WorkerPool serves tasks over a set of reused worker goroutines. Idle
// workers are stopped after MaxIdleWorkerDuration. The zero value needs
// Start before Submit.
type WorkerPool struct {
	// MaxWorkersCount caps the number of concurrent workers.
	MaxWorkersCount int
	// MaxIdleWorkerDuration before an idle worker is stopped. Defaults
	// to 10s.
	MaxIdleWorkerDuration time.Duration

	lock         sync.Mutex
	workersCount int
	mustStop     bool
	ready        []*workerChan
	stopCh       chan struct{}

	workerChanPool sync.Pool
}

type workerChan struct {
	lastUseTime time.Time
	ch          chan func()
}

// Start launches the idle worker cleaner. It must be called before Submit.
func (wp *WorkerPool) Start() {
	if wp.stopCh != nil {
		return
	}
	wp.stopCh = make(chan struct{})
	stopCh := wp.stopCh
	wp.workerChanPool.New = func() interface{} {
		return &workerChan{ch: make(chan func(), workerChanCap)}
	}
	wp.lock.Lock()
	wp.mustStop = false
	wp.lock.Unlock()
	go func() {
		var scratch []*workerChan
		for {
			wp.clean(&scratch)
			select {
			case <-stopCh:
				return
			case <-time.After(wp.maxIdleWorkerDuration()):
			}
		}
	}()
}

// Stop signals every idle worker to exit. Busy workers exit after
// finishing their current task.
func (wp *WorkerPool) Stop() {
	if wp.stopCh == nil {
		return
	}
	close(wp.stopCh)
	wp.stopCh = nil

	wp.lock.Lock()
	ready := wp.ready
	for i := range ready {
		ready[i].ch <- nil
		ready[i] = nil
	}
	wp.ready = ready[:0]
	wp.mustStop = true
	wp.lock.Unlock()
}

// Release implements types.Pool.
func (wp *WorkerPool) Release() {
	wp.Stop()
}

// Submit hands the task to an idle worker, starting a new one when under
// MaxWorkersCount.
func (wp *WorkerPool) Submit(fn func()) error {
	ch := wp.getCh()
	if ch == nil {
		return ErrPoolOverload
	}
	ch.ch <- fn
	return nil
}

func (wp *WorkerPool) maxIdleWorkerDuration() time.Duration {
	if wp.MaxIdleWorkerDuration <= 0 {
		return defaultMaxIdleWorkerDuration
	}
	return wp.MaxIdleWorkerDuration
}

func (wp *WorkerPool) clean(scratch *[]*workerChan) {
	maxIdleWorkerDuration := wp.maxIdleWorkerDuration()
	criticalTime := time.Now().Add(-maxIdleWorkerDuration)

	wp.lock.Lock()
	ready := wp.ready
	n := len(ready)

	// binary search for the rightmost worker idle past the deadline,
	// the slice is sorted by lastUseTime
	l, r := 0, n-1
	for l <= r {
		mid := (l + r) / 2
		if criticalTime.After(wp.ready[mid].lastUseTime) {
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	i := r
	if i == -1 {
		wp.lock.Unlock()
		return
	}

	*scratch = append((*scratch)[:0], ready[:i+1]...)
	m := copy(ready, ready[i+1:])
	for i = m; i < n; i++ {
		ready[i] = nil
	}
	wp.ready = ready[:m]
	wp.lock.Unlock()

	// notify outside the lock, the worker chan may block until the task
	// in flight completes
	tmp := *scratch
	for i := range tmp {
		tmp[i].ch <- nil
		tmp[i] = nil
	}
}

func (wp *WorkerPool) getCh() *workerChan {
	var ch *workerChan
	createWorker := false

	wp.lock.Lock()
	ready := wp.ready
	n := len(ready) - 1
	if n < 0 {
		if wp.workersCount < wp.MaxWorkersCount {
			createWorker = true
			wp.workersCount++
		}
	} else {
		ch = ready[n]
		ready[n] = nil
		wp.ready = ready[:n]
	}
	wp.lock.Unlock()

	if ch == nil {
		if !createWorker {
			return nil
		}
		vch := wp.workerChanPool.Get()
		ch = vch.(*workerChan)
		go func() {
			wp.workerFunc(ch)
			wp.workerChanPool.Put(vch)
		}()
	}
	return ch
}

func (wp *WorkerPool) release(ch *workerChan) bool {
	ch.lastUseTime = time.Now()
	wp.lock.Lock()
	if wp.mustStop {
		wp.lock.Unlock()
		return false
	}
	wp.ready = append(wp.ready, ch)
	wp.lock.Unlock()
	return true
}

func (wp *WorkerPool) workerFunc(ch *workerChan) {
	for fn := range ch.ch {
		if fn == nil {
			break
		}
		fn()
		if !wp.release(ch) {
			break
		}
	}

	wp.lock.Lock()
	wp.workersCount--
	wp.lock.Unlock()
}

// workerChanCap is 0 on single-CPU machines so the sender yields to the
// worker immediately, and 1 otherwise to avoid lock contention on Submit.
var workerChanCap = func() int {
	if runtime.GOMAXPROCS(0) == 1 {
		return 0
	}
	return 1
}()
