/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package runqueue

import (
	"sync"
	"sync/atomic"

	"github.com/ortuman/vysper/log"
)

const (
	idle int32 = iota
	running
)

// RunQueue executes posted functions sequentially, one goroutine at a time.
type RunQueue struct {
	name         string
	mu           sync.Mutex
	queue        []func()
	messageCount int32
	state        int32
	stopped      int32
}

// New returns an initialized run queue.
func New(name string) *RunQueue {
	return &RunQueue{name: name}
}

// Run enqueues fn to be executed after every previously posted function.
// Calls made after Stop are ignored.
func (m *RunQueue) Run(fn func()) {
	if atomic.LoadInt32(&m.stopped) == 1 {
		return
	}
	m.push(fn)
}

// Stop stops the queue. Once every pending function has run,
// stopCb is invoked if not nil.
func (m *RunQueue) Stop(stopCb func()) {
	if !atomic.CompareAndSwapInt32(&m.stopped, 0, 1) {
		return
	}
	m.push(func() {
		if stopCb != nil {
			stopCb()
		}
	})
}

func (m *RunQueue) push(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	atomic.AddInt32(&m.messageCount, 1)
	m.schedule()
}

func (m *RunQueue) pop() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil
	}
	fn := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return fn
}

func (m *RunQueue) schedule() {
	if atomic.CompareAndSwapInt32(&m.state, idle, running) {
		go m.process()
	}
}

func (m *RunQueue) process() {

process:
	m.run()

	atomic.StoreInt32(&m.state, idle)
	if atomic.LoadInt32(&m.messageCount) > 0 {
		// try setting the queue back to running
		if atomic.CompareAndSwapInt32(&m.state, idle, running) {
			goto process
		}
	}
}

func (m *RunQueue) run() {
	for {
		fn := m.pop()
		if fn == nil {
			return
		}
		m.exec(fn)
		atomic.AddInt32(&m.messageCount, -1)
	}
}

func (m *RunQueue) exec(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("run queue %s panicked with error: %v", m.name, err)
		}
	}()
	fn()
}
