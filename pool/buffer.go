/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pool

import (
	"bytes"
	"sync"
)

// maxRetainedCapacity bounds the size of buffers returned to the pool,
// so a single huge stanza doesn't pin its memory forever.
const maxRetainedCapacity = 64 * 1024

// BufferPool represents a pool of reusable byte buffers.
type BufferPool struct {
	p sync.Pool
}

// NewBufferPool returns a new buffer pool instance.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		p: sync.Pool{New: func() interface{} { return new(bytes.Buffer) }},
	}
}

// Get returns an empty buffer from the pool.
func (bp *BufferPool) Get() *bytes.Buffer {
	return bp.p.Get().(*bytes.Buffer)
}

// Put resets buf and gives it back to the pool.
// Buffers that grew beyond the retention limit are dropped.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > maxRetainedCapacity {
		return
	}
	buf.Reset()
	bp.p.Put(buf)
}

// String renders fn output into a pooled buffer and returns it as a string.
func (bp *BufferPool) String(fn func(buf *bytes.Buffer)) string {
	buf := bp.Get()
	defer bp.Put(buf)

	fn(buf)
	return buf.String()
}
