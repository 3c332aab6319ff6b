package runner

import (
	"encoding/json"
	"io"
	"sync"

	"taskmill/internal/core"
)

// ResultChannel is the one-directional, process-safe channel carrying
// outcome records from a task process to its owning worker. A channel is
// single-use: a given execution attempt puts at most one record.
type ResultChannel interface {
	Put(out Outcome) error
}

// MemoryChannel is an in-process ResultChannel backed by a buffered Go
// channel. It additionally records every put, which lets tests assert the
// exactly-once emission property.
type MemoryChannel struct {
	mu   sync.Mutex
	puts []Outcome
	ch   chan Outcome
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{ch: make(chan Outcome, 1)}
}

func (c *MemoryChannel) Put(out Outcome) error {
	c.mu.Lock()
	c.puts = append(c.puts, out)
	c.mu.Unlock()
	c.ch <- out
	return nil
}

// Receive returns the channel outcomes are delivered on.
func (c *MemoryChannel) Receive() <-chan Outcome { return c.ch }

// Puts returns a copy of every recorded put, in order.
func (c *MemoryChannel) Puts() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]Outcome, len(c.puts))
	copy(cp, c.puts)
	return cp
}

// PipeChannel writes outcome records as JSON to the write end of the
// outcome pipe inside a spawned task process. A write failure propagates
// to the worker through the process exit status, never silently.
type PipeChannel struct {
	mu  sync.Mutex
	enc *json.Encoder
	w   io.Writer
}

func NewPipeChannel(w io.Writer) *PipeChannel {
	return &PipeChannel{enc: json.NewEncoder(w), w: w}
}

func (c *PipeChannel) Put(out Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(out); err != nil {
		return &core.TaskError{Kind: core.KindChannel, Msg: "writing outcome record", Err: err}
	}
	return nil
}
