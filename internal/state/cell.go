/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package state holds the single process-wide mutable record shared by the
// reconciler, the coordination RPC endpoint, and the status HTTP surface.
package state

import (
	"errors"
	"sync"
	"time"
)

// ErrNoBenchmarkSelected is returned by WithExclusive when no benchmark is
// currently selected in the cell.
var ErrNoBenchmarkSelected = errors.New("state: no benchmark currently selected")

// Transition names which lifecycle flag WithExclusive flips after its
// callback succeeds.
type Transition int

const (
	// TransitionRunning flips IsBenchmarkRunning.
	TransitionRunning Transition = iota
	// TransitionDone flips IsBenchmarkDone.
	TransitionDone
)

// Data is the snapshot of the Cell at a point in time. It is safe to copy
// and is the shape serialized by the status HTTP endpoint.
type Data struct {
	LastEventTime      time.Time `json:"lastEventTime"`
	BenchmarkName      string    `json:"benchmarkName"`
	Namespace          string    `json:"namespace"`
	IsBenchmarkRunning bool      `json:"isBenchmarkRunning"`
	IsBenchmarkDone    bool      `json:"isBenchmarkDone"`
}

// Cell is the process-wide shared mutable record described in spec §4.1.
// Readers (the reconciler's admission check) may hold concurrent shared
// access; writers (admission, the started/done RPCs, cleanup) take
// exclusive access so every mutation is atomic with respect to the other
// observable fields.
//
// There is no locking across processes: the cell only serializes access
// within a single orchestrator replica, which is the documented
// single-replica assumption of this design.
type Cell struct {
	mu   sync.RWMutex
	data Data
}

// New returns a Cell with no benchmark selected.
func New() *Cell {
	return &Cell{data: Data{LastEventTime: time.Now()}}
}

// Snapshot returns a copy of the current state under a shared lock.
func (c *Cell) Snapshot() Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// IsRunning reports whether a benchmark is currently selected as running.
func (c *Cell) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.IsBenchmarkRunning
}

// NewBenchmark claims the cell for (name, namespace), clearing both
// lifecycle flags. This is the admission claim described in spec §4.5: the
// moment after which no other Pending record can be admitted.
func (c *Cell) NewBenchmark(name, namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.LastEventTime = time.Now()
	c.data.BenchmarkName = name
	c.data.Namespace = namespace
	c.data.IsBenchmarkRunning = false
	c.data.IsBenchmarkDone = false
}

// ClearState resets the cell to its zero identity; equivalent to
// NewBenchmark("", "").
func (c *Cell) ClearState() {
	c.NewBenchmark("", "")
}

// SetRunning flips the running flag and stamps LastEventTime.
func (c *Cell) SetRunning(running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.LastEventTime = time.Now()
	c.data.IsBenchmarkRunning = running
}

// SetDone flips the done flag and stamps LastEventTime.
func (c *Cell) SetDone(done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.LastEventTime = time.Now()
	c.data.IsBenchmarkDone = done
}

// Selected returns the identity of the currently selected benchmark, i.e.
// the one whose workloads were launched most recently.
func (c *Cell) Selected() (name, namespace string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.BenchmarkName, c.data.Namespace
}

// WithExclusive holds one exclusive lock across reading the currently
// selected identity, running fn (the caller's declarative-store mutation),
// and flipping transition's flag. This mirrors the original's discipline of
// holding state_data.write().await across the entire RPC handler body: a
// concurrent NewBenchmark admission claim cannot reassign the cell's
// identity in between fn's K8s write and the flag flip, because both
// happen under the same critical section. Returns ErrNoBenchmarkSelected if
// no benchmark is currently selected; fn is not called in that case.
func (c *Cell) WithExclusive(transition Transition, fn func(name, namespace string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, namespace := c.data.BenchmarkName, c.data.Namespace
	if name == "" {
		return ErrNoBenchmarkSelected
	}

	if err := fn(name, namespace); err != nil {
		return err
	}

	c.data.LastEventTime = time.Now()
	switch transition {
	case TransitionRunning:
		c.data.IsBenchmarkRunning = true
	case TransitionDone:
		c.data.IsBenchmarkDone = true
	}
	return nil
}
