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

package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_NewBenchmarkClaimsIdentity(t *testing.T) {
	c := New()
	c.NewBenchmark("a", "ns1")

	name, ns := c.Selected()
	assert.Equal(t, "a", name)
	assert.Equal(t, "ns1", ns)
	assert.False(t, c.IsRunning())
}

func TestCell_SetRunningAndDone(t *testing.T) {
	c := New()
	c.NewBenchmark("a", "ns1")
	c.SetRunning(true)
	assert.True(t, c.IsRunning())

	c.SetDone(true)
	snap := c.Snapshot()
	assert.True(t, snap.IsBenchmarkRunning)
	assert.True(t, snap.IsBenchmarkDone)
}

func TestCell_ClearStateResetsIdentity(t *testing.T) {
	c := New()
	c.NewBenchmark("a", "ns1")
	c.SetRunning(true)
	c.ClearState()

	name, ns := c.Selected()
	assert.Empty(t, name)
	assert.Empty(t, ns)
	assert.False(t, c.IsRunning())
}

func TestCell_WithExclusive_NoSelectionReturnsError(t *testing.T) {
	c := New()
	err := c.WithExclusive(TransitionRunning, func(string, string) error {
		t.Fatal("fn must not be called when no benchmark is selected")
		return nil
	})
	assert.ErrorIs(t, err, ErrNoBenchmarkSelected)
}

func TestCell_WithExclusive_FlipsFlagAfterCallbackSucceeds(t *testing.T) {
	c := New()
	c.NewBenchmark("a", "ns1")

	var gotName, gotNS string
	err := c.WithExclusive(TransitionRunning, func(name, ns string) error {
		gotName, gotNS = name, ns
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a", gotName)
	assert.Equal(t, "ns1", gotNS)
	assert.True(t, c.IsRunning())
}

func TestCell_WithExclusive_CallbackErrorLeavesFlagUnset(t *testing.T) {
	c := New()
	c.NewBenchmark("a", "ns1")
	boom := errors.New("boom")

	err := c.WithExclusive(TransitionDone, func(string, string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Snapshot().IsBenchmarkDone)
}

func TestCell_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.SetRunning(true)
		}()
		go func() {
			defer wg.Done()
			_ = c.Snapshot()
		}()
	}
	wg.Wait()
}
