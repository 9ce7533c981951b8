/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for timer callback")
	}
}

func TestDebouncer_FiresOnceAfterQuietPeriod(t *testing.T) {
	clk := clockwork.NewFakeClock()
	fired := make(chan struct{}, 4)
	var n atomic.Int32
	d := NewDebouncer(clk, 200*time.Millisecond, func() { n.Add(1); fired <- struct{}{} })

	d.Trigger()
	clk.Advance(150 * time.Millisecond)
	d.Trigger()
	clk.Advance(150 * time.Millisecond)
	if !d.Pending() {
		t.Fatalf("expected pending run after retrigger")
	}
	clk.Advance(60 * time.Millisecond)
	waitFor(t, fired)
	if d.Pending() {
		t.Fatalf("expected nothing pending after fire")
	}
	if got := n.Load(); got != 1 {
		t.Fatalf("expected one run, got %d", got)
	}
}

func TestDebouncer_StopAndFlush(t *testing.T) {
	clk := clockwork.NewFakeClock()
	n := 0
	d := NewDebouncer(clk, time.Second, func() { n++ })
	if d.Stop() {
		t.Fatalf("nothing pending yet")
	}
	d.Trigger()
	if !d.Stop() {
		t.Fatalf("expected pending run to be stopped")
	}
	d.Trigger()
	if !d.Flush() || n != 1 {
		t.Fatalf("flush should run synchronously (n=%d)", n)
	}
	if d.Flush() {
		t.Fatalf("second flush has nothing to run")
	}
}

func TestClickDiscriminator_SingleAfterWindow(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := NewClickDiscriminator(clk, 0)
	fired := make(chan struct{}, 1)
	if c.Click(func() { fired <- struct{}{} }) {
		t.Fatalf("first click cannot be a double click")
	}
	clk.Advance(DoubleClickWindow)
	waitFor(t, fired)
}

func TestClickDiscriminator_DoubleDropsSingle(t *testing.T) {
	clk := clockwork.NewFakeClock()
	c := NewClickDiscriminator(clk, 200*time.Millisecond)
	singles := 0
	c.Click(func() { singles++ })
	clk.Advance(100 * time.Millisecond)
	if !c.Click(func() { singles++ }) {
		t.Fatalf("expected double click")
	}
	if c.Flush() {
		t.Fatalf("nothing should remain pending after a double click")
	}
	if singles != 0 {
		t.Fatalf("single callback ran %d times", singles)
	}
	c.Click(nil)
	if !c.Click(nil) {
		t.Fatalf("nil callbacks still pair into a double click")
	}
}
