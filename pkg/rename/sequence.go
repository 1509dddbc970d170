// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rename

import "sync"

// 🔢 Sequence hands out counter values for {counter} tokens
type Sequence interface {
	// Next returns the next value; values strictly increase
	Next() int64
}

// 🔢 Counter is a mutex-guarded Sequence starting at 1
type Counter struct {
	mu   sync.Mutex
	last int64
}

// DefaultSequence is shared by every Processor built without WithSequence.
var DefaultSequence = NewCounter()

// 🏭 NewCounter creates a counter whose first value is 1
func NewCounter() *Counter {
	return &Counter{}
}

// Next implements Sequence
func (c *Counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Reset rewinds the counter so the next value is 1 again
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = 0
}

// Current returns the last value handed out, 0 if none
func (c *Counter) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
