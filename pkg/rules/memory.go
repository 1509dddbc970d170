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

package rules

import (
	"context"
	"sync"
)

// 🧠 MemoryPersister keeps rules in memory; LoadErr and SaveErr inject failures
type MemoryPersister struct {
	mu      sync.Mutex
	rules   []Rule
	saves   int
	LoadErr error
	SaveErr error
}

// 🏭 NewMemoryPersister creates a persister seeded with rules
func NewMemoryPersister(rules ...Rule) *MemoryPersister {
	return &MemoryPersister{rules: cloneAll(rules)}
}

// Load returns a copy of the stored rules
func (m *MemoryPersister) Load(_ context.Context) ([]Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return cloneAll(m.rules), nil
}

// Save replaces the stored rules with a copy of rules
func (m *MemoryPersister) Save(_ context.Context, rules []Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.rules = cloneAll(rules)
	m.saves++
	return nil
}

// Saves reports how many successful saves happened
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Rules returns a copy of what was last saved
func (m *MemoryPersister) Rules() []Rule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.rules)
}
