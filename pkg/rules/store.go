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
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 Persister loads and saves the full ordered rule collection
type Persister interface {
	Load(ctx context.Context) ([]Rule, error)
	Save(ctx context.Context, rules []Rule) error
}

// 📚 Store is the ordered, persisted rule collection.
//
// Reads run concurrently, writes are exclusive and persist before the lock is
// released. The backing storage is read once on first access.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	rules     []Rule
	loadOnce  sync.Once
}

// 🏭 NewStore creates a store backed by p
func NewStore(p Persister) *Store {
	return &Store{persister: p}
}

func (s *Store) ensureLoaded(ctx context.Context) {
	s.loadOnce.Do(func() {
		logger := zerolog.Ctx(ctx)

		loaded, err := s.persister.Load(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("loading rules failed, starting with an empty rule set")
			loaded = nil
		}

		s.mu.Lock()
		s.rules = cloneAll(loaded)
		s.mu.Unlock()

		logger.Debug().Int("count", len(loaded)).Msg("rules loaded")
	})
}

// GetAll returns a copy of every rule in evaluation order
func (s *Store) GetAll(ctx context.Context) []Rule {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.rules)
}

// Get returns a copy of the rule with the given name, compared case-insensitively
func (s *Store) Get(ctx context.Context, name string) (Rule, bool) {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(name); i >= 0 {
		return s.rules[i].Clone(), true
	}
	return Rule{}, false
}

// 👀 WithReadLock runs fn against the live rule slice under the read lock.
// fn must not modify the slice or keep it after returning.
func (s *Store) WithReadLock(ctx context.Context, fn func(rules []Rule)) {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.rules)
}

// 💾 Save validates rule and inserts it, or replaces the rule with the same name
func (s *Store) Save(ctx context.Context, rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(rule.Name); i >= 0 {
		s.rules[i] = rule.Clone()
	} else {
		s.rules = append(s.rules, rule.Clone())
	}

	return s.persist(ctx, "saving rule "+rule.Name)
}

// 🗑️ Delete removes the rule with the given name
func (s *Store) Delete(ctx context.Context, name string) error {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return errors.Errorf("%w: %s", ErrNotFound, name)
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)

	return s.persist(ctx, "deleting rule "+name)
}

// 🔀 Reorder puts the stored rules in the order of ordered, which must name
// every stored rule exactly once.
func (s *Store) Reorder(ctx context.Context, ordered []Rule) error {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ordered) != len(s.rules) {
		return errors.Errorf("%w: got %d rules, have %d", ErrReorderMismatch, len(ordered), len(s.rules))
	}

	next := make([]Rule, 0, len(ordered))
	seen := make(map[int]bool, len(ordered))
	for _, r := range ordered {
		i := s.indexOf(r.Name)
		if i < 0 {
			return errors.Errorf("%w: unknown rule %q", ErrReorderMismatch, r.Name)
		}
		if seen[i] {
			return errors.Errorf("%w: duplicate rule %q", ErrReorderMismatch, r.Name)
		}
		seen[i] = true
		next = append(next, s.rules[i])
	}
	s.rules = next

	return s.persist(ctx, "reordering rules")
}

// 🔃 Move relocates the named rule to index, shifting the others
func (s *Store) Move(ctx context.Context, name string, index int) error {
	all := s.GetAll(ctx)

	from := -1
	for i, r := range all {
		if strings.EqualFold(r.Name, name) {
			from = i
			break
		}
	}
	if from < 0 {
		return errors.Errorf("%w: %s", ErrNotFound, name)
	}
	if index < 0 {
		index = 0
	}
	if index >= len(all) {
		index = len(all) - 1
	}

	moved := all[from]
	all = append(all[:from], all[from+1:]...)
	all = append(all[:index], append([]Rule{moved}, all[index:]...)...)

	return s.Reorder(ctx, all)
}

// persist must be called with the write lock held. On failure the in-memory
// change is kept.
func (s *Store) persist(ctx context.Context, what string) error {
	if err := s.persister.Save(ctx, cloneAll(s.rules)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("operation", what).Msg("persisting rules failed")
		return errors.Errorf("persisting rules after %s: %w", what, err)
	}
	return nil
}

func (s *Store) indexOf(name string) int {
	for i, r := range s.rules {
		if strings.EqualFold(r.Name, name) {
			return i
		}
	}
	return -1
}

func cloneAll(in []Rule) []Rule {
	out := make([]Rule, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
