// Copyright 2024 The RecLab Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dataset holds the rating data structures consumed by recommenders:
// user and item registries, an insertion-ordered rating table and the ratio
// splitter used to carve out validation sets.
package dataset

import (
	"github.com/juju/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/lematt1991/reclab/base"
)

// Key identifies a single rating observation. User and item identifiers are
// dense: they form a contiguous zero-based range sized by the registries.
type Key struct {
	User int
	Item int
}

// Rating is an observed rating value plus its context. The context carries
// auxiliary side information (e.g. a timestamp) that models are free to
// ignore.
type Rating struct {
	Value   float64
	Context []float64
}

// Table is a mapping from (user, item) pairs to ratings that preserves
// insertion order. Ordered iteration is what makes deterministic splits
// possible.
type Table struct {
	entries *orderedmap.OrderedMap[Key, Rating]
}

// NewTable creates an empty rating table.
func NewTable() *Table {
	return &Table{entries: orderedmap.New[Key, Rating]()}
}

// Add inserts or overwrites a rating.
func (t *Table) Add(key Key, rating Rating) {
	t.entries.Set(key, rating)
}

// Get returns the rating for a (user, item) pair.
func (t *Table) Get(key Key) (Rating, bool) {
	return t.entries.Get(key)
}

// Len returns the number of ratings.
func (t *Table) Len() int {
	return t.entries.Len()
}

// Keys returns all keys in insertion order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, t.entries.Len())
	for pair := t.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// ForEach iterates ratings in insertion order.
func (t *Table) ForEach(f func(key Key, rating Rating)) {
	for pair := t.entries.Oldest(); pair != nil; pair = pair.Next() {
		f(pair.Key, pair.Value)
	}
}

// Split partitions a rating table into two tables. The first receives
// floor(proportion * len) ratings. Relative insertion order is preserved in
// both halves unless shuffle is requested, in which case the ratings are
// permuted by a generator seeded with seed before the cut.
func Split(t *Table, proportion float64, shuffle bool, seed int64) (*Table, *Table) {
	keys := t.Keys()
	if shuffle {
		rng := base.NewRandomGenerator(seed)
		rng.Shuffle(len(keys), func(i, j int) {
			keys[i], keys[j] = keys[j], keys[i]
		})
	}
	cut := int(proportion * float64(len(keys)))
	first, second := NewTable(), NewTable()
	for i, key := range keys {
		rating, _ := t.Get(key)
		if i < cut {
			first.Add(key, rating)
		} else {
			second.Add(key, rating)
		}
	}
	return first, second
}

// Dataset bundles the user and item registries with the observed ratings.
// Registries map dense identifiers to feature vectors; recommenders that do
// not consume features only rely on the registry cardinality.
type Dataset struct {
	Users   map[int][]float64
	Items   map[int][]float64
	Ratings *Table
}

// NewDataset creates a dataset from registries and a rating table.
func NewDataset(users, items map[int][]float64, ratings *Table) *Dataset {
	return &Dataset{Users: users, Items: items, Ratings: ratings}
}

// CountUsers returns the number of known users.
func (d *Dataset) CountUsers() int {
	return len(d.Users)
}

// CountItems returns the number of known items.
func (d *Dataset) CountItems() int {
	return len(d.Items)
}

// CountRatings returns the number of observed ratings.
func (d *Dataset) CountRatings() int {
	if d.Ratings == nil {
		return 0
	}
	return d.Ratings.Len()
}

// Validate checks the caller contract: registry identifiers must form
// contiguous zero-based ranges and every rating must reference registered
// identifiers.
func (d *Dataset) Validate() error {
	for id := range d.Users {
		if id < 0 || id >= len(d.Users) {
			return errors.Errorf("user id %d outside contiguous range [0, %d)", id, len(d.Users))
		}
	}
	for id := range d.Items {
		if id < 0 || id >= len(d.Items) {
			return errors.Errorf("item id %d outside contiguous range [0, %d)", id, len(d.Items))
		}
	}
	var err error
	if d.Ratings != nil {
		d.Ratings.ForEach(func(key Key, _ Rating) {
			if err != nil {
				return
			}
			if key.User < 0 || key.User >= len(d.Users) {
				err = errors.Errorf("rating references unknown user %d", key.User)
			} else if key.Item < 0 || key.Item >= len(d.Items) {
				err = errors.Errorf("rating references unknown item %d", key.Item)
			}
		})
	}
	return err
}
