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

package base

import (
	"math"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

const randomEpsilon = 0.1

func TestRandomGenerator_NormalVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.NormalVector(1000, 1, 2)
	assert.False(t, math.Abs(stat.Mean(vec, nil)-1) > randomEpsilon)
	assert.False(t, math.Abs(stat.StdDev(vec, nil)-2) > randomEpsilon)
}

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.UniformVector(1000, 1, 2)
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, 1.0)
		assert.Less(t, v, 2.0)
	}
}

func TestRandomGenerator_Deterministic(t *testing.T) {
	a := NewRandomGenerator(42).Perm(100)
	b := NewRandomGenerator(42).Perm(100)
	assert.Equal(t, a, b)
}

func TestRandomGenerator_Sample(t *testing.T) {
	excludeSet := mapset.NewSet(0, 1, 2, 3, 4)
	rng := NewRandomGenerator(0)
	for i := 1; i <= 10; i++ {
		sampled := rng.Sample(0, 10, i, excludeSet)
		if i <= 5 {
			assert.Len(t, sampled, i)
		} else {
			assert.Len(t, sampled, 5)
		}
		for _, v := range sampled {
			assert.False(t, excludeSet.Contains(v))
		}
	}
}
