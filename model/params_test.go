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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	p := Params{
		Alpha:       1.5,
		MaxIter:     200,
		Positive:    true,
		RandomState: 7,
	}
	assert.Equal(t, 1.5, p.GetFloat64(Alpha, 0))
	assert.Equal(t, 200, p.GetInt(MaxIter, 0))
	assert.Equal(t, int64(7), p.GetInt64(RandomState, 0))
	assert.True(t, p.GetBool(Positive, false))
	// defaults
	assert.Equal(t, 0.1, p.GetFloat64(L1Ratio, 0.1))
	assert.Equal(t, 1e-4, p.GetFloat64(Tol, 1e-4))
	// type mismatch falls back to the default
	assert.Equal(t, 3, Params{MaxIter: "many"}.GetInt(MaxIter, 3))
}

func TestParams_Copy(t *testing.T) {
	p := Params{Alpha: 1.0}
	q := p.Copy()
	q[Alpha] = 2.0
	assert.Equal(t, 1.0, p.GetFloat64(Alpha, 0))
	assert.Equal(t, 2.0, q.GetFloat64(Alpha, 0))
}

func TestParams_Overwrite(t *testing.T) {
	p := Params{Alpha: 1.0, MaxIter: 100}
	merged := p.Overwrite(Params{Alpha: 0.5})
	assert.Equal(t, 0.5, merged.GetFloat64(Alpha, 0))
	assert.Equal(t, 100, merged.GetInt(MaxIter, 0))
}
