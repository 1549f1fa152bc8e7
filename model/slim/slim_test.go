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

package slim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lematt1991/reclab/dataset"
	"github.com/lematt1991/reclab/model"
)

func registries(n int) map[int][]float64 {
	m := make(map[int][]float64, n)
	for i := 0; i < n; i++ {
		m[i] = []float64{}
	}
	return m
}

// newSparseDataset is the 3 users x 3 items scenario:
// ratings = {(0,0):5, (1,1):4, (2,2):3, (0,1):2}.
func newSparseDataset() *dataset.Dataset {
	ratings := dataset.NewTable()
	ratings.Add(dataset.Key{User: 0, Item: 0}, dataset.Rating{Value: 5})
	ratings.Add(dataset.Key{User: 1, Item: 1}, dataset.Rating{Value: 4})
	ratings.Add(dataset.Key{User: 2, Item: 2}, dataset.Rating{Value: 3})
	ratings.Add(dataset.Key{User: 0, Item: 1}, dataset.Rating{Value: 2})
	return dataset.NewDataset(registries(3), registries(3), ratings)
}

// newCorrelatedDataset rates items 0 and 1 identically for every user while
// item 2 is unrelated.
func newCorrelatedDataset() *dataset.Dataset {
	ratings := dataset.NewTable()
	values := []float64{5, 3, 4, 2, 5, 1}
	for user, value := range values {
		ratings.Add(dataset.Key{User: user, Item: 0}, dataset.Rating{Value: value})
		ratings.Add(dataset.Key{User: user, Item: 1}, dataset.Rating{Value: value})
		ratings.Add(dataset.Key{User: user, Item: 2}, dataset.Rating{Value: float64(user%2 + 1)})
	}
	return dataset.NewDataset(registries(6), registries(3), ratings)
}

func TestSLIM_ZeroDiagonal(t *testing.T) {
	s := New(model.Params{})
	require.NoError(t, s.Fit(context.Background(), newSparseDataset(), nil))
	w := s.Weights()
	for i := 0; i < 3; i++ {
		assert.Zero(t, w.At(i, i))
	}
}

func TestSLIM_RatingMatrixUnchanged(t *testing.T) {
	s := New(model.Params{model.Alpha: 0.01})
	require.NoError(t, s.Fit(context.Background(), newSparseDataset(), nil))
	assert.Equal(t, []float64{5, 0, 0}, s.columns.ColDense(0))
	assert.Equal(t, []float64{2, 4, 0}, s.columns.ColDense(1))
	assert.Equal(t, []float64{0, 0, 3}, s.columns.ColDense(2))
}

func TestSLIM_PredictSparsePair(t *testing.T) {
	s := New(model.Params{})
	require.NoError(t, s.Fit(context.Background(), newSparseDataset(), nil))
	// item 2 has a single training example, yet prediction must be finite
	prediction, err := s.PredictSingle(0, 2)
	assert.NoError(t, err)
	assert.False(t, math.IsNaN(prediction))
	assert.False(t, math.IsInf(prediction, 0))
}

func TestSLIM_CorrelatedItems(t *testing.T) {
	s := New(model.Params{model.Alpha: 0.01})
	require.NoError(t, s.Fit(context.Background(), newCorrelatedDataset(), nil))
	// items 0 and 1 are rated identically, so each should predict the other
	assert.Greater(t, s.Weights().At(0, 1), 0.5)
	assert.Greater(t, s.Weights().At(1, 0), 0.5)
	// and predictions for them should track the observed ratings
	prediction, err := s.PredictSingle(0, 1)
	assert.NoError(t, err)
	assert.InDelta(t, 5, prediction, 1)
}

func TestSLIM_UnratedItem(t *testing.T) {
	// item 2 has no rating at all: its regression target is all-zero
	ratings := dataset.NewTable()
	ratings.Add(dataset.Key{User: 0, Item: 0}, dataset.Rating{Value: 5})
	ratings.Add(dataset.Key{User: 1, Item: 1}, dataset.Rating{Value: 4})
	data := dataset.NewDataset(registries(2), registries(3), ratings)

	s := New(model.Params{})
	require.NoError(t, s.Fit(context.Background(), data, nil))
	for j := 0; j < 3; j++ {
		assert.Zero(t, s.Weights().At(j, 2))
	}
	assert.False(t, s.IsItemRated(2))
	assert.True(t, s.IsItemRated(0))
	prediction, err := s.PredictSingle(0, 2)
	assert.NoError(t, err)
	assert.Zero(t, prediction)
}

func TestSLIM_Idempotent(t *testing.T) {
	params := model.Params{model.Alpha: 0.01, model.RandomState: 42}
	data := newCorrelatedDataset()
	a := New(params)
	require.NoError(t, a.Fit(context.Background(), data, nil))
	b := New(params)
	require.NoError(t, b.Fit(context.Background(), data, nil))
	assert.Equal(t, a.Weights(), b.Weights())
}

func TestSLIM_Parallel(t *testing.T) {
	data := newCorrelatedDataset()
	sequential := New(model.Params{model.Alpha: 0.01})
	require.NoError(t, sequential.Fit(context.Background(), data, nil))
	parallel := New(model.Params{model.Alpha: 0.01})
	require.NoError(t, parallel.Fit(context.Background(), data, model.NewFitConfig().SetJobs(2)))
	assert.Equal(t, sequential.Weights(), parallel.Weights())
}

func TestSLIM_PredictOrder(t *testing.T) {
	s := New(model.Params{model.Alpha: 0.01})
	require.NoError(t, s.Fit(context.Background(), newCorrelatedDataset(), nil))
	pairs := []dataset.Key{{User: 3, Item: 2}, {User: 0, Item: 1}, {User: 0, Item: 0}, {User: 3, Item: 1}}
	predictions, err := s.Predict(pairs)
	require.NoError(t, err)
	require.Len(t, predictions, len(pairs))
	single, err := s.PredictSingle(0, 1)
	require.NoError(t, err)
	assert.Equal(t, single, predictions[1])
	single, err = s.PredictSingle(3, 1)
	require.NoError(t, err)
	assert.Equal(t, single, predictions[3])
}

func TestSLIM_PredictBeforeFit(t *testing.T) {
	s := New(model.Params{})
	_, err := s.Predict([]dataset.Key{{User: 0, Item: 0}})
	assert.Error(t, err)
}

func TestSLIM_PredictUnknownIndex(t *testing.T) {
	s := New(model.Params{})
	require.NoError(t, s.Fit(context.Background(), newSparseDataset(), nil))
	_, err := s.Predict([]dataset.Key{{User: 3, Item: 0}})
	assert.Error(t, err)
	_, err = s.Predict([]dataset.Key{{User: 0, Item: -1}})
	assert.Error(t, err)
}

func TestSLIM_InvalidDataset(t *testing.T) {
	ratings := dataset.NewTable()
	ratings.Add(dataset.Key{User: 5, Item: 0}, dataset.Rating{Value: 1})
	data := dataset.NewDataset(registries(1), registries(1), ratings)
	s := New(model.Params{})
	assert.Error(t, s.Fit(context.Background(), data, nil))
}

func TestSLIM_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(model.Params{})
	assert.Error(t, s.Fit(ctx, newSparseDataset(), nil))
	assert.True(t, s.Invalid())
}

func TestSLIM_Clear(t *testing.T) {
	s := New(model.Params{})
	require.NoError(t, s.Fit(context.Background(), newSparseDataset(), nil))
	assert.False(t, s.Invalid())
	s.Clear()
	assert.True(t, s.Invalid())
}
