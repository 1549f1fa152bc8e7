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
	"math"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/lematt1991/reclab/dataset"
)

// Predictor answers rating queries for batches of (user, item) pairs.
type Predictor interface {
	// Predict returns one predicted rating per requested pair, in request order.
	Predict(pairs []dataset.Key) ([]float64, error)
}

// RMSE evaluates a predictor on a rating table with root mean square error.
func RMSE(predictor Predictor, test *dataset.Table) (float64, error) {
	truths, predictions, err := evaluate(predictor, test)
	if err != nil {
		return 0, errors.Trace(err)
	}
	squares := make([]float64, len(truths))
	for i := range truths {
		diff := predictions[i] - truths[i]
		squares[i] = diff * diff
	}
	return math.Sqrt(stat.Mean(squares, nil)), nil
}

// MAE evaluates a predictor on a rating table with mean absolute error.
func MAE(predictor Predictor, test *dataset.Table) (float64, error) {
	truths, predictions, err := evaluate(predictor, test)
	if err != nil {
		return 0, errors.Trace(err)
	}
	absolutes := make([]float64, len(truths))
	for i := range truths {
		absolutes[i] = math.Abs(predictions[i] - truths[i])
	}
	return stat.Mean(absolutes, nil), nil
}

func evaluate(predictor Predictor, test *dataset.Table) (truths, predictions []float64, err error) {
	if test.Len() == 0 {
		return nil, nil, errors.New("cannot evaluate on an empty rating table")
	}
	keys := test.Keys()
	truths = lo.Map(keys, func(key dataset.Key, _ int) float64 {
		rating, _ := test.Get(key)
		return rating.Value
	})
	predictions, err = predictor.Predict(keys)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return truths, predictions, nil
}
