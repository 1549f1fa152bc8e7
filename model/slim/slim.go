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
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/lematt1991/reclab/base"
	"github.com/lematt1991/reclab/base/log"
	"github.com/lematt1991/reclab/common/linear"
	"github.com/lematt1991/reclab/dataset"
	"github.com/lematt1991/reclab/model"
)

// SLIM is the Sparse Linear Method recommendation model. It learns a sparse
// item-item weight matrix W by fitting, for every item, an elastic net
// regression of that item's rating column against all other items' columns.
// The predicted rating of user u for item i is the (u, i) entry of R*W where
// R is the rating matrix.
//
// See http://glaros.dtc.umn.edu/gkhome/node/774 for details.
//
// Hyper-parameters:
//
//	Alpha    - The strength of the elastic net regularization. Default is 1.
//	L1Ratio  - The mix between the L1 and the L2 penalty. Default is 0.1.
//	Positive - Restrict weights to be non-negative. Default is true.
//	MaxIter  - The maximum number of solver iterations. Default is 100.
//	Tol      - The solver convergence tolerance. Default is 1e-4.
type SLIM struct {
	model.BaseModel
	// Hyper parameters
	alpha    float64
	l1Ratio  float64
	positive bool
	maxIter  int
	tol      float64
	seed     int64
	// Fitted state, replaced wholesale by every Fit call
	numUsers   int
	numItems   int
	ratedUsers *bitset.BitSet
	ratedItems *bitset.BitSet
	columns    *base.CSCMatrix // rating matrix R, column view
	rows       *base.CSRMatrix // rating matrix R, row view
	weights    *base.CSRMatrix // item-item weight matrix W, row view
}

// New creates a SLIM model.
func New(params model.Params) *SLIM {
	s := new(SLIM)
	s.SetParams(params)
	return s
}

// SetParams sets hyper-parameters of the SLIM model.
func (s *SLIM) SetParams(params model.Params) {
	s.BaseModel.SetParams(params)
	// Setup hyper-parameters
	s.alpha = s.Params.GetFloat64(model.Alpha, 1)
	s.l1Ratio = s.Params.GetFloat64(model.L1Ratio, 0.1)
	s.positive = s.Params.GetBool(model.Positive, true)
	s.maxIter = s.Params.GetInt(model.MaxIter, 100)
	s.tol = s.Params.GetFloat64(model.Tol, 1e-4)
	s.seed = s.Params.GetInt64(model.RandomState, 0)
}

// Clear drops the fitted state.
func (s *SLIM) Clear() {
	s.numUsers = 0
	s.numItems = 0
	s.ratedUsers = nil
	s.ratedItems = nil
	s.columns = nil
	s.rows = nil
	s.weights = nil
}

// Invalid reports whether the model has not been fitted yet.
func (s *SLIM) Invalid() bool {
	return s == nil || s.rows == nil || s.weights == nil
}

// Fit the SLIM model. The rating matrix is rebuilt from data, then one
// elastic net regression runs per item: the item's column is the target and
// is temporarily cleared from the predictors so that no item predicts itself.
// The assembled weight matrix replaces the previous one only after the loop
// over all items has completed.
//
// With config.Jobs > 1 the per-item regressions run concurrently; each worker
// owns a private copy of the rating matrix instead of sharing the clear and
// restore mutation.
func (s *SLIM) Fit(ctx context.Context, data *dataset.Dataset, config *model.FitConfig) error {
	if config == nil {
		config = model.NewFitConfig()
	}
	if err := data.Validate(); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit slim",
		zap.Int("train_set_size", data.CountRatings()),
		zap.Int("users", data.CountUsers()),
		zap.Int("items", data.CountItems()),
		zap.Any("params", s.GetParams()),
		zap.Any("config", config))
	numUsers, numItems := data.CountUsers(), data.CountItems()
	// Build the rating matrix
	triples := make([]base.Triple, 0, data.CountRatings())
	ratedUsers := bitset.New(uint(numUsers))
	ratedItems := bitset.New(uint(numItems))
	data.Ratings.ForEach(func(key dataset.Key, rating dataset.Rating) {
		triples = append(triples, base.Triple{Row: key.User, Col: key.Item, Value: rating.Value})
		ratedUsers.Set(uint(key.User))
		ratedItems.Set(uint(key.Item))
	})
	columns := base.NewCSCMatrix(numUsers, numItems, triples)
	rows := base.NewCSRMatrix(numUsers, numItems, triples)
	// One leave-one-out regression per item
	fitStart := time.Now()
	coefficients := make([]*base.SparseVector, numItems)
	if config.Jobs <= 1 {
		for itemIndex := 0; itemIndex < numItems; itemIndex++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			coefficients[itemIndex] = s.fitColumn(columns, itemIndex)
			if (itemIndex+1)%config.Verbose == 0 {
				log.Logger().Debug(fmt.Sprintf("fit slim %v/%v", itemIndex+1, numItems),
					zap.String("fit_time", time.Since(fitStart).String()))
			}
		}
	} else {
		workerColumns := make([]*base.CSCMatrix, config.Jobs)
		for workerId := range workerColumns {
			workerColumns[workerId] = columns.Clone()
		}
		err := base.Parallel(numItems, config.Jobs, func(workerId, itemIndex int) error {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			coefficients[itemIndex] = s.fitColumn(workerColumns[workerId], itemIndex)
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
	}
	// Assemble the weight matrix: column i of W is the coefficient vector of
	// item i's regression.
	weightTriples := make([]base.Triple, 0)
	for itemIndex, c := range coefficients {
		c.ForEach(func(_, index int, value float64) {
			weightTriples = append(weightTriples, base.Triple{Row: index, Col: itemIndex, Value: value})
		})
	}
	weights := base.NewCSRMatrix(numItems, numItems, weightTriples)
	// Expose the fitted state only after the full loop completed
	s.numUsers = numUsers
	s.numItems = numItems
	s.ratedUsers = ratedUsers
	s.ratedItems = ratedItems
	s.columns = columns
	s.rows = rows
	s.weights = weights
	log.Logger().Info("fit slim complete",
		zap.Int("weights", weights.NNZ()),
		zap.String("fit_time", time.Since(fitStart).String()))
	return nil
}

// fitColumn fits the coefficient vector of a single item. The item's rating
// column is cleared for the duration of the solver call and restored on every
// exit path.
func (s *SLIM) fitColumn(columns *base.CSCMatrix, item int) *base.SparseVector {
	en := &linear.ElasticNet{
		Alpha:    s.alpha,
		L1Ratio:  s.l1Ratio,
		Positive: s.positive,
		MaxIter:  s.maxIter,
		Tol:      s.tol,
		Seed:     s.seed,
	}
	target := columns.ColDense(item)
	var coefficients *base.SparseVector
	_ = columns.WithColCleared(item, func() error {
		coefficients = en.Fit(columns, target)
		return nil
	})
	// Guard the zero-diagonal invariant: the cleared column already forces a
	// (near-)zero self weight, but a stored one would corrupt predictions.
	pruned := base.NewSparseVector()
	coefficients.ForEach(func(_, index int, value float64) {
		if index == item {
			log.Logger().Warn("dropped self-similarity weight",
				zap.Int("item", item), zap.Float64("weight", value))
			return
		}
		pruned.Add(index, value)
	})
	return pruned
}

// Predict returns one predicted rating per requested (user, item) pair, in
// request order. Each requested user's row of R*W is computed once per batch.
// Predict must only be called after a successful Fit; requesting identifiers
// outside the fitted range is an error.
func (s *SLIM) Predict(pairs []dataset.Key) ([]float64, error) {
	if s.Invalid() {
		return nil, errors.New("predict called before fit")
	}
	predictions := make([]float64, len(pairs))
	rowCache := make(map[int][]float64)
	for k, pair := range pairs {
		if pair.User < 0 || pair.User >= s.numUsers {
			return nil, errors.Errorf("unknown user %d", pair.User)
		}
		if pair.Item < 0 || pair.Item >= s.numItems {
			return nil, errors.Errorf("unknown item %d", pair.Item)
		}
		row, cached := rowCache[pair.User]
		if !cached {
			row = s.predictRow(pair.User)
			rowCache[pair.User] = row
		}
		predictions[k] = row[pair.Item]
	}
	return predictions, nil
}

// PredictSingle predicts the rating given by a user to an item.
func (s *SLIM) PredictSingle(userId, itemId int) (float64, error) {
	predictions, err := s.Predict([]dataset.Key{{User: userId, Item: itemId}})
	if err != nil {
		return 0, errors.Trace(err)
	}
	return predictions[0], nil
}

// predictRow computes row user of R*W.
func (s *SLIM) predictRow(user int) []float64 {
	row := make([]float64, s.numItems)
	s.rows.ForEachInRow(user, func(j int, value float64) {
		s.weights.ForEachInRow(j, func(i int, weight float64) {
			row[i] += value * weight
		})
	})
	return row
}

// Weights returns the fitted item-item weight matrix.
func (s *SLIM) Weights() *base.CSRMatrix {
	return s.weights
}

// IsUserRated returns false if the user had no rating in the training set.
func (s *SLIM) IsUserRated(userIndex int) bool {
	if s.ratedUsers == nil || userIndex < 0 || userIndex >= s.numUsers {
		return false
	}
	return s.ratedUsers.Test(uint(userIndex))
}

// IsItemRated returns false if the item had no rating in the training set.
func (s *SLIM) IsItemRated(itemIndex int) bool {
	if s.ratedItems == nil || itemIndex < 0 || itemIndex >= s.numItems {
		return false
	}
	return s.ratedItems.Test(uint(itemIndex))
}
