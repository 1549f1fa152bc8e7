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

package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lematt1991/reclab/base/log"
	"github.com/lematt1991/reclab/common/datautil"
	"github.com/lematt1991/reclab/dataset"
	"github.com/lematt1991/reclab/model"
	"github.com/lematt1991/reclab/model/slim"
)

var rootCommand = &cobra.Command{
	Use:   "reclab",
	Short: "Fit a SLIM recommender on the MovieLens 100K dataset and report error metrics.",
	Run: func(cmd *cobra.Command, args []string) {
		// setup logger
		debug := viper.GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		// load dataset
		dir := viper.GetString("dataset-dir")
		users, items, ratings, err := datautil.LoadMovieLens100K(dir)
		if err != nil {
			log.Logger().Fatal("failed to load dataset", zap.Error(err), zap.String("dataset_dir", dir))
		}
		trainRatings, testRatings := dataset.Split(ratings,
			1-viper.GetFloat64("test-ratio"), viper.GetBool("shuffle"), viper.GetInt64("seed"))
		trainSet := dataset.NewDataset(users, items, trainRatings)
		// fit model
		m := slim.New(model.Params{
			model.Alpha:       viper.GetFloat64("alpha"),
			model.L1Ratio:     viper.GetFloat64("l1-ratio"),
			model.Positive:    viper.GetBool("positive"),
			model.MaxIter:     viper.GetInt("max-iter"),
			model.Tol:         viper.GetFloat64("tol"),
			model.RandomState: viper.GetInt64("seed"),
		})
		config := model.NewFitConfig().SetJobs(viper.GetInt("jobs"))
		if err := m.Fit(context.Background(), trainSet, config); err != nil {
			log.Logger().Fatal("failed to fit model", zap.Error(err))
		}
		// evaluate
		rmse, err := model.RMSE(m, testRatings)
		if err != nil {
			log.Logger().Fatal("failed to evaluate model", zap.Error(err))
		}
		mae, err := model.MAE(m, testRatings)
		if err != nil {
			log.Logger().Fatal("failed to evaluate model", zap.Error(err))
		}
		fmt.Printf("RMSE = %.6f, MAE = %.6f\n", rmse, mae)
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().String("dataset-dir", datautil.DefaultDir(), "directory of the dataset cache")
	rootCommand.PersistentFlags().Float64("test-ratio", 0.2, "proportion of ratings held out for evaluation")
	rootCommand.PersistentFlags().Bool("shuffle", true, "shuffle ratings before splitting")
	rootCommand.PersistentFlags().Int("jobs", runtime.NumCPU(), "number of concurrent regressions")
	rootCommand.PersistentFlags().Float64("alpha", 1, "regularization strength")
	rootCommand.PersistentFlags().Float64("l1-ratio", 0.1, "mix between the L1 and the L2 penalty")
	rootCommand.PersistentFlags().Bool("positive", true, "restrict weights to be non-negative")
	rootCommand.PersistentFlags().Int("max-iter", 100, "maximum number of solver iterations")
	rootCommand.PersistentFlags().Float64("tol", 1e-4, "solver convergence tolerance")
	rootCommand.PersistentFlags().Int64("seed", 0, "random seed")
	if err := viper.BindPFlags(rootCommand.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("reclab")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
