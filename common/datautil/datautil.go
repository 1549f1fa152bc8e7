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

// Package datautil downloads and parses public rating datasets. The on-disk
// cache location is always an explicit argument so that callers (and tests)
// never depend on hidden process-wide state.
package datautil

import (
	"archive/zip"
	"bufio"
	"io"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/lematt1991/reclab/base/log"
	"github.com/lematt1991/reclab/dataset"
)

type builtInDataSet struct {
	url  string
	path string
	sep  string
}

var builtInDataSets = map[string]builtInDataSet{
	"ml-100k": {
		url:  "https://files.grouplens.org/datasets/movielens/ml-100k.zip",
		path: "ml-100k/u.data",
		sep:  "\t",
	},
}

// DefaultDir returns the default dataset cache directory.
func DefaultDir() string {
	usr, err := user.Current()
	if err != nil {
		log.Logger().Fatal("failed to get user directory", zap.Error(err))
	}
	return filepath.Join(usr.HomeDir, ".reclab", "dataset")
}

// LoadMovieLens100K loads the MovieLens 100K dataset, downloading and
// unzipping it into dir first if it is not cached there yet.
//
// Raw identifiers are 1-based and are shifted to the dense 0-based range the
// core expects. Users and items carry empty feature vectors; the rating
// timestamp is kept as the rating context.
func LoadMovieLens100K(dir string) (users, items map[int][]float64, ratings *dataset.Table, err error) {
	meta := builtInDataSets["ml-100k"]
	dataFile := filepath.Join(dir, meta.path)
	if _, err = os.Stat(dataFile); os.IsNotExist(err) {
		var archive string
		archive, err = downloadFromURL(meta.url, dir)
		if err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
		if _, err = unzip(archive, dir); err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
	}
	return readRatingsFile(dataFile, meta.sep)
}

// readRatingsFile parses a (user, item, rating, timestamp) separated file.
func readRatingsFile(path, sep string) (users, items map[int][]float64, ratings *dataset.Table, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	defer f.Close()
	users = make(map[int][]float64)
	items = make(map[int][]float64)
	ratings = dataset.NewTable()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, sep)
		if len(fields) < 3 {
			return nil, nil, nil, errors.Errorf("malformed rating line %q", line)
		}
		userId, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
		itemId, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, nil, nil, errors.Trace(err)
		}
		var context []float64
		if len(fields) > 3 {
			timestamp, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, nil, nil, errors.Trace(err)
			}
			context = []float64{timestamp}
		}
		// shift raw 1-based identifiers to dense 0-based ones
		userId--
		itemId--
		users[userId] = []float64{}
		items[itemId] = []float64{}
		ratings.Add(dataset.Key{User: userId, Item: itemId}, dataset.Rating{Value: value, Context: context})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	log.Logger().Info("loaded dataset",
		zap.String("path", path),
		zap.Int("users", len(users)),
		zap.Int("items", len(items)),
		zap.Int("ratings", ratings.Len()))
	return users, items, ratings, nil
}

// downloadFromURL downloads a file from URL into dst.
func downloadFromURL(src, dst string) (string, error) {
	log.Logger().Info("download dataset", zap.String("source", src), zap.String("destination", dst))
	// Extract file name
	tokens := strings.Split(src, "/")
	fileName := filepath.Join(dst, tokens[len(tokens)-1])
	// Create file
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return fileName, errors.Trace(err)
	}
	output, err := os.Create(fileName)
	if err != nil {
		log.Logger().Error("failed to create file", zap.Error(err), zap.String("filename", fileName))
		return fileName, errors.Trace(err)
	}
	defer output.Close()
	// Download file
	response, err := http.Get(src)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	defer response.Body.Close()
	// Save file
	bar := progressbar.DefaultBytes(response.ContentLength, "download")
	if _, err = io.Copy(io.MultiWriter(output, bar), response.Body); err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, errors.Trace(err)
	}
	return fileName, nil
}

// unzip a zip file.
func unzip(src, dst string) ([]string, error) {
	var fileNames []string
	// Open zip file
	r, err := zip.OpenReader(src)
	if err != nil {
		return fileNames, errors.Trace(err)
	}
	defer r.Close()
	// Extract files
	for _, f := range r.File {
		// Open file
		rc, err := f.Open()
		if err != nil {
			return fileNames, errors.Trace(err)
		}
		// Store filename/path for returning and using later on
		filePath := filepath.Join(dst, f.Name)
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fileNames, errors.Errorf("%s: illegal file path", filePath)
		}
		// Add filename
		fileNames = append(fileNames, filePath)
		if f.FileInfo().IsDir() {
			// Create folder
			if err = os.MkdirAll(filePath, os.ModePerm); err != nil {
				return fileNames, errors.Trace(err)
			}
		} else {
			// Create all folders
			if err = os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
				return fileNames, errors.Trace(err)
			}
			// Create file
			outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
			if err != nil {
				return fileNames, errors.Trace(err)
			}
			// Save file
			_, err = io.Copy(outFile, rc)
			if err != nil {
				return nil, errors.Trace(err)
			}
			// Close the file without defer to close before next iteration of loop
			err = outFile.Close()
			if err != nil {
				return nil, errors.Trace(err)
			}
		}
		// Close file
		err = rc.Close()
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	return fileNames, nil
}
