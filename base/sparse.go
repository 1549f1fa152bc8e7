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
	"sort"
)

// SparseVector is the data structure for the sparse vector. Entries with zero
// values are never stored.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// NewSparseVector creates a SparseVector.
func NewSparseVector() *SparseVector {
	return &SparseVector{
		Indices: make([]int, 0),
		Values:  make([]float64, 0),
	}
}

// Add a new entry. Zero values are ignored.
func (vec *SparseVector) Add(index int, value float64) {
	if value == 0 {
		return
	}
	vec.Indices = append(vec.Indices, index)
	vec.Values = append(vec.Values, value)
}

// Len returns the number of entries.
func (vec *SparseVector) Len() int {
	return len(vec.Values)
}

// ForEach iterates entries in the sparse vector.
func (vec *SparseVector) ForEach(f func(i, index int, value float64)) {
	for i := range vec.Indices {
		f(i, vec.Indices[i], vec.Values[i])
	}
}

// Triple is a single (row, column, value) entry of a sparse matrix under
// construction. A slice of triples is the construction-friendly representation
// converted to CSR or CSC before use.
type Triple struct {
	Row   int
	Col   int
	Value float64
}

// CSCMatrix is a sparse matrix in compressed sparse column format. Columns are
// sliced in O(nnz(column)) which makes it the representation of choice for
// column-wise solvers.
type CSCMatrix struct {
	rows       int
	cols       int
	colPtr     []int
	rowIndices []int
	values     []float64
}

// NewCSCMatrix builds a CSCMatrix from triples. Each coordinate must appear at
// most once.
func NewCSCMatrix(rows, cols int, triples []Triple) *CSCMatrix {
	sorted := make([]Triple, len(triples))
	copy(sorted, triples)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Col != sorted[j].Col {
			return sorted[i].Col < sorted[j].Col
		}
		return sorted[i].Row < sorted[j].Row
	})
	m := &CSCMatrix{
		rows:       rows,
		cols:       cols,
		colPtr:     make([]int, cols+1),
		rowIndices: make([]int, 0, len(sorted)),
		values:     make([]float64, 0, len(sorted)),
	}
	for _, t := range sorted {
		m.rowIndices = append(m.rowIndices, t.Row)
		m.values = append(m.values, t.Value)
		m.colPtr[t.Col+1]++
	}
	for c := 0; c < cols; c++ {
		m.colPtr[c+1] += m.colPtr[c]
	}
	return m
}

// Rows returns the number of rows.
func (m *CSCMatrix) Rows() int {
	return m.rows
}

// Cols returns the number of columns.
func (m *CSCMatrix) Cols() int {
	return m.cols
}

// NNZ returns the number of stored entries.
func (m *CSCMatrix) NNZ() int {
	return len(m.values)
}

// Clone returns a deep copy. Parallel workers clearing columns must each own
// a private copy.
func (m *CSCMatrix) Clone() *CSCMatrix {
	clone := &CSCMatrix{
		rows:       m.rows,
		cols:       m.cols,
		colPtr:     make([]int, len(m.colPtr)),
		rowIndices: make([]int, len(m.rowIndices)),
		values:     make([]float64, len(m.values)),
	}
	copy(clone.colPtr, m.colPtr)
	copy(clone.rowIndices, m.rowIndices)
	copy(clone.values, m.values)
	return clone
}

// ColDense returns a dense copy of a column.
func (m *CSCMatrix) ColDense(col int) []float64 {
	dense := make([]float64, m.rows)
	for i := m.colPtr[col]; i < m.colPtr[col+1]; i++ {
		dense[m.rowIndices[i]] = m.values[i]
	}
	return dense
}

// ForEachInCol iterates stored entries of a column.
func (m *CSCMatrix) ForEachInCol(col int, f func(row int, value float64)) {
	for i := m.colPtr[col]; i < m.colPtr[col+1]; i++ {
		f(m.rowIndices[i], m.values[i])
	}
}

// WithColCleared zeroes the stored values of a column, invokes fn, and
// restores the column on every exit path including error returns and panics.
// The sparsity structure is untouched, only values change.
func (m *CSCMatrix) WithColCleared(col int, fn func() error) error {
	start, end := m.colPtr[col], m.colPtr[col+1]
	saved := make([]float64, end-start)
	copy(saved, m.values[start:end])
	for i := start; i < end; i++ {
		m.values[i] = 0
	}
	defer copy(m.values[start:end], saved)
	return fn()
}

// ToCSR converts the matrix to compressed sparse row format.
func (m *CSCMatrix) ToCSR() *CSRMatrix {
	triples := make([]Triple, 0, len(m.values))
	for c := 0; c < m.cols; c++ {
		for i := m.colPtr[c]; i < m.colPtr[c+1]; i++ {
			triples = append(triples, Triple{Row: m.rowIndices[i], Col: c, Value: m.values[i]})
		}
	}
	return NewCSRMatrix(m.rows, m.cols, triples)
}

// CSRMatrix is a sparse matrix in compressed sparse row format. Rows are
// sliced in O(nnz(row)) which suits matrix products against row vectors.
type CSRMatrix struct {
	rows       int
	cols       int
	rowPtr     []int
	colIndices []int
	values     []float64
}

// NewCSRMatrix builds a CSRMatrix from triples. Each coordinate must appear at
// most once.
func NewCSRMatrix(rows, cols int, triples []Triple) *CSRMatrix {
	sorted := make([]Triple, len(triples))
	copy(sorted, triples)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})
	m := &CSRMatrix{
		rows:       rows,
		cols:       cols,
		rowPtr:     make([]int, rows+1),
		colIndices: make([]int, 0, len(sorted)),
		values:     make([]float64, 0, len(sorted)),
	}
	for _, t := range sorted {
		m.colIndices = append(m.colIndices, t.Col)
		m.values = append(m.values, t.Value)
		m.rowPtr[t.Row+1]++
	}
	for r := 0; r < rows; r++ {
		m.rowPtr[r+1] += m.rowPtr[r]
	}
	return m
}

// Rows returns the number of rows.
func (m *CSRMatrix) Rows() int {
	return m.rows
}

// Cols returns the number of columns.
func (m *CSRMatrix) Cols() int {
	return m.cols
}

// NNZ returns the number of stored entries.
func (m *CSRMatrix) NNZ() int {
	return len(m.values)
}

// At returns the entry at (row, col), zero if not stored.
func (m *CSRMatrix) At(row, col int) float64 {
	start, end := m.rowPtr[row], m.rowPtr[row+1]
	i := start + sort.SearchInts(m.colIndices[start:end], col)
	if i < end && m.colIndices[i] == col {
		return m.values[i]
	}
	return 0
}

// ForEachInRow iterates stored entries of a row.
func (m *CSRMatrix) ForEachInRow(row int, f func(col int, value float64)) {
	for i := m.rowPtr[row]; i < m.rowPtr[row+1]; i++ {
		f(m.colIndices[i], m.values[i])
	}
}
