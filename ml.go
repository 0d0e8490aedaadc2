// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Classifier is the surface EvaluateClassifier needs from a model:
// fit, predict, and enough hyperparameter plumbing for grid search.
// Clone returns an unfitted copy with the same hyperparameters.
type Classifier interface {
	Fit(x mat.Matrix, y []float64) error
	Predict(x mat.Matrix) ([]float64, error)
	Params() map[string]float64
	SetParams(params map[string]float64) error
	Clone() Classifier
}

// ParamGrid maps a hyperparameter name to the candidate values grid
// search tries. The full cartesian product is evaluated.
type ParamGrid map[string][]float64

// Evaluation holds the cross-validation and test-set report for one
// selected model.
type Evaluation struct {
	CVScores  []float64
	CVMean    float64
	CVStdDev  float64
	Labels    []float64 // class labels, ascending
	Confusion [][]int   // Confusion[i][j]: true Labels[i], predicted Labels[j]
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	Predictions []float64
	BestParams  map[string]float64
}

// EvaluateClassifier fits clf on the training set, optionally grid
// searches the hyperparameter grid with cv-fold cross-validation,
// reports cross-validation scores and test-set metrics, and returns
// the selected model with its test-set predictions.
func EvaluateClassifier(
	clf Classifier,
	xTrain mat.Matrix, yTrain []float64,
	xTest mat.Matrix, yTest []float64,
	cv int,
	grid ParamGrid,
) (Classifier, *Evaluation, error) {
	selected := clf
	eval := &Evaluation{}
	if grid != nil {
		log.Printf("grid search over %v", grid)
		best, bestParams, err := gridSearch(clf, xTrain, yTrain, cv, grid)
		if err != nil {
			return nil, nil, err
		}
		selected = best
		eval.BestParams = bestParams
		log.Printf("selected parameters: %v", bestParams)
	}
	if err := selected.Fit(xTrain, yTrain); err != nil {
		return nil, nil, err
	}

	scores, err := crossValScores(selected, xTrain, yTrain, cv)
	if err != nil {
		return nil, nil, err
	}
	eval.CVScores = scores
	eval.CVMean, eval.CVStdDev = stat.MeanStdDev(scores, nil)
	log.Printf("cross validation (cv=%d) gives %0.2f accuracy with a standard deviation of %0.2f", cv, eval.CVMean, eval.CVStdDev)

	predictions, err := selected.Predict(xTest)
	if err != nil {
		return nil, nil, err
	}
	eval.Predictions = predictions
	eval.Labels, eval.Confusion = ConfusionMatrix(yTest, predictions)
	eval.Accuracy = Accuracy(yTest, predictions)
	eval.Precision = Precision(yTest, predictions)
	eval.Recall = Recall(yTest, predictions)
	eval.F1 = F1Score(yTest, predictions)
	log.Printf("test set: accuracy=%0.3f precision=%0.3f recall=%0.3f f1=%0.3f", eval.Accuracy, eval.Precision, eval.Recall, eval.F1)
	return selected, eval, nil
}

// gridSearch evaluates every parameter combination by mean
// cross-validation accuracy and returns an unfitted clone configured
// with the best one. Combinations are tried in deterministic order and
// ties keep the earlier combination.
func gridSearch(clf Classifier, x mat.Matrix, y []float64, cv int, grid ParamGrid) (Classifier, map[string]float64, error) {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	var combos []map[string]float64
	var expand func(i int, current map[string]float64)
	expand = func(i int, current map[string]float64) {
		if i == len(names) {
			combo := make(map[string]float64, len(current))
			for k, v := range current {
				combo[k] = v
			}
			combos = append(combos, combo)
			return
		}
		for _, v := range grid[names[i]] {
			current[names[i]] = v
			expand(i+1, current)
		}
	}
	expand(0, map[string]float64{})

	bestScore := -1.0
	var best Classifier
	var bestParams map[string]float64
	for _, combo := range combos {
		candidate := clf.Clone()
		if err := candidate.SetParams(combo); err != nil {
			return nil, nil, err
		}
		scores, err := crossValScores(candidate, x, y, cv)
		if err != nil {
			return nil, nil, err
		}
		mean := stat.Mean(scores, nil)
		log.Printf("grid search: %v -> %0.3f", combo, mean)
		if mean > bestScore {
			bestScore = mean
			best = candidate.Clone()
			bestParams = combo
		}
	}
	return best, bestParams, nil
}

// crossValScores splits the training set into cv folds (round robin,
// no shuffling) and returns the held-out accuracy of each fold.
func crossValScores(clf Classifier, x mat.Matrix, y []float64, cv int) ([]float64, error) {
	rows, _ := x.Dims()
	if cv < 2 || cv > rows {
		return nil, configErrorf("cv=%d is not possible with %d training rows", cv, rows)
	}
	scores := make([]float64, 0, cv)
	for fold := 0; fold < cv; fold++ {
		var trainRows, valRows []int
		for i := 0; i < rows; i++ {
			if i%cv == fold {
				valRows = append(valRows, i)
			} else {
				trainRows = append(trainRows, i)
			}
		}
		candidate := clf.Clone()
		err := candidate.Fit(pickRows(x, trainRows), pickLabels(y, trainRows))
		if err != nil {
			return nil, err
		}
		predictions, err := candidate.Predict(pickRows(x, valRows))
		if err != nil {
			return nil, err
		}
		scores = append(scores, Accuracy(pickLabels(y, valRows), predictions))
	}
	return scores, nil
}

func pickRows(x mat.Matrix, rows []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	buf := make([]float64, cols)
	for i, row := range rows {
		mat.Row(buf, row, x)
		out.SetRow(i, buf)
	}
	return out
}

func pickLabels(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = y[row]
	}
	return out
}

// ConfusionMatrix returns the ascending class labels seen in yTrue and
// yPred, and the matrix of counts with true classes as rows and
// predicted classes as columns.
func ConfusionMatrix(yTrue, yPred []float64) ([]float64, [][]int) {
	seen := map[float64]bool{}
	for _, y := range yTrue {
		seen[y] = true
	}
	for _, y := range yPred {
		seen[y] = true
	}
	labels := make([]float64, 0, len(seen))
	for y := range seen {
		labels = append(labels, y)
	}
	sort.Float64s(labels)
	index := map[float64]int{}
	for i, y := range labels {
		index[y] = i
	}
	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		confusion[index[yTrue[i]]][index[yPred[i]]]++
	}
	return labels, confusion
}

// Binary metrics, positive label 1. An undefined metric (zero
// denominator) is reported as 0.

func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

func Precision(yTrue, yPred []float64) float64 {
	tp, fp := 0, 0
	for i := range yTrue {
		if yPred[i] == 1 {
			if yTrue[i] == 1 {
				tp++
			} else {
				fp++
			}
		}
	}
	if tp+fp == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fp)
}

func Recall(yTrue, yPred []float64) float64 {
	tp, fn := 0, 0
	for i := range yTrue {
		if yTrue[i] == 1 {
			if yPred[i] == 1 {
				tp++
			} else {
				fn++
			}
		}
	}
	if tp+fn == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fn)
}

func F1Score(yTrue, yPred []float64) float64 {
	p := Precision(yTrue, yPred)
	r := Recall(yTrue, yPred)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// KNN is a k-nearest-neighbors classifier (euclidean distance,
// majority vote, ties to the smaller label). Its k parameter makes it
// the natural grid search demonstration model.
type KNN struct {
	K float64

	x *mat.Dense
	y []float64
}

func (m *KNN) Fit(x mat.Matrix, y []float64) error {
	rows, _ := x.Dims()
	if len(y) != rows {
		return fmt.Errorf("fit: %d labels for %d rows", len(y), rows)
	}
	m.x = mat.DenseCopyOf(x)
	m.y = append([]float64(nil), y...)
	return nil
}

func (m *KNN) Predict(x mat.Matrix) ([]float64, error) {
	if m.x == nil {
		return nil, fmt.Errorf("predict: model is not fitted")
	}
	k := int(m.K)
	if k < 1 {
		k = 1
	}
	if k > len(m.y) {
		k = len(m.y)
	}
	rows, cols := x.Dims()
	trainRows, _ := m.x.Dims()
	row := make([]float64, cols)
	train := make([]float64, cols)
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		type neighbor struct {
			dist  float64
			label float64
		}
		neighbors := make([]neighbor, trainRows)
		for j := 0; j < trainRows; j++ {
			mat.Row(train, j, m.x)
			floats.Sub(train, row)
			neighbors[j] = neighbor{dist: floats.Norm(train, 2), label: m.y[j]}
		}
		sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })
		votes := map[float64]int{}
		for _, n := range neighbors[:k] {
			votes[n.label]++
		}
		best, bestVotes := 0.0, -1
		var labels []float64
		for label := range votes {
			labels = append(labels, label)
		}
		sort.Float64s(labels)
		for _, label := range labels {
			if votes[label] > bestVotes {
				best, bestVotes = label, votes[label]
			}
		}
		out[i] = best
	}
	return out, nil
}

func (m *KNN) Params() map[string]float64 { return map[string]float64{"k": m.K} }

func (m *KNN) SetParams(params map[string]float64) error {
	for name, value := range params {
		if name != "k" {
			return configErrorf("knn has no parameter %q", name)
		}
		m.K = value
	}
	return nil
}

func (m *KNN) Clone() Classifier { return &KNN{K: m.K} }
