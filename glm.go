// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/kshedden/statmodel/glm"
	"github.com/kshedden/statmodel/statmodel"
	"gonum.org/v1/gonum/mat"
)

var glmConfig = &glm.Config{
	Family:         glm.NewFamily(glm.BinomialFamily),
	FitMethod:      "IRLS",
	ConcurrentIRLS: 1000,
	Log:            log.New(io.Discard, "", 0),
}

// LogisticRegression is a binary classifier fitted by IRLS. Labels are
// 0 and 1; Predict thresholds the fitted probability at 0.5.
type LogisticRegression struct {
	coef []float64 // intercept first, then one weight per feature
}

func (m *LogisticRegression) Fit(x mat.Matrix, y []float64) (err error) {
	defer func() {
		if recover() != nil {
			// typically "matrix singular or near-singular with condition number +Inf"
			err = dataErrorf("logistic regression did not converge")
		}
	}()
	rows, cols := x.Dims()
	if len(y) != rows {
		return fmt.Errorf("fit: %d labels for %d rows", len(y), rows)
	}
	names := []string{"outcome", "icept"}
	data := [][]statmodel.Dtype{y, ones(rows)}
	for j := 0; j < cols; j++ {
		feature := make([]statmodel.Dtype, rows)
		for i := 0; i < rows; i++ {
			feature[i] = x.At(i, j)
		}
		data = append(data, feature)
		names = append(names, fmt.Sprintf("x%d", j))
	}
	dataset := statmodel.NewDataset(data, names)
	model, err := glm.NewGLM(dataset, "outcome", names[1:], glmConfig)
	if err != nil {
		return err
	}
	m.coef = append([]float64(nil), model.Fit().Params()...)
	return nil
}

func (m *LogisticRegression) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if m.coef == nil {
		return nil, fmt.Errorf("predict: model is not fitted")
	}
	if cols != len(m.coef)-1 {
		return nil, fmt.Errorf("predict: %d features, model has %d", cols, len(m.coef)-1)
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		eta := m.coef[0]
		for j := 0; j < cols; j++ {
			eta += m.coef[j+1] * x.At(i, j)
		}
		if 1/(1+math.Exp(-eta)) > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (m *LogisticRegression) Params() map[string]float64 { return map[string]float64{} }

func (m *LogisticRegression) SetParams(params map[string]float64) error {
	for name := range params {
		return configErrorf("logistic regression has no parameter %q", name)
	}
	return nil
}

func (m *LogisticRegression) Clone() Classifier { return &LogisticRegression{} }

// Coefficients returns the fitted intercept and weights, or nil before
// Fit.
func (m *LogisticRegression) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
