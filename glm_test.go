// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type glmSuite struct{}

var _ = check.Suite(&glmSuite{})

func (s *glmSuite) TestLogisticRegression(c *check.C) {
	x := mat.NewDense(8, 1, []float64{0, 1, 2, 4, 3, 10, 11, 12})
	y := []float64{0, 0, 0, 0, 1, 1, 1, 1}

	m := &LogisticRegression{}
	c.Assert(m.Fit(x, y), check.IsNil)
	coef := m.Coefficients()
	c.Assert(coef, check.HasLen, 2)
	c.Check(coef[1] > 0, check.Equals, true)

	pred, err := m.Predict(mat.NewDense(2, 1, []float64{0, 12}))
	c.Assert(err, check.IsNil)
	c.Check(pred, check.DeepEquals, []float64{0, 1})
}

func (s *glmSuite) TestLogisticRegressionUnfitted(c *check.C) {
	m := &LogisticRegression{}
	_, err := m.Predict(mat.NewDense(1, 1, []float64{0}))
	c.Check(err, check.ErrorMatches, `predict: model is not fitted`)
}

func (s *glmSuite) TestLogisticRegressionShapeMismatch(c *check.C) {
	m := &LogisticRegression{}
	c.Check(m.Fit(mat.NewDense(2, 1, []float64{0, 1}), []float64{0}), check.NotNil)
}

func (s *glmSuite) TestLogisticRegressionParams(c *check.C) {
	m := &LogisticRegression{}
	c.Check(m.Params(), check.HasLen, 0)
	c.Check(m.SetParams(map[string]float64{"k": 1}), check.NotNil)
	c.Check(m.SetParams(nil), check.IsNil)
	clone := m.Clone()
	c.Check(clone, check.FitsTypeOf, &LogisticRegression{})
}
