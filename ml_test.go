// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type mlSuite struct{}

var _ = check.Suite(&mlSuite{})

func (s *mlSuite) TestMetrics(c *check.C) {
	yTrue := []float64{1, 1, 1, 0, 0, 0}
	yPred := []float64{1, 1, 0, 0, 0, 1}
	c.Check(Accuracy(yTrue, yPred), check.Equals, 4.0/6)
	c.Check(Precision(yTrue, yPred), check.Equals, 2.0/3)
	c.Check(Recall(yTrue, yPred), check.Equals, 2.0/3)
	c.Check(F1Score(yTrue, yPred), check.Equals, 2.0/3)

	// degenerate: no positive predictions
	c.Check(Precision([]float64{1}, []float64{0}), check.Equals, 0.0)
	c.Check(Recall([]float64{0}, []float64{0}), check.Equals, 0.0)
	c.Check(F1Score([]float64{1}, []float64{0}), check.Equals, 0.0)
	c.Check(Accuracy(nil, nil), check.Equals, 0.0)
}

func (s *mlSuite) TestConfusionMatrix(c *check.C) {
	labels, confusion := ConfusionMatrix([]float64{1, 1, 0, 0}, []float64{1, 0, 0, 0})
	c.Check(labels, check.DeepEquals, []float64{0, 1})
	c.Check(confusion, check.DeepEquals, [][]int{{2, 0}, {1, 1}})
}

// clusterData puts class 0 around the origin and class 1 around
// (10,10), interleaved so round-robin folds see both classes.
func clusterData() (*mat.Dense, []float64) {
	xs := []float64{
		0, 0,
		10, 10,
		1, 0,
		11, 10,
		0, 1,
		10, 11,
		1, 1,
		11, 11,
	}
	return mat.NewDense(8, 2, xs), []float64{0, 1, 0, 1, 0, 1, 0, 1}
}

func (s *mlSuite) TestKNN(c *check.C) {
	x, y := clusterData()
	m := &KNN{K: 3}
	c.Assert(m.Fit(x, y), check.IsNil)
	pred, err := m.Predict(mat.NewDense(2, 2, []float64{0.5, 0.5, 10.5, 10.5}))
	c.Assert(err, check.IsNil)
	c.Check(pred, check.DeepEquals, []float64{0, 1})

	c.Check(m.Params(), check.DeepEquals, map[string]float64{"k": 3.0})
	c.Check(m.SetParams(map[string]float64{"k": 5}), check.IsNil)
	c.Check(m.K, check.Equals, 5.0)
	c.Check(m.SetParams(map[string]float64{"q": 1}), check.NotNil)
}

func (s *mlSuite) TestCrossValScores(c *check.C) {
	x, y := clusterData()
	scores, err := crossValScores(&KNN{K: 1}, x, y, 4)
	c.Assert(err, check.IsNil)
	c.Assert(scores, check.HasLen, 4)
	for _, score := range scores {
		c.Check(score, check.Equals, 1.0)
	}

	_, err = crossValScores(&KNN{K: 1}, x, y, 1)
	c.Check(err, check.NotNil)
}

func (s *mlSuite) TestEvaluateClassifier(c *check.C) {
	x, y := clusterData()
	xTest := mat.NewDense(4, 2, []float64{0.2, 0.2, 10.2, 10.2, 0.8, 0.3, 10.9, 10.1})
	yTest := []float64{0, 1, 0, 1}

	selected, eval, err := EvaluateClassifier(&KNN{K: 1}, x, y, xTest, yTest, 2, nil)
	c.Assert(err, check.IsNil)
	c.Assert(eval, check.NotNil)
	c.Check(selected, check.FitsTypeOf, &KNN{})
	c.Check(eval.Predictions, check.DeepEquals, []float64{0, 1, 0, 1})
	c.Check(eval.Accuracy, check.Equals, 1.0)
	c.Check(eval.F1, check.Equals, 1.0)
	c.Check(eval.CVScores, check.HasLen, 2)
	c.Check(eval.CVMean, check.Equals, 1.0)
	c.Check(eval.BestParams, check.IsNil)
	c.Check(eval.Confusion, check.DeepEquals, [][]int{{2, 0}, {0, 2}})
}

func (s *mlSuite) TestEvaluateClassifierGridSearch(c *check.C) {
	x, y := clusterData()
	xTest := mat.NewDense(2, 2, []float64{0.1, 0.1, 10.1, 10.1})
	yTest := []float64{0, 1}

	selected, eval, err := EvaluateClassifier(&KNN{K: 1}, x, y, xTest, yTest, 2, ParamGrid{"k": {1, 3, 5}})
	c.Assert(err, check.IsNil)
	c.Assert(eval.BestParams, check.NotNil)
	knn, ok := selected.(*KNN)
	c.Assert(ok, check.Equals, true)
	c.Check(knn.K, check.Equals, eval.BestParams["k"])
	c.Check(eval.Accuracy, check.Equals, 1.0)
}
