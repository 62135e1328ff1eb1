package service

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

// Split holds row indices of the train and test partitions, each in ascending order.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions rows so each class keeps its proportion in the
// hold-out set. The same seed always yields the same split.
func StratifiedSplit(labels []int, testFraction float64, seed int64) (Split, error) {
	if !(testFraction > 0 && testFraction < 1) {
		return Split{}, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}

	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return Split{}, fmt.Errorf("stratified split needs two classes, got %d", len(classes))
	}

	rng := rand.New(rand.NewSource(seed))
	var split Split
	for _, c := range classes {
		idx := byClass[c]
		if len(idx) < 2 {
			return Split{}, fmt.Errorf("class %d has %d rows, need at least 2", c, len(idx))
		}
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(testFraction * float64(len(idx))))
		nTest = max(1, min(nTest, len(idx)-1))
		split.Test = append(split.Test, idx[:nTest]...)
		split.Train = append(split.Train, idx[nTest:]...)
	}
	sort.Ints(split.Train)
	sort.Ints(split.Test)
	return split, nil
}

// BinaryPredictions thresholds probabilities of the positive class.
func BinaryPredictions(proba []float64, cutoff float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= cutoff {
			out[i] = valueobject.ClassBad
		}
	}
	return out
}

// Evaluate computes accuracy, F1 of the bad class and a per-class report.
func Evaluate(yTrue, yPred []int, polarity valueobject.LabelPolarity) (model.EvaluationReport, error) {
	if len(yTrue) != len(yPred) {
		return model.EvaluationReport{}, fmt.Errorf("evaluate: %d labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return model.EvaluationReport{}, fmt.Errorf("evaluate: empty hold-out set")
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	report := model.EvaluationReport{Accuracy: float64(correct) / float64(len(yTrue))}
	for _, class := range []int{valueobject.ClassGood, valueobject.ClassBad} {
		cm := classMetrics(yTrue, yPred, class)
		cm.Label = polarity.Decode(class)
		report.Classes = append(report.Classes, cm)
		if class == valueobject.ClassBad {
			report.F1 = cm.F1
		}
	}
	return report, nil
}

func classMetrics(yTrue, yPred []int, class int) model.ClassMetrics {
	var tp, fp, fn, support int
	for i := range yTrue {
		actual, predicted := yTrue[i] == class, yPred[i] == class
		if actual {
			support++
		}
		switch {
		case actual && predicted:
			tp++
		case !actual && predicted:
			fp++
		case actual && !predicted:
			fn++
		}
	}

	cm := model.ClassMetrics{Support: support}
	if tp+fp > 0 {
		cm.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		cm.Recall = float64(tp) / float64(tp+fn)
	}
	if cm.Precision+cm.Recall > 0 {
		cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
	}
	return cm
}
