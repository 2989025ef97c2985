package risk_test

import (
	"testing"

	"github.com/ledgerline/refundgate/pkg/domain/types"
	"github.com/ledgerline/refundgate/pkg/service/risk"
	"github.com/m-mizutani/gt"
)

func TestClassify(t *testing.T) {
	classifier := gt.R1(risk.NewClassifier(500, 2000)).NoError(t)

	testCases := map[string]struct {
		amount float64
		expect types.RiskTier
	}{
		"zero":                  {0, types.RiskTierLow},
		"small":                 {100, types.RiskTierLow},
		"just below medium":     {499.99, types.RiskTierLow},
		"medium boundary":       {500, types.RiskTierMedium},
		"mid range":             {1200, types.RiskTierMedium},
		"just below high":       {1999.99, types.RiskTierMedium},
		"high boundary":         {2000, types.RiskTierHigh},
		"far above high":        {1_000_000, types.RiskTierHigh},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			gt.Value(t, classifier.Classify(tc.amount)).Equal(tc.expect)
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	classifier := gt.R1(risk.NewClassifier(500, 2000)).NoError(t)

	// A higher amount never yields a lower tier
	prev := -1
	for _, amount := range []float64{0, 1, 250, 499, 500, 501, 1500, 1999, 2000, 2001, 50000} {
		rank := classifier.Classify(amount).Rank()
		gt.Bool(t, rank >= prev).True()
		prev = rank
	}
}

func TestClassifyDeterministic(t *testing.T) {
	classifier := gt.R1(risk.NewClassifier(500, 2000)).NoError(t)

	for i := 0; i < 100; i++ {
		gt.Value(t, classifier.Classify(777)).Equal(types.RiskTierMedium)
	}
}

func TestNewClassifierValidation(t *testing.T) {
	t.Run("non-positive medium", func(t *testing.T) {
		_, err := risk.NewClassifier(0, 2000)
		gt.Error(t, err)
	})

	t.Run("high not above medium", func(t *testing.T) {
		_, err := risk.NewClassifier(500, 500)
		gt.Error(t, err)

		_, err = risk.NewClassifier(500, 100)
		gt.Error(t, err)
	})
}
