package domain

import "testing"

func TestEstimateCostBase(t *testing.T) {
	estimate := EstimateCost(Options{QuestionCount: 10})
	if estimate.Expected != 2 {
		t.Fatalf("expected base cost 2, got %d", estimate.Expected)
	}
	if estimate.Max != estimate.Expected {
		t.Fatalf("max must equal the reservation cap, got %d vs %d", estimate.Max, estimate.Expected)
	}
	if estimate.Min != 1 {
		t.Fatalf("expected min 1, got %d", estimate.Min)
	}
	if estimate.Breakdown["base"] != 2 {
		t.Fatalf("unexpected breakdown: %+v", estimate.Breakdown)
	}
}

func TestEstimateCostSurcharges(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want int64
	}{
		{name: "fifteen questions", opts: Options{QuestionCount: 15}, want: 3},
		{name: "twenty questions", opts: Options{QuestionCount: 20}, want: 3},
		{name: "twenty one questions", opts: Options{QuestionCount: 21}, want: 4},
		{name: "answer key", opts: Options{QuestionCount: 10, IncludeAnswerKey: true}, want: 4},
		{name: "lesson plan", opts: Options{QuestionCount: 10, IncludeLessonPlan: true}, want: 4},
		{name: "premium", opts: Options{QuestionCount: 10, PremiumMode: true}, want: 5},
		{name: "visual high", opts: Options{QuestionCount: 10, VisualRichness: VisualHigh}, want: 3},
		{name: "visual medium no surcharge", opts: Options{QuestionCount: 10, VisualRichness: VisualMedium}, want: 2},
		{
			name: "everything",
			opts: Options{
				QuestionCount:     25,
				IncludeAnswerKey:  true,
				IncludeLessonPlan: true,
				PremiumMode:       true,
				VisualRichness:    VisualHigh,
			},
			want: 12,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateCost(tc.opts).Expected; got != tc.want {
				t.Fatalf("EstimateCost(%+v) = %d, want %d", tc.opts, got, tc.want)
			}
		})
	}
}

func TestEstimateBreakdownSumsToExpected(t *testing.T) {
	estimate := EstimateCost(Options{
		QuestionCount:     30,
		IncludeAnswerKey:  true,
		IncludeLessonPlan: true,
		PremiumMode:       true,
		VisualRichness:    VisualHigh,
	})
	var sum int64
	for _, part := range estimate.Breakdown {
		sum += part
	}
	if sum != estimate.Expected {
		t.Fatalf("breakdown sums to %d, expected %d", sum, estimate.Expected)
	}
}

func TestOrderDocuments(t *testing.T) {
	ordered := OrderDocuments([]DocumentKind{DocumentAnswerKey, DocumentWorksheet, DocumentAnswerKey, "bogus"})
	if len(ordered) != 2 || ordered[0] != DocumentWorksheet || ordered[1] != DocumentAnswerKey {
		t.Fatalf("unexpected order: %v", ordered)
	}
	if got := OrderDocuments(nil); len(got) != 0 {
		t.Fatalf("expected empty order, got %v", got)
	}
}
