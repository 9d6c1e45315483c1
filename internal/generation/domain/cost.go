package domain

// Cost constants. The admission reservation and the pre-flight
// estimate both run through EstimateCost so they can never diverge.
const (
	costBase          int64 = 2
	costPerTenExtra   int64 = 1
	costAnswerKey     int64 = 2
	costLessonPlan    int64 = 2
	costPremiumMode   int64 = 3
	costVisualHigh    int64 = 1
	baseQuestionCount       = 10
)

// Estimate is the pre-flight credit quote. Expected is the amount the
// pipeline reserves; actual usage is settled against it afterward and
// never exceeds it, so Max equals the reservation cap and Min is the
// smallest charge a non-empty run can settle at.
type Estimate struct {
	Min       int64            `json:"min_credits"`
	Max       int64            `json:"max_credits"`
	Expected  int64            `json:"expected_credits"`
	Breakdown map[string]int64 `json:"breakdown"`
}

// EstimateCost computes the credit cost for an option set.
func EstimateCost(opts Options) Estimate {
	breakdown := map[string]int64{"base": costBase}
	total := costBase

	if opts.QuestionCount > baseQuestionCount {
		extra := int64((opts.QuestionCount - 1) / baseQuestionCount)
		if extra > 0 {
			breakdown["question_count"] = extra * costPerTenExtra
			total += extra * costPerTenExtra
		}
	}
	if opts.IncludeAnswerKey {
		breakdown["answer_key"] = costAnswerKey
		total += costAnswerKey
	}
	if opts.IncludeLessonPlan {
		breakdown["lesson_plan"] = costLessonPlan
		total += costLessonPlan
	}
	if opts.PremiumMode {
		breakdown["premium_mode"] = costPremiumMode
		total += costPremiumMode
	}
	if opts.VisualRichness == VisualHigh {
		breakdown["visual_richness"] = costVisualHigh
		total += costVisualHigh
	}

	return Estimate{
		Min:       1,
		Max:       total,
		Expected:  total,
		Breakdown: breakdown,
	}
}
