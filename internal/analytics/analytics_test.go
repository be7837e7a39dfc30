package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/examstack/examstack/internal/store"
)

func scored(examID, studentID string, score int) store.Submission {
	return store.Submission{
		ID:        examID + "/" + studentID,
		ExamID:    examID,
		StudentID: studentID,
		Score:     &score,
	}
}

func TestSummary(t *testing.T) {
	subs := []store.Submission{
		scored("e1", "s1", 55),
		scored("e1", "s2", 85),
	}
	got := Summary(subs)
	if got.Average != 70.0 {
		t.Errorf("average = %v, want 70.0", got.Average)
	}
	if got.Highest != 85 || got.Lowest != 55 {
		t.Errorf("highest/lowest = %d/%d, want 85/55", got.Highest, got.Lowest)
	}
	if got.PassingRate != 50.0 {
		t.Errorf("passing rate = %v, want 50.0", got.PassingRate)
	}
}

func TestSummaryEmpty(t *testing.T) {
	got := Summary(nil)
	if got != (ScoreSummary{}) {
		t.Errorf("empty summary = %+v, want all zeros", got)
	}
}

func TestSummaryTreatsUngradedAsZero(t *testing.T) {
	subs := []store.Submission{
		scored("e1", "s1", 80),
		{ID: "e1/s2", ExamID: "e1", StudentID: "s2"}, // no score yet
	}
	got := Summary(subs)
	if got.Average != 40.0 {
		t.Errorf("average = %v, want 40.0", got.Average)
	}
	if got.Lowest != 0 {
		t.Errorf("lowest = %d, want 0", got.Lowest)
	}
}

func TestDistributionBuckets(t *testing.T) {
	subs := []store.Submission{
		scored("e1", "s1", 55),
		scored("e1", "s2", 85),
	}
	buckets := Distribution(subs)
	if len(buckets) != 5 {
		t.Fatalf("buckets = %d, want 5", len(buckets))
	}
	counts := map[string]int{}
	total := 0
	for _, b := range buckets {
		counts[b.Label] = b.Count
		total += b.Count
	}
	if total != len(subs) {
		t.Errorf("bucket counts sum to %d, want %d", total, len(subs))
	}
	if counts["41-60%"] != 1 || counts["81-100%"] != 1 {
		t.Errorf("counts = %v, want one in 41-60%% and one in 81-100%%", counts)
	}
}

func TestDistributionBoundaries(t *testing.T) {
	// Every boundary score lands in exactly one bucket.
	for _, tc := range []struct {
		score int
		label string
	}{
		{0, "0-20%"},
		{20, "0-20%"},
		{21, "21-40%"},
		{40, "21-40%"},
		{41, "41-60%"},
		{60, "41-60%"},
		{61, "61-80%"},
		{80, "61-80%"},
		{81, "81-100%"},
		{100, "81-100%"},
	} {
		buckets := Distribution([]store.Submission{scored("e1", "s1", tc.score)})
		for _, b := range buckets {
			want := 0
			if b.Label == tc.label {
				want = 1
			}
			if b.Count != want {
				t.Errorf("score %d: bucket %s count = %d, want %d", tc.score, b.Label, b.Count, want)
			}
		}
	}
}

func TestQuestionBreakdown(t *testing.T) {
	questions := []store.Question{
		{ID: "q1", Type: store.QuestionMultipleChoice, Text: "pick one", CorrectAnswer: "b"},
		{ID: "q2", Type: store.QuestionText, Text: "explain"},
	}
	subs := []store.Submission{
		{StudentID: "s1", Answers: map[string]string{"q1": "b", "q2": "because"}},
		{StudentID: "s2", Answers: map[string]string{"q1": "a"}},
		{StudentID: "s3", Answers: map[string]string{"q1": "b"}},
		{StudentID: "s4", Answers: map[string]string{}}, // skipped both
	}
	perfs := QuestionBreakdown(questions, subs)
	if len(perfs) != 2 {
		t.Fatalf("perfs = %d, want 2", len(perfs))
	}

	q1 := perfs[0]
	if q1.Answered != 3 || q1.Correct != 2 {
		t.Errorf("q1 answered/correct = %d/%d, want 3/2", q1.Answered, q1.Correct)
	}
	if q1.CorrectPct != 66.7 {
		t.Errorf("q1 correct pct = %v, want 66.7", q1.CorrectPct)
	}
	if sum := q1.CorrectPct + q1.IncorrectPct; math.Abs(sum-100.0) > 1e-9 {
		t.Errorf("q1 pcts sum to %v, want 100.0", sum)
	}

	q2 := perfs[1]
	if !q2.Unscored {
		t.Error("text question not flagged unscored")
	}
	if q2.Answered != 1 {
		t.Errorf("q2 answered = %d, want 1", q2.Answered)
	}
	if q2.CorrectPct != 0 || q2.IncorrectPct != 0 {
		t.Errorf("q2 pcts = %v/%v, want 0/0", q2.CorrectPct, q2.IncorrectPct)
	}
}

func TestQuestionBreakdownNoAnswers(t *testing.T) {
	questions := []store.Question{
		{ID: "q1", Type: store.QuestionMultipleChoice, CorrectAnswer: "b"},
	}
	perfs := QuestionBreakdown(questions, nil)
	if perfs[0].CorrectPct != 0 || perfs[0].IncorrectPct != 0 {
		t.Errorf("pcts with zero answers = %v/%v, want 0/0", perfs[0].CorrectPct, perfs[0].IncorrectPct)
	}
}

func TestTopStudents(t *testing.T) {
	subs := []store.Submission{
		scored("e1", "low", 40),
		scored("e1", "high", 90),
		scored("e2", "high", 100),
		scored("e1", "mid", 70),
	}
	top := TopStudents(subs, 2)
	if len(top) != 2 {
		t.Fatalf("leaderboard size = %d, want 2", len(top))
	}
	if top[0].StudentID != "high" || top[1].StudentID != "mid" {
		t.Errorf("leaderboard order = %s, %s; want high, mid", top[0].StudentID, top[1].StudentID)
	}
	if top[0].Submissions != 2 || top[0].AverageScore != 95.0 {
		t.Errorf("high rollup = %d subs avg %v, want 2 subs avg 95.0", top[0].Submissions, top[0].AverageScore)
	}
}

func TestTimelineZeroFills(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	subs := []store.Submission{
		{StudentID: "s1", SubmittedAt: now.AddDate(0, 0, -3).Unix()},
		{StudentID: "s2", SubmittedAt: now.AddDate(0, 0, -3).Unix()},
		{StudentID: "s3", SubmittedAt: now.AddDate(0, 0, -40).Unix()}, // outside the window
	}
	points := Timeline(subs, now, 30)
	if len(points) != 31 {
		t.Fatalf("points = %d, want 31 (window inclusive of both ends)", len(points))
	}
	if points[0].Date != "2026-03-01" || points[len(points)-1].Date != "2026-03-31" {
		t.Errorf("window = %s..%s, want 2026-03-01..2026-03-31", points[0].Date, points[len(points)-1].Date)
	}
	total := 0
	for _, p := range points {
		total += p.Count
		if p.Date == "2026-03-28" && p.Count != 2 {
			t.Errorf("count on 2026-03-28 = %d, want 2", p.Count)
		}
	}
	if total != 2 {
		t.Errorf("in-window total = %d, want 2", total)
	}
}

func TestCompareExams(t *testing.T) {
	exams := []store.Exam{
		{ID: "e1", Title: "Algebra"},
		{ID: "e2", Title: "Biology"},
		{ID: "e3", Title: "Chemistry"},
		{ID: "e4", Title: "Drama"},
	}
	subs := []store.Submission{
		scored("e2", "s1", 80),
		scored("e2", "s2", 60),
		scored("e3", "s1", 90),
		scored("e1", "s1", 50),
		scored("e2", "s3", 70),
	}
	cmp := CompareExams(exams, subs, 3)
	if len(cmp.Exams) != 3 {
		t.Fatalf("compared exams = %d, want 3", len(cmp.Exams))
	}
	if cmp.Exams[0].ExamID != "e2" {
		t.Errorf("most-submitted exam = %s, want e2", cmp.Exams[0].ExamID)
	}
	if cmp.Exams[0].AverageScore != 70.0 {
		t.Errorf("e2 average = %v, want 70.0", cmp.Exams[0].AverageScore)
	}
	if len(cmp.UnavailableMetrics) == 0 {
		t.Error("derived-only comparison must list the metrics it cannot provide")
	}
}

func TestOverall(t *testing.T) {
	exams := []store.Exam{{ID: "e1"}, {ID: "e2"}}
	subs := []store.Submission{
		scored("e1", "s1", 80),
		scored("e2", "s1", 60),
		scored("e1", "s2", 40),
	}
	o := Overall(exams, subs)
	if o.TotalExams != 2 || o.TotalSubmissions != 3 || o.TotalStudents != 2 {
		t.Errorf("overview = %+v, want 2 exams, 3 submissions, 2 students", o)
	}
	if o.AverageScore != 60.0 {
		t.Errorf("average = %v, want 60.0", o.AverageScore)
	}
}

func TestReport(t *testing.T) {
	exam := store.ExamWithQuestions{
		Exam: store.Exam{ID: "e1", Title: "Algebra", DurationMin: 30},
		Questions: []store.Question{
			{ID: "q1", Type: store.QuestionMultipleChoice, CorrectAnswer: "4"},
			{ID: "q2", Type: store.QuestionText},
		},
	}
	subs := []store.Submission{scored("e1", "s1", 85)}
	subs[0].Answers = map[string]string{"q1": "4"}

	r := Report(exam, subs)
	if r.Exam.QuestionCount != 2 {
		t.Errorf("question count = %d, want 2", r.Exam.QuestionCount)
	}
	if r.Submissions != 1 {
		t.Errorf("submissions = %d, want 1", r.Submissions)
	}
	if r.Summary.Average != 85.0 {
		t.Errorf("average = %v, want 85.0", r.Summary.Average)
	}
	if len(r.Distribution) != 5 || len(r.Questions) != 2 {
		t.Errorf("report shape = %d buckets, %d questions; want 5 and 2", len(r.Distribution), len(r.Questions))
	}
}
