// Package analytics derives tutor-facing reports from exams, questions and
// raw submissions. Everything here is a pure reduction over slices the
// caller fetched; nothing is persisted.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/examstack/examstack/internal/store"
)

// ScoreSummary aggregates effective scores for one exam. All values default
// to zero on an empty submission list.
type ScoreSummary struct {
	Average     float64 `json:"average"`
	Highest     int     `json:"highest"`
	Lowest      int     `json:"lowest"`
	PassingRate float64 `json:"passing_rate"` // % with effective score >= 60
}

func Summary(subs []store.Submission) ScoreSummary {
	if len(subs) == 0 {
		return ScoreSummary{}
	}
	total := 0
	highest := 0
	lowest := math.MaxInt
	passing := 0
	for _, s := range subs {
		sc := s.EffectiveScore()
		total += sc
		if sc > highest {
			highest = sc
		}
		if sc < lowest {
			lowest = sc
		}
		if sc >= 60 {
			passing++
		}
	}
	return ScoreSummary{
		Average:     round1(float64(total) / float64(len(subs))),
		Highest:     highest,
		Lowest:      lowest,
		PassingRate: round1(float64(passing) / float64(len(subs)) * 100),
	}
}

// Bucket is one fixed score range. The five ranges tile [0,100] with no
// overlap: 0-20, 21-40, 41-60, 61-80, 81-100.
type Bucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

func Distribution(subs []store.Submission) []Bucket {
	buckets := []Bucket{
		{Label: "0-20%", Min: 0, Max: 20},
		{Label: "21-40%", Min: 21, Max: 40},
		{Label: "41-60%", Min: 41, Max: 60},
		{Label: "61-80%", Min: 61, Max: 80},
		{Label: "81-100%", Min: 81, Max: 100},
	}
	for _, s := range subs {
		sc := s.EffectiveScore()
		for i := range buckets {
			if sc >= buckets[i].Min && sc <= buckets[i].Max {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// QuestionPerformance reports per-question correctness over the submissions
// that answered it. Free-text questions have no answer key to compare
// against; they are reported unscored with both percentages zero.
type QuestionPerformance struct {
	QuestionID   string  `json:"question_id"`
	Text         string  `json:"text"`
	Answered     int     `json:"answered"`
	Correct      int     `json:"correct"`
	CorrectPct   float64 `json:"correct_pct"`
	IncorrectPct float64 `json:"incorrect_pct"`
	Unscored     bool    `json:"unscored"`
}

func QuestionBreakdown(questions []store.Question, subs []store.Submission) []QuestionPerformance {
	out := make([]QuestionPerformance, 0, len(questions))
	for _, q := range questions {
		perf := QuestionPerformance{QuestionID: q.ID, Text: q.Text}
		if q.Type != store.QuestionMultipleChoice {
			perf.Unscored = true
			for _, s := range subs {
				if _, ok := s.Answers[q.ID]; ok {
					perf.Answered++
				}
			}
			out = append(out, perf)
			continue
		}
		for _, s := range subs {
			ans, ok := s.Answers[q.ID]
			if !ok {
				continue
			}
			perf.Answered++
			if ans == q.CorrectAnswer {
				perf.Correct++
			}
		}
		if perf.Answered > 0 {
			perf.CorrectPct = round1(float64(perf.Correct) / float64(perf.Answered) * 100)
			perf.IncorrectPct = round1(100 - perf.CorrectPct)
		}
		out = append(out, perf)
	}
	return out
}

// StudentRollup is one student's cross-exam aggregate.
type StudentRollup struct {
	StudentID    string  `json:"student_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Submissions  int     `json:"submissions"`
	AverageScore float64 `json:"average_score"`
}

// StudentRollups groups submissions by student and computes count and mean
// effective score, sorted by mean descending.
func StudentRollups(subs []store.Submission) []StudentRollup {
	byStudent := map[string]*StudentRollup{}
	totals := map[string]int{}
	order := []string{}
	for _, s := range subs {
		r, ok := byStudent[s.StudentID]
		if !ok {
			r = &StudentRollup{StudentID: s.StudentID, Name: s.StudentName, Email: s.StudentEmail}
			byStudent[s.StudentID] = r
			order = append(order, s.StudentID)
		}
		r.Submissions++
		totals[s.StudentID] += s.EffectiveScore()
	}
	out := make([]StudentRollup, 0, len(order))
	for _, id := range order {
		r := byStudent[id]
		r.AverageScore = round1(float64(totals[id]) / float64(r.Submissions))
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageScore > out[j].AverageScore })
	return out
}

// TopStudents truncates the rollups to a leaderboard of n.
func TopStudents(subs []store.Submission, n int) []StudentRollup {
	rollups := StudentRollups(subs)
	if n > 0 && len(rollups) > n {
		rollups = rollups[:n]
	}
	return rollups
}

// TimelinePoint is one calendar day's submission count.
type TimelinePoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Timeline buckets submissions by day over the trailing window ending at
// now, inclusive. Every day in the window appears, zero-filled.
func Timeline(subs []store.Submission, now time.Time, days int) []TimelinePoint {
	if days <= 0 {
		days = 30
	}
	start := now.AddDate(0, 0, -days)
	index := map[string]int{}
	out := []TimelinePoint{}
	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		index[key] = len(out)
		out = append(out, TimelinePoint{Date: key})
	}
	for _, s := range subs {
		t := time.Unix(s.SubmittedAt, 0).In(now.Location())
		if t.Before(start) || t.After(now) {
			continue
		}
		if i, ok := index[t.Format("2006-01-02")]; ok {
			out[i].Count++
		}
	}
	return out
}

// ExamComparison carries only metrics derivable from stored data. Anything
// else the UI once invented (completion rate, time efficiency, question
// difficulty) is listed in Comparison.UnavailableMetrics instead of being
// fabricated.
type ExamComparison struct {
	ExamID          string  `json:"exam_id"`
	Title           string  `json:"title"`
	SubmissionCount int     `json:"submission_count"`
	AverageScore    float64 `json:"average_score"`
}

type Comparison struct {
	Exams              []ExamComparison `json:"exams"`
	UnavailableMetrics []string         `json:"unavailable_metrics"`
}

func CompareExams(exams []store.Exam, subs []store.Submission, topK int) Comparison {
	if topK <= 0 {
		topK = 3
	}
	counts := map[string]int{}
	totals := map[string]int{}
	for _, s := range subs {
		counts[s.ExamID]++
		totals[s.ExamID] += s.EffectiveScore()
	}

	ranked := make([]store.Exam, len(exams))
	copy(ranked, exams)
	sort.SliceStable(ranked, func(i, j int) bool { return counts[ranked[i].ID] > counts[ranked[j].ID] })
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := Comparison{
		Exams:              make([]ExamComparison, 0, len(ranked)),
		UnavailableMetrics: []string{"completion_rate", "time_efficiency", "question_difficulty"},
	}
	for _, e := range ranked {
		c := ExamComparison{ExamID: e.ID, Title: e.Title, SubmissionCount: counts[e.ID]}
		if c.SubmissionCount > 0 {
			c.AverageScore = round1(float64(totals[e.ID]) / float64(c.SubmissionCount))
		}
		out.Exams = append(out.Exams, c)
	}
	return out
}

// Overview is the dashboard header: portal-wide totals.
type Overview struct {
	TotalExams       int     `json:"total_exams"`
	TotalSubmissions int     `json:"total_submissions"`
	TotalStudents    int     `json:"total_students"`
	AverageScore     float64 `json:"average_score"`
}

func Overall(exams []store.Exam, subs []store.Submission) Overview {
	students := map[string]bool{}
	total := 0
	for _, s := range subs {
		students[s.StudentID] = true
		total += s.EffectiveScore()
	}
	o := Overview{
		TotalExams:       len(exams),
		TotalSubmissions: len(subs),
		TotalStudents:    len(students),
	}
	if len(subs) > 0 {
		o.AverageScore = round1(float64(total) / float64(len(subs)))
	}
	return o
}

// ExamReport is the full per-exam analytics view.
type ExamReport struct {
	Exam         store.Exam            `json:"exam"`
	Submissions  int                   `json:"submissions"`
	Summary      ScoreSummary          `json:"summary"`
	Distribution []Bucket              `json:"distribution"`
	Questions    []QuestionPerformance `json:"questions"`
}

func Report(exam store.ExamWithQuestions, subs []store.Submission) ExamReport {
	e := exam.Exam
	e.QuestionCount = len(exam.Questions)
	return ExamReport{
		Exam:         e,
		Submissions:  len(subs),
		Summary:      Summary(subs),
		Distribution: Distribution(subs),
		Questions:    QuestionBreakdown(exam.Questions, subs),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
