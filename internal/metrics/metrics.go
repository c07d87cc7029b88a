package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects domain counters exposed on /metrics. A nil *Recorder is a no-op.
type Recorder struct {
	quizzesCreated     prometheus.Counter
	quizzesDeleted     prometheus.Counter
	accessCodeAttempts prometheus.Histogram
	submissions        *prometheus.CounterVec
	scoreRatio         prometheus.Histogram
	leaderboardReads   *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		quizzesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "classquiz",
			Name:      "quizzes_created_total",
			Help:      "Quizzes persisted by teachers.",
		}),
		quizzesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "classquiz",
			Name:      "quizzes_deleted_total",
			Help:      "Quizzes deleted by their owners.",
		}),
		accessCodeAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "classquiz",
			Name:      "access_code_attempts",
			Help:      "Draws needed to find a free access code.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classquiz",
			Name:      "submissions_total",
			Help:      "Quiz submissions by outcome.",
		}, []string{"outcome"}),
		scoreRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "classquiz",
			Name:      "submission_score_ratio",
			Help:      "Score divided by total questions for accepted submissions.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		leaderboardReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "classquiz",
			Name:      "leaderboard_reads_total",
			Help:      "Leaderboard reads by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		r.quizzesCreated,
		r.quizzesDeleted,
		r.accessCodeAttempts,
		r.submissions,
		r.scoreRatio,
		r.leaderboardReads,
	)
	return r
}

func (r *Recorder) QuizCreated() {
	if r == nil {
		return
	}
	r.quizzesCreated.Inc()
}

func (r *Recorder) QuizDeleted() {
	if r == nil {
		return
	}
	r.quizzesDeleted.Inc()
}

// AccessCodeAttempts matches accesscode.Observer.
func (r *Recorder) AccessCodeAttempts(n int) {
	if r == nil {
		return
	}
	r.accessCodeAttempts.Observe(float64(n))
}

// Submission counts a submission outcome ("accepted" or an error kind).
func (r *Recorder) Submission(outcome string, score, total int) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(outcome).Inc()
	if outcome == "accepted" && total > 0 {
		r.scoreRatio.Observe(float64(score) / float64(total))
	}
}

// LeaderboardRead counts reads served from "cache" or "store".
func (r *Recorder) LeaderboardRead(source string) {
	if r == nil {
		return
	}
	r.leaderboardReads.WithLabelValues(source).Inc()
}
