package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.QuizCreated()
	r.QuizCreated()
	r.Submission("accepted", 3, 4)
	r.Submission("not_available", 0, 0)
	r.LeaderboardRead("cache")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.quizzesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.submissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.submissions.WithLabelValues("not_available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.leaderboardReads.WithLabelValues("cache")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.QuizCreated()
		r.QuizDeleted()
		r.AccessCodeAttempts(3)
		r.Submission("accepted", 1, 1)
		r.LeaderboardRead("store")
	})
}
