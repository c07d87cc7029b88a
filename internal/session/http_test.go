package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/domain"
)

func TestHTTPSessionFlow(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)
	h := NewHTTPHandlers(f.svc, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions/start", h.Start)
	mux.HandleFunc("POST /v1/results/submit", h.Submit)
	mux.HandleFunc("GET /v1/results/student", h.MyResults)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req = req.WithContext(auth.WithIdentity(req.Context(), f.student))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/v1/sessions/start", `{"accessCode":"`+q.AccessCode+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correctOptionIndex")

	rec = do(http.MethodPost, "/v1/sessions/start", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := json.Marshal(map[string]interface{}{
		"quizId":    q.ID,
		"timeTaken": 30,
		"answers": []map[string]interface{}{
			{"questionId": q.Questions[0].ID, "givenAnswer": 1},
			{"questionId": q.Questions[1].ID, "givenAnswer": "0"},
		},
	})
	require.NoError(t, err)
	rec = do(http.MethodPost, "/v1/results/submit", string(body))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)

	rec = do(http.MethodPost, "/v1/results/submit", `{"quizId":"`+q.ID.String()+`","answers":[],"timeTaken":9999}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duration_exceeded")

	rec = do(http.MethodPost, "/v1/results/submit", `{"quizId":"`+q.ID.String()+`","timeTaken":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"answers"`)

	rec = do(http.MethodGet, "/v1/results/student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)
}

func TestHTTPSubmitMistypedFieldsAreValidationErrors(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)
	h := NewHTTPHandlers(f.svc, zerolog.Nop())
	quizID := q.ID.String()

	cases := map[string]struct {
		body  string
		field string
	}{
		"answers object":    {`{"quizId":"` + quizID + `","answers":{"a":1},"timeTaken":5}`, "answers"},
		"answers empty obj": {`{"quizId":"` + quizID + `","answers":{},"timeTaken":5}`, "answers"},
		"answers string":    {`{"quizId":"` + quizID + `","answers":"oops","timeTaken":5}`, "answers"},
		"time as string":    {`{"quizId":"` + quizID + `","answers":[],"timeTaken":"5"}`, "timeTaken"},
		"NUL answer":        {`{"quizId":"` + quizID + `","answers":[{"questionId":"x","givenAnswer":"1\u0000"}],"timeTaken":5}`, "answers"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/results/submit", bytes.NewBufferString(tc.body))
			req = req.WithContext(auth.WithIdentity(req.Context(), f.student))
			rec := httptest.NewRecorder()
			h.Submit(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body struct {
				Error string `json:"error"`
				Field string `json:"field"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "validation_failed", body.Error)
			assert.Equal(t, tc.field, body.Field)
		})
	}

	t.Run("boolean answer", func(t *testing.T) {
		body := `{"quizId":"` + quizID + `","answers":[{"questionId":"x","givenAnswer":true}],"timeTaken":5}`
		req := httptest.NewRequest(http.MethodPost, "/v1/results/submit", bytes.NewBufferString(body))
		req = req.WithContext(auth.WithIdentity(req.Context(), f.student))
		rec := httptest.NewRecorder()
		h.Submit(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"validation_failed"`)
		assert.Contains(t, rec.Body.String(), "givenAnswer")
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/results/submit", bytes.NewBufferString(`{"quizId":`))
		req = req.WithContext(auth.WithIdentity(req.Context(), f.student))
		rec := httptest.NewRecorder()
		h.Submit(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"invalid_request"`)
	})
}
