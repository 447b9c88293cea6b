package qna_test

import (
	"context"
	"encoding/json"
	"github.com/alexandre-normand/eurekabot/qna"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedRequest struct {
	method        string
	path          string
	authorization string
	body          map[string]interface{}
}

// newKnowledgeBaseServer starts a test server answering generateAnswer calls with the given status and payload
func newKnowledgeBaseServer(t *testing.T, status int, payload string, captured *capturedRequest) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.authorization = r.Header.Get("Authorization")

		b, err := io.ReadAll(r.Body)
		assert.Nil(t, err)
		assert.Nil(t, json.Unmarshal(b, &captured.body))

		w.WriteHeader(status)
		io.WriteString(w, payload)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNewClientWithIncompleteEndpoint(t *testing.T) {
	_, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb", Host: "https://example.com"}, qna.Options{})

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "incomplete qna endpoint")
	}
}

func TestGetAnswersRequest(t *testing.T) {
	var captured capturedRequest
	server := newKnowledgeBaseServer(t, http.StatusOK, `{"answers": []}`, &captured)

	c, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb-42", EndpointKey: "secret", Host: server.URL + "/qnamaker/"}, qna.Options{Top: 3})
	require.Nil(t, err)

	results, err := c.GetAnswers(context.Background(), "What is EurekaBot?")
	assert.Nil(t, err)
	assert.Empty(t, results)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/qnamaker/knowledgebases/kb-42/generateAnswer", captured.path)
	assert.Equal(t, "EndpointKey secret", captured.authorization)
	assert.Equal(t, "What is EurekaBot?", captured.body["question"])
	assert.Equal(t, float64(3), captured.body["top"])
}

func TestGetAnswersDefaultsTopToOne(t *testing.T) {
	var captured capturedRequest
	server := newKnowledgeBaseServer(t, http.StatusOK, `{"answers": []}`, &captured)

	c, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb", EndpointKey: "secret", Host: server.URL}, qna.Options{})
	require.Nil(t, err)

	_, err = c.GetAnswers(context.Background(), "hello")
	assert.Nil(t, err)
	assert.Equal(t, float64(1), captured.body["top"])
}

func TestGetAnswersNormalizesFiltersAndSorts(t *testing.T) {
	var captured capturedRequest
	payload := `{"answers": [
		{"questions": ["q1"], "answer": "Second best", "score": 75.0, "id": 2, "source": "faq.tsv"},
		{"questions": ["q2"], "answer": "A sample bot.", "score": 92.0, "id": 1, "source": "faq.tsv", "metadata": [{"name": "topic", "value": "bot"}]},
		{"questions": ["q3"], "answer": "Tied with second", "score": 75.0, "id": 3, "source": "faq.tsv"},
		{"questions": [], "answer": "No good match found in KB.", "score": 0, "id": -1, "source": ""},
		{"questions": ["q4"], "answer": "At threshold", "score": 30.0, "id": 4, "source": "faq.tsv"}
	]}`
	server := newKnowledgeBaseServer(t, http.StatusOK, payload, &captured)

	c, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb", EndpointKey: "secret", Host: server.URL}, qna.Options{Top: 5, ScoreThreshold: 0.3})
	require.Nil(t, err)

	results, err := c.GetAnswers(context.Background(), "What is EurekaBot?")
	require.Nil(t, err)

	if assert.Len(t, results, 3) {
		assert.Equal(t, "A sample bot.", results[0].Answer)
		assert.InDelta(t, 0.92, results[0].Score, 0.0001)
		assert.Equal(t, []qna.Metadata{{Name: "topic", Value: "bot"}}, results[0].Metadata)

		assert.Equal(t, "Second best", results[1].Answer)
		assert.Equal(t, "Tied with second", results[2].Answer)
		assert.InDelta(t, 0.75, results[2].Score, 0.0001)
	}
}

func TestGetAnswersWithServiceError(t *testing.T) {
	var captured capturedRequest
	server := newKnowledgeBaseServer(t, http.StatusUnauthorized, `{"error": {"code": "Unauthorized"}}`, &captured)

	c, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb", EndpointKey: "bad", Host: server.URL}, qna.Options{})
	require.Nil(t, err)

	_, err = c.GetAnswers(context.Background(), "hello")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "Unauthorized")
	}
}

func TestGetAnswersWithInvalidPayload(t *testing.T) {
	var captured capturedRequest
	server := newKnowledgeBaseServer(t, http.StatusOK, `not json`, &captured)

	c, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb", EndpointKey: "secret", Host: server.URL}, qna.Options{})
	require.Nil(t, err)

	_, err = c.GetAnswers(context.Background(), "hello")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "error decoding qna response")
	}
}

func TestGetAnswersWithCancelledContext(t *testing.T) {
	var captured capturedRequest
	server := newKnowledgeBaseServer(t, http.StatusOK, `{"answers": []}`, &captured)

	c, err := qna.NewClient(qna.Endpoint{KnowledgeBaseID: "kb", EndpointKey: "secret", Host: server.URL}, qna.Options{})
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.GetAnswers(ctx, "hello")
	if assert.Error(t, err) {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
