// Package qna provides a client for the question and answer knowledge base service. A Connection
// lazily creates the client from the first qna service descriptor of the configuration
package qna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Endpoint identifies a knowledge base and how to reach it
type Endpoint struct {
	KnowledgeBaseID string
	EndpointKey     string
	Host            string
}

// Options holds the query options applied on every lookup
type Options struct {
	// Top is the maximum number of answers to request
	Top int

	// ScoreThreshold is the minimum score (between 0 and 1) an answer must exceed to be returned
	ScoreThreshold float64
}

// Metadata is a name/value pair attached to a knowledge base answer
type Metadata struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// QueryResult is one candidate answer. Score is normalized between 0 and 1
type QueryResult struct {
	Questions []string   `json:"questions"`
	Answer    string     `json:"answer"`
	Score     float64    `json:"score"`
	ID        int        `json:"id"`
	Source    string     `json:"source"`
	Metadata  []Metadata `json:"metadata"`
}

// Lookuper is implemented by any value that has the GetAnswers method
type Lookuper interface {
	// GetAnswers returns the candidate answers to a question, best first. An empty result means no match
	GetAnswers(ctx context.Context, question string) (results []QueryResult, err error)
}

// httpDoer is implemented by any value that has the Do method. http.Client implements it
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries a knowledge base over http
type Client struct {
	endpoint   Endpoint
	options    Options
	httpClient httpDoer
}

// ClientOption defines an option for a Client
type ClientOption func(c *Client)

// OptionHTTPClient sets the http client used to query the knowledge base
func OptionHTTPClient(httpClient httpDoer) func(c *Client) {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

type generateAnswerRequest struct {
	Question string `json:"question"`
	Top      int    `json:"top"`
}

type generateAnswerResponse struct {
	Answers []QueryResult `json:"answers"`
}

// NewClient returns a new Client for the knowledge base endpoint. By default, requests go through an
// http client instrumented with open telemetry
func NewClient(endpoint Endpoint, options Options, opts ...ClientOption) (c *Client, err error) {
	if endpoint.KnowledgeBaseID == "" || endpoint.EndpointKey == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("incomplete qna endpoint: knowledge base id, endpoint key and host are all required")
	}

	c = new(Client)
	c.endpoint = endpoint
	c.options = options
	if c.options.Top < 1 {
		c.options.Top = 1
	}
	c.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetAnswers issues a generateAnswer call for the question and returns the answers scoring above the
// threshold, sorted by descending score
func (c *Client) GetAnswers(ctx context.Context, question string) (results []QueryResult, err error) {
	body, err := json.Marshal(generateAnswerRequest{Question: question, Top: c.options.Top})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/knowledgebases/%s/generateAnswer", strings.TrimSuffix(c.endpoint.Host, "/"), c.endpoint.KnowledgeBaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "error creating qna request to [%s]", url)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "EndpointKey "+c.endpoint.EndpointKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "qna request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading qna response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("qna request failed with status [%d]: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var gar generateAnswerResponse
	if err = json.Unmarshal(payload, &gar); err != nil {
		return nil, errors.Wrap(err, "error decoding qna response")
	}

	return c.rank(gar.Answers), nil
}

// rank normalizes scores from the service's 0-100 scale, drops answers not above the score threshold and
// orders the remaining ones by descending score. Equal scores keep the service's order
func (c *Client) rank(answers []QueryResult) (results []QueryResult) {
	results = make([]QueryResult, 0, len(answers))
	for _, a := range answers {
		a.Score = a.Score / 100
		if a.Score > c.options.ScoreThreshold {
			results = append(results, a)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}
