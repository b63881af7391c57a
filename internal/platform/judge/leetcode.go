// Package judge queries the LeetCode GraphQL endpoint for user handles,
// recent accepted submissions and problem metadata.
package judge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leetmentor/internal/platform/breaker"

	"github.com/goccy/go-json"
)

// MaxRecentLimit is the largest list the judge returns for recent submissions.
const MaxRecentLimit = 50

const (
	userExistsQuery = `query userPublicProfile($username: String!) {
  matchedUser(username: $username) { username }
}`
	recentAcQuery = `query recentAcSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) { id title titleSlug timestamp }
}`
	questionQuery = `query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) { title titleSlug difficulty topicTags { name slug } }
}`
)

// AcceptedSubmission is one entry of a user's recent accepted list.
type AcceptedSubmission struct {
	ID        string
	Title     string
	TitleSlug string
	Timestamp int64 // epoch seconds
}

// Question is the catalog metadata for one problem.
type Question struct {
	TitleSlug  string
	Title      string
	Difficulty string
	Topics     []string
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	cb         *breaker.Breaker
}

func NewClient(endpoint string, timeout time.Duration, cb *breaker.Breaker) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		cb:         cb,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// UserExists reports whether the handle resolves to a judge profile.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	var data struct {
		MatchedUser *struct {
			Username string `json:"username"`
		} `json:"matchedUser"`
	}
	err := c.do(ctx, userExistsQuery, map[string]interface{}{"username": username}, &data)
	if err != nil {
		// An unknown handle comes back as a GraphQL error with matchedUser null.
		var qe *QueryError
		if errors.As(err, &qe) && data.MatchedUser == nil {
			return false, nil
		}
		return false, err
	}
	return data.MatchedUser != nil, nil
}

// RecentAcceptedSubmissions lists up to limit recent accepted submissions, newest first.
func (c *Client) RecentAcceptedSubmissions(ctx context.Context, username string, limit int) ([]AcceptedSubmission, error) {
	if limit <= 0 {
		return []AcceptedSubmission{}, nil
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	var data struct {
		List []struct {
			ID        string          `json:"id"`
			Title     string          `json:"title"`
			TitleSlug string          `json:"titleSlug"`
			Timestamp json.RawMessage `json:"timestamp"`
		} `json:"recentAcSubmissionList"`
	}
	vars := map[string]interface{}{"username": username, "limit": limit}
	if err := c.do(ctx, recentAcQuery, vars, &data); err != nil {
		return nil, err
	}

	subs := make([]AcceptedSubmission, 0, len(data.List))
	for _, item := range data.List {
		ts, err := parseTimestamp(item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("submission %s: %w", item.ID, err)
		}
		subs = append(subs, AcceptedSubmission{
			ID:        item.ID,
			Title:     item.Title,
			TitleSlug: item.TitleSlug,
			Timestamp: ts,
		})
	}
	return subs, nil
}

// ErrQuestionNotFound is returned when the judge has no problem for the slug.
var ErrQuestionNotFound = errors.New("judge question not found")

func (c *Client) QuestionDetails(ctx context.Context, titleSlug string) (*Question, error) {
	var data struct {
		Question *struct {
			Title      string `json:"title"`
			TitleSlug  string `json:"titleSlug"`
			Difficulty string `json:"difficulty"`
			TopicTags  []struct {
				Name string `json:"name"`
				Slug string `json:"slug"`
			} `json:"topicTags"`
		} `json:"question"`
	}
	if err := c.do(ctx, questionQuery, map[string]interface{}{"titleSlug": titleSlug}, &data); err != nil {
		return nil, err
	}
	if data.Question == nil {
		return nil, fmt.Errorf("%s: %w", titleSlug, ErrQuestionNotFound)
	}

	q := &Question{
		TitleSlug:  data.Question.TitleSlug,
		Title:      data.Question.Title,
		Difficulty: data.Question.Difficulty,
		Topics:     make([]string, 0, len(data.Question.TopicTags)),
	}
	for _, tag := range data.Question.TopicTags {
		q.Topics = append(q.Topics, tag.Name)
	}
	return q, nil
}

// QueryError carries GraphQL-level errors. The judge answered, so these do
// not count against the breaker.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return "judge query errors: " + strings.Join(e.Messages, "; ")
}

func (c *Client) do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	var queryErr error
	_, err := breaker.Do(c.cb, func() (struct{}, error) {
		err := c.post(ctx, query, vars, out)
		var qe *QueryError
		if errors.As(err, &qe) {
			queryErr = err
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	if err != nil {
		return err
	}
	return queryErr
}

func (c *Client) post(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal judge query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read judge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var gql graphQLResponse
	if err := json.Unmarshal(respBody, &gql); err != nil {
		return fmt.Errorf("malformed judge response: %w", err)
	}
	hasData := len(gql.Data) > 0 && string(gql.Data) != "null"
	if hasData {
		if err := json.Unmarshal(gql.Data, out); err != nil {
			return fmt.Errorf("malformed judge data: %w", err)
		}
	}
	if len(gql.Errors) > 0 {
		qe := &QueryError{Messages: make([]string, 0, len(gql.Errors))}
		for _, e := range gql.Errors {
			qe.Messages = append(qe.Messages, e.Message)
		}
		return qe
	}
	if !hasData {
		return errors.New("judge response has no data")
	}
	return nil
}

// The judge sends timestamps as decimal strings; numbers are accepted too.
func parseTimestamp(raw json.RawMessage) (int64, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}
