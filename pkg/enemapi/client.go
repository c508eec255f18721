package enemapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

// StatusError is returned for any non-2xx upstream response other than 404.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("exam api %s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
	header  http.Header
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader adds a header to every request, e.g. an Authorization token when the
// client talks to the proxy routes of this service.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		header:  http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListExams(ctx context.Context) ([]Exam, error) {
	var exams []Exam
	if err := c.do(ctx, http.MethodGet, "/exams", nil, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}

func (c *Client) GetExam(ctx context.Context, year int) (*Exam, error) {
	var exam Exam
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d", year), nil, &exam); err != nil {
		return nil, err
	}
	return &exam, nil
}

// ListQuestions pages through a year's questions, optionally narrowed by discipline
// and language.
func (c *Client) ListQuestions(ctx context.Context, year, limit, offset int, filter QuestionFilter) (*QuestionPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	filter = filter.normalized()
	if filter.Discipline != "" {
		q.Set("discipline", filter.Discipline)
	}
	if filter.Language != "" {
		q.Set("language", filter.Language)
	}
	var page QuestionPage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d/questions?%s", year, q.Encode()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetQuestion(ctx context.Context, year, index int) (*Question, error) {
	var question Question
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d/questions/%d", year, index), nil, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

type batchRequest struct {
	Indices []int `json:"indices"`
}

// GetQuestionsBatch fetches several questions of one year in a single call. Upstream
// answers either with a question page or with a bare array; both are accepted.
func (c *Client) GetQuestionsBatch(ctx context.Context, year int, indices []int) ([]Question, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/exams/%d/questions", year), batchRequest{Indices: indices}, &raw); err != nil {
		return nil, err
	}
	return decodeQuestions(raw)
}

func decodeQuestions(raw json.RawMessage) ([]Question, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Question
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var page QuestionPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	return page.Questions, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("exam api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("exam api %s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("exam api %s %s: decode: %w", method, path, err)
	}
	return nil
}
