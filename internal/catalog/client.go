// Package catalog provides the HTTP client for a remote quiz catalog
// exposing the Quizzer REST routes.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quizzer-session-service/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client talks to a remote catalog service. Fetch failures surface as
// domain.ErrCatalogUnavailable or domain.ErrQuizNotFound so the session
// engine can leave the session in its prior phase.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListQuizzes fetches the quiz summaries for the selection screen.
func (c *Client) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var summaries []domain.QuizSummary
	if err := c.getJSON(ctx, c.baseURL+"/api/quizzes", &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetQuiz fetches one quiz's full detail, correct answers included.
func (c *Client) GetQuiz(ctx context.Context, quizID string) (domain.QuizDetail, error) {
	var detail domain.QuizDetail
	if err := c.getJSON(ctx, c.baseURL+"/api/quizzes/"+quizID, &detail); err != nil {
		return domain.QuizDetail{}, err
	}
	return detail, nil
}

// createQuizRequest mirrors the authoring form payload; the create route
// takes the time limit under its historical short name.
type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TimeLimit   int               `json:"timeLimit"`
	Questions   []domain.Question `json:"questions"`
}

type createQuizResponse struct {
	ID string `json:"id"`
}

// CreateQuiz submits a new quiz and returns the id the catalog assigned.
func (c *Client) CreateQuiz(ctx context.Context, detail domain.QuizDetail) (string, error) {
	body, err := json.Marshal(createQuizRequest{
		Title:       detail.Title,
		Description: detail.Description,
		TimeLimit:   detail.TimeLimitMinutes,
		Questions:   detail.Questions,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/quizzes/add", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError(resp.StatusCode)
	}

	var created createQuizResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", domain.ErrCatalogUnavailable, err)
	}
	return created.ID, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

func statusError(code int) error {
	if code == http.StatusNotFound {
		return domain.ErrQuizNotFound
	}
	return fmt.Errorf("%w: catalog returned status %d", domain.ErrCatalogUnavailable, code)
}
