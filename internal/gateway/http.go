package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/planhub/internal/model"
)

// Client is a thin HTTP client for a hosted entity store exposing a
// JSON REST surface per entity kind. It handles JSON marshaling and
// maps response statuses onto the gateway error kinds.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an HTTP gateway client. baseURL is the root URL
// of the hosted store. timeout bounds each call; zero means 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// HTTPTasks returns a task gateway served by the HTTP client.
func HTTPTasks(c *Client) Gateway[model.Task, model.TaskPatch] {
	return &httpKind[model.Task, model.TaskPatch]{c: c, path: "/tasks", kind: model.KindTask}
}

// HTTPProjects returns a project gateway served by the HTTP client.
func HTTPProjects(c *Client) Gateway[model.Project, model.ProjectPatch] {
	return &httpKind[model.Project, model.ProjectPatch]{c: c, path: "/projects", kind: model.KindProject}
}

// HTTPGoals returns a goal gateway served by the HTTP client.
func HTTPGoals(c *Client) Gateway[model.Goal, model.GoalPatch] {
	return &httpKind[model.Goal, model.GoalPatch]{c: c, path: "/goals", kind: model.KindGoal}
}

// HTTPHabits returns a habit gateway served by the HTTP client.
func HTTPHabits(c *Client) Gateway[model.Habit, model.HabitPatch] {
	return &httpKind[model.Habit, model.HabitPatch]{c: c, path: "/habits", kind: model.KindHabit}
}

// HTTPCheckins returns a checkin gateway served by the HTTP client.
func HTTPCheckins(c *Client) CheckinGateway {
	return &httpCheckins{c: c}
}

// httpKind adapts the client to one entity kind's REST resource.
type httpKind[E, P any] struct {
	c    *Client
	path string
	kind model.Kind
}

func (g *httpKind[E, P]) FetchAll(ctx context.Context, f Filter) ([]E, error) {
	path := g.path
	if q := f.Values().Encode(); q != "" {
		path += "?" + q
	}

	var out []E
	if err := g.c.do(ctx, http.MethodGet, path, g.kind, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *httpKind[E, P]) Insert(ctx context.Context, entity E) (E, error) {
	var out E
	if err := g.c.do(ctx, http.MethodPost, g.path, g.kind, "", entity, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (g *httpKind[E, P]) Update(ctx context.Context, id string, patch P) (E, error) {
	var out E
	path := g.path + "/" + id
	if err := g.c.do(ctx, http.MethodPatch, path, g.kind, id, patch, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (g *httpKind[E, P]) Delete(ctx context.Context, id string) error {
	path := g.path + "/" + id
	err := g.c.do(ctx, http.MethodDelete, path, g.kind, id, nil, nil)
	// Delete is idempotent at the boundary: a 404 means the row is
	// already gone.
	if IsNotFound(err) {
		return nil
	}
	return err
}

// httpCheckins serves habit checkin child rows over the same surface.
type httpCheckins struct {
	c *Client
}

func (g *httpCheckins) Insert(ctx context.Context, c model.Checkin) (model.Checkin, error) {
	var out model.Checkin
	path := "/habits/" + c.HabitID + "/checkins"
	if err := g.c.do(ctx, http.MethodPost, path, model.KindCheckin, "", c, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (g *httpCheckins) Delete(ctx context.Context, habitID, date string) error {
	path := "/habits/" + habitID + "/checkins/" + date
	err := g.c.do(ctx, http.MethodDelete, path, model.KindCheckin, habitID, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}

func (g *httpCheckins) FetchForHabit(ctx context.Context, habitID string) ([]model.Checkin, error) {
	var out []model.Checkin
	path := "/habits/" + habitID + "/checkins"
	if err := g.c.do(ctx, http.MethodGet, path, model.KindCheckin, habitID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do is the core HTTP method that builds the request, performs it,
// and maps failures onto the gateway error kinds.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	kind model.Kind,
	id string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &TransportError{Op: method + " " + path, Err: readErr}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Kind: kind, ID: id}
	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Kind: kind, Reason: rejectionReason(respBody)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s: %w", path, err)
		}
	}

	return nil
}

// rejectionReason extracts a human-readable message from a rejection
// body, falling back to the raw text.
func rejectionReason(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return "request rejected"
}
