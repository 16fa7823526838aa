package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/chat"
	"github.com/BrVecchi/projeto13-batepapo-uol-api/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemoryStore()
	svc := chat.NewService(mem, mem, chat.SystemClock(), zerolog.Nop())
	router := NewRouter(zerolog.Nop(), svc, mem, mem, nil, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, user string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("User", user)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func join(t *testing.T, srv *httptest.Server, name string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/participants", "", map[string]string{"name": name})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("join %s: status %d", name, resp.StatusCode)
	}
}

func TestJoinEndpoint(t *testing.T) {
	srv := newTestServer(t)

	join(t, srv, "Alice")

	// Duplicate name conflicts.
	resp := doJSON(t, http.MethodPost, srv.URL+"/participants", "", map[string]string{"name": "Alice"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	// Blank name is rejected.
	resp = doJSON(t, http.MethodPost, srv.URL+"/participants", "", map[string]string{"name": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestListParticipantsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	join(t, srv, "Alice")
	join(t, srv, "Bob")

	resp := doJSON(t, http.MethodGet, srv.URL+"/participants", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list []struct {
		Name string `json:"name"`
	}
	decode(t, resp, &list)
	if len(list) != 2 || list[0].Name != "Alice" || list[1].Name != "Bob" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestGetParticipantEndpoint(t *testing.T) {
	srv := newTestServer(t)
	join(t, srv, "Alice")

	resp := doJSON(t, http.MethodGet, srv.URL+"/participants/Alice", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/participants/Ghost", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPostMessageEndpoint(t *testing.T) {
	srv := newTestServer(t)
	join(t, srv, "Alice")

	// Unknown sender.
	resp := doJSON(t, http.MethodPost, srv.URL+"/messages", "Ghost",
		map[string]string{"to": "Todos", "text": "boo", "type": "message"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unknown sender: expected 422, got %d", resp.StatusCode)
	}

	// Clients cannot forge system notices.
	resp = doJSON(t, http.MethodPost, srv.URL+"/messages", "Alice",
		map[string]string{"to": "Todos", "text": "fake", "type": "system"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("system kind: expected 422, got %d", resp.StatusCode)
	}

	// Unrecognized kind.
	resp = doJSON(t, http.MethodPost, srv.URL+"/messages", "Alice",
		map[string]string{"to": "Todos", "text": "hi", "type": "shout"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind: expected 422, got %d", resp.StatusCode)
	}

	// Valid broadcast.
	resp = doJSON(t, http.MethodPost, srv.URL+"/messages", "Alice",
		map[string]string{"to": "Todos", "text": "hi", "type": "message"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var msg struct {
		ID   string `json:"id"`
		From string `json:"from"`
	}
	decode(t, resp, &msg)
	if msg.ID == "" || msg.From != "Alice" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestGetMessagesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	join(t, srv, "Alice")
	join(t, srv, "Bob")

	post := func(user string, body map[string]string) {
		t.Helper()
		resp := doJSON(t, http.MethodPost, srv.URL+"/messages", user, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("post message: status %d", resp.StatusCode)
		}
	}
	post("Alice", map[string]string{"to": "Todos", "text": "hi", "type": "message"})
	post("Bob", map[string]string{"to": "Alice", "text": "secret", "type": "private_message"})

	// A bystander sees join notices and the broadcast, not the secret.
	resp := doJSON(t, http.MethodGet, srv.URL+"/messages", "Charlie", nil)
	var msgs []struct {
		Text string `json:"text"`
	}
	decode(t, resp, &msgs)
	for _, m := range msgs {
		if m.Text == "secret" {
			t.Fatal("private message leaked to bystander")
		}
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 visible messages, got %d", len(msgs))
	}

	// limit returns the tail, oldest first.
	resp = doJSON(t, http.MethodGet, srv.URL+"/messages?limit=1", "Alice", nil)
	decode(t, resp, &msgs)
	if len(msgs) != 1 || msgs[0].Text != "secret" {
		t.Fatalf("unexpected window: %+v", msgs)
	}

	// Malformed limit.
	resp = doJSON(t, http.MethodGet, srv.URL+"/messages?limit=abc", "Alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// Negative limit.
	resp = doJSON(t, http.MethodGet, srv.URL+"/messages?limit=-1", "Alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/status", "Ghost", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	join(t, srv, "Alice")
	resp = doJSON(t, http.MethodPost, srv.URL+"/status", "Alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFindEndpoint(t *testing.T) {
	srv := newTestServer(t)
	join(t, srv, "Alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/messages", "Alice",
		map[string]string{"to": "Todos", "text": "release shipped", "type": "message"})
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/find?q=shipped", "Bob", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Total   int `json:"total"`
		Results []struct {
			Text string `json:"text"`
		} `json:"results"`
	}
	decode(t, resp, &out)
	if out.Total != 1 || out.Results[0].Text != "release shipped" {
		t.Fatalf("unexpected search response: %+v", out)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/find", "Bob", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without query, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var health struct {
		Status string `json:"status"`
	}
	decode(t, resp, &health)
	if health.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", health.Status)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	join(t, srv, "Alice")

	resp := doJSON(t, http.MethodGet, srv.URL+"/stats", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats struct {
		TotalParticipants int64 `json:"total_participants"`
		TotalMessages     int64 `json:"total_messages"`
	}
	decode(t, resp, &stats)
	if stats.TotalParticipants != 1 || stats.TotalMessages != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
