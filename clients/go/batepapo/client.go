// Package batepapo provides a client for the batepapo chat room API.
package batepapo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a batepapo API client. User is the display name sent in
// the User header on operations that act as a participant.
type Client struct {
	BaseURL    string
	User       string
	HTTPClient *http.Client
}

// NewClient creates a new client for the server at baseURL.
func NewClient(baseURL, user string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &Client{
		BaseURL:    baseURL,
		User:       user,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Participant is a room member as returned by the API.
type Participant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastActivity string `json:"last_activity"`
}

// Message is a chat event as returned by the API.
type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

// doRequest performs an HTTP request, decoding API errors.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.User != "" {
		req.Header.Set("User", c.User)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("batepapo error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Join registers c.User as a room participant.
func (c *Client) Join() (*Participant, error) {
	body, _ := json.Marshal(map[string]string{"name": c.User})

	respBody, err := c.doRequest(http.MethodPost, "/participants", body)
	if err != nil {
		return nil, err
	}

	var p Participant
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Participants lists everyone currently in the room.
func (c *Client) Participants() ([]Participant, error) {
	respBody, err := c.doRequest(http.MethodGet, "/participants", nil)
	if err != nil {
		return nil, err
	}

	var out []Participant
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Send posts a broadcast message to the room.
func (c *Client) Send(text string) (*Message, error) {
	return c.send("Todos", text, "message")
}

// SendPrivate posts a private message to a single recipient.
func (c *Client) SendPrivate(to, text string) (*Message, error) {
	return c.send(to, text, "private_message")
}

func (c *Client) send(to, text, kind string) (*Message, error) {
	body, _ := json.Marshal(map[string]string{
		"to":   to,
		"text": text,
		"type": kind,
	})

	respBody, err := c.doRequest(http.MethodPost, "/messages", body)
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(respBody, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Messages fetches the history visible to c.User, oldest first.
// limit 0 fetches the full visible history.
func (c *Client) Messages(limit int) ([]Message, error) {
	path := "/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	respBody, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out []Message
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Find searches the visible history for messages containing query.
func (c *Client) Find(query string, limit int) ([]Message, error) {
	path := "/find?q=" + url.QueryEscape(query)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}

	respBody, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []Message `json:"results"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Heartbeat signals that c.User is still in the room. Call it more
// often than the server's presence TTL or the participant is evicted.
func (c *Client) Heartbeat() error {
	_, err := c.doRequest(http.MethodPost, "/status", nil)
	return err
}
