package main

import (
	"context"
	"crypto/tls"
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

const (
	redmineAPIKeyHeader = "X-Redmine-API-Key"
	redmineHTTPTimeout  = 30 * time.Second
)

// TicketFetcher is the boundary to the issue tracker.
type TicketFetcher interface {
	FetchTicket(ctx context.Context, id int) (Ticket, error)
}

// RedmineClient reads issues from the Redmine REST API.
type RedmineClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type redmineIssueEnvelope struct {
	Issue redmineIssue `json:"issue"`
}

type redmineIssue struct {
	ID           int           `json:"id"`
	Subject      string        `json:"subject"`
	FixedVersion *redmineNamed `json:"fixed_version"`
	AssignedTo   *redmineNamed `json:"assigned_to"`
	Parent       *redmineID    `json:"parent"`
}

type redmineNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type redmineID struct {
	ID int `json:"id"`
}

func NewRedmineClient(baseURL string, apiKey string, insecureSkipVerify bool) *RedmineClient {
	client := &http.Client{Timeout: redmineHTTPTimeout}
	if insecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed trackers
		client.Transport = transport
	}
	return NewRedmineClientWithHTTPClient(baseURL, apiKey, client)
}

func NewRedmineClientWithHTTPClient(baseURL string, apiKey string, client *http.Client) *RedmineClient {
	if client == nil {
		client = &http.Client{Timeout: redmineHTTPTimeout}
	}
	return &RedmineClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: client,
	}
}

func (c *RedmineClient) issueURL(id int, suffix string) string {
	return fmt.Sprintf("%s/issues/%d%s", c.baseURL, id, suffix)
}

// FetchTicket retrieves issue id. Every failure is returned as *FetchError.
func (c *RedmineClient) FetchTicket(ctx context.Context, id int) (Ticket, error) {
	t, err := c.fetchTicket(ctx, id)
	if err != nil {
		return Ticket{}, &FetchError{TicketID: id, Err: err}
	}
	return t, nil
}

func (c *RedmineClient) fetchTicket(ctx context.Context, id int) (Ticket, error) {
	if id <= 0 {
		return Ticket{}, fmt.Errorf("ticket id must be positive, got %d", id)
	}
	if c.baseURL == "" {
		return Ticket{}, errors.New("tracker_url is not configured; run: rnb init")
	}
	if c.apiKey == "" {
		return Ticket{}, errors.New("no API key; set RNB_API_KEY, pass --token or run: rnb init")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.issueURL(id, ".json"), nil)
	if err != nil {
		return Ticket{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(redmineAPIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ticket{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Ticket{}, fmt.Errorf("tracker returned %d %s; check the API key", resp.StatusCode, http.StatusText(resp.StatusCode))
	case http.StatusNotFound:
		return Ticket{}, errors.New("ticket not found")
	default:
		return Ticket{}, fmt.Errorf("tracker returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Ticket{}, fmt.Errorf("read response: %w", err)
	}
	t, err := parseRedmineIssue(body)
	if err != nil {
		return Ticket{}, err
	}
	t.URL = c.issueURL(t.ID, "")
	return t, nil
}

func parseRedmineIssue(body []byte) (Ticket, error) {
	var envelope redmineIssueEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Ticket{}, fmt.Errorf("decode issue: %w", err)
	}
	issue := envelope.Issue
	if issue.ID <= 0 {
		return Ticket{}, errors.New("decode issue: missing issue id")
	}
	t := Ticket{
		ID:      issue.ID,
		Subject: strings.TrimSpace(issue.Subject),
	}
	if issue.FixedVersion != nil {
		t.Version = strings.TrimSpace(issue.FixedVersion.Name)
	}
	if issue.AssignedTo != nil {
		t.Assignee = strings.TrimSpace(issue.AssignedTo.Name)
	}
	if issue.Parent != nil && issue.Parent.ID > 0 {
		t.Parent = &ParentRef{ID: issue.Parent.ID}
	}
	return t, nil
}

func validateTrackerURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: tracker_url: %v", errInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: tracker_url must be http or https, got %q", errInvalidConfig, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: tracker_url has no host: %q", errInvalidConfig, raw)
	}
	return nil
}

func parseTicketID(arg string) (int, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, usageErrorf("ticket id must be a positive integer, got %q", arg)
	}
	return id, nil
}
