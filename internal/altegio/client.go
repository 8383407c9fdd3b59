// Package altegio talks to the external staff directory and keeps the
// employee registry in step with it.
package altegio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrNotConfigured = errors.New("staff directory is not configured")
	ErrUpstream      = errors.New("staff directory request failed")
)

const maxErrorBody = 2048

// Staff is one entry of the directory staff list.
type Staff struct {
	ID             json.Number `json:"id"`
	Name           string      `json:"name"`
	Specialization string      `json:"specialization"`
	Phone          string      `json:"phone"`
	Email          string      `json:"email"`
}

type staffResponse struct {
	Success bool    `json:"success"`
	Data    []Staff `json:"data"`
}

// Client calls the directory REST API with the partner/user token pair.
type Client struct {
	baseURL      string
	companyID    string
	partnerToken string
	userToken    string
	http         *http.Client
}

// NewClient creates a Client. httpClient may be nil.
func NewClient(baseURL, companyID, partnerToken, userToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:      baseURL,
		companyID:    companyID,
		partnerToken: partnerToken,
		userToken:    userToken,
		http:         httpClient,
	}
}

// Configured reports whether the company id and both tokens are set.
func (c *Client) Configured() bool {
	return c.companyID != "" && c.partnerToken != "" && c.userToken != ""
}

// ListStaff fetches every staff member of the company.
func (c *Client) ListStaff(ctx context.Context) ([]Staff, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/api/v1/staff/%s", c.baseURL, c.companyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s, User %s", c.partnerToken, c.userToken))
	req.Header.Set("Accept", "application/vnd.api.v2+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, body)
	}

	var payload staffResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode staff: %v", ErrUpstream, err)
	}
	return payload.Data, nil
}
