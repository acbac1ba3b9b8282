package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/campus-support/internal/api/dto"
	"github.com/spec-kit/campus-support/internal/service"
)

const clientTimeout = 10 * time.Second

// Client talks to the ticket service's internal surface. All requests carry
// the shared internal secret header.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient constructs a client for the given ticket service base URL.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: clientTimeout},
	}
}

type ticketEnvelope struct {
	Data dto.TicketResponse `json:"data"`
}

type summaryEnvelope struct {
	Data service.UserSummary `json:"data"`
}

// GetTicket fetches full ticket detail.
func (c *Client) GetTicket(ctx context.Context, ticketID int64) (*dto.TicketResponse, error) {
	var envelope ticketEnvelope
	url := fmt.Sprintf("%s/internal/tickets/%d", c.baseURL, ticketID)
	if err := c.do(ctx, http.MethodGet, url, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// GetUserSummary fetches the creator's ticket history summary.
func (c *Client) GetUserSummary(ctx context.Context, userID int64) (*service.UserSummary, error) {
	var envelope summaryEnvelope
	url := fmt.Sprintf("%s/internal/users/%d/tickets/summary", c.baseURL, userID)
	if err := c.do(ctx, http.MethodGet, url, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// ApplyUpdate pushes the triage result back to the ticket service.
func (c *Client) ApplyUpdate(ctx context.Context, ticketID int64, update dto.AgentUpdateRequest) (*dto.TicketResponse, error) {
	var envelope ticketEnvelope
	url := fmt.Sprintf("%s/internal/tickets/%d/agent-update", c.baseURL, ticketID)
	if err := c.do(ctx, http.MethodPost, url, update, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Internal-Secret", c.secret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ticket service returned status %d for %s %s", resp.StatusCode, method, url)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
