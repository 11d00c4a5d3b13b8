// Package agents is a thin HTTP client for the cloud AI project's agents
// API — agent, thread, message and run operations plus project connection
// lookup. There is no first-party Go SDK for this surface, so requests are
// issued directly with bearer tokens from the ambient credential chain.
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

const (
	apiVersion = "2025-05-01"

	// tokenScope is the OAuth2 scope for the AI project data plane.
	tokenScope = "https://ai.azure.com/.default"
)

// Client calls the agents API of one AI project.
type Client struct {
	endpoint   string
	cred       azcore.TokenCredential
	httpClient *http.Client
}

func NewClient(endpoint string, cred azcore.TokenCredential) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		cred:       cred,
		httpClient: &http.Client{},
	}
}

// checkResp reads the response body and returns an error if the status is
// not 2xx. On error it includes the upstream body for debugging.
func checkResp(resp *http.Response, method, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("agents %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return fmt.Errorf("agents token: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("agents %s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path+"?"+query.Encode(), body)
	if err != nil {
		return fmt.Errorf("agents %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agents %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, method, path); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("agents %s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

// GetConnection resolves a named project connection (e.g. the Bing
// grounding resource) to its full record.
func (c *Client) GetConnection(ctx context.Context, name string) (*Connection, error) {
	var conn Connection
	if err := c.do(ctx, http.MethodGet, "/connections/"+url.PathEscape(name), nil, nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// CreateAgent registers a new agent with the given model, instructions and
// tools.
func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", nil, spec, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// DeleteAgent removes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.do(ctx, http.MethodDelete, "/assistants/"+url.PathEscape(agentID), nil, nil, nil)
}

// CreateThread opens a new conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", nil, struct{}{}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	in := map[string]string{"role": role, "content": content}
	var msg Message
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", nil, in, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateRun starts an asynchronous run of the agent against the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (*Run, error) {
	in := map[string]string{"assistant_id": agentID}
	var run Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", nil, in, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetLastMessageByRole returns the newest message in the thread authored by
// the given role, or nil when the thread has none.
func (c *Client) GetLastMessageByRole(ctx context.Context, threadID, role string) (*Message, error) {
	query := url.Values{}
	query.Set("limit", "1")
	query.Set("order", "desc")
	query.Set("role", role)

	var list struct {
		Data []Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages", query, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}
