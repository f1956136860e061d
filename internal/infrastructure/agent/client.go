// Package agent is the HTTP client for node agent daemons.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meridian/internal/shared/logger"
)

// NodeInfo is one node as reported by an agent's /v1/node-info endpoint.
type NodeInfo struct {
	Name     string                 `json:"name"`
	Address  string                 `json:"address"`
	Port     int                    `json:"port"`
	Protocol string                 `json:"protocol"`
	Config   map[string]interface{} `json:"config"`
}

type nodeInfoResponse struct {
	Nodes []NodeInfo `json:"nodes"`
}

type applyUsersRequest struct {
	NodeID uint     `json:"node_id"`
	UUIDs  []string `json:"uuids"`
}

// Client talks to node agent daemons over plain HTTP with a bearer token.
type Client struct {
	httpClient *http.Client
	logger     logger.Interface
}

func NewClient(logger logger.Interface) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// FetchNodeInfo pulls the agent's node inventory.
func (c *Client) FetchNodeInfo(ctx context.Context, agentURL, token string) ([]NodeInfo, error) {
	body, err := c.do(ctx, http.MethodGet, agentURL, "/v1/node-info", token, nil)
	if err != nil {
		return nil, err
	}

	var resp nodeInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some agents return the bare array.
		var nodes []NodeInfo
		if err2 := json.Unmarshal(body, &nodes); err2 != nil {
			return nil, fmt.Errorf("failed to decode node info: %w", err)
		}
		return nodes, nil
	}
	return resp.Nodes, nil
}

// PushUsers posts the allowed UUID list for a node to the agent.
func (c *Client) PushUsers(ctx context.Context, agentURL, token string, nodeID uint, uuids []string) error {
	payload := applyUsersRequest{NodeID: nodeID, UUIDs: uuids}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode apply-users payload: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, agentURL, "/v1/apply-users", token, raw); err != nil {
		return err
	}

	c.logger.Infow("pushed identities to agent",
		"agent_url", agentURL, "node_id", nodeID, "uuid_count", len(uuids))
	return nil
}

func (c *Client) do(ctx context.Context, method, agentURL, path, token string, body []byte) ([]byte, error) {
	url := strings.TrimRight(agentURL, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build agent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("agent request failed", "url", url, "error", err)
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read agent response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
