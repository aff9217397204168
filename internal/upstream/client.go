// Package upstream 封装托管补全 API 的调用
// 契约：POST /sessions 创建会话，POST /sessions/{id}/chat 发送消息
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akproject/ak-chat/internal/config"
)

// Settings 会话参数
type Settings struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// createSessionRequest 创建会话请求
type createSessionRequest struct {
	Settings Settings `json:"settings"`
}

// createSessionResponse 创建会话响应
type createSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// chatRequest 发送消息请求
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse 发送消息响应
type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// Client 补全 API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// NewClientWithHTTP 创建使用指定 http.Client 的客户端（测试用）
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// CreateSession 创建上游会话，返回 session_id
func (c *Client) CreateSession(ctx context.Context, settings Settings) (string, error) {
	var resp createSessionResponse
	if err := c.post(ctx, "/sessions", createSessionRequest{Settings: settings}, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.SessionID == "" {
		return "", fmt.Errorf("upstream refused to create session")
	}
	return resp.SessionID, nil
}

// Chat 向上游会话发送消息，返回模型回复
func (c *Client) Chat(ctx context.Context, sessionID, message string) (string, error) {
	var resp chatResponse
	path := fmt.Sprintf("/sessions/%s/chat", sessionID)
	if err := c.post(ctx, path, chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("upstream failed to produce a response")
	}
	return resp.Response, nil
}

// Complete 一次性补全：新建会话并发送单条消息
func (c *Client) Complete(ctx context.Context, settings Settings, message string) (string, error) {
	sessionID, err := c.CreateSession(ctx, settings)
	if err != nil {
		return "", err
	}
	return c.Chat(ctx, sessionID, message)
}

// post 发送 JSON 请求并解析响应
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}
