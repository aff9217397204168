// Package mailer 通过 Resend 发送事务性邮件
package mailer

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

// Client Resend 邮件客户端
type Client struct {
	apiKey     string
	baseURL    string
	from       string
	httpClient *http.Client
}

// NewClient 创建邮件客户端
func NewClient(cfg *config.MailConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		from:    cfg.From,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientWithHTTP 创建使用指定 http.Client 的客户端（测试用）
func NewClientWithHTTP(cfg *config.MailConfig, httpClient *http.Client) *Client {
	c := NewClient(cfg)
	c.httpClient = httpClient
	return c
}

// sendRequest Resend /emails 请求体
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendAuthCode 发送一次性登录验证码邮件
func (c *Client) SendAuthCode(ctx context.Context, email, code string) error {
	req := sendRequest{
		From:    c.from,
		To:      []string{email},
		Subject: "Код авторизации AkProject",
		HTML:    authCodeHTML(code),
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode mail request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send auth code email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// authCodeHTML 验证码邮件模板
func authCodeHTML(code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 20px; background: #f4f4f7;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 10px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center;">
      <h1 style="color: white; font-size: 32px; margin: 0;">🚀 AkProject</h1>
      <p style="color: rgba(255,255,255,0.9); margin: 10px 0 0 0;">AI Assistant Platform</p>
    </div>
    <div style="padding: 40px 30px; text-align: center;">
      <h2 style="color: #333; margin-top: 0;">Добро пожаловать!</h2>
      <p style="color: #333; font-size: 16px; line-height: 1.6;">
        Мы получили запрос на вход в ваш аккаунт AkProject.
        Используйте код ниже для завершения авторизации:
      </p>
      <div style="background: #f8f9fa; border: 2px dashed #667eea; border-radius: 10px; padding: 30px; margin: 30px 0;">
        <div style="color: #666; font-size: 14px; text-transform: uppercase; letter-spacing: 1px;">Код авторизации</div>
        <div style="font-size: 36px; font-weight: bold; color: #667eea; letter-spacing: 8px; font-family: 'Courier New', monospace;">%s</div>
      </div>
      <div style="background: #fff3cd; border: 1px solid #ffeaa7; color: #856404; padding: 15px; border-radius: 5px; font-size: 14px;">
        ⚠️ Этот код действителен в течение 10 минут. Никому не сообщайте его!
      </div>
      <p style="color: #333; font-size: 16px;">
        Если вы не запрашивали этот код, просто проигнорируйте это письмо.
      </p>
    </div>
    <div style="background: #f8f9fa; padding: 20px; text-align: center; color: #666; font-size: 14px;">
      <p>© 2024 AkProject. Все права защищены.</p>
      <p>Это автоматическое сообщение, не отвечайте на него.</p>
    </div>
  </div>
</body>
</html>`, code)
}
