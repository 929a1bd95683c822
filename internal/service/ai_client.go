package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"neela-data/internal/config"
	"neela-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AIResponse AI 服务统一响应
type AIResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// AIClient 分诊 + 租约起草服务客户端
type AIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewAIClient 创建 AI 客户端
func NewAIClient(cfg config.AIConfig, logger *zap.Logger) *AIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &AIClient{httpClient: client, logger: logger}
}

type classifyRequest struct {
	Description string `json:"description"`
}

// Classify 对维修描述做分诊
func (c *AIClient) Classify(ctx context.Context, description string) (domain.TriageSuggestion, error) {
	var out domain.TriageSuggestion
	if err := c.call(ctx, "/v1/maintenance/classify", classifyRequest{Description: description}, &out); err != nil {
		return domain.TriageSuggestion{}, err
	}
	p, ok := domain.ParsePriority(string(out.Priority))
	if !ok {
		return domain.TriageSuggestion{}, fmt.Errorf("AI classify returned unknown priority %q", out.Priority)
	}
	out.Priority = p
	return out, nil
}

type draftRequest struct {
	TemplateID string        `json:"templateId"`
	Template   string        `json:"template"`
	Applicant  domain.Tenant `json:"applicant"`
}

type draftResponse struct {
	Body string `json:"body"`
}

// DraftLease 由 AI 服务填充模板
func (c *AIClient) DraftLease(ctx context.Context, applicant domain.Tenant, tpl config.LeaseTemplate) (string, error) {
	// 内部备注不外发
	applicant = applicant.Clone()
	if applicant.ApplicationData != nil {
		applicant.ApplicationData.InternalNotes = ""
	}
	var out draftResponse
	if err := c.call(ctx, "/v1/leases/draft", draftRequest{TemplateID: tpl.ID, Template: tpl.Body, Applicant: applicant}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Body) == "" {
		return "", fmt.Errorf("AI draft returned empty lease body")
	}
	return out.Body, nil
}

func (c *AIClient) call(ctx context.Context, path string, body any, out any) error {
	var response AIResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&response).
		SetError(&response).
		Post(path)
	if err != nil {
		c.logger.Error("AI API call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call AI API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("AI API returned http error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", response.Msg),
		)
		return fmt.Errorf("AI API http error: %d", resp.StatusCode())
	}
	if response.Status != 0 {
		c.logger.Error("AI API returned error",
			zap.String("path", path),
			zap.Int("status", response.Status),
			zap.String("msg", response.Msg),
		)
		return fmt.Errorf("AI API error: %s (status: %d)", response.Msg, response.Status)
	}
	if err := json.Unmarshal(response.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal AI response: %w", err)
	}
	return nil
}
