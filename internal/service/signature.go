package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neela-data/internal/domain"
	"neela-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const envelopeKeyPrefix = "neela:envelope:"

// KVSignatureProvider 把信封存到 KV（Redis），签署由 Sign 模拟
type KVSignatureProvider struct {
	kv      store.KV
	baseURL string
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewKVSignatureProvider baseURL 用于拼接已签署文档的下载地址
func NewKVSignatureProvider(kv store.KV, baseURL string, logger *zap.Logger) *KVSignatureProvider {
	return &KVSignatureProvider{
		kv:      kv,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     90 * 24 * time.Hour,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *KVSignatureProvider) Send(ctx context.Context, req SignatureRequest) (Envelope, error) {
	if strings.TrimSpace(req.Body) == "" {
		return Envelope{}, fmt.Errorf("document body is empty")
	}
	if strings.TrimSpace(req.RecipientEmail) == "" {
		return Envelope{}, fmt.Errorf("recipient email is required")
	}
	env := Envelope{
		ID:             uuid.NewString(),
		ApplicantID:    req.ApplicantID,
		RecipientEmail: req.RecipientEmail,
		Status:         domain.LeaseSent,
		SentAt:         p.now().UTC(),
	}
	if err := store.SetJSON(ctx, p.kv, envelopeKeyPrefix+env.ID, env, p.ttl); err != nil {
		return Envelope{}, fmt.Errorf("failed to save envelope: %w", err)
	}
	p.logger.Info("Envelope sent for signature",
		zap.String("envelope_id", env.ID),
		zap.String("applicant_id", req.ApplicantID),
	)
	return env, nil
}

func (p *KVSignatureProvider) Status(ctx context.Context, envelopeID string) (Envelope, error) {
	var env Envelope
	if err := store.GetJSON(ctx, p.kv, envelopeKeyPrefix+envelopeID, &env); err != nil {
		if errors.Is(err, store.ErrMiss) {
			return Envelope{}, fmt.Errorf("envelope %s: %w", envelopeID, ErrNotFound)
		}
		return Envelope{}, fmt.Errorf("failed to load envelope: %w", err)
	}
	return env, nil
}

// Sign 模拟签署人完成签署；已签署的信封原样返回
func (p *KVSignatureProvider) Sign(ctx context.Context, envelopeID string) (Envelope, error) {
	env, err := p.Status(ctx, envelopeID)
	if err != nil {
		return Envelope{}, err
	}
	if env.Status == domain.LeaseSigned {
		return env, nil
	}
	if env.Status == domain.LeaseVoided {
		return Envelope{}, fmt.Errorf("envelope %s: %w", envelopeID, ErrEnvelopeVoided)
	}
	signedAt := p.now().UTC()
	env.Status = domain.LeaseSigned
	env.SignedAt = &signedAt
	env.DocumentURL = p.baseURL + "/envelopes/" + env.ID + "/document.pdf"
	if err := store.SetJSON(ctx, p.kv, envelopeKeyPrefix+env.ID, env, p.ttl); err != nil {
		return Envelope{}, fmt.Errorf("failed to save envelope: %w", err)
	}
	return env, nil
}

// Void 撤回信封；重复撤回不报错
func (p *KVSignatureProvider) Void(ctx context.Context, envelopeID string) error {
	env, err := p.Status(ctx, envelopeID)
	if err != nil {
		return err
	}
	switch env.Status {
	case domain.LeaseVoided:
		return nil
	case domain.LeaseSigned:
		return fmt.Errorf("envelope %s: %w", envelopeID, ErrEnvelopeSigned)
	}
	voidedAt := p.now().UTC()
	env.Status = domain.LeaseVoided
	env.VoidedAt = &voidedAt
	if err := store.SetJSON(ctx, p.kv, envelopeKeyPrefix+env.ID, env, p.ttl); err != nil {
		return fmt.Errorf("failed to save envelope: %w", err)
	}
	p.logger.Info("Envelope voided", zap.String("envelope_id", env.ID), zap.String("applicant_id", env.ApplicantID))
	return nil
}

// Pending 所有未签署信封（CLI / 巡检用）
func (p *KVSignatureProvider) Pending(ctx context.Context) ([]Envelope, error) {
	keys, err := p.kv.ScanKeys(ctx, envelopeKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan envelopes: %w", err)
	}
	out := []Envelope{}
	for _, k := range keys {
		env, err := p.Status(ctx, strings.TrimPrefix(k, envelopeKeyPrefix))
		if err != nil {
			p.logger.Warn("Skip unreadable envelope", zap.String("key", k), zap.Error(err))
			continue
		}
		if env.Status == domain.LeaseSent {
			out = append(out, env)
		}
	}
	return out, nil
}
