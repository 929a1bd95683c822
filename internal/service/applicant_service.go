package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/search"
	"neela-data/internal/store"
	"neela-data/internal/workflow"

	"go.uber.org/zap"
)

// ApplicantService 申请人审核流程（员工端）
type ApplicantService struct {
	session  *store.Session
	screener Screener
	drafter  LeaseDrafter
	signer   SignatureProvider
	settings config.Settings
	logger   *zap.Logger
}

func NewApplicantService(session *store.Session, screener Screener, drafter LeaseDrafter, signer SignatureProvider, settings config.Settings, logger *zap.Logger) *ApplicantService {
	return &ApplicantService{
		session:  session,
		screener: screener,
		drafter:  drafter,
		signer:   signer,
		settings: settings,
		logger:   logger,
	}
}

// ApplicantDetail 员工看到的申请详情（含内部备注）
type ApplicantDetail struct {
	Tenant        domain.Tenant      `json:"tenant"`
	Lifecycle     workflow.Lifecycle `json:"lifecycle"`
	RentToIncome  *int64             `json:"rentToIncome,omitempty"`
	CanDispatch   bool               `json:"canDispatch"`
	CanFinalize   bool               `json:"canFinalize"`
	LeaseEditable bool               `json:"leaseEditable"`
}

func toDetail(st workflow.ApplicantState) *ApplicantDetail {
	d := &ApplicantDetail{
		Tenant:        st.Tenant,
		Lifecycle:     st.Lifecycle,
		CanDispatch:   st.Lifecycle.CanDispatch(),
		CanFinalize:   st.Lifecycle.Stage == workflow.StageLeaseSigned,
		LeaseEditable: st.Lifecycle.Stage == workflow.StageLeaseDraft && !st.Lifecycle.Busy(),
	}
	if pct, ok := st.Tenant.RentToIncomePercent(); ok {
		d.RentToIncome = &pct
	}
	return d
}

// ListTenants 住户 / 申请人列表（按 tab 拆分）
func (s *ApplicantService) ListTenants(q search.TenantQuery) []domain.Tenant {
	return search.FilterTenants(s.session.Tenants(), q)
}

// Get 申请详情
func (s *ApplicantService) Get(id string) (*ApplicantDetail, error) {
	st, err := s.session.Applicant(id)
	if err != nil {
		return nil, err
	}
	return toDetail(st), nil
}

// dispatch 同步动作：reduce 成功即提交
func (s *ApplicantService) dispatch(id string, action workflow.ApplicantAction) (*ApplicantDetail, error) {
	st, err := s.session.DispatchApplicant(id, action)
	if err != nil {
		s.logger.Debug("Applicant action rejected", zap.String("applicant_id", id), zap.String("action", fmt.Sprintf("%T", action)), zap.Error(err))
		return nil, err
	}
	return toDetail(st), nil
}

func (s *ApplicantService) BeginReview(id string) (*ApplicantDetail, error) {
	return s.dispatch(id, workflow.BeginReview{})
}

func (s *ApplicantService) Approve(id string) (*ApplicantDetail, error) {
	return s.dispatch(id, workflow.Approve{})
}

// Decline 拒绝申请；已发出的信封在签署服务上撤回
func (s *ApplicantService) Decline(ctx context.Context, id string) (*ApplicantDetail, error) {
	st, err := s.session.DispatchApplicant(id, workflow.Decline{})
	if err != nil {
		s.logger.Debug("Applicant action rejected", zap.String("applicant_id", id), zap.String("action", "workflow.Decline"), zap.Error(err))
		return nil, err
	}
	if envelopeID := st.Lifecycle.WithdrawnEnvelope; envelopeID != "" {
		s.voidEnvelope(ctx, id, envelopeID)
	}
	return toDetail(st), nil
}

// EditLease 修改草稿正文（已发送 / 已签署的租约不可改）
func (s *ApplicantService) EditLease(id, body string) (*ApplicantDetail, error) {
	return s.dispatch(id, workflow.EditLease{Body: body})
}

// DiscardLease 回到模板选择（Back to Config）
func (s *ApplicantService) DiscardLease(id string) (*ApplicantDetail, error) {
	return s.dispatch(id, workflow.DiscardLease{})
}

func (s *ApplicantService) FinalizeMoveIn(id string) (*ApplicantDetail, error) {
	return s.dispatch(id, workflow.FinalizeMoveIn{})
}

func (s *ApplicantService) UpdateNotes(id, notes string) (*ApplicantDetail, error) {
	return s.dispatch(id, workflow.UpdateNotes{Notes: notes})
}

// RunScreening 背调。先在 store 锁内进入 Running，重复触发会被拒绝且不会调用 screener
func (s *ApplicantService) RunScreening(ctx context.Context, id string) (*ApplicantDetail, error) {
	st, err := s.session.DispatchApplicant(id, workflow.StartScreening{})
	if err != nil {
		return nil, err
	}

	res, err := s.screener.Screen(ctx, st.Tenant)
	if err != nil {
		s.logger.Warn("Screening failed", zap.String("applicant_id", id), zap.Error(err))
		s.settle(id, workflow.FailScreening{Reason: err.Error()})
		return nil, fmt.Errorf("%w: screening: %w", ErrUpstream, err)
	}

	next, err := s.session.DispatchApplicant(id, workflow.CompleteScreening{CreditScore: res.CreditScore, Background: res.Background})
	if err != nil {
		s.logger.Warn("Screening result dropped", zap.String("applicant_id", id), zap.Error(err))
		s.settle(id, workflow.FailScreening{Reason: err.Error()})
		return nil, err
	}
	s.logger.Info("Screening complete",
		zap.String("applicant_id", id),
		zap.Int("credit_score", res.CreditScore),
		zap.String("background", string(res.Background)),
	)
	return toDetail(next), nil
}

// GenerateLease 按模板起草；失败时回到"未生成"状态并返回错误
func (s *ApplicantService) GenerateLease(ctx context.Context, id, templateID string) (*ApplicantDetail, error) {
	tpl, ok := s.settings.Template(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown lease template %q", ErrValidation, templateID)
	}
	st, err := s.session.DispatchApplicant(id, workflow.StartLeaseGeneration{TemplateID: templateID})
	if err != nil {
		return nil, err
	}

	body, err := s.drafter.DraftLease(ctx, st.Tenant, tpl)
	if err == nil && strings.TrimSpace(body) == "" {
		err = errors.New("empty lease body")
	}
	if err != nil {
		s.logger.Warn("Lease generation failed", zap.String("applicant_id", id), zap.String("template_id", templateID), zap.Error(err))
		s.settle(id, workflow.LeaseGenerationFailed{Reason: err.Error()})
		return nil, fmt.Errorf("%w: lease generation: %w", ErrUpstream, err)
	}

	next, err := s.session.DispatchApplicant(id, workflow.LeaseGenerated{Body: body})
	if err != nil {
		s.logger.Warn("Generated lease dropped", zap.String("applicant_id", id), zap.Error(err))
		return nil, err
	}
	return toDetail(next), nil
}

// SendForSignature 只允许从草稿发送；不满足条件时不会调用签署服务
func (s *ApplicantService) SendForSignature(ctx context.Context, id string) (*ApplicantDetail, error) {
	st, err := s.session.DispatchApplicant(id, workflow.StartDispatch{})
	if err != nil {
		return nil, err
	}

	env, err := s.signer.Send(ctx, SignatureRequest{
		ApplicantID:    id,
		RecipientName:  st.Tenant.Name,
		RecipientEmail: st.Tenant.Email,
		Body:           st.Lifecycle.Lease.Body,
	})
	if err != nil {
		s.logger.Warn("Signature dispatch failed", zap.String("applicant_id", id), zap.Error(err))
		s.settle(id, workflow.DispatchFailed{Reason: err.Error()})
		return nil, fmt.Errorf("%w: signature dispatch: %w", ErrUpstream, err)
	}

	next, err := s.session.DispatchApplicant(id, workflow.LeaseDispatched{EnvelopeID: env.ID})
	if err != nil {
		// 发送期间申请已被拒绝：信封不能留在签署服务上
		s.logger.Warn("Dispatch confirmation dropped", zap.String("applicant_id", id), zap.String("envelope_id", env.ID), zap.Error(err))
		s.voidEnvelope(ctx, id, env.ID)
		return nil, err
	}
	s.logger.Info("Lease sent for signature", zap.String("applicant_id", id), zap.String("envelope_id", env.ID))
	return toDetail(next), nil
}

// SyncSignature 向签署服务查询状态，已签署则推进到 Signed
func (s *ApplicantService) SyncSignature(ctx context.Context, id string) (*ApplicantDetail, error) {
	envelopeID, err := s.sentEnvelope(id)
	if err != nil {
		return nil, err
	}
	env, err := s.signer.Status(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("%w: signature status: %w", ErrUpstream, err)
	}
	if env.Status != domain.LeaseSigned {
		return s.Get(id)
	}
	return s.dispatch(id, workflow.MarkSigned{DocumentURL: env.DocumentURL})
}

// ConfirmSignature 模拟签署人签字（演示用，需要签署服务支持模拟）
func (s *ApplicantService) ConfirmSignature(ctx context.Context, id string) (*ApplicantDetail, error) {
	sim, ok := s.signer.(SignatureSimulator)
	if !ok {
		return nil, fmt.Errorf("%w: signature provider does not support simulated signing", ErrValidation)
	}
	envelopeID, err := s.sentEnvelope(id)
	if err != nil {
		return nil, err
	}
	env, err := sim.Sign(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("%w: sign envelope: %w", ErrUpstream, err)
	}
	return s.dispatch(id, workflow.MarkSigned{DocumentURL: env.DocumentURL})
}

// PendingEnvelopes 尚未签署的信封（签署服务支持时）
func (s *ApplicantService) PendingEnvelopes(ctx context.Context) ([]Envelope, error) {
	lister, ok := s.signer.(interface {
		Pending(ctx context.Context) ([]Envelope, error)
	})
	if !ok {
		return []Envelope{}, nil
	}
	return lister.Pending(ctx)
}

func (s *ApplicantService) sentEnvelope(id string) (string, error) {
	st, err := s.session.Applicant(id)
	if err != nil {
		return "", err
	}
	if st.Lifecycle.Stage != workflow.StageLeaseSent || st.Lifecycle.Lease == nil || st.Lifecycle.Lease.EnvelopeID == "" {
		return "", fmt.Errorf("%w: no lease awaiting signature", workflow.ErrInvalidTransition)
	}
	return st.Lifecycle.Lease.EnvelopeID, nil
}

func (s *ApplicantService) voidEnvelope(ctx context.Context, id, envelopeID string) {
	if err := s.signer.Void(ctx, envelopeID); err != nil {
		s.logger.Error("Failed to void envelope",
			zap.String("applicant_id", id),
			zap.String("envelope_id", envelopeID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("Envelope voided after decline", zap.String("applicant_id", id), zap.String("envelope_id", envelopeID))
}

// settle 清除进行中标记；applicant 可能已被拒绝，此时忽略
func (s *ApplicantService) settle(id string, action workflow.ApplicantAction) {
	if _, err := s.session.DispatchApplicant(id, action); err != nil {
		s.logger.Debug("Pending flag already cleared", zap.String("applicant_id", id), zap.Error(err))
	}
}
