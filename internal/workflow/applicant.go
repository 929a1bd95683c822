package workflow

import (
	"fmt"
	"strings"

	"neela-data/internal/domain"
)

// Stage 申请流程阶段
type Stage string

const (
	StageSubmitted   Stage = "Submitted"
	StageUnderReview Stage = "UnderReview"
	StageApproved    Stage = "Approved"
	StageLeaseDraft  Stage = "LeaseDraft"
	StageLeaseSent   Stage = "LeaseSent"
	StageLeaseSigned Stage = "LeaseSigned"
	StageResident    Stage = "Resident"
	StageDeclined    Stage = "Declined"
)

// beforeApproved 可以做背调的阶段
func (s Stage) beforeApproved() bool {
	return s == StageSubmitted || s == StageUnderReview
}

// ScreeningState 背调子状态
type ScreeningState string

const (
	ScreeningNotRun   ScreeningState = "NotRun"
	ScreeningRunning  ScreeningState = "Running"
	ScreeningComplete ScreeningState = "Complete"
)

// Lifecycle 申请人的流程状态（不属于数据源的实体字段）
type Lifecycle struct {
	Stage     Stage          `json:"stage"`
	Screening ScreeningState `json:"screening"`
	// 背调开始前的状态，失败时恢复
	PriorScreening ScreeningState `json:"-"`
	Lease          *domain.Lease  `json:"lease,omitempty"`
	Generating     bool           `json:"generating"`
	Dispatching    bool           `json:"dispatching"`
	LastError      string         `json:"lastError,omitempty"`
	// WithdrawnEnvelope 拒绝时仍在签署服务上的信封，需要撤回
	WithdrawnEnvelope string `json:"withdrawnEnvelope,omitempty"`
}

// Busy 有外部调用未返回
func (l Lifecycle) Busy() bool {
	return l.Screening == ScreeningRunning || l.Generating || l.Dispatching
}

// CanDispatch 当前能否发送签署
func (l Lifecycle) CanDispatch() bool {
	return l.Stage == StageLeaseDraft && !l.Generating && !l.Dispatching && l.Lease != nil
}

// ApplicantState reducer 的输入输出
type ApplicantState struct {
	Tenant    domain.Tenant `json:"tenant"`
	Lifecycle Lifecycle     `json:"lifecycle"`
}

// InitialLifecycle 由数据源加载的住户推出初始流程状态
func InitialLifecycle(t domain.Tenant) Lifecycle {
	l := Lifecycle{Screening: ScreeningNotRun}
	if t.CreditScore != nil && t.BackgroundCheckStatus != domain.BackgroundPending {
		l.Screening = ScreeningComplete
	}
	switch t.Status {
	case domain.TenantStatusApplicant:
		l.Stage = StageSubmitted
	case domain.TenantStatusApproved:
		l.Stage = StageApproved
		switch t.LeaseStatus {
		case domain.LeaseSent:
			l.Stage = StageLeaseSent
			l.Lease = &domain.Lease{ApplicantID: t.ID, Status: domain.LeaseSent}
		case domain.LeaseSigned:
			l.Stage = StageLeaseSigned
			l.Lease = &domain.Lease{ApplicantID: t.ID, Status: domain.LeaseSigned}
		}
	default:
		l.Stage = StageResident
	}
	return l
}

// ApplicantAction 申请流程动作（封闭集合）
type ApplicantAction interface {
	applicantAction()
}

type (
	BeginReview struct{}
	Approve     struct{}
	Decline     struct{}

	StartScreening    struct{}
	CompleteScreening struct {
		CreditScore int
		Background  domain.BackgroundCheckStatus
	}
	FailScreening struct{ Reason string }

	StartLeaseGeneration  struct{ TemplateID string }
	LeaseGenerated        struct{ Body string }
	LeaseGenerationFailed struct{ Reason string }
	EditLease             struct{ Body string }
	DiscardLease          struct{}

	StartDispatch   struct{}
	LeaseDispatched struct{ EnvelopeID string }
	DispatchFailed  struct{ Reason string }
	MarkSigned      struct{ DocumentURL string }

	FinalizeMoveIn struct{}
	UpdateNotes    struct{ Notes string }
)

func (BeginReview) applicantAction()           {}
func (Approve) applicantAction()               {}
func (Decline) applicantAction()               {}
func (StartScreening) applicantAction()        {}
func (CompleteScreening) applicantAction()     {}
func (FailScreening) applicantAction()         {}
func (StartLeaseGeneration) applicantAction()  {}
func (LeaseGenerated) applicantAction()        {}
func (LeaseGenerationFailed) applicantAction() {}
func (EditLease) applicantAction()             {}
func (DiscardLease) applicantAction()          {}
func (StartDispatch) applicantAction()         {}
func (LeaseDispatched) applicantAction()       {}
func (DispatchFailed) applicantAction()        {}
func (MarkSigned) applicantAction()            {}
func (FinalizeMoveIn) applicantAction()        {}
func (UpdateNotes) applicantAction()           {}

// ReduceApplicant 应用一个动作；出错时返回原状态
func ReduceApplicant(s ApplicantState, a ApplicantAction) (ApplicantState, error) {
	next := ApplicantState{Tenant: s.Tenant.Clone(), Lifecycle: s.Lifecycle}
	if s.Lifecycle.Lease != nil {
		lease := *s.Lifecycle.Lease
		next.Lifecycle.Lease = &lease
	}
	if err := apply(&next, a); err != nil {
		return s, err
	}
	return next, nil
}

func apply(s *ApplicantState, a ApplicantAction) error {
	l := &s.Lifecycle
	t := &s.Tenant
	switch act := a.(type) {
	case BeginReview:
		if l.Stage != StageSubmitted {
			return transitionErr(l.Stage, "begin review")
		}
		l.Stage = StageUnderReview

	case Approve:
		if !l.Stage.beforeApproved() {
			return transitionErr(l.Stage, "approve")
		}
		if l.Screening == ScreeningRunning {
			return ErrScreeningInProgress
		}
		l.Stage = StageApproved
		t.Status = domain.TenantStatusApproved

	case Decline:
		switch l.Stage {
		case StageLeaseSigned, StageResident, StageDeclined:
			return transitionErr(l.Stage, "decline")
		}
		if l.Lease != nil && l.Lease.EnvelopeID != "" {
			l.WithdrawnEnvelope = l.Lease.EnvelopeID
		}
		l.Stage = StageDeclined
		l.Screening = screeningAfterAbort(*l)
		l.Generating = false
		l.Dispatching = false
		l.Lease = nil
		t.Status = domain.TenantStatusFormer
		t.ApplicationData = nil
		t.LeaseStatus = ""
		t.SignedLeaseURL = ""

	case StartScreening:
		if !l.Stage.beforeApproved() {
			return transitionErr(l.Stage, "start screening")
		}
		if l.Screening == ScreeningRunning {
			return ErrScreeningInProgress
		}
		l.PriorScreening = l.Screening
		l.Screening = ScreeningRunning
		l.LastError = ""

	case CompleteScreening:
		if l.Screening != ScreeningRunning {
			return transitionErr(l.Stage, "complete screening")
		}
		if !act.Background.Valid() {
			return fmt.Errorf("%w: background status %q", ErrInvalidTransition, act.Background)
		}
		score := act.CreditScore
		t.CreditScore = &score
		t.BackgroundCheckStatus = act.Background
		l.Screening = ScreeningComplete

	case FailScreening:
		if l.Screening != ScreeningRunning {
			return transitionErr(l.Stage, "fail screening")
		}
		l.Screening = screeningAfterAbort(*l)
		l.LastError = act.Reason

	case StartLeaseGeneration:
		if l.Generating || l.Dispatching {
			return ErrOperationInProgress
		}
		if l.Stage == StageLeaseSent || l.Stage == StageLeaseSigned {
			return ErrLeaseLocked
		}
		if l.Stage != StageApproved && l.Stage != StageLeaseDraft {
			return transitionErr(l.Stage, "generate lease")
		}
		l.Generating = true
		l.LastError = ""
		l.Lease = &domain.Lease{ApplicantID: t.ID, TemplateID: act.TemplateID, Status: domain.LeaseDraft}

	case LeaseGenerated:
		if !l.Generating {
			return transitionErr(l.Stage, "complete lease generation")
		}
		l.Generating = false
		l.Stage = StageLeaseDraft
		l.Lease.Body = act.Body
		t.LeaseStatus = domain.LeaseDraft

	case LeaseGenerationFailed:
		if !l.Generating {
			return transitionErr(l.Stage, "fail lease generation")
		}
		// 失败回到"未生成"，不保留任何半成品
		l.Generating = false
		l.Stage = StageApproved
		l.Lease = nil
		l.LastError = act.Reason
		t.LeaseStatus = ""

	case EditLease:
		if l.Stage != StageLeaseDraft || l.Generating || l.Dispatching || l.Lease == nil {
			return ErrLeaseLocked
		}
		l.Lease.Body = act.Body

	case DiscardLease:
		if l.Stage != StageLeaseDraft || l.Generating || l.Dispatching {
			return transitionErr(l.Stage, "discard lease")
		}
		l.Stage = StageApproved
		l.Lease = nil
		t.LeaseStatus = ""

	case StartDispatch:
		if l.Dispatching || l.Generating {
			return ErrOperationInProgress
		}
		if !l.CanDispatch() {
			return transitionErr(l.Stage, "send for signature")
		}
		if strings.TrimSpace(l.Lease.Body) == "" {
			return fmt.Errorf("%w: lease body is empty", ErrInvalidTransition)
		}
		l.Dispatching = true
		l.LastError = ""

	case LeaseDispatched:
		if !l.Dispatching {
			return transitionErr(l.Stage, "confirm dispatch")
		}
		l.Dispatching = false
		l.Stage = StageLeaseSent
		l.Lease.Status = domain.LeaseSent
		l.Lease.EnvelopeID = act.EnvelopeID
		t.LeaseStatus = domain.LeaseSent

	case DispatchFailed:
		if !l.Dispatching {
			return transitionErr(l.Stage, "fail dispatch")
		}
		l.Dispatching = false
		l.LastError = act.Reason

	case MarkSigned:
		if l.Stage != StageLeaseSent {
			return transitionErr(l.Stage, "mark signed")
		}
		l.Stage = StageLeaseSigned
		l.Lease.Status = domain.LeaseSigned
		t.LeaseStatus = domain.LeaseSigned
		t.SignedLeaseURL = act.DocumentURL

	case FinalizeMoveIn:
		if l.Stage != StageLeaseSigned {
			return transitionErr(l.Stage, "finalize move-in")
		}
		l.Stage = StageResident
		t.Status = domain.TenantStatusActive
		t.ApplicationData = nil

	case UpdateNotes:
		if t.ApplicationData == nil {
			return ErrNoApplication
		}
		t.ApplicationData.InternalNotes = act.Notes

	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return nil
}

func screeningAfterAbort(l Lifecycle) ScreeningState {
	if l.Screening != ScreeningRunning {
		return l.Screening
	}
	if l.PriorScreening == "" {
		return ScreeningNotRun
	}
	return l.PriorScreening
}

func transitionErr(from Stage, action string) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, from)
}
