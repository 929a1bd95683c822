package workflow

import (
	"fmt"
	"strings"
	"time"

	"neela-data/internal/domain"
)

// TicketSpec 新建工单的输入
type TicketSpec struct {
	ID          string
	TenantID    string
	Category    string
	Description string
	Priority    domain.Priority // 空 = 默认 Medium
	Images      []string
}

// NewTicket 新工单一律 Open，并带一条 System 更新记录分诊结果。
// suggestion 为 nil 表示分诊失败或未启用，优先级保持请求值/默认值。
func NewTicket(spec TicketSpec, suggestion *domain.TriageSuggestion, now time.Time) domain.MaintenanceRequest {
	priority := spec.Priority
	if priority == "" {
		priority = domain.DefaultPriority
	}
	msg := "AI triage unavailable; priority left at " + string(priority) + "."
	if suggestion != nil {
		if p, ok := domain.ParsePriority(string(suggestion.Priority)); ok {
			priority = p
		}
		msg = fmt.Sprintf("AI Analysis: Recommended %s - %s", suggestion.VendorType, suggestion.Summary)
	}
	return domain.MaintenanceRequest{
		ID:          spec.ID,
		TenantID:    spec.TenantID,
		Category:    spec.Category,
		Description: spec.Description,
		Status:      domain.TicketOpen,
		Priority:    priority,
		CreatedAt:   domain.NewDate(now),
		Images:      append([]string(nil), spec.Images...),
		Updates: []domain.TicketUpdate{
			{Date: domain.NewDate(now), Message: msg, Author: domain.AuthorSystem},
		},
	}
}

// TicketAction 工单动作（封闭集合）
type TicketAction interface {
	ticketAction()
}

type (
	Assign       struct{ Assignee string }
	Reassign     struct{}
	ChangeStatus struct{ Status domain.TicketStatus }
	Comment      struct {
		Author  domain.Author
		Message string
	}
	AttachCompletion struct{ Attachment domain.Attachment }
)

func (Assign) ticketAction()           {}
func (Reassign) ticketAction()         {}
func (ChangeStatus) ticketAction()     {}
func (Comment) ticketAction()          {}
func (AttachCompletion) ticketAction() {}

// ReduceTicket 应用一个工单动作；出错时返回原工单
func ReduceTicket(m domain.MaintenanceRequest, a TicketAction, now time.Time) (domain.MaintenanceRequest, error) {
	next := m.Clone()
	log := func(author domain.Author, msg string) {
		next.Updates = append(next.Updates, domain.TicketUpdate{Date: domain.NewDate(now), Message: msg, Author: author})
	}

	switch act := a.(type) {
	case Assign:
		name := strings.TrimSpace(act.Assignee)
		if name == "" {
			return m, ErrEmptyAssignee
		}
		next.AssignedTo = name
		log(domain.AuthorManager, "Ticket assigned to "+name+".")

	case Reassign:
		if next.AssignedTo == "" {
			return m, ErrNotAssigned
		}
		prev := next.AssignedTo
		next.AssignedTo = ""
		next.Status = domain.TicketOpen
		log(domain.AuthorManager, "Ticket unassigned from "+prev+" and reopened for reassignment.")

	case ChangeStatus:
		if !act.Status.Valid() {
			return m, fmt.Errorf("%w: %q", ErrInvalidStatus, act.Status)
		}
		next.Status = act.Status

	case Comment:
		msg := strings.TrimSpace(act.Message)
		if msg == "" {
			return m, ErrEmptyMessage
		}
		if !act.Author.Valid() {
			return m, fmt.Errorf("%w: %q", ErrInvalidAuthor, act.Author)
		}
		log(act.Author, msg)

	case AttachCompletion:
		if next.Status != domain.TicketResolved && next.Status != domain.TicketClosed {
			return m, ErrAttachmentTooEarly
		}
		if strings.TrimSpace(act.Attachment.Name) == "" || strings.TrimSpace(act.Attachment.URL) == "" {
			return m, ErrEmptyAttachment
		}
		next.CompletionAttachments = append(next.CompletionAttachments, act.Attachment)
		log(domain.AuthorManager, "Attached completion document: "+act.Attachment.Name)

	default:
		return m, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return next, nil
}
