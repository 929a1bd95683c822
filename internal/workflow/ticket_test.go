package workflow

import (
	"testing"
	"time"

	"neela-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2023, 10, 27, 9, 0, 0, 0, time.UTC)

func openTicket() domain.MaintenanceRequest {
	return NewTicket(TicketSpec{ID: "m1", TenantID: "t1", Category: "Plumbing", Description: "Leaking faucet"}, nil, now)
}

func TestNewTicket_WithSuggestion(t *testing.T) {
	m := NewTicket(TicketSpec{ID: "m9", TenantID: "t1", Description: "Water pouring from ceiling"},
		&domain.TriageSuggestion{Priority: "emergency", VendorType: "Plumber", Summary: "Active leak"}, now)

	assert.Equal(t, domain.TicketOpen, m.Status)
	assert.Equal(t, domain.PriorityEmergency, m.Priority)
	require.Len(t, m.Updates, 1)
	assert.Equal(t, domain.AuthorSystem, m.Updates[0].Author)
	assert.Equal(t, "AI Analysis: Recommended Plumber - Active leak", m.Updates[0].Message)
	assert.Equal(t, "2023-10-27", m.CreatedAt.String())
}

func TestNewTicket_TriageFailureKeepsDefaultPriority(t *testing.T) {
	m := openTicket()
	assert.Equal(t, domain.PriorityMedium, m.Priority)
	require.Len(t, m.Updates, 1)
	assert.Equal(t, domain.AuthorSystem, m.Updates[0].Author)
	assert.Contains(t, m.Updates[0].Message, "unavailable")

	// 无法识别的建议优先级不覆盖请求值
	m = NewTicket(TicketSpec{Priority: domain.PriorityHigh}, &domain.TriageSuggestion{Priority: "urgent-ish", VendorType: "Handyman", Summary: "?"}, now)
	assert.Equal(t, domain.PriorityHigh, m.Priority)
}

func TestAssign_AppendsManagerUpdate(t *testing.T) {
	m := openTicket()
	got, err := ReduceTicket(m, Assign{Assignee: "Acme Plumbing"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", got.AssignedTo)
	require.Len(t, got.Updates, len(m.Updates)+1)
	last := got.Updates[len(got.Updates)-1]
	assert.Equal(t, domain.AuthorManager, last.Author)
	assert.Equal(t, "Ticket assigned to Acme Plumbing.", last.Message)
	// 入参不变
	assert.Empty(t, m.AssignedTo)
	assert.Len(t, m.Updates, 1)
}

func TestAssign_EmptyRejected(t *testing.T) {
	m := openTicket()
	got, err := ReduceTicket(m, Assign{Assignee: "   "}, now)
	assert.ErrorIs(t, err, ErrEmptyAssignee)
	assert.Equal(t, m, got)
}

func TestReassign(t *testing.T) {
	m := openTicket()
	_, err := ReduceTicket(m, Reassign{}, now)
	assert.ErrorIs(t, err, ErrNotAssigned)

	m, err = ReduceTicket(m, Assign{Assignee: "Bob's HVAC"}, now)
	require.NoError(t, err)
	m, err = ReduceTicket(m, ChangeStatus{Status: domain.TicketInProgress}, now)
	require.NoError(t, err)

	m, err = ReduceTicket(m, Reassign{}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, m.Status)
	assert.Empty(t, m.AssignedTo)
	assert.Equal(t, domain.AuthorManager, m.Updates[len(m.Updates)-1].Author)
}

func TestChangeStatus_Permissive(t *testing.T) {
	m := openTicket()
	var err error
	for _, s := range []domain.TicketStatus{domain.TicketClosed, domain.TicketOpen, domain.TicketResolved, domain.TicketInProgress} {
		m, err = ReduceTicket(m, ChangeStatus{Status: s}, now)
		require.NoError(t, err)
		assert.Equal(t, s, m.Status)
	}
	_, err = ReduceTicket(m, ChangeStatus{Status: "Pending"}, now)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestComment(t *testing.T) {
	m := openTicket()
	got, err := ReduceTicket(m, Comment{Author: domain.AuthorTenant, Message: " Still dripping "}, now)
	require.NoError(t, err)
	assert.Equal(t, "Still dripping", got.Updates[1].Message)
	assert.Equal(t, domain.AuthorTenant, got.Updates[1].Author)
	// 只追加：前面的记录不变
	assert.Equal(t, m.Updates[0], got.Updates[0])

	_, err = ReduceTicket(m, Comment{Author: domain.AuthorTenant, Message: ""}, now)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = ReduceTicket(m, Comment{Author: "Robot", Message: "hi"}, now)
	assert.ErrorIs(t, err, ErrInvalidAuthor)
}

func TestAttachCompletion_GatedOnResolved(t *testing.T) {
	doc := domain.Attachment{Name: "invoice.pdf", URL: "https://files.example/invoice.pdf"}
	m := openTicket()
	got, err := ReduceTicket(m, AttachCompletion{Attachment: doc}, now)
	assert.ErrorIs(t, err, ErrAttachmentTooEarly)
	assert.Equal(t, m, got)

	m, err = ReduceTicket(m, ChangeStatus{Status: domain.TicketResolved}, now)
	require.NoError(t, err)
	m, err = ReduceTicket(m, AttachCompletion{Attachment: doc}, now)
	require.NoError(t, err)
	assert.Equal(t, []domain.Attachment{doc}, m.CompletionAttachments)
	assert.Equal(t, "Attached completion document: invoice.pdf", m.Updates[len(m.Updates)-1].Message)

	_, err = ReduceTicket(m, AttachCompletion{Attachment: domain.Attachment{Name: "x"}}, now)
	assert.ErrorIs(t, err, ErrEmptyAttachment)
}
