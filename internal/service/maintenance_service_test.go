package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"neela-data/internal/domain"
	"neela-data/internal/search"
	"neela-data/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newMaintenance(c Classifier, n Notifier) *MaintenanceService {
	svc := NewMaintenanceService(seededSession(), c, n, testLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestMaintenance_CreateWithTriage(t *testing.T) {
	c := &fakeClassifier{sug: domain.TriageSuggestion{Priority: domain.PriorityEmergency, VendorType: "Plumber", Summary: "Active leak near electrical"}}
	svc := newMaintenance(c, &recordingNotifier{})

	m, err := svc.Create(context.Background(), CreateTicketRequest{TenantID: "t1", Category: "Plumbing", Description: "Water pouring from ceiling", AutoTriage: true})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, m.Status)
	assert.Equal(t, domain.PriorityEmergency, m.Priority)
	require.Len(t, m.Updates, 1)
	assert.Equal(t, domain.AuthorSystem, m.Updates[0].Author)
	assert.Equal(t, "AI Analysis: Recommended Plumber - Active leak near electrical", m.Updates[0].Message)
	assert.Equal(t, "2023-10-27", m.CreatedAt.String())

	// 新工单排在最前
	list := svc.List(search.TicketQuery{})
	assert.Equal(t, m.ID, list[0].ID)
	assert.Equal(t, "Alice Johnson", list[0].TenantName)
}

func TestMaintenance_TriageFailureDoesNotBlockCreation(t *testing.T) {
	c := &fakeClassifier{err: errBoom}
	svc := newMaintenance(c, &recordingNotifier{})

	m, err := svc.Create(context.Background(), CreateTicketRequest{TenantID: "t1", Description: "Door squeaks", AutoTriage: true})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, m.Priority)
	assert.Equal(t, 1, c.calls)
	require.Len(t, m.Updates, 1)
	assert.Equal(t, domain.AuthorSystem, m.Updates[0].Author)

	// 没有配置分诊也能建单
	svc = newMaintenance(nil, &recordingNotifier{})
	m, err = svc.Create(context.Background(), CreateTicketRequest{TenantID: "t1", Description: "Door squeaks", Priority: "high", AutoTriage: true})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, m.Priority)
}

func TestMaintenance_CreateValidation(t *testing.T) {
	svc := newMaintenance(nil, &recordingNotifier{})
	_, err := svc.Create(context.Background(), CreateTicketRequest{TenantID: "t1", Description: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), CreateTicketRequest{Description: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), CreateTicketRequest{TenantID: "ghost", Description: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Create(context.Background(), CreateTicketRequest{TenantID: "t1", Description: "x", Priority: "Whenever"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, svc.List(search.TicketQuery{}), 2)
}

func TestMaintenance_AssignAppendsUpdate(t *testing.T) {
	svc := newMaintenance(nil, &recordingNotifier{})
	m, err := svc.Create(context.Background(), CreateTicketRequest{TenantID: "t1", Description: "Sink clogged"})
	require.NoError(t, err)
	assert.Empty(t, m.AssignedTo)

	got, err := svc.Assign(m.ID, "Acme Plumbing")
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", got.AssignedTo)
	require.Len(t, got.Updates, 2)
	assert.Equal(t, domain.AuthorManager, got.Updates[1].Author)
	assert.Equal(t, "Ticket assigned to Acme Plumbing.", got.Updates[1].Message)

	_, err = svc.Assign(m.ID, "")
	assert.ErrorIs(t, err, workflow.ErrEmptyAssignee)
	stored, _ := svc.Get(m.ID)
	assert.Len(t, stored.Updates, 2)
}

func TestMaintenance_StatusCommentsAttachments(t *testing.T) {
	svc := newMaintenance(nil, &recordingNotifier{})
	_, err := svc.AttachCompletion("m1", domain.Attachment{Name: "receipt.pdf", URL: "https://files/receipt.pdf"})
	assert.ErrorIs(t, err, workflow.ErrAttachmentTooEarly)

	_, err = svc.ChangeStatus("m1", domain.TicketResolved)
	require.NoError(t, err)
	m, err := svc.AttachCompletion("m1", domain.Attachment{Name: "receipt.pdf", URL: "https://files/receipt.pdf"})
	require.NoError(t, err)
	assert.Len(t, m.CompletionAttachments, 1)

	m, err = svc.AddComment("m1", domain.AuthorManager, "Vendor confirmed fix.")
	require.NoError(t, err)
	assert.Equal(t, "Vendor confirmed fix.", m.Updates[len(m.Updates)-1].Message)

	_, err = svc.AddComment("m1", domain.AuthorManager, "")
	assert.ErrorIs(t, err, workflow.ErrEmptyMessage)

	_, err = svc.Reassign("m1")
	assert.ErrorIs(t, err, workflow.ErrNotAssigned)
	_, err = svc.ChangeStatus("missing", domain.TicketOpen)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaintenance_SendCompletionNotice(t *testing.T) {
	n := &recordingNotifier{}
	svc := newMaintenance(nil, n)
	require.NoError(t, svc.SendCompletionNotice(context.Background(), "m1"))
	require.Len(t, n.notices, 1)
	assert.Equal(t, "alice@example.com", n.notices[0].Recipient)
	assert.Equal(t, "m1", n.notices[0].TicketID)

	// 发送失败也不报错
	n.err = errBoom
	assert.NoError(t, svc.SendCompletionNotice(context.Background(), "m1"))
	assert.ErrorIs(t, svc.SendCompletionNotice(context.Background(), "missing"), ErrNotFound)
}

func TestMaintenance_AnalyzeValidation(t *testing.T) {
	svc := newMaintenance(nil, &recordingNotifier{})
	_, err := svc.Analyze(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Analyze(context.Background(), "leak")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestMaintenance_ExportTickets(t *testing.T) {
	svc := newMaintenance(nil, &recordingNotifier{})
	var buf bytes.Buffer
	require.NoError(t, svc.ExportTickets(search.TicketQuery{Status: "Open"}, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ticketSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, TicketExportHeader, rows[0])
	assert.Equal(t, "m1", rows[1][0])
	assert.Equal(t, "Alice Johnson", rows[1][2])
	assert.Equal(t, "Open", rows[1][6])
}
