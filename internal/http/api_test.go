package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/repository"
	"neela-data/internal/service"
	"neela-data/internal/store"
)

type testAPI struct {
	server *httptest.Server
	notes  *captureNotifier
}

type captureNotifier struct{ sent []service.Notice }

func (c *captureNotifier) Notify(_ context.Context, n service.Notice) error {
	c.sent = append(c.sent, n)
	return nil
}

func newTestAPI(t *testing.T, limiter *RateLimiter) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	session := store.NewSession()
	require.NoError(t, service.NewLoader(repository.NewMemoryDataSource(), session, logger).Load(context.Background()))

	settings := config.DefaultSettings()
	notes := &captureNotifier{}
	signer := service.NewKVSignatureProvider(store.NewMemoryKV(), "https://sign.example.com", logger)

	dashboard := service.NewDashboardService(session)
	applicants := service.NewApplicantService(session, service.NewSimulatedScreener(0, 715), service.NewTemplateDrafter(settings), signer, settings, logger)
	maintenance := service.NewMaintenanceService(session, nil, notes, logger)
	portal := service.NewPortalService(session, maintenance, notes, settings, logger)
	legal := service.NewLegalService(session, service.NewTemplateDrafter(settings), notes, settings, logger)
	views := service.NewViews(dashboard, applicants, maintenance, legal, settings)

	metrics := NewMetrics()
	router := NewRouter(logger)
	router.RegisterAdminRoutes(NewAdminHandler(dashboard, applicants, maintenance, portal, legal, views, settings, logger))
	router.RegisterPortalRoutes(NewPortalHandler(portal, logger), limiter)
	router.RegisterOpsRoutes(metrics)

	srv := httptest.NewServer(metrics.Instrument(router))
	t.Cleanup(srv.Close)
	return &testAPI{server: srv, notes: notes}
}

func (a *testAPI) do(t *testing.T, method, path, body string, headers ...string) (int, Result[json.RawMessage]) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out Result[json.RawMessage]
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestDashboard(t *testing.T) {
	api := newTestAPI(t, nil)

	status, res := api.do(t, http.MethodGet, "/admin/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ResultSuccess, res.Code)

	d := decode[map[string]any](t, res.Result)
	assert.EqualValues(t, 2400, d["monthlyRevenue"])
	assert.EqualValues(t, 2750, d["outstandingBalance"])
	assert.EqualValues(t, 33, d["occupancyRate"])
	assert.EqualValues(t, 2, d["openTickets"])
	assert.EqualValues(t, 1, d["pendingApplicants"])
	assert.Equal(t, true, d["hasNewApplications"])

	actions := d["actionRequired"].([]any)
	require.Len(t, actions, 1)
	assert.Equal(t, "t2", actions[0].(map[string]any)["tenantId"])
}

func TestViews(t *testing.T) {
	api := newTestAPI(t, nil)

	status, res := api.do(t, http.MethodGet, "/admin/api/v1/views/tenants?tab=applicants", "")
	require.Equal(t, http.StatusOK, status)
	payload := decode[map[string]any](t, res.Result)
	assert.Equal(t, "applicants", payload["tab"])

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/views/reports", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ResultError, res.Code)
	assert.Contains(t, res.Message, "unknown view")

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/views/payments", "")
	require.Equal(t, http.StatusOK, status, res.Message)
	payments := decode[map[string]any](t, res.Result)
	assert.Len(t, payments["payments"], 3)
	assert.NotNil(t, payments["claims"])

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/views/legal", "")
	require.Equal(t, http.StatusOK, status, res.Message)
	legal := decode[service.LegalPayload](t, res.Result)
	require.Len(t, legal.ActionRequired, 1)
	assert.Len(t, legal.NoticeTypes, 3)
	assert.Len(t, legal.Documents, 1)
}

func TestLegalNoticeOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)

	status, res := api.do(t, http.MethodPost, "/admin/api/v1/tenants/t2/notice",
		`{"type":"Notice to Pay or Quit","deliveryMethod":"Certified Mail"}`)
	require.Equal(t, http.StatusCreated, status, res.Message)
	doc := decode[domain.LegalDocument](t, res.Result)
	assert.Equal(t, "t2", doc.TenantID)
	assert.Equal(t, domain.LegalSent, doc.Status)
	assert.Len(t, doc.TrackingNumber, 18)
	assert.Contains(t, doc.GeneratedContent, "NOTICE TO PAY RENT OR QUIT")
	require.Len(t, api.notes.sent, 1)
	assert.Equal(t, "legal.notice", api.notes.sent[0].Kind)

	// 无欠款的住户不能发催租通知
	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/tenants/t1/notice", "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/tenants/ghost/notice", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/tenants/t2/notice", `{"deliveryMethod":"Pigeon"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/tenants/t2/legal-documents", "")
	require.Equal(t, http.StatusOK, status)
	docs := decode[[]domain.LegalDocument](t, res.Result)
	require.Len(t, docs, 2)
	assert.Equal(t, doc.ID, docs[0].ID)

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/legal-documents", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]domain.LegalDocument](t, res.Result), 2)

	status, _ = api.do(t, http.MethodGet, "/admin/api/v1/tenants/ghost/legal-documents", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTenantsFilter(t *testing.T) {
	api := newTestAPI(t, nil)

	_, res := api.do(t, http.MethodGet, "/admin/api/v1/tenants?q=BOB", "")
	tenants := decode[[]map[string]any](t, res.Result)
	require.Len(t, tenants, 1)
	assert.Equal(t, "t2", tenants[0]["id"])
}

func TestApplicantLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)
	base := "/admin/api/v1/applicants/t3"

	status, res := api.do(t, http.MethodPost, base+"/review", "")
	require.Equal(t, http.StatusOK, status, res.Message)

	status, res = api.do(t, http.MethodPost, base+"/screening", "")
	require.Equal(t, http.StatusOK, status, res.Message)
	detail := decode[service.ApplicantDetail](t, res.Result)
	assert.Equal(t, "Complete", string(detail.Lifecycle.Screening))
	require.NotNil(t, detail.Tenant.CreditScore)
	assert.Equal(t, 715, *detail.Tenant.CreditScore)

	// 未批准前不能发送
	status, _ = api.do(t, http.MethodPost, base+"/lease/send", "")
	assert.Equal(t, http.StatusConflict, status)

	status, res = api.do(t, http.MethodPost, base+"/approve", "")
	require.Equal(t, http.StatusOK, status, res.Message)

	status, res = api.do(t, http.MethodPost, base+"/lease", `{"templateId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, res = api.do(t, http.MethodPost, base+"/lease", `{"templateId":"standard-texas"}`)
	require.Equal(t, http.StatusOK, status, res.Message)
	detail = decode[service.ApplicantDetail](t, res.Result)
	require.NotNil(t, detail.Lifecycle.Lease)
	assert.Contains(t, detail.Lifecycle.Lease.Body, "Charlie Davis")
	assert.True(t, detail.CanDispatch)

	status, res = api.do(t, http.MethodPut, base+"/lease", `{"body":"Edited lease for Charlie Davis."}`)
	require.Equal(t, http.StatusOK, status, res.Message)

	status, res = api.do(t, http.MethodPost, base+"/lease/send", "")
	require.Equal(t, http.StatusOK, status, res.Message)
	detail = decode[service.ApplicantDetail](t, res.Result)
	assert.Equal(t, "LeaseSent", string(detail.Lifecycle.Stage))

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/envelopes", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]service.Envelope](t, res.Result), 1)

	// 已发送的租约不能再编辑
	status, _ = api.do(t, http.MethodPut, base+"/lease", `{"body":"sneaky"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, res = api.do(t, http.MethodPost, base+"/lease/sign", "")
	require.Equal(t, http.StatusOK, status, res.Message)
	detail = decode[service.ApplicantDetail](t, res.Result)
	assert.Equal(t, "LeaseSigned", string(detail.Lifecycle.Stage))
	assert.NotEmpty(t, detail.Tenant.SignedLeaseURL)

	status, res = api.do(t, http.MethodPost, base+"/move-in", "")
	require.Equal(t, http.StatusOK, status, res.Message)
	detail = decode[service.ApplicantDetail](t, res.Result)
	assert.Equal(t, "Active", string(detail.Tenant.Status))
	assert.Nil(t, detail.Tenant.ApplicationData)

	status, _ = api.do(t, http.MethodPut, base+"/notes", `{"notes":"late"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestApplicantErrors(t *testing.T) {
	api := newTestAPI(t, nil)

	status, _ := api.do(t, http.MethodGet, "/admin/api/v1/applicants/zzz", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(t, http.MethodPut, "/admin/api/v1/applicants/t3/notes", `{"notes":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/applicants/t3/decline", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/applicants/t3/approve", "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestMaintenanceOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)

	status, res := api.do(t, http.MethodPost, "/admin/api/v1/maintenance",
		`{"tenantId":"t1","category":"Electrical","description":"Outlet sparks","priority":"High"}`)
	require.Equal(t, http.StatusCreated, status, res.Message)
	created := decode[map[string]any](t, res.Result)
	id := created["id"].(string)
	assert.Equal(t, "High", created["priority"])

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/maintenance?status=Open", "")
	require.Equal(t, http.StatusOK, status)
	items := decode[[]map[string]any](t, res.Result)
	require.NotEmpty(t, items)
	assert.Equal(t, id, items[0]["id"])
	assert.Equal(t, "Alice Johnson", items[0]["tenantName"])

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/assign", `{"assignee":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/reassign", "")
	assert.Equal(t, http.StatusConflict, status)

	status, res = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/assign", `{"assignee":"Sparky Electric"}`)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, "Sparky Electric", decode[map[string]any](t, res.Result)["assignedTo"])

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/attachments", `{"name":"invoice.pdf","url":"https://x/invoice.pdf"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/status", `{"status":"Resolved"}`)
	require.Equal(t, http.StatusOK, status)

	status, res = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/attachments", `{"name":"invoice.pdf","url":"https://x/invoice.pdf"}`)
	require.Equal(t, http.StatusOK, status, res.Message)

	status, res = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/comments", `{"message":"Replaced outlet."}`)
	require.Equal(t, http.StatusOK, status, res.Message)
	updates := decode[map[string]any](t, res.Result)["updates"].([]any)
	last := updates[len(updates)-1].(map[string]any)
	assert.Equal(t, "Manager", last["author"])

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/notify", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, api.notes.sent, 1)
	assert.Equal(t, "t1", api.notes.sent[0].TenantID)

	status, _ = api.do(t, http.MethodPost, "/admin/api/v1/maintenance/"+id+"/status", `{"status":"Done"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExportTickets(t *testing.T) {
	api := newTestAPI(t, nil)

	resp, err := http.Get(api.server.URL + "/admin/api/v1/maintenance/export?priority=Emergency")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "maintenance.xlsx")
	body, _ := io.ReadAll(resp.Body)
	// xlsx 是 zip
	assert.True(t, strings.HasPrefix(string(body), "PK"))
}

func TestPortalOverHTTP(t *testing.T) {
	api := newTestAPI(t, nil)

	status, res := api.do(t, http.MethodGet, "/portal/api/v1/listings", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, res.Result), 3)

	status, _ = api.do(t, http.MethodGet, "/portal/api/v1/listings/l9", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, res = api.do(t, http.MethodPost, "/portal/api/v1/applications", `{
		"listingId": "l3", "name": "Dana Reyes", "email": "dana@example.com", "phone": "(512) 555-0199",
		"moveInDate": "2024-07-01",
		"employment": {"employer": "City of Austin", "jobTitle": "Planner", "monthlyIncome": 6200, "duration": "3 years"},
		"references": [{"name": "Sam Lee", "relation": "Previous Landlord", "phone": "(512) 555-7777"}],
		"consentToScreen": true
	}`)
	require.Equal(t, http.StatusCreated, status, res.Message)
	receipt := decode[service.ApplicationReceipt](t, res.Result)

	status, res = api.do(t, http.MethodGet, "/portal/api/v1/me/application", "", ResidentHeader, receipt.ApplicantID)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.NotContains(t, string(res.Result), "internalNotes")

	// 申请人不能看住户首页
	status, _ = api.do(t, http.MethodGet, "/portal/api/v1/me/overview", "", ResidentHeader, receipt.ApplicantID)
	assert.Equal(t, http.StatusBadRequest, status)

	status, res = api.do(t, http.MethodGet, "/portal/api/v1/me/overview", "", ResidentHeader, "t2")
	require.Equal(t, http.StatusOK, status, res.Message)
	overview := decode[service.ResidentOverview](t, res.Result)
	assert.Equal(t, "t2", overview.TenantID)
	require.Len(t, overview.Legal, 1)
	assert.Equal(t, "ld1", overview.Legal[0].ID)
	for _, inv := range overview.Invoices {
		assert.Equal(t, "t2", inv.TenantID)
	}

	status, res = api.do(t, http.MethodPost, "/portal/api/v1/me/tickets",
		`{"tenantId":"t1","category":"Appliance","description":"Fridge is warm","note":"Please call first"}`, ResidentHeader, "t2")
	require.Equal(t, http.StatusCreated, status, res.Message)
	ticket := decode[map[string]any](t, res.Result)
	assert.Equal(t, "t2", ticket["tenantId"])

	status, res = api.do(t, http.MethodPost, "/portal/api/v1/me/payments/instant", `{"method":"Zelle","amount":100}`, ResidentHeader, "t2")
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, false, decode[map[string]any](t, res.Result)["processed"])

	status, res = api.do(t, http.MethodPost, "/portal/api/v1/me/payments/manual",
		`{"amount":1350,"method":"Money Order","reference":"MO-1","handedOverOn":"2024-05-20"}`, ResidentHeader, "t2")
	require.Equal(t, http.StatusCreated, status, res.Message)

	status, res = api.do(t, http.MethodGet, "/admin/api/v1/payment-claims", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, res.Result), 1)

	_, res = api.do(t, http.MethodGet, "/portal/api/v1/me/overview", "", ResidentHeader, "t2")
	overview = decode[service.ResidentOverview](t, res.Result)
	assert.Equal(t, "2750", overview.Balance.String())
}

func TestPortalRateLimit(t *testing.T) {
	api := newTestAPI(t, NewRateLimiter(0.001, 2, zap.NewNop()))

	for i := 0; i < 2; i++ {
		status, _ := api.do(t, http.MethodGet, "/portal/api/v1/me/overview", "", ResidentHeader, "t1")
		require.Equal(t, http.StatusOK, status)
	}
	status, res := api.do(t, http.MethodGet, "/portal/api/v1/me/overview", "", ResidentHeader, "t1")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, ResultRateLimited, res.Code)

	// 其他住户不受影响
	status, _ = api.do(t, http.MethodGet, "/portal/api/v1/me/overview", "", ResidentHeader, "t2")
	assert.Equal(t, http.StatusOK, status)
}

func TestOpsRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	status, res := api.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ResultSuccess, res.Code)

	resp, err := http.Get(api.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "neela_http_requests_total")
	assert.Contains(t, string(body), `route="GET /healthz"`)
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t, nil)
	status, _ := api.do(t, http.MethodDelete, "/admin/api/v1/dashboard", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestStatusForEnvelopeErrors(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("sign env-1: %w", service.ErrEnvelopeVoided)))
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("void env-1: %w", service.ErrEnvelopeSigned)))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("%w: timeout", service.ErrUpstream)))
}
