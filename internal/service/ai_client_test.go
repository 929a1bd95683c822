package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neela-data/internal/config"
	"neela-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAIServer(t *testing.T, handler http.HandlerFunc) *AIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAIClient(config.AIConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: 2 * time.Second}, testLogger())
}

func writeAI(w http.ResponseWriter, status int, msg string, data any) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(AIResponse{Status: status, Msg: msg, Data: raw})
}

func TestAIClient_Classify(t *testing.T) {
	c := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/maintenance/classify", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Water pouring from ceiling", req.Description)
		writeAI(w, 0, "ok", map[string]string{"priority": "Emergency", "vendorType": "Plumber", "summary": "Active leak"})
	})

	sug, err := c.Classify(context.Background(), "Water pouring from ceiling")
	require.NoError(t, err)
	assert.Equal(t, domain.TriageSuggestion{Priority: domain.PriorityEmergency, VendorType: "Plumber", Summary: "Active leak"}, sug)
}

func TestAIClient_ClassifyErrors(t *testing.T) {
	c := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAI(w, 0, "ok", map[string]string{"priority": "Sometime", "vendorType": "Plumber"})
	})
	_, err := c.Classify(context.Background(), "x")
	assert.Error(t, err)

	c = newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAI(w, 40001, "quota exceeded", nil)
	})
	_, err = c.Classify(context.Background(), "x")
	assert.ErrorContains(t, err, "quota exceeded")

	c = newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeAI(w, 400, "bad request", nil)
	})
	_, err = c.Classify(context.Background(), "x")
	assert.ErrorContains(t, err, "400")
}

func TestAIClient_DraftLeaseStripsNotes(t *testing.T) {
	c := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/leases/draft", r.URL.Path)
		var req draftRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "standard-texas", req.TemplateID)
		require.NotNil(t, req.Applicant.ApplicationData)
		assert.Empty(t, req.Applicant.ApplicationData.InternalNotes)
		writeAI(w, 0, "ok", map[string]string{"body": "LEASE for " + req.Applicant.Name})
	})

	applicant := seedSnapshot().Tenants[2]
	tpl, _ := config.DefaultSettings().Template("standard-texas")
	body, err := c.DraftLease(context.Background(), applicant, tpl)
	require.NoError(t, err)
	assert.Equal(t, "LEASE for Charlie Davis", body)
	// 入参不被修改
	assert.Equal(t, "Employer verified by phone.", applicant.ApplicationData.InternalNotes)
}

func TestAIClient_DraftLeaseEmptyBody(t *testing.T) {
	c := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAI(w, 0, "ok", map[string]string{"body": ""})
	})
	_, err := c.DraftLease(context.Background(), seedSnapshot().Tenants[2], config.LeaseTemplate{ID: "x", Body: "y"})
	assert.Error(t, err)
}
