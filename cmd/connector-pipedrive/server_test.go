package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bturcanu/pipedrive-connector/pkg/auth"
	"github.com/bturcanu/pipedrive-connector/pkg/connectors"
	"github.com/bturcanu/pipedrive-connector/pkg/evidence"
	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
	"github.com/bturcanu/pipedrive-connector/pkg/tools"
	"github.com/bturcanu/pipedrive-connector/pkg/types"
)

type fakeDoer struct {
	mu   sync.Mutex
	reqs []pipedrive.Request
	out  json.RawMessage
	err  error
}

func (f *fakeDoer) Do(_ context.Context, req pipedrive.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// fakeJournal seals entries onto per-tenant chains the way the Postgres
// store does.
type fakeJournal struct {
	mu    sync.Mutex
	invs  []*evidence.Invocation
	links map[string][]evidence.ChainLink
}

func (f *fakeJournal) Record(_ context.Context, inv *evidence.Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.links == nil {
		f.links = map[string][]evidence.ChainLink{}
	}
	prev := ""
	if chain := f.links[inv.TenantID]; len(chain) > 0 {
		prev = chain[len(chain)-1].Hash
	}
	call, outcome, err := inv.Seal(prev)
	if err != nil {
		return err
	}
	f.invs = append(f.invs, inv)
	f.links[inv.TenantID] = append(f.links[inv.TenantID], evidence.ChainLink{
		CallID: inv.CallID, Hash: inv.Hash, PrevHash: inv.PrevHash, CanonCall: call, CanonOutcome: outcome,
	})
	return nil
}

func (f *fakeJournal) GetInvocation(_ context.Context, callID string) (*evidence.Invocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invs {
		if inv.CallID == callID {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeJournal) ChainLinks(_ context.Context, tenantID string) ([]evidence.ChainLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]evidence.ChainLink(nil), f.links[tenantID]...), nil
}

const (
	testKey  = "sk-test"
	otherKey = "sk-other"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func newTestHandler(t *testing.T, doer *fakeDoer, journal *fakeJournal, limit int) http.Handler {
	t.Helper()
	reg, err := tools.NewRegistry(doer, tools.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	var j Journal
	if journal != nil {
		j = Journal{Recorder: journal, Reader: journal}
	}
	srv := NewServer(testLogger(), reg, j, false, limit)
	keys := auth.NewKeyStore("sales-bot:" + testKey + ",support-bot:" + otherKey)
	return routes(srv, keys, "internal-secret", func(context.Context) error { return nil }, testLogger())
}

func invoke(t *testing.T, h http.Handler, tool, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/"+tool, strings.NewReader(body))
	req.Header.Set("X-API-Key", testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var e types.APIError
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHandleInvoke_Success(t *testing.T) {
	doer := &fakeDoer{out: json.RawMessage(`{"success":true,"data":{"id":5}}`)}
	journal := &fakeJournal{}
	h := newTestHandler(t, doer, journal, 100)

	rr := invoke(t, h, "pipedrive_get_deal", `{"call_id":"c-1","agent_id":"a-1","arguments":{"id":5}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp types.InvokeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CallID != "c-1" || resp.Tool != "pipedrive_get_deal" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Text() != `{"success":true,"data":{"id":5}}` {
		t.Errorf("content not passed through: %s", resp.Text())
	}
	if got := doer.reqs[0].Path; got != "/deals/5" {
		t.Errorf("path = %s", got)
	}

	if len(journal.invs) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(journal.invs))
	}
	inv := journal.invs[0]
	if inv.TenantID != "sales-bot" || inv.AgentID != "a-1" || inv.Status != evidence.StatusSuccess {
		t.Errorf("unexpected journal entry %+v", inv)
	}
	if inv.ResultHash != evidence.HashBytes([]byte(resp.Text())) {
		t.Error("result hash mismatch")
	}
}

func TestHandleInvoke_GeneratesCallID(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{out: json.RawMessage(`{}`)}, nil, 100)
	rr := invoke(t, h, "pipedrive_get_current_user", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp types.InvokeResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.CallID == "" {
		t.Error("expected generated call id")
	}
}

func TestHandleInvoke_Errors(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		body     string
		doerErr  error
		wantHTTP int
		wantCode string
	}{
		{"bad json", "pipedrive_get_deal", `{`, nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"arguments not object", "pipedrive_get_deal", `{"arguments":[1]}`, nil, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing required", "pipedrive_get_deal", `{"arguments":{}}`, nil, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unknown tool", "pipedrive_launch_rocket", `{}`, nil, http.StatusNotFound, "UNKNOWN_TOOL"},
		{"upstream 404", "pipedrive_get_deal", `{"arguments":{"id":1}}`,
			&pipedrive.APIError{StatusCode: 404, Body: "Not found"}, http.StatusBadGateway, "PIPEDRIVE_ERROR"},
		{"timeout", "pipedrive_get_deal", `{"arguments":{"id":1}}`,
			fmt.Errorf("pipedrive GET /deals/1: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "PIPEDRIVE_TIMEOUT"},
		{"transport", "pipedrive_get_deal", `{"arguments":{"id":1}}`,
			errors.New("connection refused"), http.StatusBadGateway, "PIPEDRIVE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &fakeDoer{err: tt.doerErr}, nil, 100)
			rr := invoke(t, h, tt.tool, tt.body)
			if rr.Code != tt.wantHTTP {
				t.Fatalf("expected %d got %d body=%s", tt.wantHTTP, rr.Code, rr.Body.String())
			}
			if e := decodeError(t, rr); e.Code != tt.wantCode {
				t.Errorf("expected code %s got %s", tt.wantCode, e.Code)
			}
		})
	}
}

func TestHandleInvoke_UpstreamDetails(t *testing.T) {
	journal := &fakeJournal{}
	h := newTestHandler(t, &fakeDoer{err: &pipedrive.APIError{StatusCode: 404, Body: "Not found"}}, journal, 100)
	rr := invoke(t, h, "pipedrive_get_deal", `{"arguments":{"id":1}}`)

	var got struct {
		Details types.UpstreamDetails `json:"details"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Details.Status != 404 || got.Details.Body != "Not found" {
		t.Errorf("details = %+v", got.Details)
	}

	inv := journal.invs[0]
	if inv.Status != evidence.StatusAPIError || inv.UpstreamStatus != 404 {
		t.Errorf("unexpected journal entry %+v", inv)
	}
	if strings.Contains(inv.Error, "Not found") {
		t.Error("journal must not store the upstream body")
	}
}

func TestHandleInvoke_RequiresAPIKey(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{}, nil, 100)
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/pipedrive_get_deal", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 got %d", rr.Code)
	}
}

func TestHandleInvoke_RateLimited(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{out: json.RawMessage(`{}`)}, nil, 1)
	// Burst is twice the limit.
	for i := 0; i < 2; i++ {
		if rr := invoke(t, h, "pipedrive_get_current_user", `{}`); rr.Code != http.StatusOK {
			t.Fatalf("call %d: expected 200 got %d", i, rr.Code)
		}
	}
	rr := invoke(t, h, "pipedrive_get_current_user", `{}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 got %d", rr.Code)
	}
}

func TestHandleListTools(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{}, nil, 100)
	req := httptest.NewRequest(http.MethodGet, "/v1/tools", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var list types.ToolList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Tools) != len(tools.Catalog()) {
		t.Errorf("expected %d tools, got %d", len(tools.Catalog()), len(list.Tools))
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{}, nil, 100)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200 got %d", path, rr.Code)
		}
	}
}

func TestReadyz_NotReady(t *testing.T) {
	reg, _ := tools.NewRegistry(&fakeDoer{})
	srv := NewServer(testLogger(), reg, Journal{}, false, 10)
	h := routes(srv, auth.NewKeyStore(""), "", func(context.Context) error { return errors.New("down") }, testLogger())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 got %d", rr.Code)
	}

	// /exec is not mounted without an internal token.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/exec", strings.NewReader(`{}`)))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d", rr.Code)
	}
}

func postExec(t *testing.T, h http.Handler, token string, req connectors.ExecRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	r := httptest.NewRequest(http.MethodPost, "/exec", bytes.NewReader(body))
	r.Header.Set("X-Internal-Token", token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestExec(t *testing.T) {
	doer := &fakeDoer{out: json.RawMessage(`{"success":true}`)}
	journal := &fakeJournal{}
	h := newTestHandler(t, doer, journal, 100)

	rr := postExec(t, h, "internal-secret", connectors.ExecRequest{
		EventID:  "evt-1",
		TenantID: "t-1",
		Tool:     "pipedrive",
		Action:   "pipedrive_update_deal",
		Params:   json.RawMessage(`{"id":5,"title":"Renewal"}`),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var resp connectors.ExecResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != connectors.StatusSuccess || string(resp.OutputJSON) != `{"success":true}` {
		t.Errorf("unexpected response %+v", resp)
	}
	req := doer.reqs[0]
	if req.Method != http.MethodPatch || req.Path != "/deals/5" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if journal.invs[0].CallID != "evt-1" || journal.invs[0].TenantID != "t-1" {
		t.Errorf("unexpected journal entry %+v", journal.invs[0])
	}
}

func TestExec_Failures(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{out: json.RawMessage(`{}`)}, nil, 100)

	if rr := postExec(t, h, "wrong", connectors.ExecRequest{Tool: "pipedrive"}); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 got %d", rr.Code)
	}

	tests := []struct {
		name string
		req  connectors.ExecRequest
		code string
	}{
		{"other tool", connectors.ExecRequest{Tool: "slack", Action: "msg.post"}, "UNKNOWN_TOOL"},
		{"unknown action", connectors.ExecRequest{Tool: "pipedrive", Action: "pipedrive_nope"}, "UNKNOWN_TOOL"},
		{"bad params", connectors.ExecRequest{Tool: "pipedrive", Action: "pipedrive_get_deal", Params: json.RawMessage(`[1]`)}, "VALIDATION_ERROR"},
		{"invalid args", connectors.ExecRequest{Tool: "pipedrive", Action: "pipedrive_get_deal", Params: json.RawMessage(`{}`)}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postExec(t, h, "internal-secret", tt.req)
			var resp connectors.ExecResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != connectors.StatusError || resp.Code != tt.code {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestAllowRate_EvictsOldest(t *testing.T) {
	s := NewServer(testLogger(), nil, Journal{}, false, 1)
	for i := 0; i < maxRateLimiters+1; i++ {
		s.allowRate(fmt.Sprintf("tenant-%d", i))
	}
	if len(s.rateLimiters) != maxRateLimiters {
		t.Fatalf("expected %d limiters, got %d", maxRateLimiters, len(s.rateLimiters))
	}
	if _, ok := s.rateLimiters["tenant-0"]; ok {
		t.Error("oldest tenant should have been evicted")
	}
}

func getAs(t *testing.T, h http.Handler, key, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.Header.Set("X-API-Key", key)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleGetInvocation(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{out: json.RawMessage(`{"success":true}`)}, &fakeJournal{}, 100)
	if rr := invoke(t, h, "pipedrive_get_deal", `{"call_id":"c-9","arguments":{"id":3}}`); rr.Code != http.StatusOK {
		t.Fatalf("invoke: %d %s", rr.Code, rr.Body.String())
	}

	rr := getAs(t, h, testKey, "/v1/invocations/c-9")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var inv evidence.Invocation
	if err := json.NewDecoder(rr.Body).Decode(&inv); err != nil {
		t.Fatal(err)
	}
	if inv.CallID != "c-9" || inv.Tool != "pipedrive_get_deal" || inv.Status != evidence.StatusSuccess || inv.Hash == "" {
		t.Errorf("unexpected invocation %+v", inv)
	}

	if rr := getAs(t, h, otherKey, "/v1/invocations/c-9"); rr.Code != http.StatusNotFound {
		t.Errorf("other tenant: expected 404 got %d", rr.Code)
	}
	if rr := getAs(t, h, testKey, "/v1/invocations/missing"); rr.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404 got %d", rr.Code)
	}
}

func TestHandleVerifyJournal(t *testing.T) {
	journal := &fakeJournal{}
	h := newTestHandler(t, &fakeDoer{out: json.RawMessage(`{}`)}, journal, 100)
	for i := 0; i < 3; i++ {
		invoke(t, h, "pipedrive_get_current_user", `{}`)
	}
	invoke(t, h, "pipedrive_get_deal", `{"arguments":{}}`)

	decode := func(rr *httptest.ResponseRecorder) VerifyResult {
		t.Helper()
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
		}
		var res VerifyResult
		if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
			t.Fatal(err)
		}
		return res
	}

	res := decode(getAs(t, h, testKey, "/v1/journal/verify"))
	if !res.Valid || res.Links != 4 || res.TenantID != "sales-bot" {
		t.Errorf("unexpected result %+v", res)
	}
	if res := decode(getAs(t, h, otherKey, "/v1/journal/verify")); !res.Valid || res.Links != 0 {
		t.Errorf("other tenant: unexpected result %+v", res)
	}

	journal.mu.Lock()
	journal.links["sales-bot"][1].CanonOutcome = []byte(`{"status":"success"}`)
	journal.mu.Unlock()

	res = decode(getAs(t, h, testKey, "/v1/journal/verify"))
	if res.Valid || !strings.Contains(res.Error, "index 1") {
		t.Errorf("tampered chain: unexpected result %+v", res)
	}
}

func TestJournalRoutesDisabled(t *testing.T) {
	h := newTestHandler(t, &fakeDoer{}, nil, 100)
	if rr := getAs(t, h, testKey, "/v1/journal/verify"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d", rr.Code)
	}
}
