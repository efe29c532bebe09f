package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bturcanu/pipedrive-connector/pkg/tools"
	"github.com/bturcanu/pipedrive-connector/pkg/types"
)

// execute runs the root command with fresh flag values and a config path
// that does not exist.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, verbose = "", false
	remoteURL, remoteAPIKey, jsonOutput = "", "", false
	callArgs, callBaseURL, skillDir = "{}", "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config=" + filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PIPEDRIVE_API_KEY", "PIPEDRIVE_DOMAIN", "PIPEDRIVE_COMPANY_DOMAIN", "PIPEDRIVE_API_VERSION", "PIPEDRIVE_SKILL_DIR"} {
		t.Setenv(k, "")
	}
}

func TestToolsCommand(t *testing.T) {
	clearEnv(t)
	out, err := execute(t, "tools")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(tools.Catalog())+1 {
		t.Errorf("expected header plus %d rows, got %d lines", len(tools.Catalog()), len(lines))
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(out, "pipedrive_get_deal") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestToolsCommand_JSONLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIPEDRIVE_API_VERSION", "v1")
	out, err := execute(t, "tools", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list types.ToolList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, info := range list.Tools {
		if info.APIVersion != "v1" {
			t.Errorf("%s: version %s", info.Name, info.APIVersion)
		}
		if info.Name == "pipedrive_update_deal" && info.Method != http.MethodPut {
			t.Errorf("legacy update_deal method = %s", info.Method)
		}
	}
}

func TestCallCommand_Local(t *testing.T) {
	clearEnv(t)
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":42}}`))
	}))
	defer srv.Close()

	t.Setenv("PIPEDRIVE_API_KEY", "pd-key")
	t.Setenv("PIPEDRIVE_DOMAIN", "acme")
	out, err := execute(t, "call", "pipedrive_get_deal", "--args", `{"id": 42}`, "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v2/deals/42" {
		t.Errorf("path = %s", gotPath)
	}
	if strings.TrimSpace(out) != `{"success":true,"data":{"id":42}}` {
		t.Errorf("output = %q", out)
	}
}

func TestCallCommand_ConfigFile(t *testing.T) {
	clearEnv(t)
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	cfgFile := filepath.Join(t.TempDir(), "pipedrive.yaml")
	if err := os.WriteFile(cfgFile, []byte("apiKey: pd-key\ncompanyDomain: acme\napiVersion: legacy\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "call", "pipedrive_get_deal", "--config", cfgFile, "--args", `{"id": 1}`, "--base-url", srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/v1/deals/1" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestCallCommand_Errors(t *testing.T) {
	clearEnv(t)
	if _, err := execute(t, "call", "pipedrive_get_deal", "--args", `[1]`); err == nil {
		t.Error("expected error for non-object args")
	}
	if _, err := execute(t, "call", "pipedrive_get_deal", "--args", `{"id": 1}`); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := execute(t, "call"); err == nil {
		t.Error("expected error without tool name")
	}
}

func TestCallCommand_Remote(t *testing.T) {
	clearEnv(t)
	var gotKey string
	var gotReq types.InvokeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(types.InvokeResponse{
			CallID:  gotReq.CallID,
			Tool:    "pipedrive_list_deals",
			Content: []tools.Content{{Type: "text", Text: `{"data":[]}`}},
		})
	}))
	defer srv.Close()

	out, err := execute(t, "call", "pipedrive_list_deals", "--args", `{"limit": 5}`, "--remote", srv.URL, "--api-key", "sk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "sk-1" || string(gotReq.Arguments) != `{"limit":5}` {
		t.Errorf("unexpected request key=%q args=%s", gotKey, gotReq.Arguments)
	}
	if strings.TrimSpace(out) != `{"data":[]}` {
		t.Errorf("output = %q", out)
	}
}

func TestSkillInitCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out, err := execute(t, "skill", "init", "--dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "created: ") {
		t.Errorf("output = %q", out)
	}

	out, _ = execute(t, "skill", "init", "--dir", dir)
	if !strings.HasPrefix(out, "unchanged: ") {
		t.Errorf("output = %q", out)
	}

	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _ = execute(t, "skill", "init", "--dir", dir)
	if !strings.HasPrefix(out, "update_available: ") || !strings.HasSuffix(strings.TrimSpace(out), "SKILL.md.latest") {
		t.Errorf("output = %q", out)
	}
}
