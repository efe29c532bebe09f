package tools

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

// sampleArgs returns a value for every required param of d.
func sampleArgs(d Descriptor) map[string]any {
	args := map[string]any{}
	for _, p := range d.Params {
		if !p.Required {
			continue
		}
		args[p.Name] = sampleValue(p)
	}
	return args
}

func sampleValue(p Param) any {
	switch p.Type {
	case Integer:
		return float64(42)
	case Number:
		return 1.5
	case Boolean:
		return true
	case Array:
		return []any{float64(1), float64(2)}
	case Object:
		return map[string]any{"k": "v"}
	default:
		if len(p.Enum) > 0 {
			return p.Enum[0]
		}
		return "sample"
	}
}

func TestCatalog_IsValid(t *testing.T) {
	if err := ValidateCatalog(Catalog()); err != nil {
		t.Fatalf("built-in catalog invalid: %v", err)
	}
}

func TestCatalog_CoversEveryFamily(t *testing.T) {
	want := []string{
		"pipedrive_list_deals", "pipedrive_search_deals", "pipedrive_update_deal",
		"pipedrive_create_person", "pipedrive_update_person",
		"pipedrive_list_organizations", "pipedrive_create_activity",
		"pipedrive_list_pipelines", "pipedrive_list_stages",
		"pipedrive_list_notes", "pipedrive_update_note",
		"pipedrive_list_users", "pipedrive_get_current_user",
		"pipedrive_list_mail_threads", "pipedrive_get_mail_message",
	}
	names := map[string]bool{}
	for _, d := range Catalog() {
		names[d.Name] = true
	}
	for _, n := range want {
		if !names[n] {
			t.Errorf("catalog missing %s", n)
		}
	}
}

func TestCatalog_UpdateToolsKeepIDOutOfBody(t *testing.T) {
	for _, d := range Catalog() {
		if !strings.HasPrefix(d.Name, "pipedrive_update_") {
			continue
		}
		t.Run(d.Name, func(t *testing.T) {
			args := sampleArgs(d)
			args["id"] = float64(77)
			for _, p := range d.Params {
				if p.In == InBody && p.Type == String && len(p.Enum) == 0 {
					args[p.Name] = "changed"
					break
				}
			}
			for _, legacy := range []bool{false, true} {
				req, err := d.Build(args, legacy)
				if err != nil {
					t.Fatalf("Build: %v", err)
				}
				b, ok := req.Body.(map[string]any)
				if !ok {
					t.Fatalf("expected map body, got %T", req.Body)
				}
				if _, has := b["id"]; has {
					t.Errorf("id must not appear in body: %v", b)
				}
				if !strings.HasSuffix(req.Path, "/77") {
					t.Errorf("path %s should end with /77", req.Path)
				}
			}
		})
	}
}

func TestCatalog_UpdateVerbPerVersion(t *testing.T) {
	for _, d := range Catalog() {
		if !strings.HasPrefix(d.Name, "pipedrive_update_") {
			continue
		}
		args := sampleArgs(d)
		current, err := d.Build(args, false)
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		legacy, err := d.Build(args, true)
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		if d.Version == pipedrive.V2 && current.Method != http.MethodPatch {
			t.Errorf("%s: current method = %s, want PATCH", d.Name, current.Method)
		}
		if legacy.Method != http.MethodPut {
			t.Errorf("%s: legacy method = %s, want PUT", d.Name, legacy.Method)
		}
	}
}

func TestCatalog_ListToolsOmitUnsetParams(t *testing.T) {
	for _, d := range Catalog() {
		if !strings.HasPrefix(d.Name, "pipedrive_list_") {
			continue
		}
		t.Run(d.Name, func(t *testing.T) {
			args := sampleArgs(d)
			req, err := d.Build(args, false)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			for key := range req.Query {
				p := findParam(d, key)
				if p == nil || !p.Required {
					t.Errorf("unexpected query param %q", key)
				}
			}

			if findParam(d, "limit") == nil {
				return
			}
			args["limit"] = float64(25)
			req, err = d.Build(args, false)
			if err != nil {
				t.Fatalf("Build with limit: %v", err)
			}
			if got := req.Query.Get("limit"); got != "25" {
				t.Errorf("limit = %q, want 25", got)
			}
		})
	}
}

func TestCatalog_LegacyPinnedFamilies(t *testing.T) {
	pinned := []string{"note", "user", "mail"}
	for _, d := range Catalog() {
		isPinned := false
		for _, fam := range pinned {
			if strings.Contains(d.Name, "_"+fam) {
				isPinned = true
			}
		}
		req, err := d.Build(sampleArgs(d), false)
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		if isPinned && req.Version != pipedrive.V1 {
			t.Errorf("%s must target v1, got %s", d.Name, req.Version)
		}
		if d.Version == pipedrive.V2 && req.Version != pipedrive.V2 {
			t.Errorf("%s must target v2 without override, got %s", d.Name, req.Version)
		}

		forced, err := d.Build(sampleArgs(d), true)
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		if forced.Version != pipedrive.V1 {
			t.Errorf("%s with forced legacy must target v1, got %s", d.Name, forced.Version)
		}
	}
}

func TestCatalog_SearchToolsRequireTerm(t *testing.T) {
	for _, d := range Catalog() {
		if !strings.HasPrefix(d.Name, "pipedrive_search_") {
			continue
		}
		p := findParam(d, "term")
		if p == nil || !p.Required {
			t.Errorf("%s must require term", d.Name)
		}
		if _, err := d.Build(map[string]any{}, false); err == nil {
			t.Errorf("%s should fail without term", d.Name)
		}
	}
}

func TestValidateCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		ds   []Descriptor
	}{
		{"duplicate", []Descriptor{{Name: "a", Path: "/x"}, {Name: "a", Path: "/y"}}},
		{"empty name", []Descriptor{{Path: "/x"}}},
		{"placeholder without param", []Descriptor{{Name: "a", Path: "/x/{id}"}}},
		{"path param not in path", []Descriptor{{Name: "a", Path: "/x", Params: []Param{idParam("x")}}}},
		{"optional path param", []Descriptor{{Name: "a", Path: "/x/{id}", Params: []Param{{Name: "id", Type: Integer, In: InPath}}}}},
		{"duplicate param", []Descriptor{{Name: "a", Path: "/x", Params: []Param{query("q", String, ""), query("q", String, "")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateCatalog(tt.ds); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func findParam(d Descriptor, name string) *Param {
	for i := range d.Params {
		if d.Params[i].Name == name {
			return &d.Params[i]
		}
	}
	return nil
}
