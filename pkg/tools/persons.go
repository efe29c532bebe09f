package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func personFields() []Param {
	return []Param{
		body("owner_id", Integer, "ID of the user who owns the person"),
		body("org_id", Integer, "ID of the organization the person belongs to"),
		body("email", String, "Email address; stored as the primary work email"),
		body("phone", String, "Phone number; stored as the primary work phone"),
		body("visible_to", Integer, visibleToDesc),
		idsBody("label_ids", "IDs of person labels"),
		body("custom_fields", Object, "Custom field values keyed by field API key"),
	}
}

func personTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_persons",
			Description: "List persons (contacts), optionally filtered by owner or organization. Returns one page; pass next_cursor back as cursor for more.",
			Method:      http.MethodGet,
			Path:        "/persons",
			Version:     pipedrive.V2,
			Params: with([]Param{
				query("filter_id", Integer, "ID of a saved filter"),
				{Name: "ids", Type: Array, Items: Integer, In: InQuery, Description: "Person IDs to fetch"},
				query("owner_id", Integer, "Only persons owned by this user"),
				query("org_id", Integer, "Only persons in this organization"),
				query("updated_since", String, "RFC3339 lower bound on update_time"),
				query("updated_until", String, "RFC3339 upper bound on update_time"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			}, sortParams("id", "update_time", "add_time"), cursorPage()),
		},
		{
			Name:        "pipedrive_get_person",
			Description: "Get a single person by ID.",
			Method:      http.MethodGet,
			Path:        "/persons/{id}",
			Version:     pipedrive.V2,
			Params: []Param{
				idParam("person"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			},
		},
		{
			Name:        "pipedrive_search_persons",
			Description: "Search persons by name, email, phone, notes and custom fields.",
			Method:      http.MethodGet,
			Path:        "/persons/search",
			Version:     pipedrive.V2,
			Params: with([]Param{
				requiredQuery("term", String, "Search term (minimum 2 characters)"),
				query("fields", String, "Fields to search: name, email, phone, notes, custom_fields"),
				query("exact_match", Boolean, "Only return exact matches"),
				query("organization_id", Integer, "Only persons in this organization"),
			}, cursorPage()),
		},
		{
			Name:        "pipedrive_create_person",
			Description: "Create a new person (contact).",
			Method:      http.MethodPost,
			Path:        "/persons",
			Version:     pipedrive.V2,
			Params:      with([]Param{requiredBody("name", String, "Full name of the person")}, personFields()),
			ContactShim: true,
		},
		{
			Name:         "pipedrive_update_person",
			Description:  "Update fields of an existing person. A supplied email or phone replaces the stored list with a single primary work entry.",
			Method:       http.MethodPatch,
			LegacyMethod: http.MethodPut,
			Path:         "/persons/{id}",
			Version:      pipedrive.V2,
			Params:       with([]Param{idParam("person"), body("name", String, "Full name of the person")}, personFields()),
			ContactShim:  true,
		},
		{
			Name:        "pipedrive_delete_person",
			Description: "Delete a person. Pipedrive marks it deleted and purges it after 30 days.",
			Method:      http.MethodDelete,
			Path:        "/persons/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("person")},
		},
	}
}
