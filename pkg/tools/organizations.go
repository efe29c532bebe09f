package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func organizationFields() []Param {
	return []Param{
		body("owner_id", Integer, "ID of the user who owns the organization"),
		body("address", Object, "Address object, e.g. {\"value\": \"1 Main St, Springfield\"}"),
		body("visible_to", Integer, visibleToDesc),
		idsBody("label_ids", "IDs of organization labels"),
		body("custom_fields", Object, "Custom field values keyed by field API key"),
	}
}

func organizationTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_organizations",
			Description: "List organizations, optionally filtered by owner. Returns one page; pass next_cursor back as cursor for more.",
			Method:      http.MethodGet,
			Path:        "/organizations",
			Version:     pipedrive.V2,
			Params: with([]Param{
				query("filter_id", Integer, "ID of a saved filter"),
				{Name: "ids", Type: Array, Items: Integer, In: InQuery, Description: "Organization IDs to fetch"},
				query("owner_id", Integer, "Only organizations owned by this user"),
				query("updated_since", String, "RFC3339 lower bound on update_time"),
				query("updated_until", String, "RFC3339 upper bound on update_time"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			}, sortParams("id", "update_time", "add_time"), cursorPage()),
		},
		{
			Name:        "pipedrive_get_organization",
			Description: "Get a single organization by ID.",
			Method:      http.MethodGet,
			Path:        "/organizations/{id}",
			Version:     pipedrive.V2,
			Params: []Param{
				idParam("organization"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			},
		},
		{
			Name:        "pipedrive_search_organizations",
			Description: "Search organizations by name, address, notes and custom fields.",
			Method:      http.MethodGet,
			Path:        "/organizations/search",
			Version:     pipedrive.V2,
			Params: with([]Param{
				requiredQuery("term", String, "Search term (minimum 2 characters)"),
				query("fields", String, "Fields to search: name, address, notes, custom_fields"),
				query("exact_match", Boolean, "Only return exact matches"),
			}, cursorPage()),
		},
		{
			Name:        "pipedrive_create_organization",
			Description: "Create a new organization.",
			Method:      http.MethodPost,
			Path:        "/organizations",
			Version:     pipedrive.V2,
			Params:      with([]Param{requiredBody("name", String, "Name of the organization")}, organizationFields()),
		},
		{
			Name:         "pipedrive_update_organization",
			Description:  "Update fields of an existing organization.",
			Method:       http.MethodPatch,
			LegacyMethod: http.MethodPut,
			Path:         "/organizations/{id}",
			Version:      pipedrive.V2,
			Params:       with([]Param{idParam("organization"), body("name", String, "Name of the organization")}, organizationFields()),
		},
		{
			Name:        "pipedrive_delete_organization",
			Description: "Delete an organization. Pipedrive marks it deleted and purges it after 30 days.",
			Method:      http.MethodDelete,
			Path:        "/organizations/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("organization")},
		},
	}
}
