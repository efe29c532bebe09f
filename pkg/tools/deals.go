package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func dealFields() []Param {
	return []Param{
		body("value", Number, "Value of the deal"),
		body("currency", String, "Currency of the deal value (3-letter ISO code)"),
		body("owner_id", Integer, "ID of the user who owns the deal"),
		body("person_id", Integer, "ID of the person linked to the deal"),
		body("org_id", Integer, "ID of the organization linked to the deal"),
		body("pipeline_id", Integer, "ID of the pipeline"),
		body("stage_id", Integer, "ID of the stage"),
		enumBody("status", "Deal status", "open", "won", "lost"),
		body("probability", Number, "Deal success probability percentage"),
		body("lost_reason", String, "Reason the deal was lost"),
		body("expected_close_date", String, "Expected close date (YYYY-MM-DD)"),
		body("visible_to", Integer, visibleToDesc),
		idsBody("label_ids", "IDs of deal labels"),
		body("custom_fields", Object, "Custom field values keyed by field API key"),
	}
}

func dealTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_deals",
			Description: "List deals, optionally filtered by owner, person, organization, pipeline, stage or status. Returns one page; pass next_cursor back as cursor for more.",
			Method:      http.MethodGet,
			Path:        "/deals",
			Version:     pipedrive.V2,
			Params: with([]Param{
				query("filter_id", Integer, "ID of a saved filter"),
				{Name: "ids", Type: Array, Items: Integer, In: InQuery, Description: "Deal IDs to fetch"},
				query("owner_id", Integer, "Only deals owned by this user"),
				query("person_id", Integer, "Only deals linked to this person"),
				query("org_id", Integer, "Only deals linked to this organization"),
				query("pipeline_id", Integer, "Only deals in this pipeline"),
				query("stage_id", Integer, "Only deals in this stage"),
				enumQuery("status", "Only deals with this status", "open", "won", "lost", "deleted"),
				query("updated_since", String, "RFC3339 lower bound on update_time"),
				query("updated_until", String, "RFC3339 upper bound on update_time"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			}, sortParams("id", "update_time", "add_time"), cursorPage()),
		},
		{
			Name:        "pipedrive_get_deal",
			Description: "Get a single deal by ID.",
			Method:      http.MethodGet,
			Path:        "/deals/{id}",
			Version:     pipedrive.V2,
			Params: []Param{
				idParam("deal"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			},
		},
		{
			Name:        "pipedrive_search_deals",
			Description: "Search deals by title, notes and custom fields.",
			Method:      http.MethodGet,
			Path:        "/deals/search",
			Version:     pipedrive.V2,
			Params: with([]Param{
				requiredQuery("term", String, "Search term (minimum 2 characters)"),
				query("fields", String, "Fields to search: title, notes, custom_fields"),
				query("exact_match", Boolean, "Only return exact matches"),
				query("person_id", Integer, "Only deals linked to this person"),
				query("organization_id", Integer, "Only deals linked to this organization"),
				enumQuery("status", "Only deals with this status", "open", "won", "lost"),
			}, cursorPage()),
		},
		{
			Name:        "pipedrive_create_deal",
			Description: "Create a new deal.",
			Method:      http.MethodPost,
			Path:        "/deals",
			Version:     pipedrive.V2,
			Params:      with([]Param{requiredBody("title", String, "Title of the deal")}, dealFields()),
		},
		{
			Name:         "pipedrive_update_deal",
			Description:  "Update fields of an existing deal. Only supplied fields change.",
			Method:       http.MethodPatch,
			LegacyMethod: http.MethodPut,
			Path:         "/deals/{id}",
			Version:      pipedrive.V2,
			Params:       with([]Param{idParam("deal"), body("title", String, "Title of the deal")}, dealFields()),
		},
		{
			Name:        "pipedrive_delete_deal",
			Description: "Delete a deal. Pipedrive marks it deleted and purges it after 30 days.",
			Method:      http.MethodDelete,
			Path:        "/deals/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("deal")},
		},
		{
			Name:        "pipedrive_list_deal_mail_messages",
			Description: "List mail messages linked to a deal.",
			Method:      http.MethodGet,
			Path:        "/deals/{id}/mailMessages",
			Version:     pipedrive.V1,
			Params:      with([]Param{idParam("deal")}, offsetPage()),
		},
	}
}
