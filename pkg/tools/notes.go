package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

// Notes have no v2 endpoints; every tool here is pinned to v1.

func noteLinks() []Param {
	return []Param{
		body("deal_id", Integer, "ID of the deal to attach the note to"),
		body("person_id", Integer, "ID of the person to attach the note to"),
		body("org_id", Integer, "ID of the organization to attach the note to"),
		body("lead_id", String, "ID (UUID) of the lead to attach the note to"),
		body("pinned_to_deal_flag", Integer, "1 to pin the note to the deal"),
		body("pinned_to_person_flag", Integer, "1 to pin the note to the person"),
		body("pinned_to_organization_flag", Integer, "1 to pin the note to the organization"),
	}
}

func noteTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_notes",
			Description: "List notes, optionally filtered by deal, person, organization, lead or author. Offset paginated.",
			Method:      http.MethodGet,
			Path:        "/notes",
			Version:     pipedrive.V1,
			Params: with([]Param{
				query("user_id", Integer, "Only notes written by this user"),
				query("deal_id", Integer, "Only notes attached to this deal"),
				query("person_id", Integer, "Only notes attached to this person"),
				query("org_id", Integer, "Only notes attached to this organization"),
				query("lead_id", String, "Only notes attached to this lead"),
				query("start_date", String, "Lower bound on add_time (YYYY-MM-DD)"),
				query("end_date", String, "Upper bound on add_time (YYYY-MM-DD)"),
				query("sort", String, "Sort expression, e.g. \"add_time DESC\""),
			}, offsetPage()),
		},
		{
			Name:        "pipedrive_get_note",
			Description: "Get a single note by ID.",
			Method:      http.MethodGet,
			Path:        "/notes/{id}",
			Version:     pipedrive.V1,
			Params:      []Param{idParam("note")},
		},
		{
			Name:        "pipedrive_create_note",
			Description: "Add a note to a deal, person, organization or lead. At least one link is required by Pipedrive.",
			Method:      http.MethodPost,
			Path:        "/notes",
			Version:     pipedrive.V1,
			Params:      with([]Param{requiredBody("content", String, "Note content (HTML allowed)")}, noteLinks()),
		},
		{
			Name:        "pipedrive_update_note",
			Description: "Update the content or links of an existing note.",
			Method:      http.MethodPut,
			Path:        "/notes/{id}",
			Version:     pipedrive.V1,
			Params:      with([]Param{idParam("note"), body("content", String, "Note content (HTML allowed)")}, noteLinks()),
		},
		{
			Name:        "pipedrive_delete_note",
			Description: "Delete a note.",
			Method:      http.MethodDelete,
			Path:        "/notes/{id}",
			Version:     pipedrive.V1,
			Params:      []Param{idParam("note")},
		},
	}
}
