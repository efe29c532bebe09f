package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func activityFields() []Param {
	return []Param{
		body("type", String, "Activity type key, e.g. call, meeting, task, email"),
		body("owner_id", Integer, "ID of the user who owns the activity"),
		body("deal_id", Integer, "ID of the linked deal"),
		body("lead_id", String, "ID (UUID) of the linked lead"),
		body("person_id", Integer, "ID of the linked person"),
		body("org_id", Integer, "ID of the linked organization"),
		body("due_date", String, "Due date (YYYY-MM-DD)"),
		body("due_time", String, "Due time (HH:MM)"),
		body("duration", String, "Duration (HH:MM)"),
		body("busy", Boolean, "Mark the time as busy in calendars"),
		body("done", Boolean, "Whether the activity is done"),
		body("note", String, "Note attached to the activity (HTML allowed)"),
		body("public_description", String, "Description shown to external participants"),
		body("location", Object, "Location object, e.g. {\"value\": \"HQ\"}"),
		{Name: "participants", Type: Array, Items: Object, In: InBody, Description: "Participants as [{\"person_id\": 1, \"primary\": true}]"},
		body("priority", Integer, "Priority value"),
	}
}

func activityTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_activities",
			Description: "List activities, optionally filtered by owner, deal, person, organization or done state. Returns one page; pass next_cursor back as cursor for more.",
			Method:      http.MethodGet,
			Path:        "/activities",
			Version:     pipedrive.V2,
			Params: with([]Param{
				query("filter_id", Integer, "ID of a saved filter"),
				{Name: "ids", Type: Array, Items: Integer, In: InQuery, Description: "Activity IDs to fetch"},
				query("owner_id", Integer, "Only activities owned by this user"),
				query("deal_id", Integer, "Only activities linked to this deal"),
				query("person_id", Integer, "Only activities linked to this person"),
				query("org_id", Integer, "Only activities linked to this organization"),
				query("done", Boolean, "Only done (true) or open (false) activities"),
				query("updated_since", String, "RFC3339 lower bound on update_time"),
				query("updated_until", String, "RFC3339 upper bound on update_time"),
				query("include_fields", String, "Extra fields to include, comma-separated"),
			}, sortParams("id", "update_time", "add_time", "due_date"), cursorPage()),
		},
		{
			Name:        "pipedrive_get_activity",
			Description: "Get a single activity by ID.",
			Method:      http.MethodGet,
			Path:        "/activities/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("activity")},
		},
		{
			Name:        "pipedrive_create_activity",
			Description: "Create a new activity (call, meeting, task, ...).",
			Method:      http.MethodPost,
			Path:        "/activities",
			Version:     pipedrive.V2,
			Params:      with([]Param{requiredBody("subject", String, "Subject of the activity")}, activityFields()),
		},
		{
			Name:         "pipedrive_update_activity",
			Description:  "Update fields of an existing activity, e.g. mark it done.",
			Method:       http.MethodPatch,
			LegacyMethod: http.MethodPut,
			Path:         "/activities/{id}",
			Version:      pipedrive.V2,
			Params:       with([]Param{idParam("activity"), body("subject", String, "Subject of the activity")}, activityFields()),
		},
		{
			Name:        "pipedrive_delete_activity",
			Description: "Delete an activity.",
			Method:      http.MethodDelete,
			Path:        "/activities/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("activity")},
		},
	}
}
