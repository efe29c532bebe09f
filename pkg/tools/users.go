package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func userTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_users",
			Description: "List all users of the company account.",
			Method:      http.MethodGet,
			Path:        "/users",
			Version:     pipedrive.V1,
		},
		{
			Name:        "pipedrive_get_user",
			Description: "Get a single user by ID.",
			Method:      http.MethodGet,
			Path:        "/users/{id}",
			Version:     pipedrive.V1,
			Params:      []Param{idParam("user")},
		},
		{
			Name:        "pipedrive_get_current_user",
			Description: "Get the user that owns the API token, including company and locale settings.",
			Method:      http.MethodGet,
			Path:        "/users/me",
			Version:     pipedrive.V1,
		},
		{
			Name:        "pipedrive_find_users",
			Description: "Find users by name or email.",
			Method:      http.MethodGet,
			Path:        "/users/find",
			Version:     pipedrive.V1,
			Params: []Param{
				requiredQuery("term", String, "Name or email to search for"),
				query("search_by_email", Boolean, "Match term against email instead of name"),
			},
		},
	}
}
