package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func stageTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_stages",
			Description: "List pipeline stages, optionally only those of one pipeline.",
			Method:      http.MethodGet,
			Path:        "/stages",
			Version:     pipedrive.V2,
			Params: with([]Param{
				query("pipeline_id", Integer, "Only stages of this pipeline"),
			}, sortParams("id", "update_time", "add_time", "order_nr"), cursorPage()),
		},
		{
			Name:        "pipedrive_get_stage",
			Description: "Get a single stage by ID.",
			Method:      http.MethodGet,
			Path:        "/stages/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("stage")},
		},
	}
}
