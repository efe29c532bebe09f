package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func pipelineTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_pipelines",
			Description: "List all sales pipelines.",
			Method:      http.MethodGet,
			Path:        "/pipelines",
			Version:     pipedrive.V2,
			Params:      with(sortParams("id", "update_time", "add_time"), cursorPage()),
		},
		{
			Name:        "pipedrive_get_pipeline",
			Description: "Get a single pipeline by ID.",
			Method:      http.MethodGet,
			Path:        "/pipelines/{id}",
			Version:     pipedrive.V2,
			Params:      []Param{idParam("pipeline")},
		},
	}
}
