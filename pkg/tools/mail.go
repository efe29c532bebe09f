package tools

import (
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

func mailTools() []Descriptor {
	return []Descriptor{
		{
			Name:        "pipedrive_list_mail_threads",
			Description: "List mail threads in a mailbox folder. Offset paginated.",
			Method:      http.MethodGet,
			Path:        "/mailbox/mailThreads",
			Version:     pipedrive.V1,
			Params: with([]Param{
				{Name: "folder", Type: String, In: InQuery, Required: true, Description: "Mailbox folder", Enum: []string{"inbox", "drafts", "sent", "archive"}},
			}, offsetPage()),
		},
		{
			Name:        "pipedrive_get_mail_thread",
			Description: "Get a single mail thread by ID.",
			Method:      http.MethodGet,
			Path:        "/mailbox/mailThreads/{id}",
			Version:     pipedrive.V1,
			Params:      []Param{idParam("mail thread")},
		},
		{
			Name:        "pipedrive_list_mail_thread_messages",
			Description: "List the messages of a mail thread.",
			Method:      http.MethodGet,
			Path:        "/mailbox/mailThreads/{id}/mailMessages",
			Version:     pipedrive.V1,
			Params:      []Param{idParam("mail thread")},
		},
		{
			Name:        "pipedrive_get_mail_message",
			Description: "Get a single mail message by ID, optionally with its body.",
			Method:      http.MethodGet,
			Path:        "/mailbox/mailMessages/{id}",
			Version:     pipedrive.V1,
			Params: []Param{
				idParam("mail message"),
				query("include_body", Integer, "1 to include the full message body"),
			},
		},
	}
}
