package tools

import "github.com/bturcanu/pipedrive-connector/pkg/pipedrive"

// contactFields maps the flat parameter to the v2 multi-value field.
var contactFields = []struct{ flat, multi string }{
	{"email", "emails"},
	{"phone", "phones"},
}

// shimContacts rewrites a flat email/phone string into the structured
// [{value, primary, label}] form. The v2 API only accepts the plural field;
// on v1 the structured value is sent under the original name.
func shimContacts(body map[string]any, version pipedrive.APIVersion) {
	for _, f := range contactFields {
		v, ok := body[f.flat]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		delete(body, f.flat)
		if s == "" {
			continue
		}
		entry := []map[string]any{{
			"value":   s,
			"primary": true,
			"label":   "work",
		}}
		if version == pipedrive.V1 {
			body[f.flat] = entry
		} else {
			body[f.multi] = entry
		}
	}
}
