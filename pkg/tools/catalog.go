package tools

// Catalog returns every built-in tool. Order is stable and groups tools by
// entity family.
func Catalog() []Descriptor {
	var ds []Descriptor
	ds = append(ds, dealTools()...)
	ds = append(ds, personTools()...)
	ds = append(ds, organizationTools()...)
	ds = append(ds, activityTools()...)
	ds = append(ds, pipelineTools()...)
	ds = append(ds, stageTools()...)
	ds = append(ds, noteTools()...)
	ds = append(ds, userTools()...)
	ds = append(ds, mailTools()...)
	return ds
}

// ──────────────────────────────────────────────────────────────────────────────
// Parameter helpers
// ──────────────────────────────────────────────────────────────────────────────

func idParam(entity string) Param {
	return Param{Name: "id", Type: Integer, In: InPath, Required: true, Description: "ID of the " + entity}
}

func query(name string, t ParamType, desc string) Param {
	return Param{Name: name, Type: t, In: InQuery, Description: desc}
}

func requiredQuery(name string, t ParamType, desc string) Param {
	return Param{Name: name, Type: t, In: InQuery, Required: true, Description: desc}
}

func enumQuery(name, desc string, values ...string) Param {
	return Param{Name: name, Type: String, In: InQuery, Description: desc, Enum: values}
}

func body(name string, t ParamType, desc string) Param {
	return Param{Name: name, Type: t, In: InBody, Description: desc}
}

func requiredBody(name string, t ParamType, desc string) Param {
	return Param{Name: name, Type: t, In: InBody, Required: true, Description: desc}
}

func enumBody(name, desc string, values ...string) Param {
	return Param{Name: name, Type: String, In: InBody, Description: desc, Enum: values}
}

func idsBody(name, desc string) Param {
	return Param{Name: name, Type: Array, Items: Integer, In: InBody, Description: desc}
}

// cursorPage is the v2 pagination pair. The response's additional_data
// carries next_cursor; pass it back to fetch the next page.
func cursorPage() []Param {
	return []Param{
		query("limit", Integer, "Number of items per page (max 500)"),
		query("cursor", String, "Cursor returned as next_cursor by the previous page"),
	}
}

// offsetPage is the v1 pagination pair.
func offsetPage() []Param {
	return []Param{
		query("start", Integer, "Pagination start offset"),
		query("limit", Integer, "Number of items per page"),
	}
}

func sortParams(fields ...string) []Param {
	return []Param{
		enumQuery("sort_by", "Field to sort by", fields...),
		enumQuery("sort_direction", "Sort direction", "asc", "desc"),
	}
}

func with(base []Param, more ...[]Param) []Param {
	out := append([]Param{}, base...)
	for _, m := range more {
		out = append(out, m...)
	}
	return out
}

const visibleToDesc = "Visibility: 1 owner & followers, 3 entire company (values depend on plan)"
