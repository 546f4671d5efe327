package catalog

// Data lists the fixed choices of the listing and profile forms.
type Data struct {
	Categories  []string `json:"categories"  doc:"Listing categories; All Categories is accepted as a browse wildcard"`
	Skills      []string `json:"skills"      doc:"Selectable profile skills"`
	Departments []string `json:"departments" doc:"Academic departments"`
	Roles       []string `json:"roles"       doc:"Profile roles"                                                        example:"[\"STUDENT\",\"STAFF\"]"`
	Statuses    []string `json:"statuses"    doc:"Listing statuses"                                                     example:"[\"ACTIVE\",\"SOLD\"]"`
}

// GetOutput for GET /catalog
type GetOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         Data
}
