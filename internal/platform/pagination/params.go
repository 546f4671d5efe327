package pagination

// DefaultPageSize matches the marketplace grid (three rows of four cards).
const (
	DefaultPageSize = 12
	MaxPageSize     = 48
)

// Params embeds into Huma input structs for page-number pagination.
type Params struct {
	Page     int `query:"page"     doc:"1-based page number"                        default:"1" minimum:"1"`
	PageSize int `query:"pageSize" doc:"Listings per page; server default when unset" minimum:"0" maximum:"48"`
}

// Normalize returns page and size with defaults and bounds applied.
func (p Params) Normalize() (page, size int) {
	page, size = p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Offset is the number of records skipped before the requested page.
func (p Params) Offset() int {
	page, size := p.Normalize()
	return (page - 1) * size
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Page       int  `json:"page"       doc:"Current page"            example:"1"`
	PageSize   int  `json:"pageSize"   doc:"Listings per page"       example:"12"`
	Total      int  `json:"total"      doc:"Matching listings"       example:"30"`
	TotalPages int  `json:"totalPages" doc:"Number of pages"         example:"3"`
	HasNext    bool `json:"hasNext"    doc:"A later page exists"     example:"true"`
	HasPrev    bool `json:"hasPrev"    doc:"An earlier page exists"  example:"false"`
}

// NewMeta computes page metadata for total records.
func NewMeta(page, size, total int) Meta {
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	return Meta{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
