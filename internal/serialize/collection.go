package serialize

// Meta describes the position of one page inside the full result set.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

type Links struct {
	Self string  `json:"self"`
	Next *string `json:"next"`
	Prev *string `json:"prev"`
}

type Collection struct {
	Meta  Meta   `json:"meta"`
	Links Links  `json:"_links"`
	Items []any  `json:"items"`
}

// NewCollection wraps one page of items into the paginated envelope. It knows
// nothing about the entity: item turns a single element into its JSON
// representation, link renders the URL of an arbitrary page. next/prev are
// null when no such page exists.
func NewCollection[T any](items []T, total int64, page, perPage int, link func(page int) string, item func(T) any) Collection {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	out := make([]any, len(items))
	for i, it := range items {
		out[i] = item(it)
	}

	links := Links{Self: link(page)}
	if page < totalPages {
		next := link(page + 1)
		links.Next = &next
	}
	if page > 1 {
		prev := link(page - 1)
		links.Prev = &prev
	}

	return Collection{
		Meta: Meta{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: total,
		},
		Links: links,
		Items: out,
	}
}
