package domain

// SearchParams holds all parameters for a catalog search request.
type SearchParams struct {
	Query            string
	Type             string
	CategorySlug     string
	SubCategorySlugs []string
	Classify         string
	Page             int
	Limit            int
}

// HasTextQuery reports whether the request carries a free-text term.
// Sponsorship interleaving is skipped entirely when it does.
func (p SearchParams) HasTextQuery() bool {
	return p.Query != ""
}

// HasScopeFilter reports whether a category or type filter is active,
// which is the precondition for sponsored placement.
func (p SearchParams) HasScopeFilter() bool {
	return p.CategorySlug != "" || p.Type != ""
}
