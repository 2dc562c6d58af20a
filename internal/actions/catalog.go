package actions

import "github.com/xkilldash9x/scout-cli/api/schemas"

// Action names understood by the registry. The same names are advertised to
// the oracle.
const (
	ActionSearch      = "search_on_google"
	ActionClickLink   = "analyze_page_and_click_link"
	ActionPageContent = "get_page_content"
)

// Catalog returns the definitions of every action, in a stable order.
func Catalog() []schemas.ActionDefinition {
	return []schemas.ActionDefinition{
		{
			Name:        ActionSearch,
			Description: "Search Google for the given query and open the results page.",
			Parameters: []schemas.ActionParameter{
				{Name: "query", Type: "string", Description: "The search query", Required: true},
			},
		},
		{
			Name:        ActionClickLink,
			Description: "Click a link on the current page and wait for the next page to load. Use css_selector, link_text, or link_index (the N-th search result, 0-based).",
			Parameters: []schemas.ActionParameter{
				{Name: "link_text", Type: "string", Description: "Partial visible text of the link to click"},
				{Name: "link_index", Type: "integer", Description: "Index of the search result to click (default 0)"},
				{Name: "css_selector", Type: "string", Description: "CSS selector of the element to click"},
			},
		},
		{
			Name:        ActionPageContent,
			Description: "Get the title, URL and main text of the current page.",
			Parameters: []schemas.ActionParameter{
				{Name: "extract_text", Type: "boolean", Description: "Whether to include the page text (default true)"},
			},
		},
	}
}
