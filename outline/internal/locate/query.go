package locate

import (
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Query evaluates an XPath expression against a parsed document and maps the
// matches back to node ids. Text matches resolve to their parent element;
// matches outside the numbered tree are dropped.
func Query(doc *html.Node, ids map[*html.Node]int, expr string) ([]int, error) {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("%w: xpath %q: %w", ErrLocate, expr, err)
	}
	var out []int
	seen := make(map[int]bool)
	for _, n := range nodes {
		if n.Type == html.TextNode && n.Parent != nil {
			n = n.Parent
		}
		id, ok := ids[n]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
