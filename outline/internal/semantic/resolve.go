package semantic

import (
	"strings"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/internal/prune"
)

// Result is the semantic reading of one node. Absorbed lists the inline
// fragments whose text was merged into Content; the caller decides whether
// to suppress them. Resolving never mutates the store.
type Result struct {
	Role     string
	ID       int
	Content  string
	Absorbed []int
}

// Resolver reads nodes of one store.
type Resolver struct {
	Store *dom.Store

	// MergeGrandchildren extends span merging one level below the parent's
	// children.
	MergeGrandchildren bool

	// Mergeable filters the sibling fragments that may be merged. Nil means
	// every node that is valid in the store.
	Mergeable func(id int) bool

	// StateAttributes drive attribute promotion. Nil means StateAttributes.
	StateAttributes []string
}

// New returns a resolver with grandchild merging enabled.
func New(s *dom.Store) *Resolver {
	return &Resolver{Store: s, MergeGrandchildren: true}
}

func (r *Resolver) stateAttributes() []string {
	if r.StateAttributes != nil {
		return r.StateAttributes
	}
	return StateAttributes
}

func (r *Resolver) mergeable(id int) bool {
	if r.Mergeable != nil {
		return r.Mergeable(id)
	}
	return r.Store.Valid(id)
}

// Role resolves the display role of id, walking up through inline and
// structural ancestors until one has a role of its own.
func (r *Resolver) Role(id int) string {
	for steps := 0; steps <= r.Store.Len(); steps++ {
		n := r.Store.Node(id)
		if n == nil {
			return RoleStaticText
		}
		if role, ok := ownRole(n); ok {
			return role
		}
		if !(n.IsText() || IsSpanLike(n) || IsStructural(n)) || n.Parent < 0 {
			return RoleStaticText
		}
		id = n.Parent
	}
	return RoleStaticText
}

// Resolve returns the role, id and content of a node.
func (r *Resolver) Resolve(id int) Result {
	n := r.Store.Node(id)
	if n == nil {
		return Result{Role: RoleStaticText, ID: id}
	}
	res := Result{ID: id, Content: Value(r.Store, n)}

	if role, ok := ownRole(n); ok {
		res.Role = role
		return res
	}
	if n.Parent < 0 {
		res.Role = RoleStaticText
		return res
	}
	if IsSpanLike(n) {
		res.Role = r.Role(n.Parent)
		res.Content, res.Absorbed = r.merge(n)
		return res
	}
	res.Role = r.Role(id)
	return res
}

// merge concatenates, in document order, the inline fragments among the
// parent's children and, optionally, its grandchildren. Each fragment is
// included once; n itself is always included.
func (r *Resolver) merge(n *dom.Node) (string, []int) {
	parent := r.Store.Node(n.Parent)
	if parent == nil {
		return Value(r.Store, n), nil
	}
	var parts []string
	var absorbed []int
	seen := make(map[int]bool)
	take := func(c *dom.Node) {
		if c == nil || seen[c.ID] || !IsSpanLike(c) {
			return
		}
		if c.ID != n.ID && !r.mergeable(c.ID) {
			return
		}
		seen[c.ID] = true
		if v := Value(r.Store, c); v != "" {
			parts = append(parts, v)
		}
		if c.ID != n.ID {
			absorbed = append(absorbed, c.ID)
		}
	}
	for _, cid := range parent.Children {
		c := r.Store.Node(cid)
		take(c)
		if !r.MergeGrandchildren || c == nil {
			continue
		}
		for _, gid := range c.Children {
			take(r.Store.Node(gid))
		}
	}
	if !seen[n.ID] {
		// n sits deeper than the scanned levels.
		parts = append([]string{Value(r.Store, n)}, parts...)
	}
	return strings.Join(parts, " "), absorbed
}

// PromotionTarget finds where the state attributes of a content-less node
// should surface: the first descendant, in document order, whose own content
// has a letter or digit. ok is false when the node has content itself, has
// no state attributes, or no descendant qualifies.
func (r *Resolver) PromotionTarget(id int, content string, usable func(int) bool) (int, bool) {
	n := r.Store.Node(id)
	if n == nil || prune.HasAlnum(content) || !HasState(n, r.stateAttributes()) {
		return 0, false
	}
	stack := make([]int, 0, len(n.Children))
	for i := len(n.Children) - 1; i >= 0; i-- {
		stack = append(stack, n.Children[i])
	}
	for len(stack) > 0 {
		cid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := r.Store.Node(cid)
		if c == nil || (usable != nil && !usable(cid)) {
			continue
		}
		if prune.HasAlnum(Value(r.Store, c)) {
			return cid, true
		}
		for i := len(c.Children) - 1; i >= 0; i-- {
			stack = append(stack, c.Children[i])
		}
	}
	return 0, false
}

// HasState reports whether n carries any of attrs with a non-empty value.
func HasState(n *dom.Node, attrs []string) bool {
	for _, a := range attrs {
		if n.AttrValue(a) != "" {
			return true
		}
	}
	return false
}

// AttrString formats the non-empty entries of state, in attrs order, as
// "expanded: true haspopup: menu".
func AttrString(state map[string]string, attrs []string) string {
	var parts []string
	for _, a := range attrs {
		v := state[a]
		if v == "" {
			continue
		}
		key := a
		if i := strings.LastIndexByte(a, '-'); i >= 0 {
			key = a[i+1:]
		}
		parts = append(parts, key+": "+v)
	}
	return strings.Join(parts, " ")
}
