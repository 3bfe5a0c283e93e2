package dom

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned for ids outside the store or holes in it.
	ErrNodeNotFound = errors.New("node not found")
	// ErrBrokenAncestry is returned when a parent chain does not reach the root.
	ErrBrokenAncestry = errors.New("broken ancestry")
)

// Store is a flat, id-addressed table of nodes for one snapshot. The source
// data is never mutated after building; validity lives in a separate overlay
// so pruning does not duplicate the tree.
type Store struct {
	nodes   []Node
	present []bool
	valid   []bool
	root    int
}

// NewStore returns an empty store with room for sizeHint nodes.
func NewStore(sizeHint int) *Store {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Store{
		nodes:   make([]Node, 0, sizeHint),
		present: make([]bool, 0, sizeHint),
		valid:   make([]bool, 0, sizeHint),
		root:    -1,
	}
}

// Append adds n at the next free position and returns its id.
func (s *Store) Append(n Node) int {
	id := len(s.nodes)
	n.ID = id
	s.nodes = append(s.nodes, n)
	s.present = append(s.present, true)
	s.valid = append(s.valid, false)
	return id
}

// Put stores n at position n.ID, growing the table as needed. Positions
// skipped over stay absent.
func (s *Store) Put(n Node) error {
	if n.ID < 0 {
		return fmt.Errorf("dom: put: negative id %d", n.ID)
	}
	s.grow(n.ID + 1)
	s.nodes[n.ID] = n
	s.present[n.ID] = true
	return nil
}

func (s *Store) grow(size int) {
	for len(s.nodes) < size {
		s.nodes = append(s.nodes, Node{ID: len(s.nodes), Parent: UnsetParent})
		s.present = append(s.present, false)
		s.valid = append(s.valid, false)
	}
}

// Len returns the table size, holes included.
func (s *Store) Len() int { return len(s.nodes) }

// Count returns the number of populated positions.
func (s *Store) Count() int {
	c := 0
	for _, p := range s.present {
		if p {
			c++
		}
	}
	return c
}

// Root returns the root id, or -1 for an empty store.
func (s *Store) Root() int { return s.root }

// SetRoot records the root id.
func (s *Store) SetRoot(id int) { s.root = id }

// Has reports whether id names a populated position.
func (s *Store) Has(id int) bool {
	return id >= 0 && id < len(s.nodes) && s.present[id]
}

// Get returns the node at id.
func (s *Store) Get(id int) (*Node, error) {
	if !s.Has(id) {
		return nil, fmt.Errorf("dom: node %d: %w", id, ErrNodeNotFound)
	}
	return &s.nodes[id], nil
}

// Node returns the node at id or nil. Callers that already hold a
// valid id use this to skip error plumbing.
func (s *Store) Node(id int) *Node {
	if !s.Has(id) {
		return nil
	}
	return &s.nodes[id]
}

// Valid reports the pruning verdict for id.
func (s *Store) Valid(id int) bool {
	return s.Has(id) && s.valid[id]
}

// SetValid sets the pruning verdict for id.
func (s *Store) SetValid(id int, v bool) {
	if s.Has(id) {
		s.valid[id] = v
	}
}

// ResetValidity clears every verdict to v.
func (s *Store) ResetValidity(v bool) {
	for i := range s.valid {
		s.valid[i] = v && s.present[i]
	}
}

// MarkValidUpward marks id and every ancestor up to the root as valid.
func (s *Store) MarkValidUpward(id int) {
	for steps := 0; s.Has(id) && steps <= len(s.nodes); steps++ {
		s.valid[id] = true
		id = s.nodes[id].Parent
	}
}

// Ancestors returns the chain id, parent, ..., root.
func (s *Store) Ancestors(id int) ([]int, error) {
	if !s.Has(id) {
		return nil, fmt.Errorf("dom: ancestors of %d: %w", id, ErrNodeNotFound)
	}
	var chain []int
	cur := id
	for {
		chain = append(chain, cur)
		if len(chain) > len(s.nodes) {
			return nil, fmt.Errorf("dom: ancestors of %d: cycle: %w", id, ErrBrokenAncestry)
		}
		p := s.nodes[cur].Parent
		if p == NoParent {
			return chain, nil
		}
		if !s.Has(p) {
			return nil, fmt.Errorf("dom: ancestors of %d: parent %d of %d: %w", id, p, cur, ErrBrokenAncestry)
		}
		cur = p
	}
}

// ElementChildren returns the element children of id in document order.
func (s *Store) ElementChildren(id int) []int {
	n := s.Node(id)
	if n == nil {
		return nil
	}
	out := make([]int, 0, len(n.Children))
	for _, c := range n.Children {
		if cn := s.Node(c); cn != nil && cn.IsElement() {
			out = append(out, c)
		}
	}
	return out
}

// Check verifies the structural invariants of a built store: ids match
// positions, parent and child links agree, and depth grows by one per level.
func (s *Store) Check() error {
	for i := range s.nodes {
		if !s.present[i] {
			continue
		}
		n := &s.nodes[i]
		if n.ID != i {
			return fmt.Errorf("dom: node at %d has id %d", i, n.ID)
		}
		for _, c := range n.Children {
			cn := s.Node(c)
			if cn == nil {
				return fmt.Errorf("dom: node %d lists missing child %d", i, c)
			}
			if cn.Parent != i {
				return fmt.Errorf("dom: child %d of %d points to parent %d", c, i, cn.Parent)
			}
			if cn.Depth != n.Depth+1 {
				return fmt.Errorf("dom: child %d depth %d, parent %d depth %d", c, cn.Depth, i, n.Depth)
			}
		}
		if n.Parent >= 0 {
			p := s.Node(n.Parent)
			if p == nil {
				return fmt.Errorf("dom: node %d has missing parent %d", i, n.Parent)
			}
			found := false
			for _, c := range p.Children {
				if c == i {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("dom: node %d not listed by parent %d", i, n.Parent)
			}
		}
	}
	return nil
}
