// Package snapshot defines the wire format of a pre-walked DOM snapshot: the
// node map and root id produced by evaluating a DOM-walking script inside the
// page.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Node types carried by a descriptor.
const (
	ElementNode = "ELEMENT_NODE"
	TextNode    = "TEXT_NODE"
)

// ID is a node id that decodes from a JSON number or a numeric string.
type ID int

// UnmarshalJSON accepts 12, "12" and 12.0.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("snapshot: id %q: %w", s, err)
		}
		*id = ID(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("snapshot: id %s: %w", data, err)
	}
	*id = ID(f)
	return nil
}

// Pseudo is the computed content of a ::before or ::after pseudo-element.
type Pseudo struct {
	Content string `json:"content"`
}

// PseudoElements groups the generated content around an element.
type PseudoElements struct {
	Before *Pseudo `json:"before,omitempty"`
	After  *Pseudo `json:"after,omitempty"`
}

// NodeDescriptor is one entry of the node map.
type NodeDescriptor struct {
	Index          *ID               `json:"index,omitempty"`
	Type           string            `json:"type"`
	TagName        string            `json:"tagName"`
	Text           string            `json:"text,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	Children       []ID              `json:"children,omitempty"`
	Selector       string            `json:"selector,omitempty"`
	XPath          string            `json:"xpath,omitempty"`
	IsVisible      *bool             `json:"isVisible,omitempty"`
	PseudoElements *PseudoElements   `json:"pseudoElements,omitempty"`
}

// Visible returns the evaluated visibility, defaulting to true when the
// walker did not compute it.
func (d *NodeDescriptor) Visible() bool {
	if d.IsVisible == nil {
		return true
	}
	return *d.IsVisible
}

// IsText reports whether the descriptor is a text node.
func (d *NodeDescriptor) IsText() bool { return d.Type == TextNode }

// Snapshot is a node map plus its root id. Descriptors are kept raw so that a
// single malformed entry can be skipped without rejecting the whole snapshot.
type Snapshot struct {
	NodeMap map[string]json.RawMessage `json:"nodeMap"`
	RootID  *ID                        `json:"rootId"`
}

// UnmarshalJSON accepts both {nodeMap, rootId} and the shorter {map, root}.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		NodeMap map[string]json.RawMessage `json:"nodeMap"`
		Map     map[string]json.RawMessage `json:"map"`
		RootID  *ID                        `json:"rootId"`
		Root    *ID                        `json:"root"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.NodeMap = raw.NodeMap
	if s.NodeMap == nil {
		s.NodeMap = raw.Map
	}
	s.RootID = raw.RootID
	if s.RootID == nil {
		s.RootID = raw.Root
	}
	return nil
}

// Complete reports whether both the node map and the root id are present.
func (s *Snapshot) Complete() bool {
	return s != nil && s.NodeMap != nil && s.RootID != nil
}

// Unmarshal decodes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}

// Marshal encodes a snapshot as JSON.
func Marshal(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal: %w", err)
	}
	return data, nil
}

// Add encodes d and stores it under id, creating the map on first use.
func (s *Snapshot) Add(id int, d NodeDescriptor) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("snapshot: add %d: %w", id, err)
	}
	if s.NodeMap == nil {
		s.NodeMap = make(map[string]json.RawMessage)
	}
	s.NodeMap[strconv.Itoa(id)] = raw
	return nil
}

// SetRoot records the root id.
func (s *Snapshot) SetRoot(id int) {
	r := ID(id)
	s.RootID = &r
}

// Decode parses the descriptor stored under key.
func (s *Snapshot) Decode(key string) (*NodeDescriptor, error) {
	raw, ok := s.NodeMap[key]
	if !ok {
		return nil, fmt.Errorf("snapshot: no descriptor %q", key)
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("snapshot: descriptor %q is empty", key)
	}
	var d NodeDescriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("snapshot: descriptor %q: %w", key, err)
	}
	switch d.Type {
	case TextNode:
	case ElementNode, "":
		if d.TagName == "" {
			return nil, fmt.Errorf("snapshot: descriptor %q: element without tagName", key)
		}
		d.Type = ElementNode
	default:
		return nil, fmt.Errorf("snapshot: descriptor %q: unknown type %q", key, d.Type)
	}
	return &d, nil
}
