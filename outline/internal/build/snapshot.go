package build

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/snapshot"
)

// ErrSnapshotMalformed is returned when the node map or root id is missing,
// or when the root id names no usable descriptor.
var ErrSnapshotMalformed = errors.New("snapshot malformed")

// mozAltContent is injected by Gecko into computed pseudo-element content.
const mozAltContent = "-moz-alt-content"

// maxSparseSize is the largest table a snapshot of n descriptors may keep
// its own keys in.
func maxSparseSize(n int) int { return 2*n + 1024 }

// FromSnapshot populates a store from a pre-walked node map. Descriptors that
// fail to decode are skipped and logged. Parent links are assigned by a
// breadth-first walk from the root: the first parent to claim a child wins,
// so the result is always a tree even if the walker emitted shared children.
func FromSnapshot(snap *snapshot.Snapshot, logger *slog.Logger) (*dom.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !snap.Complete() {
		return dom.NewStore(0), fmt.Errorf("build: %w: missing node map or root id", ErrSnapshotMalformed)
	}

	keys := make([]int, 0, len(snap.NodeMap))
	byKey := make(map[int]string, len(snap.NodeMap))
	for k := range snap.NodeMap {
		key, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || key < 0 {
			logger.Debug("build: skipping descriptor with bad key", "key", k)
			continue
		}
		keys = append(keys, key)
		byKey[key] = k
	}
	sort.Ints(keys)

	// Keys become store ids as-is while they are dense enough. Sparser maps
	// are renumbered in key order so the table stays proportional to the
	// number of descriptors.
	ids := make(map[int]int, len(keys))
	size := 0
	if len(keys) > 0 {
		size = keys[len(keys)-1] + 1
	}
	if size > maxSparseSize(len(keys)) {
		logger.Warn("build: renumbering sparse snapshot", "descriptors", len(keys), "max_key", size-1)
		size = len(keys)
		for i, key := range keys {
			ids[key] = i
		}
	} else {
		for _, key := range keys {
			ids[key] = key
		}
	}
	store := dom.NewStore(size)
	rawChildren := make(map[int][]int, len(keys))

	for _, key := range keys {
		id := ids[key]
		d, err := snap.Decode(byKey[key])
		if err != nil {
			logger.Debug("build: skipping descriptor", "node", key, "error", err)
			continue
		}
		n := descriptorNode(id, d)
		if err := store.Put(n); err != nil {
			logger.Debug("build: skipping descriptor", "node", key, "error", err)
			continue
		}
		if n.IsElement() {
			kids := make([]int, 0, len(d.Children))
			for _, c := range d.Children {
				cid, ok := ids[int(c)]
				if !ok {
					logger.Debug("build: dangling child reference", "parent", key, "child", int(c))
					continue
				}
				kids = append(kids, cid)
			}
			rawChildren[id] = kids
		}
	}

	rootKey := int(*snap.RootID)
	rootID, ok := ids[rootKey]
	if !ok {
		return dom.NewStore(0), fmt.Errorf("build: %w: root %d has no descriptor", ErrSnapshotMalformed, rootKey)
	}
	root := store.Node(rootID)
	if root == nil {
		return dom.NewStore(0), fmt.Errorf("build: %w: root %d has no descriptor", ErrSnapshotMalformed, rootID)
	}
	root.Parent = dom.NoParent
	root.Depth = 1
	root.Sibling, root.Twin = 1, 1
	store.SetRoot(rootID)

	queue := []int{rootID}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		parent := store.Node(pid)

		sibling := 0
		twins := make(map[string]int)
		for _, cid := range rawChildren[pid] {
			child := store.Node(cid)
			if child == nil {
				logger.Debug("build: dangling child reference", "parent", pid, "child", cid)
				continue
			}
			if cid == rootID || child.Parent != dom.UnsetParent {
				logger.Debug("build: child already attached", "parent", pid, "child", cid)
				continue
			}
			child.Parent = pid
			child.Depth = parent.Depth + 1
			if child.IsElement() {
				sibling++
				twins[child.Tag]++
				child.Sibling = sibling
				child.Twin = twins[child.Tag]
			}
			parent.Children = append(parent.Children, cid)
			queue = append(queue, cid)
		}
	}

	return store, nil
}

func descriptorNode(id int, d *snapshot.NodeDescriptor) dom.Node {
	n := dom.Node{
		ID:       id,
		Tag:      strings.ToLower(d.TagName),
		Attrs:    d.Attributes,
		Parent:   dom.UnsetParent,
		Visible:  d.Visible(),
		Selector: d.Selector,
		XPath:    d.XPath,
	}
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	if d.IsText() {
		n.Kind = dom.Text
		n.Text = d.Text
		return n
	}
	n.Kind = dom.Element
	var before, after string
	if d.PseudoElements != nil {
		before = pseudoContent(d.PseudoElements.Before)
		after = pseudoContent(d.PseudoElements.After)
	}
	n.Text = strings.TrimSpace(before + d.Text + after)
	return n
}

// pseudoContent unquotes computed pseudo-element content and drops values
// that mean "no generated content".
func pseudoContent(p *snapshot.Pseudo) string {
	if p == nil {
		return ""
	}
	c := strings.Trim(strings.TrimSpace(p.Content), `"`)
	c = strings.ReplaceAll(c, mozAltContent, "")
	switch c {
	case "none", "normal":
		return ""
	}
	return c
}
