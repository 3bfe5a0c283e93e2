package outline

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/domoutline/outline/internal/build"
	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/internal/locate"
	"github.com/hazyhaar/domoutline/outline/internal/style"
)

var (
	// ErrSnapshotMalformed marks a snapshot without a usable node map or
	// root. Builds recover from it with an empty outline.
	ErrSnapshotMalformed = build.ErrSnapshotMalformed
	// ErrNodeNotFound is returned for outline numbers or node ids that the
	// last render did not produce.
	ErrNodeNotFound = dom.ErrNodeNotFound
	// ErrLocate is returned when no selector or XPath can be derived.
	ErrLocate = locate.ErrLocate
	// ErrStyleParse marks a <style> block that was skipped.
	ErrStyleParse = style.ErrStyleParse
	// ErrNotBuilt is returned by lookups on a tree that has not been built.
	// Nothing has been assigned yet, so it also matches ErrNodeNotFound.
	ErrNotBuilt = fmt.Errorf("outline: tree not built: %w", dom.ErrNodeNotFound)
	// ErrSessionNotFound is returned by Registry lookups of unknown ids.
	ErrSessionNotFound = errors.New("outline: session not found")
	// ErrInvalidArgument marks a request that cannot be decoded or served.
	ErrInvalidArgument = errors.New("outline: invalid argument")
)
