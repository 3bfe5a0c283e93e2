package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domoutline/kit"
)

// BuildHTMLRequest builds a session's tree from raw HTML.
type BuildHTMLRequest struct {
	SessionID string `json:"session_id,omitempty"`
	HTML      string `json:"html"`
	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
}

// BuildSnapshotRequest builds a session's tree from a pre-walked snapshot.
type BuildSnapshotRequest struct {
	SessionID string          `json:"session_id,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot"`
	URL       string          `json:"url,omitempty"`
	Title     string          `json:"title,omitempty"`
}

// BuildResponse is returned by both builds.
type BuildResponse struct {
	SessionID   string `json:"session_id"`
	Outline     string `json:"outline"`
	Observation string `json:"observation"`
	Lines       int    `json:"lines"`
	Nodes       int    `json:"nodes"`
}

// IndexRequest addresses an outline number of the last render.
type IndexRequest struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// ResolveResponse maps an outline number to its node.
type ResolveResponse struct {
	NodeID  int    `json:"node_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NodeRequest addresses a node id.
type NodeRequest struct {
	SessionID string `json:"session_id"`
	NodeID    int    `json:"node_id"`
}

// LocateResponse carries the locators of a node.
type LocateResponse struct {
	NodeID       int      `json:"node_id"`
	Selector     string   `json:"selector"`
	XPath        string   `json:"xpath"`
	Frames       []string `json:"frames,omitempty"`
	FileUploader bool     `json:"file_uploader,omitempty"`
}

// ContentResponse carries the recorded content of a node.
type ContentResponse struct {
	NodeID  int    `json:"node_id"`
	Content string `json:"content"`
}

// ReadRequest reads the kept subtree of a node.
type ReadRequest struct {
	SessionID string `json:"session_id"`
	NodeID    int    `json:"node_id"`
	Format    string `json:"format,omitempty"` // markdown (default) | html
}

// ReadResponse carries a rendered fragment.
type ReadResponse struct {
	NodeID int    `json:"node_id"`
	Format string `json:"format"`
	Body   string `json:"body"`
}

// Service exposes session operations as kit endpoints shared by the HTTP
// API and the MCP tools.
type Service struct {
	Sessions *Registry
	logger   *slog.Logger
}

// NewService returns a Service over reg.
func NewService(reg *Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Sessions: reg, logger: logger}
}

func (s *Service) wrap(op string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Recovery(s.logger), kit.Logging(s.logger, op))(e)
}

func (s *Service) session(id string, create bool) (*Session, error) {
	if create {
		return s.Sessions.GetOrCreate(id)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrSessionNotFound)
	}
	return s.Sessions.Get(id)
}

// BuildHTML builds from a *BuildHTMLRequest.
func (s *Service) BuildHTML() kit.Endpoint {
	return s.wrap("build_html", func(ctx context.Context, req any) (any, error) {
		r := req.(*BuildHTMLRequest)
		sess, err := s.session(r.SessionID, true)
		if err != nil {
			return nil, err
		}
		var resp *BuildResponse
		err = sess.Do(func(t *Tree) error {
			t.SetPage(r.URL, r.Title)
			if _, err := t.BuildFromHTML(kit.WithSessionID(ctx, sess.ID), r.HTML); err != nil {
				return err
			}
			resp = buildResponse(sess.ID, t)
			return nil
		})
		return resp, err
	})
}

// BuildSnapshot builds from a *BuildSnapshotRequest.
func (s *Service) BuildSnapshot() kit.Endpoint {
	return s.wrap("build_snapshot", func(ctx context.Context, req any) (any, error) {
		r := req.(*BuildSnapshotRequest)
		sess, err := s.session(r.SessionID, true)
		if err != nil {
			return nil, err
		}
		var resp *BuildResponse
		err = sess.Do(func(t *Tree) error {
			t.SetPage(r.URL, r.Title)
			data := []byte(r.Snapshot)
			if len(data) == 0 {
				data = []byte("{}")
			}
			// Some clients send the snapshot as a JSON-encoded string.
			var inner string
			if data[0] == '"' && json.Unmarshal(data, &inner) == nil {
				data = []byte(inner)
			}
			if _, err := t.BuildFromSnapshotJSON(kit.WithSessionID(ctx, sess.ID), data); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}
			resp = buildResponse(sess.ID, t)
			return nil
		})
		return resp, err
	})
}

func buildResponse(id string, t *Tree) *BuildResponse {
	return &BuildResponse{
		SessionID:   id,
		Outline:     t.Outline(),
		Observation: t.Observation(""),
		Lines:       len(t.Lines()),
		Nodes:       t.NodeCount(),
	}
}

// Resolve maps an *IndexRequest to its node.
func (s *Service) Resolve() kit.Endpoint {
	return s.wrap("resolve", func(_ context.Context, req any) (any, error) {
		r := req.(*IndexRequest)
		sess, err := s.session(r.SessionID, false)
		if err != nil {
			return nil, err
		}
		var resp *ResolveResponse
		err = sess.Do(func(t *Tree) error {
			id, err := t.ResolveOutlineIndex(r.Index)
			if err != nil {
				return err
			}
			res, err := t.Resolve(id)
			if err != nil {
				return err
			}
			content, err := t.GetContent(id)
			if err != nil {
				return err
			}
			resp = &ResolveResponse{NodeID: id, Role: res.Role, Content: content}
			return nil
		})
		return resp, err
	})
}

// Locate returns the locators of a *NodeRequest.
func (s *Service) Locate() kit.Endpoint {
	return s.wrap("locate", func(_ context.Context, req any) (any, error) {
		r := req.(*NodeRequest)
		sess, err := s.session(r.SessionID, false)
		if err != nil {
			return nil, err
		}
		var resp *LocateResponse
		err = sess.Do(func(t *Tree) error {
			sel, xp, err := t.GetSelectorAndXPath(r.NodeID)
			if err != nil {
				return err
			}
			frames, err := t.FrameChain(r.NodeID)
			if err != nil {
				return err
			}
			upload, err := t.IsFileUploader(r.NodeID, 3)
			if err != nil {
				return err
			}
			resp = &LocateResponse{NodeID: r.NodeID, Selector: sel, XPath: xp, Frames: frames, FileUploader: upload}
			return nil
		})
		return resp, err
	})
}

// Content returns the recorded content of a *NodeRequest.
func (s *Service) Content() kit.Endpoint {
	return s.wrap("content", func(_ context.Context, req any) (any, error) {
		r := req.(*NodeRequest)
		sess, err := s.session(r.SessionID, false)
		if err != nil {
			return nil, err
		}
		var resp *ContentResponse
		err = sess.Do(func(t *Tree) error {
			v, err := t.GetContent(r.NodeID)
			if err != nil {
				return err
			}
			resp = &ContentResponse{NodeID: r.NodeID, Content: v}
			return nil
		})
		return resp, err
	})
}

// Read renders the kept subtree of a *ReadRequest.
func (s *Service) Read() kit.Endpoint {
	return s.wrap("read", func(_ context.Context, req any) (any, error) {
		r := req.(*ReadRequest)
		sess, err := s.session(r.SessionID, false)
		if err != nil {
			return nil, err
		}
		format := r.Format
		if format == "" {
			format = "markdown"
		}
		var resp *ReadResponse
		err = sess.Do(func(t *Tree) error {
			var body string
			var err error
			switch format {
			case "markdown":
				body, err = t.Markdown(r.NodeID)
			case "html":
				body, err = t.HTML(r.NodeID)
			default:
				return fmt.Errorf("%w: unknown format %q", ErrInvalidArgument, format)
			}
			if err != nil {
				return err
			}
			resp = &ReadResponse{NodeID: r.NodeID, Format: format, Body: body}
			return nil
		})
		return resp, err
	})
}
