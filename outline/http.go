package outline

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/domoutline/kit"
)

// maxBodyBytes caps uploaded HTML and snapshots.
const maxBodyBytes = 10 << 20

// Handler returns the session HTTP API:
//
//	POST   /api/sessions                              -> {session_id}
//	POST   /api/sessions/{id}/html                    raw HTML body
//	POST   /api/sessions/{id}/snapshot                snapshot JSON body
//	GET    /api/sessions/{id}/outline                 last outline
//	GET    /api/sessions/{id}/outline/{n}             outline number -> node
//	GET    /api/sessions/{id}/nodes/{node}/locator    selector + xpath
//	GET    /api/sessions/{id}/nodes/{node}/content    recorded content
//	GET    /api/sessions/{id}/nodes/{node}/markdown   kept subtree as markdown
//	GET    /api/sessions/{id}/nodes/{node}/html       kept subtree as HTML
//	DELETE /api/sessions/{id}
//	GET    /health
//
// The html and snapshot routes take the page URL and title from the url and
// title query parameters.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestContext)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions.Len()})
	})

	buildHTML := s.BuildHTML()
	buildSnapshot := s.BuildSnapshot()
	resolve := s.Resolve()
	locate := s.Locate()
	content := s.Content()
	read := s.Read()

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, _ *http.Request) {
			sess := s.Sessions.Create()
			writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				if !s.Sessions.Delete(chi.URLParam(r, "id")) {
					writeError(w, http.StatusNotFound, ErrSessionNotFound)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/html", func(w http.ResponseWriter, r *http.Request) {
				body, err := readBody(w, r)
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				id := chi.URLParam(r, "id")
				if _, err := s.Sessions.Get(id); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				serve(w, r, buildHTML, &BuildHTMLRequest{
					SessionID: id,
					HTML:      string(body),
					URL:       r.URL.Query().Get("url"),
					Title:     r.URL.Query().Get("title"),
				})
			})

			r.Post("/snapshot", func(w http.ResponseWriter, r *http.Request) {
				body, err := readBody(w, r)
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				id := chi.URLParam(r, "id")
				if _, err := s.Sessions.Get(id); err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				serve(w, r, buildSnapshot, &BuildSnapshotRequest{
					SessionID: id,
					Snapshot:  body,
					URL:       r.URL.Query().Get("url"),
					Title:     r.URL.Query().Get("title"),
				})
			})

			r.Get("/outline", func(w http.ResponseWriter, r *http.Request) {
				sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
				if err != nil {
					writeError(w, statusFor(err), err)
					return
				}
				var resp *BuildResponse
				sess.Do(func(t *Tree) error {
					resp = buildResponse(sess.ID, t)
					return nil
				})
				writeJSON(w, http.StatusOK, resp)
			})

			r.Get("/outline/{n}", func(w http.ResponseWriter, r *http.Request) {
				n, err := strconv.Atoi(chi.URLParam(r, "n"))
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				serve(w, r, resolve, &IndexRequest{SessionID: chi.URLParam(r, "id"), Index: n})
			})

			r.Route("/nodes/{node}", func(r chi.Router) {
				r.Get("/locator", func(w http.ResponseWriter, r *http.Request) {
					if req, ok := nodeRequest(w, r); ok {
						serve(w, r, locate, req)
					}
				})
				r.Get("/content", func(w http.ResponseWriter, r *http.Request) {
					if req, ok := nodeRequest(w, r); ok {
						serve(w, r, content, req)
					}
				})
				r.Get("/markdown", func(w http.ResponseWriter, r *http.Request) {
					if req, ok := nodeRequest(w, r); ok {
						serve(w, r, read, &ReadRequest{SessionID: req.SessionID, NodeID: req.NodeID, Format: "markdown"})
					}
				})
				r.Get("/html", func(w http.ResponseWriter, r *http.Request) {
					if req, ok := nodeRequest(w, r); ok {
						serve(w, r, read, &ReadRequest{SessionID: req.SessionID, NodeID: req.NodeID, Format: "html"})
					}
				})
			})
		})
	})
	return r
}

// securityHeaders are set on every response.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
}

// requestContext copies the chi request id into the kit context and sets
// the response headers every route shares.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(r.Context()))
		for _, h := range securityHeaders {
			w.Header().Set(h[0], h[1])
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func nodeRequest(w http.ResponseWriter, r *http.Request) (*NodeRequest, bool) {
	node, err := strconv.Atoi(chi.URLParam(r, "node"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return &NodeRequest{SessionID: chi.URLParam(r, "id"), NodeID: node}, true
}

func serve(w http.ResponseWriter, r *http.Request, e kit.Endpoint, req any) {
	resp, err := e(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors to HTTP status codes. ErrLocate and
// ErrNotBuilt are checked before ErrNodeNotFound, which both can wrap.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrLocate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotBuilt):
		return http.StatusConflict
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
