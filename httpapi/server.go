package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"pkt.systems/codelab/internal/preview"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// contentSecurityPolicy serves documents as if framed by the sandbox policy,
// so opening /doc/{key} directly keeps the same restrictions.
var contentSecurityPolicy = "sandbox " + preview.SandboxPolicy

// Config defines preview server settings.
type Config struct {
	BaseURL  string
	BasePath string
}

// Documents is the source of rendered preview documents.
type Documents interface {
	Latest() (schema.PreviewEvent, string, bool)
	Document(key int) (string, bool)
}

// Server serves the local preview page.
type Server struct {
	cfg      Config
	docs     Documents
	hub      *Hub
	log      pslog.Logger
	mount    string
	baseHref string
}

// MountPath returns the URL path the preview page is served under. It always
// starts and ends with a slash; an empty base path mounts at the root.
func MountPath(basePath string) string {
	trimmed := strings.Trim(strings.TrimSpace(basePath), "/")
	if trimmed == "" {
		return "/"
	}
	cleaned := path.Clean("/" + trimmed)
	if cleaned == "/" {
		return "/"
	}
	return cleaned + "/"
}

// baseHref is the <base href> of the index page. It is only needed when the
// page is not served from the root of its origin.
func baseHref(baseURL, mount string) string {
	origin := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if origin == "" && mount == "/" {
		return ""
	}
	return origin + mount
}

// NewServer constructs a preview server. hub may be nil, in which case the
// event stream only carries the current document.
func NewServer(cfg Config, docs Documents, hub *Hub, logger pslog.Logger) *Server {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	mount := MountPath(cfg.BasePath)
	return &Server{
		cfg:      cfg,
		docs:     docs,
		hub:      hub,
		log:      logger,
		mount:    mount,
		baseHref: baseHref(cfg.BaseURL, mount),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/doc/", s.handleDocument)
	mux.HandleFunc("/events", s.handleStream)
	mux.HandleFunc("/healthz", s.handleHealth)

	handler := withRequestLogging(mux, s.log)
	if s.mount == "/" {
		return handler
	}
	prefix := strings.TrimSuffix(s.mount, "/")
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

type indexData struct {
	BaseHref string
	Key      int
	Policy   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data := indexData{BaseHref: s.baseHref, Policy: preview.SandboxPolicy}
	if event, _, ok := s.docs.Latest(); ok {
		data.Key = event.Key
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.log.Error("http index render failed", "err", err)
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/doc/"))
	if err != nil || key <= 0 {
		http.NotFound(w, r)
		return
	}
	doc, ok := s.docs.Document(key)
	if !ok {
		http.Error(w, "preview superseded or not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("stream unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	var ch <-chan StreamEvent
	if s.hub != nil {
		sub, unsubscribe := s.hub.Subscribe()
		defer unsubscribe()
		ch = sub
	}

	replayCount := 0
	switch {
	case lastID > 0 && s.hub != nil:
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
	default:
		if event, _, ok := s.docs.Latest(); ok {
			_ = writeSSEvent(w, StreamEvent{Type: "preview", Key: event.Key, RenderID: event.ID, Timestamp: time.Now()})
		}
	}
	flusher.Flush()

	log := s.log.With("remote", clientIP(r))
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount)
	for {
		select {
		case <-r.Context().Done():
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
