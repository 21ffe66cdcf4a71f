package recap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

const (
	maxBodyBytes  = 1 << 20
	subscriberBuf = 16
)

// Options configures a Server.
type Options struct {
	Capacity      int
	WindowMinutes int
	Logger        logger.Logger
	Now           func() time.Time
}

// Server keeps a rolling window of transcript pieces and serves recaps of it.
type Server struct {
	ring          *Ring
	windowMinutes int
	logger        logger.Logger
	now           func() time.Time

	mu   sync.Mutex
	subs map[chan Entry]struct{}
}

type segmentRequest struct {
	Text string `json:"text"`
}

type recapResponse struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text"`
	Count int    `json:"count"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WindowMinutes <= 0 {
		opts.WindowMinutes = 5
	}
	return &Server{
		ring:          NewRing(opts.Capacity),
		windowMinutes: opts.WindowMinutes,
		logger:        opts.Logger,
		now:           opts.Now,
		subs:          make(map[chan Entry]struct{}),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /segment", s.handleSegment)
	mux.HandleFunc("POST /asr", s.handleASR)
	mux.HandleFunc("GET /recap", s.handleRecap)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info(ctx, "Recap server listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Append stores text and pushes it to websocket subscribers.
func (s *Server) Append(text string) Entry {
	e := Entry{At: s.now(), Text: text}
	s.ring.Add(e)

	s.mu.Lock()
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
			// slow subscriber; it misses this entry
		}
	}
	s.mu.Unlock()
	return e
}

// Recap joins the entries of the last minutes with single spaces.
func (s *Server) Recap(minutes int) (string, int) {
	if minutes <= 0 {
		minutes = s.windowMinutes
	}
	entries := s.ring.Since(s.now().Add(-time.Duration(minutes) * time.Minute))
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " "), len(entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	s.accept(w, r, req.Text)
}

func (s *Server) handleASR(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}
	s.accept(w, r, string(body))
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no text"})
		return
	}
	e := s.Append(text)
	s.logger.Debug(r.Context(), "recap: appended %d chars", len(text))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "at": e.At})
}

func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	minutes := s.windowMinutes
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "minutes must be a positive integer"})
			return
		}
		minutes = n
	}
	text, count := s.Recap(minutes)
	writeJSON(w, http.StatusOK, recapResponse{OK: true, Text: text, Count: count})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Error(r.Context(), "websocket accept error: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// Clients only listen; CloseRead cancels ctx once they go away.
	ctx := conn.CloseRead(r.Context())
	s.logger.Debug(ctx, "websocket connected: %s", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			if err := wsjson.Write(ctx, conn, e); err != nil {
				s.logger.Debug(ctx, "websocket write error: %v", err)
				return
			}
		}
	}
}

func (s *Server) subscribe() chan Entry {
	ch := make(chan Entry, subscriberBuf)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan Entry) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

func (s *Server) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
