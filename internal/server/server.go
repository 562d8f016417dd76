package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moviedb/internal/app"
	"moviedb/internal/nav"
	"moviedb/internal/ratelimit"
	"moviedb/internal/util"
	"moviedb/internal/view"
	"moviedb/pkg/domain"
	"moviedb/pkg/query"
	"moviedb/pkg/store"
)

const (
	defaultCookieName = "moviedb_session"
	rateLimitNotice   = "Too many searches, please wait a minute and try again"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Renderer       *view.Renderer
	Sessions       nav.SessionStore
	SearchLimiter  ratelimit.Limiter
	TrustedProxies *util.TrustedProxies
	CookieName     string
	CookieSecure   bool
	SessionTTL     time.Duration
}

// Server exposes the HTML pages and the JSON API.
type Server struct {
	app           *app.App
	renderer      *view.Renderer
	sessions      nav.SessionStore
	searchLimiter ratelimit.Limiter
	trusted       *util.TrustedProxies
	cookieName    string
	cookieSecure  bool
	sessionTTL    time.Duration
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.Renderer == nil {
		return nil, errors.New("server: app and renderer are required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("server: session store is required")
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = nav.DefaultTTL
	}
	s := &Server{
		app:           cfg.App,
		renderer:      cfg.Renderer,
		sessions:      cfg.Sessions,
		searchLimiter: cfg.SearchLimiter,
		trusted:       cfg.TrustedProxies,
		cookieName:    cookieName,
		cookieSecure:  cfg.CookieSecure,
		sessionTTL:    ttl,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)

	// pages
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /search", s.handleSearchPage)
	s.mux.HandleFunc("GET /browse", s.handleBrowsePage)
	s.mux.HandleFunc("POST /details", s.handleDetails)
	s.mux.HandleFunc("POST /back", s.handleBack)

	// api
	s.mux.HandleFunc("GET /api/filters", s.handleAPIFilters)
	s.mux.HandleFunc("GET /api/search", s.handleAPISearch)
	s.mux.HandleFunc("GET /api/movies/{id}", s.handleAPIMovie)
	s.mux.HandleFunc("GET /api/browse/{kind}", s.handleAPIBrowse)
	s.mux.HandleFunc("GET /api/tables/{table}", s.handleAPITable)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Ping(r.Context()); err != nil {
		util.LoggerFromContext(r.Context()).Warn("readiness check failed", "err", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st, token := s.loadState(r)
	s.saveState(w, r, token, st)
	s.render(w, r, http.StatusOK, st, view.Input{})
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	st, token := s.loadState(r)
	if next, err := st.SelectMode(nav.ModeSearch); err == nil {
		st = next
	}
	s.saveState(w, r, token, st)

	in := view.Input{Submitted: r.URL.Query().Get("submit") == "1"}
	req, err := searchRequestFromQuery(r)
	if err != nil {
		in.Notice = err.Error()
		in.Submitted = false
	}
	in.Search = req

	status := http.StatusOK
	if in.Submitted && st.Screen() == nav.ScreenSearch && validSearch(req) && !s.allowSearch(r) {
		in.Submitted = false
		in.Notice = rateLimitNotice
		status = http.StatusTooManyRequests
	}
	s.render(w, r, status, st, in)
}

func (s *Server) handleBrowsePage(w http.ResponseWriter, r *http.Request) {
	st, token := s.loadState(r)
	if next, err := st.SelectMode(nav.ModeBrowse); err == nil {
		st = next
	}
	s.saveState(w, r, token, st)

	in := view.Input{}
	kind, err := app.ParseKind(r.URL.Query().Get("type"))
	if err != nil {
		in.Notice = err.Error()
		kind = app.KindMovies
	}
	in.Kind = kind
	s.render(w, r, http.StatusOK, st, in)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	st, token := s.loadState(r)
	id, err := strconv.Atoi(strings.TrimSpace(r.FormValue("movie_id")))
	if err != nil {
		http.Error(w, "invalid movie id", http.StatusBadRequest)
		return
	}
	next, err := st.ShowDetails(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.saveState(w, r, token, next)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	st, token := s.loadState(r)
	st = st.Back()
	s.saveState(w, r, token, st)
	http.Redirect(w, r, "/"+string(st.Mode), http.StatusSeeOther)
}

func (s *Server) handleAPIFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.app.FilterOptions(r.Context())
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("filter options failed", "err", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

type searchResponse struct {
	Count  int            `json:"count"`
	Movies []domain.Movie `json:"movies"`
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := req.Criteria(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.allowSearch(r) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	movies, err := s.app.Search(r.Context(), req)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("search failed", "mode", req.Mode, "err", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Count: len(movies), Movies: movies})
}

func (s *Server) handleAPIMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	detail, err := s.app.MovieDetail(r.Context(), id)
	if errors.Is(err, app.ErrMovieNotFound) {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("movie detail failed", "movie_id", id, "err", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type browseResponse struct {
	app.BrowseResult
	Count int `json:"count"`
}

func (s *Server) handleAPIBrowse(w http.ResponseWriter, r *http.Request) {
	kind, err := app.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.Browse(r.Context(), kind)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("browse failed", "kind", kind, "err", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, browseResponse{BrowseResult: res, Count: res.Count()})
}

type tableResponse struct {
	Table string      `json:"table"`
	Count int         `json:"count"`
	Rows  []store.Row `json:"rows"`
}

func (s *Server) handleAPITable(w http.ResponseWriter, r *http.Request) {
	table, rows, err := s.app.TableRows(r.Context(), r.PathValue("table"))
	if app.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("table rows failed", "table", table, "err", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{Table: string(table), Count: len(rows), Rows: rows})
}

// loadState returns the session's navigation state and its token. Session
// backend failures degrade to a fresh state.
func (s *Server) loadState(r *http.Request) (nav.State, string) {
	token := ""
	if c, err := r.Cookie(s.cookieName); err == nil {
		token = c.Value
	}
	st, err := s.sessions.Load(r.Context(), token)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("session load failed", "err", err)
		return nav.New(), token
	}
	return st, token
}

func (s *Server) saveState(w http.ResponseWriter, r *http.Request, token string, st nav.State) {
	next, err := s.sessions.Save(r.Context(), token, st)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("session save failed", "err", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    next,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// allowSearch applies the search quota. Limiter failures let the request
// through.
func (s *Server) allowSearch(r *http.Request) bool {
	if s.searchLimiter == nil {
		return true
	}
	key := "search|" + util.ClientIP(r, s.trusted)
	ok, err := s.searchLimiter.Allow(r.Context(), key)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("rate limiter unavailable", "err", err)
		return true
	}
	return ok
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, st nav.State, in view.Input) {
	var buf bytes.Buffer
	if err := s.renderer.Render(r.Context(), &buf, st, in); err != nil {
		util.LoggerFromContext(r.Context()).Error("render failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func searchRequestFromQuery(r *http.Request) (app.SearchRequest, error) {
	q := r.URL.Query()
	req := app.SearchRequest{
		Term:  q.Get("q"),
		Genre: strings.TrimSpace(q.Get("genre")),
	}
	mode, err := query.ParseMode(q.Get("mode"))
	if err != nil {
		return req, err
	}
	req.Mode = mode
	if req.MinRating, err = optionalInt(q.Get("min_rating")); err != nil {
		return req, errors.New("invalid min_rating")
	}
	if req.Year, err = optionalInt(q.Get("year")); err != nil {
		return req, errors.New("invalid year")
	}
	return req, nil
}

// validSearch reports whether req would run a query. Prompts for missing
// input do not count against the search quota.
func validSearch(req app.SearchRequest) bool {
	_, err := req.Criteria()
	return err == nil
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

// writeStoreError maps data access failures onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if store.IsConnection(err) {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "query failed")
}

func errorCode(status int, msg string) string {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "database unavailable":
		return "DB_UNAVAILABLE"
	case "query failed":
		return "DB_QUERY_FAILED"
	case "movie not found":
		return "MOVIE_NOT_FOUND"
	case "invalid movie id":
		return "MOVIE_INVALID_ID"
	case "too many requests":
		return "SEARCH_RATE_LIMITED"
	}
	switch status {
	case http.StatusBadRequest:
		return "SEARCH_INVALID_REQUEST"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusTooManyRequests:
		return "SEARCH_RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "DB_UNAVAILABLE"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
