package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amosov/newsroom/internal/app"
	"github.com/amosov/newsroom/internal/config"
	"github.com/amosov/newsroom/internal/models"
	"github.com/amosov/newsroom/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const sessionCookie = "newsroom_session"

type server struct {
	log      *slog.Logger
	cfg      *config.Web
	svc      *app.Service
	sessions *session.Manager
}

type errorResponse struct {
	Error string `json:"error"`
}

type ctxKey int

const sessionIDKey ctxKey = 0

// withSession assigns every browser a uuid cookie and threads the id through
// the request context.
func (s *server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.IsAdmin(sessionID(r)) {
			http.Redirect(w, r, "/?login=required", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type indexData struct {
	Dates     []string
	Selected  string
	Report    models.Report
	HasReport bool
	IsAdmin   bool
	LoginMsg  string
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	sid := sessionID(r)
	if s.sessions.MarkVisited(sid) {
		if err := s.svc.RecordVisit(ctx); err != nil {
			// A lost visit is not worth failing the page over.
			s.log.Warn("record visit", slog.Any("err", err))
		}
	}

	state, err := s.svc.LoadState(ctx)
	if err != nil {
		s.log.Error("load state", slog.Any("err", err))
		http.Error(w, "failed to load news data", http.StatusInternalServerError)
		return
	}

	dates := make([]string, 0, len(state.News))
	for d := range state.News {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	data := indexData{
		Dates:    dates,
		IsAdmin:  s.sessions.IsAdmin(sid),
		LoginMsg: loginMessage(r.URL.Query().Get("login")),
	}
	if selected := r.URL.Query().Get("date"); selected != "" {
		data.Selected = selected
	} else if len(dates) > 0 {
		data.Selected = dates[0]
	}
	if report, ok := state.News[data.Selected]; ok {
		data.Report = report
		data.HasReport = true
	}

	s.render(w, "index.html", data)
}

func loginMessage(code string) string {
	switch code {
	case "failed":
		return "Wrong password."
	case "required":
		return "Admin login required."
	default:
		return ""
	}
}

func (s *server) handleAPINews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	state, err := s.svc.LoadState(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, state.News)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ok := session.Authenticate(r.FormValue("password"), s.cfg.AdminPassword)
	s.sessions.SetAdmin(sessionID(r), ok)
	if !ok {
		s.log.Warn("failed admin login")
		http.Redirect(w, r, "/?login=failed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.SetAdmin(sessionID(r), false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type statRow struct {
	Date  string
	Count int
}

type adminData struct {
	Feeds   []string
	Stats   []statRow
	Docs    []string
	Message string
}

func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	state, err := s.svc.LoadState(ctx)
	if err != nil {
		s.log.Error("load state", slog.Any("err", err))
		http.Error(w, "failed to load data", http.StatusInternalServerError)
		return
	}

	docs, err := s.svc.ListDocuments(ctx)
	if err != nil {
		s.log.Warn("list documents", slog.Any("err", err))
	}

	stats := make([]statRow, 0, len(state.Stats))
	for d, c := range state.Stats {
		stats = append(stats, statRow{Date: d, Count: c})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date > stats[j].Date })

	s.render(w, "admin.html", adminData{
		Feeds:   state.Feeds,
		Stats:   stats,
		Docs:    docs,
		Message: adminMessage(r.URL.Query()),
	})
}

func adminMessage(q url.Values) string {
	switch q.Get("msg") {
	case "done":
		return "Analysis complete: " + q.Get("count") + " articles processed."
	case "noarticles":
		return "No recent articles found to analyze."
	case "failed":
		return "Analysis failed; see server logs."
	case "exists":
		return "Feed already exists."
	case "added":
		return "Feed added."
	case "removed":
		return "Feed removed."
	default:
		return ""
	}
}

func (s *server) handleAddFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url := strings.TrimSpace(r.FormValue("url"))
	err := s.svc.AddFeed(ctx, url)
	switch {
	case errors.Is(err, app.ErrFeedExists):
		http.Redirect(w, r, "/admin/?msg=exists", http.StatusSeeOther)
	case err != nil:
		s.log.Error("add feed", slog.String("url", url), slog.Any("err", err))
		http.Error(w, "failed to save feed list", http.StatusInternalServerError)
	default:
		http.Redirect(w, r, "/admin/?msg=added", http.StatusSeeOther)
	}
}

func (s *server) handleRemoveFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url := r.FormValue("url")
	if err := s.svc.RemoveFeed(ctx, url); err != nil {
		s.log.Error("remove feed", slog.String("url", url), slog.Any("err", err))
		http.Error(w, "failed to save feed list", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/?msg=removed", http.StatusSeeOther)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 4*time.Minute)
	defer cancel()

	count, err := s.svc.Analyze(ctx)
	switch {
	case errors.Is(err, app.ErrNoArticles):
		http.Redirect(w, r, "/admin/?msg=noarticles", http.StatusSeeOther)
	case err != nil:
		s.log.Error("analyze", slog.Any("err", err))
		http.Redirect(w, r, "/admin/?msg=failed", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/admin/?msg=done&count="+strconv.Itoa(count), http.StatusSeeOther)
	}
}

func (s *server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render template", slog.String("template", name), slog.Any("err", err))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
