package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"omifemcuts/internal/contact"
	"omifemcuts/pkg/domain"
	"omifemcuts/services/shop/internal/app"
)

type orderLinkResponse struct {
	StyleID string `json:"styleId"`
	Mode    string `json:"mode"`
	URL     string `json:"url"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	home, err := s.app.HomePage(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q, ok := parseListQuery(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid query")
		return
	}
	list, err := s.app.ListStyles(r.Context(), q)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func parseListQuery(v url.Values) (app.ListQuery, bool) {
	q := app.ListQuery{
		Category: v.Get("category"),
		Query:    v.Get("q"),
		Sort:     v.Get("sort"),
		Cursor:   v.Get("cursor"),
	}
	for name, dst := range map[string]*int{"offset": &q.Offset, "limit": &q.Limit} {
		raw := strings.TrimSpace(v.Get(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return app.ListQuery{}, false
		}
		*dst = n
	}
	return q, true
}

// handleStyleByID serves /api/styles/{id} and its sub-resources.
func (s *Server) handleStyleByID(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := pathID(r.URL.Path, "/api/styles/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch sub {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		style, err := s.app.GetStyle(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, style)
	case "related":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		related, err := s.app.RelatedStyles(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeList(w, related)
	case "order-link":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleOrderLink(w, r, id)
	case "like":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			s.handleLike(w, r, user, id)
		}).ServeHTTP(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleOrderLink(w http.ResponseWriter, r *http.Request, id string) {
	mode, ok := contact.ParsePriceMode(r.URL.Query().Get("mode"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid price mode")
		return
	}
	link, err := s.app.OrderLink(r.Context(), id, mode, s.styleURL(id))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderLinkResponse{StyleID: id, Mode: string(mode), URL: link})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if !s.allowRate(w, r, s.likeLimiter, "like", user.ID, "too many like requests") {
		return
	}
	res, err := s.app.ToggleLike(r.Context(), user, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// styleURL is the public storefront page of a style.
func (s *Server) styleURL(id string) string {
	return s.publicBaseURL + "/styles/" + url.PathEscape(id)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.app.PublicFeedback(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeList(w, items)
	case http.MethodPost:
		s.authenticated(s.handleSubmitFeedback).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request, user domain.User) {
	if !s.allowRate(w, r, s.feedbackLimiter, "feedback", user.ID, "too many feedback submissions") {
		return
	}
	var form app.FeedbackForm
	if !decodeJSON(w, r, &form) {
		return
	}
	f, err := s.app.SubmitFeedback(r.Context(), user, form)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.contactLimiter, "contact", "", "too many contact messages") {
		return
	}
	var form app.ContactForm
	if !decodeJSON(w, r, &form) {
		return
	}
	msg, err := s.app.SubmitContact(r.Context(), form)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleContactLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.ContactLinks())
}
