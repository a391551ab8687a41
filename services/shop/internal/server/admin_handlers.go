package server

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"omifemcuts/pkg/domain"
	"omifemcuts/services/shop/internal/app"
)

// multipart field overhead allowed on top of the image limit
const formOverheadBytes = 1 << 20

type roleRequest struct {
	Role string `json:"role"`
}

type approvalRequest struct {
	// Approved sets the flag; omitted toggles it.
	Approved *bool `json:"approved"`
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	dash, err := s.app.Dashboard(r.Context(), admin)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.ListUsers(r.Context(), admin)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeList(w, users)
}

func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id, sub, ok := pathID(r.URL.Path, "/api/admin/users/")
	if !ok || sub != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		user, err := s.app.GetUser(r.Context(), admin, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var req roleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		updated, err := s.app.SetUserRole(r.Context(), admin, id, domain.UserRole(strings.ToLower(strings.TrimSpace(req.Role))))
		if err != nil {
			s.audit(r, "shop.admin.user.role", "fail", "user_id", admin.ID, "target_user_id", id, "reason", err.Error())
			writeAppError(w, r, err)
			return
		}
		s.audit(r, "shop.admin.user.role", "success", "user_id", admin.ID, "target_user_id", id, "role", string(updated.Role))
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if !confirmed(w, r) {
			return
		}
		if err := s.app.DeleteUser(r.Context(), admin, id); err != nil {
			s.audit(r, "shop.admin.user.delete", "fail", "user_id", admin.ID, "target_user_id", id, "reason", err.Error())
			writeAppError(w, r, err)
			return
		}
		s.audit(r, "shop.admin.user.delete", "success", "user_id", admin.ID, "target_user_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminStyles(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	form, upload, cleanup, ok := s.readStyleForm(w, r)
	if !ok {
		return
	}
	defer cleanup()
	style, err := s.app.CreateStyle(r.Context(), admin, form, upload)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "shop.admin.style.create", "success", "user_id", admin.ID, "style_id", style.ID)
	writeJSON(w, http.StatusCreated, style)
}

// readStyleForm accepts either a JSON StyleForm or a multipart form with an
// "image" file. The returned cleanup releases multipart temp files.
func (s *Server) readStyleForm(w http.ResponseWriter, r *http.Request) (app.StyleForm, *app.ImageUpload, func(), bool) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var form app.StyleForm
		if !decodeJSON(w, r, &form) {
			return app.StyleForm{}, nil, noop, false
		}
		return form, nil, noop, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.app.MaxUploadBytes()+formOverheadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeAppError(w, r, err)
		} else {
			writeError(w, http.StatusBadRequest, "invalid form data")
		}
		return app.StyleForm{}, nil, noop, false
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	form := app.StyleForm{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Category:     r.FormValue("category"),
		DeliveryTime: r.FormValue("deliveryTime"),
		Tags:         r.FormValue("tags"),
		ImageURL:     r.FormValue("imageUrl"),
	}
	var ok bool
	if form.PriceWithoutFabrics, ok = formPrice(r, "priceWithoutFabrics"); !ok {
		cleanup()
		writeError(w, http.StatusBadRequest, "invalid form data")
		return app.StyleForm{}, nil, noop, false
	}
	if form.PriceWithFabrics, ok = formPrice(r, "priceWithFabrics"); !ok {
		cleanup()
		writeError(w, http.StatusBadRequest, "invalid form data")
		return app.StyleForm{}, nil, noop, false
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, cleanup, true
	}
	if err != nil {
		cleanup()
		writeError(w, http.StatusBadRequest, "invalid form data")
		return app.StyleForm{}, nil, noop, false
	}
	upload := &app.ImageUpload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return form, upload, func() {
		_ = file.Close()
		cleanup()
	}, true
}

// formPrice parses an optional whole-naira price field.
func formPrice(r *http.Request, name string) (*int64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(r.FormValue(name)), ",", "")
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func (s *Server) handleAdminStyleByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id, sub, ok := pathID(r.URL.Path, "/api/admin/styles/")
	if !ok || sub != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var patch domain.StylePatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		updated, err := s.app.UpdateStyle(r.Context(), admin, id, patch)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if !confirmed(w, r) {
			return
		}
		if err := s.app.DeleteStyle(r.Context(), admin, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		s.audit(r, "shop.admin.style.delete", "success", "user_id", admin.ID, "style_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminFeedback(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.ListAllFeedback(r.Context(), admin)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeList(w, items)
}

func (s *Server) handleAdminFeedbackByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id, sub, ok := pathID(r.URL.Path, "/api/admin/feedback/")
	if !ok || sub != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		f, err := s.app.GetFeedback(r.Context(), admin, id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodPatch:
		var req approvalRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		var (
			f   domain.Feedback
			err error
		)
		if req.Approved == nil {
			f, err = s.app.ToggleFeedbackApproval(r.Context(), admin, id)
		} else {
			f, err = s.app.SetFeedbackApproval(r.Context(), admin, id, *req.Approved)
		}
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	case http.MethodDelete:
		if !confirmed(w, r) {
			return
		}
		if err := s.app.DeleteFeedback(r.Context(), admin, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAdminContactMessages(w http.ResponseWriter, r *http.Request, admin domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	msgs, err := s.app.ListContactMessages(r.Context(), admin)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeList(w, msgs)
}
