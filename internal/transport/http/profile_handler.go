package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/BITS4/babyshop/internal/domain"
)

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 5 << 20

// ProfileService is the slice of the profile store the handlers need.
type ProfileService interface {
	Get(ctx context.Context, session *domain.Session) (*domain.UserProfile, error)
	Save(ctx context.Context, session *domain.Session, p domain.UserProfile) (*domain.UserProfile, error)
	UploadAvatar(ctx context.Context, session *domain.Session, data []byte, contentType string) (*domain.UserProfile, error)
	DownloadAvatar(ctx context.Context, session *domain.Session, w io.Writer) (string, error)
	DeleteAvatar(ctx context.Context, session *domain.Session) (*domain.UserProfile, error)
}

type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Get(r.Context(), session)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// PUT /api/v1/profile
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	var req domain.UserProfile
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.profiles.Save(r.Context(), session, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// PUT /api/v1/profile/avatar
//
// The body is the raw image; its Content-Type header travels with it.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAvatarBytes+1))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}
	if len(data) == 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "empty upload"})
		return
	}
	if len(data) > maxAvatarBytes {
		respondJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "avatar too large"})
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	saved, err := h.profiles.UploadAvatar(r.Context(), session, data, contentType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// GET /api/v1/profile/avatar
func (h *ProfileHandler) DownloadAvatar(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	contentType, err := h.profiles.DownloadAvatar(r.Context(), session, &buf)
	if err != nil {
		respondError(w, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

// DELETE /api/v1/profile/avatar
func (h *ProfileHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	saved, err := h.profiles.DeleteAvatar(r.Context(), session)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}
