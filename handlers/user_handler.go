package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campusRankAPI/internal/storage"
	"campusRankAPI/internal/types/user"
	"campusRankAPI/services"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
)

const maxAvatarSize = 5 << 20

type UserHandler struct {
	userService    *services.UserService
	profileService *services.ProfileService
	images         storage.ImageStore
	appURL         string
}

func NewUserHandler(userService *services.UserService, profileService *services.ProfileService, images storage.ImageStore, appURL string) *UserHandler {
	return &UserHandler{
		userService:    userService,
		profileService: profileService,
		images:         images,
		appURL:         appURL,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.userService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	file, ok := formImage(w, r, "avatar")
	if !ok {
		return
	}
	defer file.Close()

	imageURL, err := h.images.UploadAvatar(ctx, file, userID)
	if err != nil {
		respondWithUploadError(w, r, err)
		return
	}

	if err := h.userService.SetImageURL(ctx, userID, imageURL); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"imageUrl": imageURL})
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(ctx, userID); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func (h *UserHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'username' is required")
		return
	}

	available, err := h.userService.IsUsernameAvailable(ctx, username)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user.UsernameAvailability{Username: username, Available: available})
}

func (h *UserHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.userService.GetPublicProfile(ctx, mux.Vars(r)["username"])
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// GetProfileQR renders a PNG QR code pointing at the public profile page.
func (h *UserHandler) GetProfileQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.userService.GetUserByUsername(ctx, mux.Vars(r)["username"])
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	pngBytes, err := qrcode.Encode(h.appURL+"/u/"+url.PathEscape(u.Username), qrcode.Medium, 256)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(pngBytes)
}

func (h *UserHandler) FetchProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.profileService.FetchProfile(ctx, userID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// formImage pulls an image part out of a multipart body and rejects other content types.
func formImage(w http.ResponseWriter, r *http.Request, field string) (multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Image must be a multipart upload under 5MB")
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing form field '"+field+"'")
		return nil, false
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		file.Close()
		respondWithError(w, http.StatusBadRequest, "Only image uploads are allowed")
		return nil, false
	}
	return file, true
}

func respondWithUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotConfigured) {
		respondWithError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}
	respondWithAppError(w, r, err)
}
