package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"contactbook/internal/crud"
	"contactbook/internal/httputil"
	"contactbook/internal/logging"
)

// ImageStore uploads profile images and returns their public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// Handler contains HTTP handlers for the authenticated user's own profile.
type Handler struct {
	service *Service
	images  ImageStore
}

func NewHandler(service *Service, images ImageStore) *Handler {
	return &Handler{service: service, images: images}
}

// UpdateProfileRequest is a partial profile update.
type UpdateProfileRequest struct {
	Username   *string `json:"username,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Age        *int    `json:"age,omitempty"`
	MACAddress *string `json:"mac_address,omitempty"`
}

// Me returns the caller's profile
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} User
// @Router       /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	profile, err := h.service.Get(r.Context(), actorID)
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, profile, http.StatusOK)
}

// UpdateMe applies a partial profile update
// @Summary      Update own profile
// @Description  Applies only the supplied fields; omitted fields stay untouched.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to change"
// @Success      200 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Nothing to update"
// @Failure      409 {object} httputil.ErrorResponse "Username or phone already taken"
// @Router       /users/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), actorID, UpdateProfileInput{
		Username:   req.Username,
		Phone:      req.Phone,
		Age:        req.Age,
		MACAddress: req.MACAddress,
	})
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	logger.Info("profile updated", "user_id", actorID)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

// DeleteMe removes the account and everything it owns
// @Summary      Delete own account
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Router       /users/me [delete]
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	if err := h.service.Delete(r.Context(), actorID); err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	logger.Info("account deleted", "user_id", actorID)
	httputil.RespondNoContent(w)
}

// UploadImage handles profile image uploads
// @Summary      Upload a profile image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image formData file true "Image file (jpeg, png or gif)"
// @Success      200 {object} User
// @Failure      413 {object} httputil.ErrorResponse "File too large"
// @Failure      415 {object} httputil.ErrorResponse "Not an image"
// @Router       /users/me/image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	upload, err := httputil.ReadImageUpload(r, "image")
	if err != nil {
		switch {
		case errors.Is(err, httputil.ErrFileTooLarge):
			httputil.RespondError(w, err.Error(), httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
		case errors.Is(err, httputil.ErrUnsupportedMediaType):
			httputil.RespondError(w, err.Error(), httputil.CodeUnsupportedMediaType, http.StatusUnsupportedMediaType)
		default:
			httputil.RespondError(w, "invalid upload", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		}
		return
	}

	objectName := fmt.Sprintf("users/%s/%s%s", actorID, uuid.New(), upload.Ext)
	url, err := h.images.UploadImage(r.Context(), objectName, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.ContentType)
	if err != nil {
		logger.Error("image upload failed", "error", err.Error())
		httputil.RespondError(w, "failed to store image", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	updated, err := h.service.UpdateImage(r.Context(), actorID, url)
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	logger.Info("profile image updated", "user_id", actorID)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondError(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, crud.ErrNothingToUpdate):
		httputil.RespondError(w, "nothing to update", httputil.CodeNothingToUpdate, http.StatusBadRequest)
	case errors.Is(err, ErrUsernameRequired):
		httputil.RespondError(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
	case errors.Is(err, ErrPhoneRequired):
		httputil.RespondError(w, err.Error(), httputil.CodePhoneRequired, http.StatusBadRequest)
	case errors.Is(err, ErrDuplicateUsername):
		httputil.RespondError(w, err.Error(), httputil.CodeUsernameTaken, http.StatusConflict)
	case errors.Is(err, ErrDuplicatePhone):
		httputil.RespondError(w, err.Error(), httputil.CodePhoneTaken, http.StatusConflict)
	default:
		logger.Error("profile operation failed", "error", err.Error())
		httputil.RespondError(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
