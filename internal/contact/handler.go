package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contactbook/internal/crud"
	"contactbook/internal/httputil"
	"contactbook/internal/logging"
)

// ImageStore uploads contact images and returns their public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// Handler contains HTTP handlers for contact endpoints. All routes run behind
// the auth middleware, so the actor id is always present in the context.
type Handler struct {
	service *Service
	images  ImageStore
}

func NewHandler(service *Service, images ImageStore) *Handler {
	return &Handler{service: service, images: images}
}

// CreateContactRequest is the contact creation request body.
type CreateContactRequest struct {
	Name         string   `json:"name"`
	Emergency    bool     `json:"emergency"`
	Relationship *string  `json:"relationship,omitempty"`
	Phones       []string `json:"phones,omitempty"`
}

// UpdateContactRequest is a partial update. An absent phones field keeps the
// existing numbers; an explicit empty array clears them.
type UpdateContactRequest struct {
	Name         *string   `json:"name,omitempty"`
	Emergency    *bool     `json:"emergency,omitempty"`
	Relationship *string   `json:"relationship,omitempty"`
	Phones       *[]string `json:"phones,omitempty"`
}

// ListContactsResponse is one page of contacts.
type ListContactsResponse struct {
	Contacts []*Contact    `json:"contacts"`
	Meta     crud.PageMeta `json:"meta"`
}

// Create handles contact creation
// @Summary      Create a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateContactRequest true "Contact fields"
// @Success      201 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Router       /contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), actorID, CreateInput{
		Name:         req.Name,
		Emergency:    req.Emergency,
		Relationship: req.Relationship,
		Phones:       req.Phones,
	})
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	logger.Info("contact created", "contact_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List handles paginated contact listing
// @Summary      List contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number (1-based)"
// @Param        page_size query int false "Page size"
// @Success      200 {object} ListContactsResponse
// @Router       /contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	page, err := queryInt(r, "page", 1)
	if err != nil {
		httputil.RespondError(w, "invalid page", httputil.CodeInvalidPagination, http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(r, "page_size", crud.DefaultPageSize)
	if err != nil {
		httputil.RespondError(w, "invalid page_size", httputil.CodeInvalidPagination, http.StatusBadRequest)
		return
	}

	result, err := h.service.List(r.Context(), actorID, page, pageSize)
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, ListContactsResponse{
		Contacts: result.Contacts,
		Meta:     result.Meta,
	}, http.StatusOK)
}

// Get handles single contact reads
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Success      200 {object} Contact
// @Failure      403 {object} httputil.ErrorResponse "Not the owner"
// @Failure      404 {object} httputil.ErrorResponse "No such contact"
// @Router       /contacts/{contactID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	contactID, ok := pathUUID(w, r, "contactID")
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), contactID, actorID)
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, found, http.StatusOK)
}

// Update handles partial contact updates
// @Summary      Update a contact
// @Description  Applies only the supplied fields. A phones field set to [] clears the numbers; omitting it keeps them.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Param        request body UpdateContactRequest true "Fields to change"
// @Success      200 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse "Nothing to update"
// @Router       /contacts/{contactID} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	contactID, ok := pathUUID(w, r, "contactID")
	if !ok {
		return
	}

	var req UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), contactID, actorID, UpdateInput{
		Name:         req.Name,
		Emergency:    req.Emergency,
		Relationship: req.Relationship,
		Phones:       req.Phones,
	})
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles contact deletion
// @Summary      Delete a contact and its phone numbers
// @Tags         contacts
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Success      204
// @Failure      404 {object} httputil.ErrorResponse "No such contact"
// @Router       /contacts/{contactID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	contactID, ok := pathUUID(w, r, "contactID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), contactID, actorID); err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	logger.Info("contact deleted", "contact_id", contactID)
	httputil.RespondNoContent(w)
}

// UploadImage handles contact image uploads
// @Summary      Upload a contact image
// @Tags         contacts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path string true "Contact ID"
// @Param        image formData file true "Image file (jpeg, png or gif)"
// @Success      200 {object} Contact
// @Failure      413 {object} httputil.ErrorResponse "File too large"
// @Failure      415 {object} httputil.ErrorResponse "Not an image"
// @Router       /contacts/{contactID}/image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	actorID, _ := httputil.ActorID(r.Context())

	contactID, ok := pathUUID(w, r, "contactID")
	if !ok {
		return
	}

	upload, err := httputil.ReadImageUpload(r, "image")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	objectName := fmt.Sprintf("contacts/%s/%s%s", contactID, uuid.New(), upload.Ext)
	url, err := h.images.UploadImage(r.Context(), objectName, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.ContentType)
	if err != nil {
		logger.Error("image upload failed", "error", err.Error())
		httputil.RespondError(w, "failed to store image", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	updated, err := h.service.UpdateImage(r.Context(), contactID, actorID, url)
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	logger.Info("contact image updated", "contact_id", contactID)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, crud.ErrNotFound):
		httputil.RespondError(w, "contact not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, crud.ErrForbidden):
		httputil.RespondError(w, "contact belongs to a different user", httputil.CodeForbidden, http.StatusForbidden)
	case errors.Is(err, crud.ErrNothingToUpdate):
		httputil.RespondError(w, "nothing to update", httputil.CodeNothingToUpdate, http.StatusBadRequest)
	case errors.Is(err, ErrNameRequired):
		httputil.RespondError(w, err.Error(), httputil.CodeNameRequired, http.StatusBadRequest)
	case errors.Is(err, ErrEmptyPhoneNumber):
		httputil.RespondError(w, err.Error(), httputil.CodePhoneNumberEmpty, http.StatusBadRequest)
	default:
		logger.Error("contact operation failed", "error", err.Error())
		httputil.RespondError(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func respondUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, httputil.ErrFileTooLarge):
		httputil.RespondError(w, err.Error(), httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
	case errors.Is(err, httputil.ErrUnsupportedMediaType):
		httputil.RespondError(w, err.Error(), httputil.CodeUnsupportedMediaType, http.StatusUnsupportedMediaType)
	default:
		httputil.RespondError(w, "invalid upload", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.RespondError(w, "invalid id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
