package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"audiencesync/internal/delivery/http/helpers"
	"audiencesync/internal/domain"
)

// CreateTagRequest is the request body for POST /admin/tags.
type CreateTagRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (c CreateTagRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// UpdateTagRequest is the request body for PATCH /admin/tags/{tagID}.
// Only the name can change; the external id is fixed at creation.
type UpdateTagRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (u UpdateTagRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// TagSuccessResponse is the success envelope for single-tag endpoints.
type TagSuccessResponse struct {
	Data  *domain.Tag       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListTagsResponse is the data payload for GET /admin/tags.
type ListTagsResponse struct {
	Tags []*domain.Tag          `json:"tags"`
	Meta helpers.PaginationMeta `json:"meta"`
}

type TagController struct {
	Logger  *slog.Logger
	Service domain.TagService
}

func NewTagController(logger *slog.Logger, svc domain.TagService) *TagController {
	return &TagController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create a tag
// @Description Creates a static segment in the marketing platform and, on success, the local tag mirroring it. If the local save fails the remote segment is deleted again.
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTagRequest true "Tag name"
// @Success 201 {object} controllers.TagSuccessResponse "data contains the created tag"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (name already in use)"
// @Failure 502 {object} helpers.APIResponse "error.code: remote_error (marketing platform rejected the segment)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/tags [post]
func (c *TagController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tag, err := c.Service.Create(r.Context(), req.Name)
	if err != nil {
		c.writeTagError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, tag)
}

// Update godoc
// @Summary Rename a tag
// @Description Renames the tag locally and pushes the new name to the remote segment. The external id never changes. A remote push failure is logged but does not fail the request.
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tagID path string true "Tag ID (UUID)"
// @Param body body UpdateTagRequest true "New name"
// @Success 200 {object} controllers.TagSuccessResponse "data contains the renamed tag"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (name already in use)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/tags/{tagID} [patch]
func (c *TagController) Update(w http.ResponseWriter, r *http.Request) {
	tagID := r.PathValue("tagID")
	if tagID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing tagID")
		return
	}
	var req UpdateTagRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	tag, err := c.Service.Rename(r.Context(), tagID, req.Name)
	if err != nil {
		c.writeTagError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tag)
}

// Get godoc
// @Summary Get a tag by ID
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Param tagID path string true "Tag ID (UUID)"
// @Success 200 {object} controllers.TagSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/tags/{tagID} [get]
func (c *TagController) Get(w http.ResponseWriter, r *http.Request) {
	tagID := r.PathValue("tagID")
	if tagID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing tagID")
		return
	}
	tag, err := c.Service.GetByID(r.Context(), tagID)
	if err != nil {
		c.writeTagError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tag)
}

// List godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains tags and pagination meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /admin/tags [get]
func (c *TagController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	tags, total, err := c.Service.List(r.Context(), params)
	if err != nil {
		c.writeTagError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListTagsResponse{
		Tags: tags,
		Meta: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

func (c *TagController) writeTagError(w http.ResponseWriter, r *http.Request, err error) {
	var remoteErr *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "tag not found")
	case errors.Is(err, domain.ErrDuplicateName):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "that tag already exists, please choose another name")
	case errors.As(err, &remoteErr):
		helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeRemoteError, remoteErr.Detail)
	case errors.Is(err, domain.ErrSaveFailed):
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to save tag, please try again")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
