package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"audiencesync/internal/delivery/http/helpers"
	"audiencesync/internal/domain"
)

// subscriberEmailRegexp matches a simple email format.
var subscriberEmailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// SubscribeRequest is the request body for POST /admin/subscribers.
type SubscribeRequest struct {
	Email       string          `json:"email"`
	MergeFields map[string]any  `json:"merge_fields"`
	Interests   map[string]bool `json:"interests"`
	Customer    bool            `json:"customer"`
}

// Validate implements Validator.
func (s SubscribeRequest) Validate() []string {
	return validateSubscriberEmail(s.Email)
}

// UnsubscribeRequest is the request body for POST /admin/subscribers/unsubscribe.
type UnsubscribeRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (u UnsubscribeRequest) Validate() []string {
	return validateSubscriberEmail(u.Email)
}

func validateSubscriberEmail(email string) []string {
	var errs []string
	if strings.TrimSpace(email) == "" {
		errs = append(errs, "email is required")
	} else if !subscriberEmailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// AcceptedResponse is the data payload for fire-and-forget subscriber calls.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// MemberEmailResponse is the data payload for GET /admin/members/{memberID}/email.
type MemberEmailResponse struct {
	Email string `json:"email"`
}

// MergeFieldsResponse is the data payload for GET /admin/merge-fields.
type MergeFieldsResponse struct {
	MergeFields []string `json:"merge_fields"`
}

// CreateMergeFieldRequest is the request body for POST /admin/merge-fields.
type CreateMergeFieldRequest struct {
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// Validate implements Validator.
func (c CreateMergeFieldRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Tag) == "" {
		errs = append(errs, "tag is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	return errs
}

// SubscriberController exposes the mailing-list gateway over HTTP.
type SubscriberController struct {
	Logger *slog.Logger
	List   domain.List
}

func NewSubscriberController(logger *slog.Logger, list domain.List) *SubscriberController {
	return &SubscriberController{
		Logger: logger,
		List:   list,
	}
}

// Subscribe godoc
// @Summary Subscribe an email to the configured list
// @Description Upserts the member with status "subscribed". With customer=true the email is also added to the configured customer segment. Remote rejections are logged, never surfaced, so this returns 202 for any accepted input.
// @Tags subscribers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubscribeRequest true "Subscriber data"
// @Success 202 {object} helpers.APIResponse "data.status: accepted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /admin/subscribers [post]
func (c *SubscriberController) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.List.Subscribe(r.Context(), req.Email, req.MergeFields, domain.SubscribeOptions{
		Customer:  req.Customer,
		Interests: req.Interests,
	})
	helpers.WriteJSONSuccess(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// Unsubscribe godoc
// @Summary Unsubscribe an email from the configured list
// @Description Sets the member's status to "unsubscribed". Remote rejections are logged, never surfaced.
// @Tags subscribers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UnsubscribeRequest true "Subscriber email"
// @Success 202 {object} helpers.APIResponse "data.status: accepted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /admin/subscribers/unsubscribe [post]
func (c *SubscriberController) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.List.Unsubscribe(r.Context(), req.Email)
	helpers.WriteJSONSuccess(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// Info godoc
// @Summary Get a member's status and merge fields
// @Description Returns the member's info, or an empty object when the member is unknown or the remote call failed.
// @Tags subscribers
// @Produce json
// @Security BearerAuth
// @Param email query string true "Member email"
// @Success 200 {object} helpers.APIResponse "data contains the member info"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /admin/subscribers/info [get]
func (c *SubscriberController) Info(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if errs := validateSubscriberEmail(email); len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, c.List.Info(r.Context(), email))
}

// MemberEmail godoc
// @Summary Resolve a platform member id to an email address
// @Tags subscribers
// @Produce json
// @Security BearerAuth
// @Param memberID path string true "Platform unique email id"
// @Success 200 {object} helpers.APIResponse "data.email contains the address"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/members/{memberID}/email [get]
func (c *SubscriberController) MemberEmail(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("memberID")
	if memberID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing memberID")
		return
	}
	email, ok := c.List.EmailForID(r.Context(), memberID)
	if !ok {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "member not found")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MemberEmailResponse{Email: email})
}

// MergeFields godoc
// @Summary List the merge-field tags configured for the list
// @Tags merge-fields
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data.merge_fields contains the tags"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 502 {object} helpers.APIResponse "error.code: remote_error"
// @Router /admin/merge-fields [get]
func (c *SubscriberController) MergeFields(w http.ResponseWriter, r *http.Request) {
	tags, err := c.List.MergeVars(r.Context())
	if err != nil {
		c.writeRemoteError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MergeFieldsResponse{MergeFields: tags})
}

// CreateMergeField godoc
// @Summary Add a text merge field to the list
// @Tags merge-fields
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateMergeFieldRequest true "Merge field tag and description"
// @Success 201 {object} helpers.APIResponse "data.status: created"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 502 {object} helpers.APIResponse "error.code: remote_error"
// @Router /admin/merge-fields [post]
func (c *SubscriberController) CreateMergeField(w http.ResponseWriter, r *http.Request) {
	var req CreateMergeFieldRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.List.AddMergeVar(r.Context(), req.Tag, req.Description); err != nil {
		c.writeRemoteError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, AcceptedResponse{Status: "created"})
}

func (c *SubscriberController) writeRemoteError(w http.ResponseWriter, r *http.Request, err error) {
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeRemoteError, remoteErr.Detail)
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
}
