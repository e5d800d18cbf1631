package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classhub-api/internal/service"
	appErrors "github.com/noah-isme/classhub-api/pkg/errors"
	"github.com/noah-isme/classhub-api/pkg/response"
)

// DiscussionHandler exposes discussion thread endpoints.
type DiscussionHandler struct {
	service *service.DiscussionService
}

// NewDiscussionHandler constructs a discussion handler.
func NewDiscussionHandler(svc *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{service: svc}
}

// List godoc
// @Summary List discussion threads
// @Tags Discussions
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /discussions [get]
func (h *DiscussionHandler) List(c *gin.Context) {
	var req service.DiscussionListRequest
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	discussions, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, discussions, pagination)
}

// Get godoc
// @Summary Get thread with posts
// @Tags Discussions
// @Produce json
// @Param id path string true "Discussion ID"
// @Success 200 {object} response.Envelope
// @Router /discussions/{id} [get]
func (h *DiscussionHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Start a discussion thread
// @Tags Discussions
// @Accept json
// @Produce json
// @Param payload body service.CreateDiscussionRequest true "Thread payload"
// @Success 201 {object} response.Envelope
// @Router /discussions [post]
func (h *DiscussionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.CreatedBy = claims.UserID

	discussion, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, discussion)
}

// AddPost godoc
// @Summary Reply to a thread
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Discussion ID"
// @Param payload body service.CreatePostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /discussions/{id}/posts [post]
func (h *DiscussionHandler) AddPost(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.AuthorID = claims.UserID

	post, err := h.service.AddPost(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}
