package api

import (
	"context"
	"net/http"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PostHandler handles post, search and popular-posts endpoints of both API versions
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// List handles GET /api/v1/posts/
func (h *PostHandler) List(c *gin.Context) {
	scope := permission.PostListScope(currentActor(c), c.Query("status"))
	res, err := h.services.Posts.List(c.Request.Context(), scope, c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, newPostResponses(res.Items))
}

// Retrieve handles GET /api/v1/posts/:id/
func (h *PostHandler) Retrieve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	detail, err := h.services.Posts.Detail(c.Request.Context(), currentActor(c), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPostDetailResponse(detail))
}

// Create handles POST /api/v1/posts/
func (h *PostHandler) Create(c *gin.Context) {
	in, ok := h.bindV1(c)
	if !ok {
		return
	}
	post, err := h.services.Posts.Create(c.Request.Context(), currentActor(c), in)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newPostWriteResponse(post))
}

// Update handles PUT and PATCH /api/v1/posts/:id/
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := h.bindV1(c)
	if !ok {
		return
	}
	post, err := h.services.Posts.Update(c.Request.Context(), currentActor(c), id, in, c.Request.Method == http.MethodPatch)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPostWriteResponse(post))
}

// Delete handles DELETE /posts/:id/ of both versions
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Posts.Delete(c.Request.Context(), currentActor(c), id); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search handles GET /api/v1/search/
func (h *PostHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	scope := permission.PostListScope(currentActor(c), c.Query("status"))
	res, err := h.services.Posts.Search(c.Request.Context(), query, scope, c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, newPostResponses(res.Items))
}

// Popular handles GET /api/v1/popular-posts/
func (h *PostHandler) Popular(c *gin.Context) {
	posts, err := h.services.Popular.Popular(c.Request.Context())
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponses(posts))
}

// ListV2 handles GET /api/v2/posts/
func (h *PostHandler) ListV2(c *gin.Context) {
	ctx := c.Request.Context()
	scope := permission.PostListScopeV2(currentActor(c), c.Query("status"))
	res, err := h.services.Posts.List(ctx, scope, c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	out, err := h.v2Responses(ctx, res.Items)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, out)
}

// RetrieveV2 handles GET /api/v2/posts/:id/
func (h *PostHandler) RetrieveV2(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	post, err := h.services.Posts.Get(ctx, currentActor(c), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	h.renderV2(c, http.StatusOK, post)
}

// CreateV2 handles POST /api/v2/posts/
func (h *PostHandler) CreateV2(c *gin.Context) {
	var in service.PostInput
	if !bindJSON(c, &in) {
		return
	}
	in.Tags = nil
	post, err := h.services.Posts.Create(c.Request.Context(), currentActor(c), &in)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	h.renderV2(c, http.StatusCreated, post)
}

// UpdateV2 handles PUT and PATCH /api/v2/posts/:id/
func (h *PostHandler) UpdateV2(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.PostInput
	if !bindJSON(c, &in) {
		return
	}
	in.Tags = nil
	post, err := h.services.Posts.Update(c.Request.Context(), currentActor(c), id, &in, c.Request.Method == http.MethodPatch)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	h.renderV2(c, http.StatusOK, post)
}

// SearchV2 handles GET /api/v2/search/
func (h *PostHandler) SearchV2(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	ctx := c.Request.Context()
	scope := permission.PostListScope(currentActor(c), c.Query("status"))
	res, err := h.services.Posts.Search(ctx, query, scope, c.Query("page"), c.Query("page_size"))
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	out, err := h.v2Responses(ctx, res.Items)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	renderPage(c, res.Page, out)
}

// PopularV2 handles GET /api/v2/popular-posts/
func (h *PostHandler) PopularV2(c *gin.Context) {
	ctx := c.Request.Context()
	posts, err := h.services.Popular.Popular(ctx)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	out, err := h.v2Responses(ctx, posts)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// bindV1 decodes a v1 write; tags are part of the payload and author is not
func (h *PostHandler) bindV1(c *gin.Context) (*service.PostInput, bool) {
	var in service.PostInput
	if !bindJSON(c, &in) {
		return nil, false
	}
	in.Author = nil
	in.WithTags = true
	return &in, true
}

func (h *PostHandler) renderV2(c *gin.Context, status int, post *models.Post) {
	liked, disliked, err := h.services.Posts.Reactors(c.Request.Context(), post.ID)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(status, newPostV2Response(post, liked, disliked))
}

func (h *PostHandler) v2Responses(ctx context.Context, posts []*models.Post) ([]postV2Response, error) {
	out := make([]postV2Response, 0, len(posts))
	for _, p := range posts {
		liked, disliked, err := h.services.Posts.Reactors(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, newPostV2Response(p, liked, disliked))
	}
	return out, nil
}
