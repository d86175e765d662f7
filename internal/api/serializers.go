package api

import (
	"time"

	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/service"
)

type userResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Surname:     u.Surname,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func newUserResponses(users []*models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

// registeredUser is returned by registration; v2 adds the ID
type registeredUser struct {
	ID       uint   `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
}

func newRegisteredUser(u *models.User, withID bool) registeredUser {
	r := registeredUser{Username: u.Username, Name: u.Name, Surname: u.Surname, Email: u.Email}
	if withID {
		r.ID = u.ID
	}
	return r
}

type tagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func newTagResponse(t *models.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func newTagResponses(tags []*models.Tag) []tagResponse {
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, newTagResponse(t))
	}
	return out
}

type commentResponse struct {
	ID        uint      `json:"id"`
	User      string    `json:"user"`
	Post      string    `json:"post"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

func newCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		User:      c.User.String(),
		Post:      c.Post.Title,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Active:    c.Active,
	}
}

func newCommentResponses(comments []*models.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, newCommentResponse(c))
	}
	return out
}

// postResponse is the v1 list shape
type postResponse struct {
	ID             uint          `json:"id"`
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	AuthorID       uint          `json:"author_id"`
	AuthorUsername string        `json:"author_username"`
	AuthorEmail    string        `json:"author_email"`
	Body           string        `json:"body"`
	Publish        time.Time     `json:"publish"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Likes          int           `json:"likes"`
	Dislikes       int           `json:"dislikes"`
	CommentsCount  int           `json:"comments_count"`
	Tags           []tagResponse `json:"tags"`
	Status         string        `json:"status"`
}

func newPostResponse(p *models.Post) postResponse {
	tags := make([]tagResponse, 0, len(p.Tags))
	for i := range p.Tags {
		tags = append(tags, newTagResponse(&p.Tags[i]))
	}
	return postResponse{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		AuthorID:       p.AuthorID,
		AuthorUsername: p.Author.Username,
		AuthorEmail:    p.Author.String(),
		Body:           p.Body,
		Publish:        p.Publish,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Likes:          p.Likes,
		Dislikes:       p.Dislikes,
		CommentsCount:  p.CommentsCount,
		Tags:           tags,
		Status:         string(p.Status),
	}
}

func newPostResponses(posts []*models.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostResponse(p))
	}
	return out
}

type similarPostResponse struct {
	ID    uint     `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// postDetailResponse is the v1 retrieve shape
type postDetailResponse struct {
	postResponse
	BodyHTML      string                `json:"body_html"`
	UsersLiked    []string              `json:"users_liked"`
	UsersDisliked []string              `json:"users_disliked"`
	Comments      []commentResponse     `json:"comments"`
	SimilarPosts  []similarPostResponse `json:"similar_posts"`
}

func newPostDetailResponse(d *service.PostDetail) postDetailResponse {
	similar := make([]similarPostResponse, 0, len(d.Similar))
	for _, p := range d.Similar {
		names := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			names = append(names, t.Name)
		}
		similar = append(similar, similarPostResponse{ID: p.ID, Title: p.Title, Tags: names})
	}
	liked, disliked := d.UsersLiked, d.UsersDisliked
	if liked == nil {
		liked = []string{}
	}
	if disliked == nil {
		disliked = []string{}
	}
	return postDetailResponse{
		postResponse:  newPostResponse(d.Post),
		BodyHTML:      renderMarkdown(d.Post.Body),
		UsersLiked:    liked,
		UsersDisliked: disliked,
		Comments:      newCommentResponses(d.Comments),
		SimilarPosts:  similar,
	}
}

// postWriteResponse is the v1 create/update shape
type postWriteResponse struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Tags   []uint `json:"tags"`
	Status string `json:"status"`
}

func newPostWriteResponse(p *models.Post) postWriteResponse {
	ids := make([]uint, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return postWriteResponse{ID: p.ID, Title: p.Title, Body: p.Body, Tags: ids, Status: string(p.Status)}
}

// postV2Response is the v2 read shape
type postV2Response struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	AuthorID       uint      `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	AuthorEmail    string    `json:"author_email"`
	Body           string    `json:"body"`
	Publish        time.Time `json:"publish"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UsersLiked     []uint    `json:"users_liked"`
	UsersDisliked  []uint    `json:"users_disliked"`
	Status         string    `json:"status"`
}

func newPostV2Response(p *models.Post, liked, disliked []uint) postV2Response {
	if liked == nil {
		liked = []uint{}
	}
	if disliked == nil {
		disliked = []uint{}
	}
	return postV2Response{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		AuthorID:       p.AuthorID,
		AuthorUsername: p.Author.Username,
		AuthorEmail:    p.Author.String(),
		Body:           p.Body,
		Publish:        p.Publish,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		UsersLiked:     liked,
		UsersDisliked:  disliked,
		Status:         string(p.Status),
	}
}
