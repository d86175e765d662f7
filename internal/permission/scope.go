package permission

import (
	"github.com/blog-api/internal/models"
)

// Query values accepted by the status parameter
const (
	StatusAll       = "all"
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusActive    = "active"
	StatusDisabled  = "disabled"
)

// Scope narrows a list query. Zero values mean "no restriction".
//
// Rows match when Status (if set) matches and, when OwnerID is set, the row
// belongs to OwnerID. OrOwnerID widens a Status match with every row owned by
// that user.
type Scope struct {
	Status    string
	OwnerID   uint
	OrOwnerID uint
}

// Unrestricted reports whether the scope matches every row
func (s Scope) Unrestricted() bool {
	return s.Status == "" && s.OwnerID == 0 && s.OrOwnerID == 0
}

// PostListScope picks the post query set for the status parameter
func PostListScope(actor *models.User, status string) Scope {
	public := Scope{Status: string(models.StatusPublished)}

	switch status {
	case StatusAll:
		if IsSuperuser(actor) {
			return Scope{}
		}
		if IsAuthenticated(actor) {
			return Scope{Status: string(models.StatusPublished), OrOwnerID: actor.ID}
		}
	case StatusDraft:
		if IsSuperuser(actor) {
			return Scope{Status: string(models.StatusDraft)}
		}
		if IsAuthenticated(actor) {
			return Scope{Status: string(models.StatusDraft), OwnerID: actor.ID}
		}
	}
	return public
}

// PostListScopeV2 picks the post query set of the v2 API, where a missing
// status lists everything the actor may see
func PostListScopeV2(actor *models.User, status string) Scope {
	switch status {
	case StatusPublished:
		return Scope{Status: string(models.StatusPublished)}
	case StatusDraft:
		return PostListScope(actor, StatusDraft)
	default:
		return PostListScope(actor, StatusAll)
	}
}

// CommentListScope picks the comment query set for the status parameter.
// Status is expressed as "active" or "disabled".
func CommentListScope(actor *models.User, status string) Scope {
	public := Scope{Status: StatusActive}

	switch status {
	case StatusAll:
		if IsSuperuser(actor) {
			return Scope{}
		}
		if IsAuthenticated(actor) {
			return Scope{Status: StatusActive, OrOwnerID: actor.ID}
		}
	case StatusDisabled:
		if IsSuperuser(actor) {
			return Scope{Status: StatusDisabled}
		}
		if IsAuthenticated(actor) {
			return Scope{Status: StatusDisabled, OwnerID: actor.ID}
		}
	}
	return public
}

// CanViewPost reports whether a single post is visible to actor
func CanViewPost(actor *models.User, post *models.Post) bool {
	return post.IsPublished() || IsOwnerOrSuperuser(actor, post.AuthorID)
}

// CanViewComment reports whether a single comment is visible to actor
func CanViewComment(actor *models.User, comment *models.Comment) bool {
	return comment.Active || IsOwnerOrSuperuser(actor, comment.UserID)
}
