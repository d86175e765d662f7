package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/database/dbtest"
	"github.com/blog-api/internal/events"
	"github.com/blog-api/internal/mocks"
	"github.com/blog-api/internal/models"
	"github.com/blog-api/internal/permission"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/service"
	"github.com/blog-api/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "s3cret-pass!"

type env struct {
	t       *testing.T
	ctx     context.Context
	repos   *repository.Repositories
	svc     *service.Services
	ranking *mocks.MockRanking
	events  *mocks.MockPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	repos := repository.New(dbtest.New(t))
	ranking := mocks.NewMockRanking()
	pub := mocks.NewMockPublisher()
	cfg := &config.Config{
		Cache:       config.CacheConfig{PopularTTL: time.Minute, PopularSize: 4},
		Maintenance: config.MaintenanceConfig{Interval: time.Hour},
	}

	svc, err := service.NewServices(repos, service.Dependencies{
		Tokens:  auth.NewManager("test-secret", time.Minute, time.Hour),
		Ranking: ranking,
		Events:  pub,
	}, cfg, zerolog.Nop())
	require.NoError(t, err)

	return &env{t: t, ctx: context.Background(), repos: repos, svc: svc, ranking: ranking, events: pub}
}

func (e *env) user(username string, superuser bool) *models.User {
	e.t.Helper()
	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		IsActive:    true,
		IsSuperuser: superuser,
		IsStaff:     superuser,
	}
	require.NoError(e.t, u.SetPassword(testPassword))
	require.NoError(e.t, e.repos.User.Create(e.ctx, u))
	return u
}

func (e *env) post(author *models.User, title string, status models.PostStatus, tagIDs ...uint) *models.Post {
	e.t.Helper()
	p := &models.Post{Title: title, Body: "body of " + title, AuthorID: author.ID, Status: status}
	require.NoError(e.t, e.repos.Post.Create(e.ctx, p, tagIDs))
	return p
}

func (e *env) tag(name string) *models.Tag {
	e.t.Helper()
	tag := &models.Tag{Name: name}
	require.NoError(e.t, e.repos.Tag.Create(e.ctx, tag))
	return tag
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *validation.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func ptr[T any](v T) *T { return &v }

func TestUserService_Register(t *testing.T) {
	e := newEnv(t)

	user, err := e.svc.Users.Register(e.ctx, &service.UserInput{
		Username:  ptr("alice"),
		Name:      ptr("Alice"),
		Email:     ptr("alice@example.com"),
		Password:  ptr(testPassword),
		Password2: ptr(testPassword),
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	assert.True(t, user.CheckPassword(testPassword))

	t.Run("duplicate username and email", func(t *testing.T) {
		_, err := e.svc.Users.Register(e.ctx, &service.UserInput{
			Username:  ptr("alice"),
			Email:     ptr("ALICE@example.com"),
			Password:  ptr(testPassword),
			Password2: ptr(testPassword),
		})
		fields := fieldErrors(t, err)
		assert.Equal(t, []string{"A user with that username already exists."}, fields["username"])
		assert.Equal(t, []string{"user with this email already exists."}, fields["email"])
	})

	t.Run("password mismatch", func(t *testing.T) {
		_, err := e.svc.Users.Register(e.ctx, &service.UserInput{
			Username:  ptr("bob"),
			Email:     ptr("bob@example.com"),
			Password:  ptr(testPassword),
			Password2: ptr("something-else"),
		})
		assert.Equal(t, []string{"Password fields didn't match."}, fieldErrors(t, err)["password"])
	})

	t.Run("weak password lists every rule", func(t *testing.T) {
		_, err := e.svc.Users.Register(e.ctx, &service.UserInput{
			Username:  ptr("bob"),
			Email:     ptr("bob@example.com"),
			Password:  ptr("1234"),
			Password2: ptr("1234"),
		})
		fields := fieldErrors(t, err)
		assert.Contains(t, fields["password"], "This password is too short. It must contain at least 8 characters.")
		assert.Contains(t, fields["password"], "This password is too common.")
		assert.Contains(t, fields["password"], "This password is entirely numeric.")
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := e.svc.Users.Register(e.ctx, &service.UserInput{Username: ptr("")})
		fields := fieldErrors(t, err)
		assert.Equal(t, []string{validation.MsgBlank}, fields["username"])
		assert.Equal(t, []string{validation.MsgRequired}, fields["email"])
		assert.Equal(t, []string{validation.MsgRequired}, fields["password"])
		assert.Equal(t, []string{validation.MsgRequired}, fields["password2"])
	})
}

func TestUserService_CreateSuperuser(t *testing.T) {
	e := newEnv(t)

	root, err := e.svc.Users.CreateSuperuser(e.ctx, &service.UserInput{
		Username:  ptr("root"),
		Email:     ptr("root@example.com"),
		Password:  ptr(testPassword),
		Password2: ptr(testPassword),
	})
	require.NoError(t, err)
	assert.True(t, root.IsSuperuser)
	assert.True(t, root.IsStaff)
	assert.True(t, root.IsActive)

	_, err = e.svc.Users.CreateSuperuser(e.ctx, &service.UserInput{
		Username:  ptr("root2"),
		Email:     ptr("root2@example.com"),
		Password:  ptr("12345678"),
		Password2: ptr("12345678"),
	})
	assert.NotEmpty(t, fieldErrors(t, err)["password"])
}

func TestUserService_UpdatePermissions(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	root := e.user("root", true)

	in := &service.UserInput{Name: ptr("Alicia")}

	_, err := e.svc.Users.Update(e.ctx, nil, alice.ID, in, true)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = e.svc.Users.Update(e.ctx, bob, alice.ID, in, true)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.svc.Users.Update(e.ctx, alice, 999, in, true)
	assert.ErrorIs(t, err, service.ErrNotFound)

	updated, err := e.svc.Users.Update(e.ctx, alice, alice.ID, in, true)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "alice", updated.Username)

	_, err = e.svc.Users.Update(e.ctx, root, alice.ID, &service.UserInput{Username: ptr("bob")}, true)
	assert.Equal(t, []string{"A user with that username already exists."}, fieldErrors(t, err)["username"])

	_, err = e.svc.Users.Update(e.ctx, root, alice.ID, &service.UserInput{Name: ptr("x")}, false)
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
}

func TestUserService_DeleteKeepsRankingInStep(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)

	alicePost := e.post(alice, "Alice post", models.StatusPublished)
	bobPost := e.post(bob, "Bob post", models.StatusPublished)

	_, err := e.svc.Reactions.Toggle(e.ctx, bob, alicePost.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = e.svc.Reactions.Toggle(e.ctx, alice, bobPost.ID, models.ReactionLike)
	require.NoError(t, err)

	likes, ok := e.ranking.Score(alicePost.ID)
	require.True(t, ok)
	assert.Equal(t, 1, likes)

	require.NoError(t, e.svc.Users.Delete(e.ctx, bob, bob.ID))

	likes, ok = e.ranking.Score(alicePost.ID)
	require.True(t, ok)
	assert.Equal(t, 0, likes)
	_, ok = e.ranking.Score(bobPost.ID)
	assert.False(t, ok)

	_, err = e.svc.Users.Get(e.ctx, bob.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAuthService_TokenFlow(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)

	_, err := e.svc.Auth.Obtain(e.ctx, "alice", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = e.svc.Auth.Obtain(e.ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	pair, err := e.svc.Auth.Obtain(e.ctx, "alice", testPassword)
	require.NoError(t, err)

	actor, err := e.svc.Auth.Authenticate(e.ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, actor.ID)

	_, err = e.svc.Auth.Authenticate(e.ctx, pair.Refresh)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	access, err := e.svc.Auth.Refresh(e.ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, err = e.svc.Auth.Refresh(e.ctx, pair.Access)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	require.NoError(t, e.svc.Auth.Blacklist(e.ctx, pair.Refresh))
	_, err = e.svc.Auth.Refresh(e.ctx, pair.Refresh)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	assert.ErrorIs(t, e.svc.Auth.Blacklist(e.ctx, pair.Refresh), service.ErrTokenInvalid)
}

func TestAuthService_InactiveUser(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)

	pair, err := e.svc.Auth.Obtain(e.ctx, "alice", testPassword)
	require.NoError(t, err)

	alice.IsActive = false
	require.NoError(t, e.repos.User.Update(e.ctx, alice))

	_, err = e.svc.Auth.Obtain(e.ctx, "alice", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = e.svc.Auth.Authenticate(e.ctx, pair.Access)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	_, err = e.svc.Auth.Refresh(e.ctx, pair.Refresh)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestAuthService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)

	err := e.svc.Auth.ChangePassword(e.ctx, nil, &service.PasswordChange{})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	err = e.svc.Auth.ChangePassword(e.ctx, alice, &service.PasswordChange{
		Current: "wrong",
		New:     "brand-new-phrase",
		Confirm: "other-phrase-here",
	})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{"Current password is incorrect."}, fields["current_password"])
	assert.Equal(t, []string{"Passwords do not match."}, fields["confirm_password"])

	err = e.svc.Auth.ChangePassword(e.ctx, alice, &service.PasswordChange{
		Current: testPassword,
		New:     "alice123",
		Confirm: "alice123",
	})
	assert.Contains(t, fieldErrors(t, err)["new_password"], "The password is too similar to the username.")

	require.NoError(t, e.svc.Auth.ChangePassword(e.ctx, alice, &service.PasswordChange{
		Current: testPassword,
		New:     "brand-new-phrase",
		Confirm: "brand-new-phrase",
	}))

	_, err = e.svc.Auth.Obtain(e.ctx, "alice", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = e.svc.Auth.Obtain(e.ctx, "alice", "brand-new-phrase")
	assert.NoError(t, err)
}

func TestPostService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	golang := e.tag("go")

	_, err := e.svc.Posts.Create(e.ctx, nil, &service.PostInput{Title: ptr("x"), Body: ptr("y")})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = e.svc.Posts.Create(e.ctx, alice, &service.PostInput{WithTags: true})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{validation.MsgRequired}, fields["title"])
	assert.Equal(t, []string{validation.MsgRequired}, fields["body"])
	assert.Equal(t, []string{validation.MsgRequired}, fields["tags"])

	_, err = e.svc.Posts.Create(e.ctx, alice, &service.PostInput{
		Title: ptr("Hello"), Body: ptr("world"), Status: ptr("archived"), Tags: &[]uint{golang.ID, 404}, WithTags: true,
	})
	fields = fieldErrors(t, err)
	assert.Equal(t, []string{`"archived" is not a valid choice.`}, fields["status"])
	assert.Equal(t, []string{`Invalid pk "404" - object does not exist.`}, fields["tags"])

	_, err = e.svc.Posts.Create(e.ctx, alice, &service.PostInput{
		Title: ptr("Hello"), Body: ptr("world"), Tags: &[]uint{}, WithTags: true,
	})
	assert.Equal(t, []string{"This list may not be empty."}, fieldErrors(t, err)["tags"])

	post, err := e.svc.Posts.Create(e.ctx, alice, &service.PostInput{
		Title: ptr("Hello World"), Body: ptr("# hi"), Tags: &[]uint{golang.ID}, WithTags: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, models.StatusDraft, post.Status)
	assert.Equal(t, alice.ID, post.AuthorID)
	assert.Equal(t, "alice", post.Author.Username)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, []string{events.PostCreated}, e.events.Subjects())

	_, err = e.svc.Posts.Create(e.ctx, alice, &service.PostInput{Title: ptr("Hello World"), Body: ptr("again")})
	assert.Equal(t, []string{"post with this title already exists."}, fieldErrors(t, err)["title"])
}

func TestPostService_SlugCollision(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	first := e.post(alice, "Hello, World", models.StatusDraft)
	require.Equal(t, "hello-world", first.Slug)

	_, err := e.svc.Posts.Create(e.ctx, alice, &service.PostInput{Title: ptr("Hello World!"), Body: ptr("again")})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{"post with this slug already exists."}, fields["slug"])
	assert.NotContains(t, fields, "title")

	other := e.post(alice, "Other", models.StatusDraft)
	_, err = e.svc.Posts.Update(e.ctx, alice, other.ID, &service.PostInput{Title: ptr("hello world")}, true)
	assert.Equal(t, []string{"post with this slug already exists."}, fieldErrors(t, err)["slug"])

	// retitling a post to its own slug is fine
	updated, err := e.svc.Posts.Update(e.ctx, alice, first.ID, &service.PostInput{Title: ptr("Hello World")}, true)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", updated.Slug)
}

func TestPostService_AuthorOnlyFromSuperuser(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	root := e.user("root", true)

	post, err := e.svc.Posts.Create(e.ctx, alice, &service.PostInput{Title: ptr("Mine"), Body: ptr("b"), Author: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, post.AuthorID)

	post, err = e.svc.Posts.Create(e.ctx, root, &service.PostInput{Title: ptr("For bob"), Body: ptr("b"), Author: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, post.AuthorID)

	_, err = e.svc.Posts.Create(e.ctx, root, &service.PostInput{Title: ptr("Ghost"), Body: ptr("b"), Author: ptr(uint(999))})
	assert.Equal(t, []string{`Invalid pk "999" - object does not exist.`}, fieldErrors(t, err)["author"])
}

func TestPostService_VisibilityAndOwnership(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	root := e.user("root", true)

	draft := e.post(alice, "Draft", models.StatusDraft)
	published := e.post(alice, "Published", models.StatusPublished)

	_, err := e.svc.Posts.Get(e.ctx, nil, draft.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.svc.Posts.Get(e.ctx, bob, draft.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.svc.Posts.Get(e.ctx, alice, draft.ID)
	assert.NoError(t, err)
	_, err = e.svc.Posts.Get(e.ctx, root, draft.ID)
	assert.NoError(t, err)

	patch := &service.PostInput{Body: ptr("edited")}

	_, err = e.svc.Posts.Update(e.ctx, nil, published.ID, patch, true)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	_, err = e.svc.Posts.Update(e.ctx, bob, published.ID, patch, true)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = e.svc.Posts.Update(e.ctx, bob, draft.ID, patch, true)
	assert.ErrorIs(t, err, service.ErrNotFound)

	updated, err := e.svc.Posts.Update(e.ctx, root, published.ID, &service.PostInput{Title: ptr("Published Again")}, true)
	require.NoError(t, err)
	assert.Equal(t, "published-again", updated.Slug)
	assert.Equal(t, "body of Published", updated.Body)

	assert.ErrorIs(t, e.svc.Posts.Delete(e.ctx, bob, published.ID), service.ErrForbidden)
	require.NoError(t, e.svc.Posts.Delete(e.ctx, alice, published.ID))
	_, err = e.svc.Posts.Get(e.ctx, alice, published.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPostService_ListScopes(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)

	e.post(alice, "Alice draft", models.StatusDraft)
	e.post(alice, "Alice published", models.StatusPublished)
	e.post(bob, "Bob draft", models.StatusDraft)

	res, err := e.svc.Posts.List(e.ctx, permission.PostListScope(alice, permission.StatusAll), "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Count)

	res, err = e.svc.Posts.List(e.ctx, permission.PostListScope(nil, permission.StatusAll), "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Count)

	res, err = e.svc.Posts.List(e.ctx, permission.PostListScope(bob, permission.StatusDraft), "7", "1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Count)
	assert.Equal(t, 1, res.Number)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Bob draft", res.Items[0].Title)
}

func TestPostService_Detail(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	golang := e.tag("go")

	post := e.post(alice, "Main", models.StatusPublished, golang.ID)
	e.post(alice, "Sibling", models.StatusPublished, golang.ID)
	e.post(alice, "Hidden sibling", models.StatusDraft, golang.ID)

	_, err := e.svc.Reactions.Toggle(e.ctx, bob, post.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = e.svc.Reactions.Toggle(e.ctx, alice, post.ID, models.ReactionDislike)
	require.NoError(t, err)
	_, err = e.svc.Comments.Create(e.ctx, bob, &service.CommentInput{Post: &post.ID, Body: ptr("great")})
	require.NoError(t, err)

	detail, err := e.svc.Posts.Detail(e.ctx, nil, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, detail.UsersLiked)
	assert.Equal(t, []string{"alice"}, detail.UsersDisliked)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "great", detail.Comments[0].Body)
	require.Len(t, detail.Similar, 1)
	assert.Equal(t, "Sibling", detail.Similar[0].Title)
	assert.Equal(t, 1, detail.Post.CommentsCount)

	liked, disliked, err := e.svc.Posts.Reactors(e.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, liked)
	assert.Equal(t, []uint{alice.ID}, disliked)
}

func TestTagService_CRUD(t *testing.T) {
	e := newEnv(t)

	tag, err := e.svc.Tags.Create(e.ctx, &service.TagInput{Name: ptr("Go Lang")})
	require.NoError(t, err)
	assert.Equal(t, "go-lang", tag.Slug)

	_, err = e.svc.Tags.Create(e.ctx, &service.TagInput{Name: ptr("Go Lang")})
	assert.Equal(t, []string{"tag with this name already exists."}, fieldErrors(t, err)["name"])

	_, err = e.svc.Tags.Create(e.ctx, &service.TagInput{})
	assert.Equal(t, []string{validation.MsgRequired}, fieldErrors(t, err)["name"])

	tag, err = e.svc.Tags.Update(e.ctx, tag.ID, &service.TagInput{Name: ptr("Golang")}, false)
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.Slug)

	res, err := e.svc.Tags.List(e.ctx, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Count)

	require.NoError(t, e.svc.Tags.Delete(e.ctx, tag.ID))
	assert.ErrorIs(t, e.svc.Tags.Delete(e.ctx, tag.ID), service.ErrNotFound)
}

func TestTagService_SlugCollision(t *testing.T) {
	e := newEnv(t)

	tag, err := e.svc.Tags.Create(e.ctx, &service.TagInput{Name: ptr("C++")})
	require.NoError(t, err)
	assert.Equal(t, "c", tag.Slug)

	_, err = e.svc.Tags.Create(e.ctx, &service.TagInput{Name: ptr("C")})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{"tag with this slug already exists."}, fields["slug"])
	assert.NotContains(t, fields, "name")
}

func TestCommentService_Create(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	root := e.user("root", true)

	post := e.post(alice, "Post", models.StatusPublished)
	draft := e.post(alice, "Draft", models.StatusDraft)

	_, err := e.svc.Comments.Create(e.ctx, nil, &service.CommentInput{Post: &post.ID, Body: ptr("hi")})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = e.svc.Comments.Create(e.ctx, bob, &service.CommentInput{Post: &draft.ID, Body: ptr("hi")})
	assert.Equal(t, []string{`Invalid pk "` + uintString(draft.ID) + `" - object does not exist.`}, fieldErrors(t, err)["post"])

	_, err = e.svc.Comments.Create(e.ctx, bob, &service.CommentInput{})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{validation.MsgRequired}, fields["post"])
	assert.Equal(t, []string{validation.MsgRequired}, fields["body"])

	comment, err := e.svc.Comments.Create(e.ctx, bob, &service.CommentInput{Post: &post.ID, Body: ptr("hi"), Active: ptr(false)})
	require.NoError(t, err)
	assert.True(t, comment.Active)
	assert.Equal(t, "bob", comment.User.Username)
	assert.Equal(t, "Post", comment.Post.Title)

	hidden, err := e.svc.Comments.Create(e.ctx, root, &service.CommentInput{Post: &post.ID, Body: ptr("quiet"), Active: ptr(false)})
	require.NoError(t, err)
	assert.False(t, hidden.Active)

	reloaded, err := e.repos.Post.GetByID(e.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CommentsCount)

	_, err = e.svc.Comments.Create(e.ctx, alice, &service.CommentInput{Post: &draft.ID, Body: ptr("own draft")})
	assert.NoError(t, err)

	assert.Contains(t, e.events.Subjects(), events.CommentCreated)
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	root := e.user("root", true)
	post := e.post(alice, "Post", models.StatusPublished)

	comment, err := e.svc.Comments.Create(e.ctx, bob, &service.CommentInput{Post: &post.ID, Body: ptr("hi")})
	require.NoError(t, err)

	_, err = e.svc.Comments.Update(e.ctx, alice, comment.ID, &service.CommentInput{Body: ptr("nope")}, true)
	assert.ErrorIs(t, err, service.ErrForbidden)

	updated, err := e.svc.Comments.Update(e.ctx, bob, comment.ID, &service.CommentInput{Body: ptr("edited"), Active: ptr(false)}, true)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)
	assert.True(t, updated.Active)

	updated, err = e.svc.Comments.Update(e.ctx, root, comment.ID, &service.CommentInput{Active: ptr(false)}, true)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	reloaded, err := e.repos.Post.GetByID(e.ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.CommentsCount)

	_, err = e.svc.Comments.Get(e.ctx, alice, comment.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = e.svc.Comments.Get(e.ctx, bob, comment.ID)
	assert.NoError(t, err)

	require.NoError(t, e.svc.Comments.Delete(e.ctx, bob, comment.ID))
	_, err = e.svc.Comments.Get(e.ctx, root, comment.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCommentService_InvalidatesPopular(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	post := e.post(alice, "Post", models.StatusPublished)
	_, err := e.svc.Reactions.Toggle(e.ctx, alice, post.ID, models.ReactionLike)
	require.NoError(t, err)

	posts, err := e.svc.Popular.Popular(e.ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 0, posts[0].CommentsCount)

	comment, err := e.svc.Comments.Create(e.ctx, alice, &service.CommentInput{Post: &post.ID, Body: ptr("first")})
	require.NoError(t, err)
	posts, err = e.svc.Popular.Popular(e.ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].CommentsCount)

	require.NoError(t, e.svc.Comments.Delete(e.ctx, alice, comment.ID))
	posts, err = e.svc.Popular.Popular(e.ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 0, posts[0].CommentsCount)
}

func TestReactionService_Toggle(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)
	post := e.post(alice, "Post", models.StatusPublished)
	draft := e.post(alice, "Draft", models.StatusDraft)

	_, err := e.svc.Reactions.Toggle(e.ctx, nil, post.ID, models.ReactionLike)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = e.svc.Reactions.Toggle(e.ctx, alice, draft.ID, models.ReactionLike)
	assert.Contains(t, fieldErrors(t, err), "post")

	res, err := e.svc.Reactions.Toggle(e.ctx, bob, post.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, "User bob liked post Post", res.Detail)
	assert.Equal(t, 1, res.Post.Likes)
	likes, _ := e.ranking.Score(post.ID)
	assert.Equal(t, 1, likes)

	res, err = e.svc.Reactions.Toggle(e.ctx, bob, post.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, "User bob disliked post Post", res.Detail)
	assert.Equal(t, 0, res.Post.Likes)
	assert.Equal(t, 1, res.Post.Dislikes)
	likes, _ = e.ranking.Score(post.ID)
	assert.Equal(t, 0, likes)

	res, err = e.svc.Reactions.Toggle(e.ctx, bob, post.ID, models.ReactionDislike)
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, "User bob undisliked post Post", res.Detail)
	assert.Equal(t, 0, res.Post.Dislikes)

	assert.Equal(t, []string{events.PostLiked, events.PostDisliked, events.PostDisliked}, e.events.Subjects())
}

func TestReactionService_RankingFailureDoesNotFailToggle(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	post := e.post(alice, "Post", models.StatusPublished)
	e.ranking.Err = errors.New("redis down")

	res, err := e.svc.Reactions.Toggle(e.ctx, alice, post.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, "User alice liked post Post", res.Detail)
	assert.Equal(t, 1, res.Post.Likes)
}

func TestPopularService(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	bob := e.user("bob", false)

	first := e.post(alice, "First", models.StatusPublished)
	second := e.post(alice, "Second", models.StatusPublished)
	draft := e.post(alice, "Draft", models.StatusDraft)

	for _, u := range []*models.User{alice, bob} {
		_, err := e.svc.Reactions.Toggle(e.ctx, u, second.ID, models.ReactionLike)
		require.NoError(t, err)
	}
	_, err := e.svc.Reactions.Toggle(e.ctx, bob, first.ID, models.ReactionLike)
	require.NoError(t, err)
	require.NoError(t, e.ranking.Record(e.ctx, draft.ID, 50))

	posts, err := e.svc.Popular.Popular(e.ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	// served from the cache until a toggle invalidates it
	require.NoError(t, e.ranking.Remove(e.ctx, second.ID))
	posts, err = e.svc.Popular.Popular(e.ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	e.svc.Popular.Invalidate()
	posts, err = e.svc.Popular.Popular(e.ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)

	t.Run("falls back to database when ranking is down", func(t *testing.T) {
		e.ranking.Err = errors.New("redis down")
		defer func() { e.ranking.Err = nil }()
		e.svc.Popular.Invalidate()

		posts, err := e.svc.Popular.Popular(e.ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, second.ID, posts[0].ID)
	})

	t.Run("rebuild repopulates from database", func(t *testing.T) {
		n, err := e.svc.Popular.Rebuild(e.ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		likes, ok := e.ranking.Score(second.ID)
		assert.True(t, ok)
		assert.Equal(t, 2, likes)
		_, ok = e.ranking.Score(draft.ID)
		assert.False(t, ok)
	})
}

func TestNewServices_RejectsNonPositiveCacheTTL(t *testing.T) {
	_, err := service.NewServices(repository.New(dbtest.New(t)), service.Dependencies{
		Tokens:  auth.NewManager("test-secret", time.Minute, time.Hour),
		Ranking: mocks.NewMockRanking(),
		Events:  mocks.NewMockPublisher(),
	}, &config.Config{Cache: config.CacheConfig{PopularSize: 4}}, zerolog.Nop())
	assert.Error(t, err)
}

func TestStatsService_Counts(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	e.post(alice, "Draft", models.StatusDraft)
	e.tag("go")

	counts, err := e.svc.Stats.Counts(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"users": 1, "posts": 1, "comments": 0, "tags": 1}, counts)
}

func TestMaintenanceService(t *testing.T) {
	e := newEnv(t)
	alice := e.user("alice", false)
	post := e.post(alice, "Post", models.StatusPublished)
	_, _, err := e.repos.Post.ToggleReaction(e.ctx, post.ID, alice.ID, models.ReactionLike)
	require.NoError(t, err)

	require.NoError(t, e.repos.Token.Blacklist(e.ctx, &models.BlacklistedToken{
		JTI: "expired", UserID: alice.ID, ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, e.repos.Token.Blacklist(e.ctx, &models.BlacklistedToken{
		JTI: "live", UserID: alice.ID, ExpiresAt: time.Now().Add(time.Hour),
	}))

	purged, err := e.svc.Maintenance.RunOnce(e.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	live, err := e.repos.Token.IsBlacklisted(e.ctx, "live")
	require.NoError(t, err)
	assert.True(t, live)

	ctx, cancel := context.WithCancel(e.ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		e.svc.Maintenance.StartProcessor(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return e.ranking.Replaced() > 0 }, 2*time.Second, 10*time.Millisecond)
	likes, ok := e.ranking.Score(post.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, likes)

	e.svc.Maintenance.StopProcessor()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop")
	}
}

func uintString(v uint) string {
	return fmt.Sprint(v)
}
