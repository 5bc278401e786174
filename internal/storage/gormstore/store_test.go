package gormstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore открывает SQLite во временном каталоге и создает автора с постом
func newTestStore(t *testing.T) (*Store, *domain.User, *domain.Post) {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "feed.db"), Options{AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	author, err := store.CreateUser(ctx, &domain.User{Username: "author", Email: "a@example.com"})
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, &domain.Post{UserID: author.ID, Title: "Hello", Content: "World"})
	require.NoError(t, err)
	return store, author, post
}

func TestStore_CreateAndGetPost(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	require.True(t, domain.ValidID(post.ID))
	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, author.ID, got.UserID)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.GetPostByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetPostByID(ctx, domain.NewID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CreateUser_DuplicateUsername(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.CreateUser(context.Background(), &domain.User{Username: "author"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestStore_UpdatePost_GuardAndPatch(t *testing.T) {
	store, _, post := newTestStore(t)
	ctx := context.Background()

	denied := errors.New("denied")
	title := "Changed"
	_, err := store.UpdatePost(ctx, post.ID, domain.PostPatch{Title: &title}, func(*domain.Post) error { return denied })
	require.ErrorIs(t, err, denied)
	unchanged, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", unchanged.Title)

	updated, err := store.UpdatePost(ctx, post.ID, domain.PostPatch{Title: &title}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.Title)
	assert.Equal(t, "World", updated.Content)
	assert.False(t, updated.UpdatedAt.Before(unchanged.UpdatedAt))
}

func TestStore_CommentCounter(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	c1, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: author.ID, Content: "first"})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: author.ID, Content: "second"})
	require.NoError(t, err)

	comments, err := store.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)

	p, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CommentsCount)

	edited, err := store.UpdateComment(ctx, c1.ID, "edited", nil)
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	require.NoError(t, store.DeleteComment(ctx, c1.ID, nil))
	p, err = store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CommentsCount)

	err = store.DeleteComment(ctx, c1.ID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: domain.NewID(), UserID: author.ID, Content: "orphan"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_InteractionLifecycle(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateInteraction(ctx, &domain.Interaction{UserID: author.ID, PostID: post.ID, Type: domain.InteractionLove})
	require.NoError(t, err)

	dup, err := store.CreateInteraction(ctx, &domain.Interaction{UserID: author.ID, PostID: post.ID, Type: domain.InteractionLove})
	require.ErrorIs(t, err, storage.ErrDuplicate)
	require.NotNil(t, dup)
	assert.Equal(t, created.ID, dup.ID)

	_, err = store.CreateInteraction(ctx, &domain.Interaction{UserID: author.ID, PostID: post.ID, Type: domain.InteractionWow})
	require.NoError(t, err)

	p, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.InteractionsCount)

	username := "author"
	rows, err := store.ListInteractions(ctx, domain.InteractionFilter{Username: &username, PostID: &post.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, store.DeleteInteraction(ctx, author.ID, post.ID, domain.InteractionLove))
	err = store.DeleteInteraction(ctx, author.ID, post.ID, domain.InteractionLove)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	p, err = store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.InteractionsCount)
}

func TestStore_DeleteInteraction_ClampsAtZero(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateInteraction(ctx, &domain.Interaction{UserID: author.ID, PostID: post.ID, Type: domain.InteractionSad})
	require.NoError(t, err)
	require.NoError(t, store.db.Model(&domain.Post{}).Where("id = ?", post.ID).Update("interactions_count", 0).Error)

	require.NoError(t, store.DeleteInteraction(ctx, author.ID, post.ID, domain.InteractionSad))
	p, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.InteractionsCount)
}

func TestStore_DeletePost_Cascades(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	reader, err := store.CreateUser(ctx, &domain.User{Username: "reader"})
	require.NoError(t, err)
	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: reader.ID, Content: "hi"})
	require.NoError(t, err)
	_, err = store.CreateInteraction(ctx, &domain.Interaction{UserID: reader.ID, PostID: post.ID, Type: domain.InteractionLove})
	require.NoError(t, err)
	_, err = store.CreateShare(ctx, &domain.Share{UserID: reader.ID, PostID: post.ID, SharedWithUserID: author.ID})
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, post.ID, nil))

	_, err = store.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetCommentByID(ctx, comment.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var left int64
	require.NoError(t, store.db.Model(&domain.Interaction{}).Where("post_id = ?", post.ID).Count(&left).Error)
	assert.Zero(t, left)
	require.NoError(t, store.db.Model(&domain.Share{}).Where("post_id = ?", post.ID).Count(&left).Error)
	assert.Zero(t, left)
}

func TestStore_CreateShare_Duplicate(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	friend, err := store.CreateUser(ctx, &domain.User{Username: "friend"})
	require.NoError(t, err)

	first, err := store.CreateShare(ctx, &domain.Share{UserID: author.ID, PostID: post.ID, SharedWithUserID: friend.ID})
	require.NoError(t, err)
	again, err := store.CreateShare(ctx, &domain.Share{UserID: author.ID, PostID: post.ID, SharedWithUserID: friend.ID})
	require.ErrorIs(t, err, storage.ErrDuplicate)
	assert.Equal(t, first.ID, again.ID)

	shares, err := store.GetSharesByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func TestStore_ListPosts_Filters(t *testing.T) {
	store, author, first := newTestStore(t)
	ctx := context.Background()

	other, err := store.CreateUser(ctx, &domain.User{Username: "other"})
	require.NoError(t, err)
	second, err := store.CreatePost(ctx, &domain.Post{UserID: other.ID, Title: "Shell tricks", Content: "100% bash"})
	require.NoError(t, err)
	third, err := store.CreatePost(ctx, &domain.Post{UserID: author.ID, Title: "Goodbye", Content: "see you"})
	require.NoError(t, err)
	_, err = store.CreateInteraction(ctx, &domain.Interaction{UserID: other.ID, PostID: third.ID, Type: domain.InteractionAngry})
	require.NoError(t, err)

	all, err := store.ListPosts(ctx, domain.PostFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID)
	assert.Equal(t, first.ID, all[2].ID)

	hel, one := "HEL", 1
	page, err := store.ListPosts(ctx, domain.PostFilter{TitleContains: &hel, First: &one})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)

	percent := "100%"
	literal, err := store.ListPosts(ctx, domain.PostFilter{ContentContains: &percent})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, second.ID, literal[0].ID)

	angry := domain.InteractionAngry
	reacted, err := store.ListPosts(ctx, domain.PostFilter{InteractionType: &angry})
	require.NoError(t, err)
	require.Len(t, reacted, 1)
	assert.Equal(t, third.ID, reacted[0].ID)

	zero := 0
	popular, err := store.ListPosts(ctx, domain.PostFilter{InteractionsCountGt: &zero})
	require.NoError(t, err)
	assert.Len(t, popular, 1)

	username := "other"
	byAuthor, err := store.ListPosts(ctx, domain.PostFilter{AuthorUsername: &username})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, second.ID, byAuthor[0].ID)

	after, err := store.ListPosts(ctx, domain.PostFilter{After: &second.ID})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, third.ID, after[0].ID)

	since := second.CreatedAt
	recent, err := store.ListPosts(ctx, domain.PostFilter{CreatedAfter: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	empty, err := store.ListPosts(ctx, domain.PostFilter{First: &zero})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_ListPosts_UnicodeCaseFolding(t *testing.T) {
	store, author, _ := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, &domain.Post{UserID: author.ID, Title: "Тестовый пост", Content: "Ёлка и Café"})
	require.NoError(t, err)

	title := "тестовый"
	byTitle, err := store.ListPosts(ctx, domain.PostFilter{TitleContains: &title})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, post.ID, byTitle[0].ID)

	content := "ЁЛКА И CAFÉ"
	byContent, err := store.ListPosts(ctx, domain.PostFilter{ContentContains: &content})
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	assert.Equal(t, post.ID, byContent[0].ID)
}

func TestStore_DuplicateLookupsAreNotLogged(t *testing.T) {
	var logs bytes.Buffer
	store, err := NewSQLite(filepath.Join(t.TempDir(), "feed.db"), Options{AutoMigrate: true, LogOutput: &logs})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	author, err := store.CreateUser(ctx, &domain.User{Username: "author", Email: "a@example.com"})
	require.NoError(t, err)
	friend, err := store.CreateUser(ctx, &domain.User{Username: "friend", Email: "f@example.com"})
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, &domain.Post{UserID: author.ID, Title: "Hello", Content: "World"})
	require.NoError(t, err)

	_, err = store.CreateInteraction(ctx, &domain.Interaction{UserID: friend.ID, PostID: post.ID, Type: domain.InteractionLove})
	require.NoError(t, err)
	_, err = store.CreateShare(ctx, &domain.Share{UserID: friend.ID, PostID: post.ID, SharedWithUserID: author.ID})
	require.NoError(t, err)

	assert.NotContains(t, logs.String(), "record not found")
}

func TestStore_BatchLookups(t *testing.T) {
	store, author, post := newTestStore(t)
	ctx := context.Background()

	users, err := store.GetUsersByIDs(ctx, []string{author.ID, "garbage", domain.NewID()})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "author", users[author.ID].Username)

	posts, err := store.GetPostsByIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hello", posts[post.ID].Title)
}
