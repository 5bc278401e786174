package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/storage"
)

type interactionKey struct {
	userID, postID string
	kind           domain.InteractionType
}

type shareKey struct {
	userID, postID, recipientID string
}

// Store реализует интерфейс Storage в памяти.
// Все изменения выполняются под одной блокировкой записи, поэтому проверка
// владельца, изменение записи и счётчика происходят атомарно.
type Store struct {
	mu              sync.RWMutex
	users           map[string]*domain.User
	userIDsByName   map[string]string
	posts           map[string]*domain.Post
	comments        map[string]*domain.Comment
	commentsByPost  map[string][]string // map[postID][]commentID
	interactions    map[string]*domain.Interaction
	interactionKeys map[interactionKey]string
	shares          map[string]*domain.Share
	shareKeys       map[shareKey]string
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		users:           make(map[string]*domain.User),
		userIDsByName:   make(map[string]string),
		posts:           make(map[string]*domain.Post),
		comments:        make(map[string]*domain.Comment),
		commentsByPost:  make(map[string][]string),
		interactions:    make(map[string]*domain.Interaction),
		interactionKeys: make(map[interactionKey]string),
		shares:          make(map[string]*domain.Share),
		shareKeys:       make(map[shareKey]string),
	}
}

func now() time.Time { return time.Now().UTC() }

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.userIDsByName[user.Username]; taken {
		return nil, fmt.Errorf("username %s: %w", user.Username, storage.ErrDuplicate)
	}
	u := *user
	if u.ID == "" {
		u.ID = domain.NewID()
	}
	u.DateJoined = now()
	s.users[u.ID] = &u
	s.userIDsByName[u.Username] = u.ID
	*user = u
	return cloneUser(&u), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", id, storage.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userIDsByName[username]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := clonePost(post)
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	p.InteractionsCount = 0
	p.CommentsCount = 0
	s.posts[p.ID] = p
	*post = *clonePost(p)
	return clonePost(p), nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	return clonePost(post), nil
}

func (s *Store) ListPosts(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var authorID string
	if f.AuthorUsername != nil {
		id, ok := s.userIDsByName[*f.AuthorUsername]
		if !ok {
			return []*domain.Post{}, nil
		}
		authorID = id
	}

	var reacted map[string]bool
	if f.InteractionType != nil {
		reacted = make(map[string]bool)
		for _, i := range s.interactions {
			if i.Type == *f.InteractionType {
				reacted[i.PostID] = true
			}
		}
	}

	result := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if f.After != nil && p.ID <= *f.After {
			continue
		}
		if f.TitleContains != nil && !containsFold(p.Title, *f.TitleContains) {
			continue
		}
		if f.ContentContains != nil && !containsFold(p.Content, *f.ContentContains) {
			continue
		}
		if f.InteractionsCountGt != nil && p.InteractionsCount <= *f.InteractionsCountGt {
			continue
		}
		if f.InteractionsCountLt != nil && p.InteractionsCount >= *f.InteractionsCountLt {
			continue
		}
		if reacted != nil && !reacted[p.ID] {
			continue
		}
		if f.AuthorUsername != nil && p.UserID != authorID {
			continue
		}
		if f.CreatedAfter != nil && p.CreatedAt.Before(*f.CreatedAfter) {
			continue
		}
		if f.CreatedBefore != nil && p.CreatedAt.After(*f.CreatedBefore) {
			continue
		}
		result = append(result, clonePost(p))
	}

	// Сначала новые, при равном времени - больший id
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if f.First != nil {
		n := max(*f.First, 0)
		if len(result) > n {
			result = result[:n]
		}
	}
	return result, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch domain.PostPatch, guard storage.PostGuard) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	if guard != nil {
		if err := guard(clonePost(post)); err != nil {
			return nil, err
		}
	}
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	post.UpdatedAt = now()
	return clonePost(post), nil
}

func (s *Store) DeletePost(ctx context.Context, id string, guard storage.PostGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	if guard != nil {
		if err := guard(clonePost(post)); err != nil {
			return err
		}
	}

	// Каскадное удаление зависимых записей
	for _, cID := range s.commentsByPost[id] {
		delete(s.comments, cID)
	}
	delete(s.commentsByPost, id)
	for key, iID := range s.interactionKeys {
		if key.postID == id {
			delete(s.interactions, iID)
			delete(s.interactionKeys, key)
		}
	}
	for key, shID := range s.shareKeys {
		if key.postID == id {
			delete(s.shares, shID)
			delete(s.shareKeys, key)
		}
	}
	delete(s.posts, id)
	return nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", comment.PostID, storage.ErrNotFound)
	}

	c := *comment
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	c.CreatedAt = now()
	s.comments[c.ID] = &c
	s.commentsByPost[c.PostID] = append(s.commentsByPost[c.PostID], c.ID)

	post.CommentsCount++
	post.UpdatedAt = c.CreatedAt

	*comment = c
	return cloneComment(&c), nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment with id %s: %w", id, storage.ErrNotFound)
	}
	return cloneComment(comment), nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.commentsByPost[postID]
	comments := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			comments = append(comments, cloneComment(c))
		}
	}
	// Старые комментарии первыми
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (s *Store) UpdateComment(ctx context.Context, id string, content string, guard storage.CommentGuard) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment with id %s: %w", id, storage.ErrNotFound)
	}
	if guard != nil {
		if err := guard(cloneComment(comment)); err != nil {
			return nil, err
		}
	}
	comment.Content = content
	return cloneComment(comment), nil
}

func (s *Store) DeleteComment(ctx context.Context, id string, guard storage.CommentGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment with id %s: %w", id, storage.ErrNotFound)
	}
	if guard != nil {
		if err := guard(cloneComment(comment)); err != nil {
			return err
		}
	}

	delete(s.comments, id)
	ids := s.commentsByPost[comment.PostID]
	for i, cID := range ids {
		if cID == id {
			s.commentsByPost[comment.PostID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if post, ok := s.posts[comment.PostID]; ok {
		post.CommentsCount = decrement(post.CommentsCount)
		post.UpdatedAt = now()
	}
	return nil
}

// === Interaction Methods ===

func (s *Store) CreateInteraction(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[interaction.PostID]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", interaction.PostID, storage.ErrNotFound)
	}

	key := interactionKey{userID: interaction.UserID, postID: interaction.PostID, kind: interaction.Type}
	if existingID, exists := s.interactionKeys[key]; exists {
		return cloneInteraction(s.interactions[existingID]), storage.ErrDuplicate
	}

	i := *interaction
	if i.ID == "" {
		i.ID = domain.NewID()
	}
	i.CreatedAt = now()
	s.interactions[i.ID] = &i
	s.interactionKeys[key] = i.ID

	post.InteractionsCount++
	post.UpdatedAt = i.CreatedAt

	*interaction = i
	return cloneInteraction(&i), nil
}

func (s *Store) DeleteInteraction(ctx context.Context, userID, postID string, interactionType domain.InteractionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := interactionKey{userID: userID, postID: postID, kind: interactionType}
	id, ok := s.interactionKeys[key]
	if !ok {
		return fmt.Errorf("interaction %s on post %s: %w", interactionType, postID, storage.ErrNotFound)
	}
	delete(s.interactions, id)
	delete(s.interactionKeys, key)

	if post, ok := s.posts[postID]; ok {
		post.InteractionsCount = decrement(post.InteractionsCount)
		post.UpdatedAt = now()
	}
	return nil
}

func (s *Store) ListInteractions(ctx context.Context, f domain.InteractionFilter) ([]*domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userID string
	if f.Username != nil {
		id, ok := s.userIDsByName[*f.Username]
		if !ok {
			return []*domain.Interaction{}, nil
		}
		userID = id
	}

	result := make([]*domain.Interaction, 0)
	for _, i := range s.interactions {
		if f.Username != nil && i.UserID != userID {
			continue
		}
		if f.PostID != nil && i.PostID != *f.PostID {
			continue
		}
		result = append(result, cloneInteraction(i))
	}
	// Сначала новые
	sort.Slice(result, func(a, b int) bool {
		if !result[a].CreatedAt.Equal(result[b].CreatedAt) {
			return result[a].CreatedAt.After(result[b].CreatedAt)
		}
		return result[a].ID > result[b].ID
	})
	return result, nil
}

// === Share Methods ===

func (s *Store) CreateShare(ctx context.Context, share *domain.Share) (*domain.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[share.PostID]; !ok {
		return nil, fmt.Errorf("post with id %s: %w", share.PostID, storage.ErrNotFound)
	}

	key := shareKey{userID: share.UserID, postID: share.PostID, recipientID: share.SharedWithUserID}
	if existingID, exists := s.shareKeys[key]; exists {
		return cloneShare(s.shares[existingID]), storage.ErrDuplicate
	}

	sh := *share
	if sh.ID == "" {
		sh.ID = domain.NewID()
	}
	sh.CreatedAt = now()
	s.shares[sh.ID] = &sh
	s.shareKeys[key] = sh.ID

	*share = sh
	return cloneShare(&sh), nil
}

func (s *Store) GetSharesByPostID(ctx context.Context, postID string) ([]*domain.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Share, 0)
	for _, sh := range s.shares {
		if sh.PostID == postID {
			result = append(result, cloneShare(sh))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			results[id] = cloneUser(u)
		}
	}
	return results, nil
}

func (s *Store) GetPostsByIDs(ctx context.Context, ids []string) (map[string]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]*domain.Post, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			results[id] = clonePost(p)
		}
	}
	return results, nil
}

// decrement не опускает счётчик ниже нуля.
func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	return &cp
}

func clonePost(p *domain.Post) *domain.Post {
	cp := *p
	cp.Comments, cp.Interactions, cp.Shares = nil, nil, nil
	if p.Image != nil {
		img := *p.Image
		cp.Image = &img
	}
	return &cp
}

func cloneComment(c *domain.Comment) *domain.Comment {
	cp := *c
	return &cp
}

func cloneInteraction(i *domain.Interaction) *domain.Interaction {
	cp := *i
	return &cp
}

func cloneShare(s *domain.Share) *domain.Share {
	cp := *s
	return &cp
}
