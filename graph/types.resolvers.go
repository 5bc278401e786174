package graph

import (
	"context"
	"errors"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/dataloader"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
)

// === User ===

type userResolver struct {
	r *Resolver
	u *domain.User
}

func (r *Resolver) user(u *domain.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{r: r, u: u}
}

func (u *userResolver) ID() graphql.ID           { return graphql.ID(u.u.ID) }
func (u *userResolver) Username() string         { return u.u.Username }
func (u *userResolver) Email() string            { return u.u.Email }
func (u *userResolver) FirstName() string        { return u.u.FirstName }
func (u *userResolver) LastName() string         { return u.u.LastName }
func (u *userResolver) DateJoined() graphql.Time { return graphql.Time{Time: u.u.DateJoined} }

func (u *userResolver) Posts(ctx context.Context, args struct{ First *int32 }) ([]*postResolver, error) {
	username := u.u.Username
	posts, err := u.r.feed.ListPosts(ctx, domain.PostFilter{
		AuthorUsername: &username,
		First:          intPtr(args.First),
	})
	if err != nil {
		return nil, err
	}
	return u.r.postList(posts), nil
}

// === Post ===

type postResolver struct {
	r *Resolver
	p *domain.Post
}

func (r *Resolver) post(p *domain.Post) *postResolver {
	if p == nil {
		return nil
	}
	return &postResolver{r: r, p: p}
}

func (r *Resolver) postList(posts []*domain.Post) []*postResolver {
	out := make([]*postResolver, len(posts))
	for i, p := range posts {
		out[i] = r.post(p)
	}
	return out
}

func (p *postResolver) ID() graphql.ID           { return graphql.ID(p.p.ID) }
func (p *postResolver) Title() string            { return p.p.Title }
func (p *postResolver) Content() string          { return p.p.Content }
func (p *postResolver) Image() *string           { return p.p.Image }
func (p *postResolver) InteractionsCount() int32 { return int32(p.p.InteractionsCount) }
func (p *postResolver) CommentsCount() int32     { return int32(p.p.CommentsCount) }
func (p *postResolver) CreatedAt() graphql.Time  { return graphql.Time{Time: p.p.CreatedAt} }
func (p *postResolver) UpdatedAt() graphql.Time  { return graphql.Time{Time: p.p.UpdatedAt} }

// Author загружается батчем, чтобы список постов не порождал N+1 запросов.
func (p *postResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := dataloader.LoadUser(ctx, p.r.store, p.p.UserID)
	if err != nil {
		return nil, err
	}
	return p.r.user(u), nil
}

func (p *postResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := p.r.feed.ListCommentsForPost(ctx, p.p.ID)
	if err != nil {
		return nil, err
	}
	return p.r.commentList(comments), nil
}

func (p *postResolver) Interactions(ctx context.Context) ([]*interactionResolver, error) {
	postID := p.p.ID
	interactions, err := p.r.feed.ListInteractions(ctx, domain.InteractionFilter{PostID: &postID})
	if err != nil {
		return nil, err
	}
	return p.r.interactionList(interactions), nil
}

func (p *postResolver) Shares(ctx context.Context) ([]*shareResolver, error) {
	shares, err := p.r.shares.ListShares(ctx, p.p.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*shareResolver, len(shares))
	for i, s := range shares {
		out[i] = p.r.share(s)
	}
	return out, nil
}

// === Comment ===

type commentResolver struct {
	r *Resolver
	c *domain.Comment
}

func (r *Resolver) comment(c *domain.Comment) *commentResolver {
	if c == nil {
		return nil
	}
	return &commentResolver{r: r, c: c}
}

func (r *Resolver) commentList(comments []*domain.Comment) []*commentResolver {
	out := make([]*commentResolver, len(comments))
	for i, c := range comments {
		out[i] = r.comment(c)
	}
	return out
}

func (c *commentResolver) ID() graphql.ID          { return graphql.ID(c.c.ID) }
func (c *commentResolver) Content() string         { return c.c.Content }
func (c *commentResolver) CreatedAt() graphql.Time { return graphql.Time{Time: c.c.CreatedAt} }

func (c *commentResolver) Post(ctx context.Context) (*postResolver, error) {
	return c.r.loadPost(ctx, c.c.PostID)
}

func (c *commentResolver) Author(ctx context.Context) (*userResolver, error) {
	return c.r.loadUser(ctx, c.c.UserID)
}

// === Interaction ===

type interactionResolver struct {
	r *Resolver
	i *domain.Interaction
}

func (r *Resolver) interaction(i *domain.Interaction) *interactionResolver {
	if i == nil {
		return nil
	}
	return &interactionResolver{r: r, i: i}
}

func (r *Resolver) interactionList(interactions []*domain.Interaction) []*interactionResolver {
	out := make([]*interactionResolver, len(interactions))
	for idx, i := range interactions {
		out[idx] = r.interaction(i)
	}
	return out
}

func (i *interactionResolver) ID() graphql.ID          { return graphql.ID(i.i.ID) }
func (i *interactionResolver) InteractionType() string { return i.i.Type.EnumName() }
func (i *interactionResolver) CreatedAt() graphql.Time { return graphql.Time{Time: i.i.CreatedAt} }

func (i *interactionResolver) User(ctx context.Context) (*userResolver, error) {
	return i.r.loadUser(ctx, i.i.UserID)
}

func (i *interactionResolver) Post(ctx context.Context) (*postResolver, error) {
	return i.r.loadPost(ctx, i.i.PostID)
}

// === Share ===

type shareResolver struct {
	r *Resolver
	s *domain.Share
}

func (r *Resolver) share(s *domain.Share) *shareResolver {
	if s == nil {
		return nil
	}
	return &shareResolver{r: r, s: s}
}

func (s *shareResolver) ID() graphql.ID          { return graphql.ID(s.s.ID) }
func (s *shareResolver) CreatedAt() graphql.Time { return graphql.Time{Time: s.s.CreatedAt} }

func (s *shareResolver) User(ctx context.Context) (*userResolver, error) {
	return s.r.loadUser(ctx, s.s.UserID)
}

func (s *shareResolver) SharedWith(ctx context.Context) (*userResolver, error) {
	return s.r.loadUser(ctx, s.s.SharedWithUserID)
}

func (s *shareResolver) Post(ctx context.Context) (*postResolver, error) {
	return s.r.loadPost(ctx, s.s.PostID)
}

func (r *Resolver) loadUser(ctx context.Context, id string) (*userResolver, error) {
	u, err := dataloader.LoadUser(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	return r.user(u), nil
}

func (r *Resolver) loadPost(ctx context.Context, id string) (*postResolver, error) {
	p, err := dataloader.LoadPost(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	return r.post(p), nil
}

// postChanged сбрасывает кеш постов после успешной мутации.
func (r *Resolver) postChanged(ctx context.Context, err error) {
	if err == nil {
		dataloader.ForgetPosts(ctx)
	}
}

// === Payloads ===

type errorResolver struct {
	e *apperrors.Error
}

func (e *errorResolver) Code() string    { return string(e.e.Code) }
func (e *errorResolver) Message() string { return e.e.Message }

// payload - общая часть всех ответов мутаций.
type payload struct {
	err error
}

func (p payload) Success() bool { return p.err == nil }

func (p payload) Error() *errorResolver {
	if p.err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if !errors.As(p.err, &appErr) {
		appErr = apperrors.StoreFailure(p.err)
	}
	return &errorResolver{e: appErr}
}

type postPayload struct {
	payload
	post *postResolver
}

func (p *postPayload) Post() *postResolver { return p.post }

type commentPayload struct {
	payload
	comment *commentResolver
}

func (p *commentPayload) Comment() *commentResolver { return p.comment }

type interactionPayload struct {
	payload
	interaction *interactionResolver
}

func (p *interactionPayload) Interaction() *interactionResolver { return p.interaction }

type sharePayload struct {
	payload
	share *shareResolver
}

func (p *sharePayload) Share() *shareResolver { return p.share }

type deletePayload struct {
	payload
}

type userPayload struct {
	payload
	user *userResolver
}

func (p *userPayload) User() *userResolver { return p.user }

type tokenPayload struct {
	payload
	token string
	user  *userResolver
}

func (p *tokenPayload) Token() *string {
	if p.token == "" {
		return nil
	}
	return &p.token
}

func (p *tokenPayload) User() *userResolver { return p.user }

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
