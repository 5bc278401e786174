package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/UkralStul/graphql-social-feed/internal/apperrors"
	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/domain"
	"github.com/UkralStul/graphql-social-feed/internal/service"
)

// === Query Resolvers ===

type postsArgs struct {
	After               *graphql.ID
	First               *int32
	TitleContains       *string
	ContentContains     *string
	InteractionsCountGt *int32
	InteractionsCountLt *int32
	InteractionType     *string
	ByAuthorUsername    *string
	CreatedAfter        *graphql.Time
	CreatedBefore       *graphql.Time
}

func (a postsArgs) filter() (domain.PostFilter, error) {
	f := domain.PostFilter{
		First:               intPtr(a.First),
		TitleContains:       a.TitleContains,
		ContentContains:     a.ContentContains,
		InteractionsCountGt: intPtr(a.InteractionsCountGt),
		InteractionsCountLt: intPtr(a.InteractionsCountLt),
		AuthorUsername:      a.ByAuthorUsername,
	}
	if a.After != nil {
		after := string(*a.After)
		f.After = &after
	}
	if a.InteractionType != nil {
		t, err := domain.ParseInteractionType(*a.InteractionType)
		if err != nil {
			return f, apperrors.Wrap(apperrors.CodeInvalidInteractionType, err.Error(), err)
		}
		f.InteractionType = &t
	}
	if a.CreatedAfter != nil {
		t := a.CreatedAfter.Time.UTC()
		f.CreatedAfter = &t
	}
	if a.CreatedBefore != nil {
		t := a.CreatedBefore.Time.UTC()
		f.CreatedBefore = &t
	}
	return f, nil
}

func (r *Resolver) Posts(ctx context.Context, args postsArgs) ([]*postResolver, error) {
	filter, err := args.filter()
	if err != nil {
		return nil, err
	}
	posts, err := r.feed.ListPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.postList(posts), nil
}

func (r *Resolver) Post(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	post, err := r.feed.GetPost(ctx, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.post(post), nil
}

func (r *Resolver) CommentsForPost(ctx context.Context, args struct{ PostID graphql.ID }) ([]*commentResolver, error) {
	comments, err := r.feed.ListCommentsForPost(ctx, string(args.PostID))
	if err != nil {
		return nil, err
	}
	return r.commentList(comments), nil
}

func (r *Resolver) Interactions(ctx context.Context, args struct {
	Username *string
	PostID   *graphql.ID
}) ([]*interactionResolver, error) {
	filter := domain.InteractionFilter{Username: args.Username}
	if args.PostID != nil {
		postID := string(*args.PostID)
		filter.PostID = &postID
	}
	interactions, err := r.feed.ListInteractions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return r.interactionList(interactions), nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.accounts.CurrentUser(auth.CurrentUser(ctx))
	if err != nil {
		return nil, err
	}
	return r.user(user), nil
}

// LoggedUser - прежнее имя запроса me.
func (r *Resolver) LoggedUser(ctx context.Context) (*userResolver, error) {
	return r.Me(ctx)
}

func (r *Resolver) User(ctx context.Context, args struct{ Username string }) (*userResolver, error) {
	user, err := r.accounts.GetUserByUsername(ctx, args.Username)
	if err != nil {
		return nil, err
	}
	return r.user(user), nil
}

// === Mutation Resolvers ===
// Мутации не возвращают GraphQL-ошибок: результат всегда описан в payload.

func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  *string
}) *userPayload {
	in := service.NewUser{
		Username:  args.Username,
		Password:  args.Password,
		Email:     args.Email,
		FirstName: args.FirstName,
	}
	if args.LastName != nil {
		in.LastName = *args.LastName
	}
	user, err := r.accounts.Register(ctx, in)
	return &userPayload{payload: payload{err}, user: r.user(user)}
}

func (r *Resolver) TokenAuth(ctx context.Context, args struct {
	Username string
	Password string
}) *tokenPayload {
	token, user, err := r.accounts.Login(ctx, args.Username, args.Password)
	return &tokenPayload{payload: payload{err}, token: token, user: r.user(user)}
}

// LoginUser - прежнее имя мутации tokenAuth.
func (r *Resolver) LoginUser(ctx context.Context, args struct {
	Username string
	Password string
}) *tokenPayload {
	return r.TokenAuth(ctx, args)
}

func (r *Resolver) VerifyToken(ctx context.Context, args struct{ Token string }) *tokenPayload {
	user, err := r.accounts.VerifyToken(ctx, args.Token)
	if err != nil {
		return &tokenPayload{payload: payload{err}}
	}
	return &tokenPayload{token: args.Token, user: r.user(user)}
}

func (r *Resolver) RefreshToken(ctx context.Context, args struct{ Token string }) *tokenPayload {
	token, user, err := r.accounts.RefreshToken(ctx, args.Token)
	return &tokenPayload{payload: payload{err}, token: token, user: r.user(user)}
}

func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Title   string
	Content string
	Image   *string
}) *postPayload {
	post, err := r.posts.CreatePost(ctx, auth.CurrentUser(ctx), service.NewPost{
		Title:   args.Title,
		Content: args.Content,
		Image:   args.Image,
	})
	return &postPayload{payload: payload{err}, post: r.post(post)}
}

func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	PostID  graphql.ID
	Content *string
	Title   *string
}) *postPayload {
	post, err := r.posts.UpdatePost(ctx, auth.CurrentUser(ctx), string(args.PostID), domain.PostPatch{
		Title:   args.Title,
		Content: args.Content,
	})
	r.postChanged(ctx, err)
	return &postPayload{payload: payload{err}, post: r.post(post)}
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ PostID graphql.ID }) *deletePayload {
	err := r.posts.DeletePost(ctx, auth.CurrentUser(ctx), string(args.PostID))
	r.postChanged(ctx, err)
	return &deletePayload{payload{err}}
}

func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID  graphql.ID
	Content string
}) *commentPayload {
	comment, err := r.comments.CreateComment(ctx, auth.CurrentUser(ctx), string(args.PostID), args.Content)
	r.postChanged(ctx, err)
	return &commentPayload{payload: payload{err}, comment: r.comment(comment)}
}

func (r *Resolver) UpdateComment(ctx context.Context, args struct {
	CommentID graphql.ID
	Content   string
}) *commentPayload {
	comment, err := r.comments.UpdateComment(ctx, auth.CurrentUser(ctx), string(args.CommentID), args.Content)
	return &commentPayload{payload: payload{err}, comment: r.comment(comment)}
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct{ CommentID graphql.ID }) *deletePayload {
	err := r.comments.DeleteComment(ctx, auth.CurrentUser(ctx), string(args.CommentID))
	r.postChanged(ctx, err)
	return &deletePayload{payload{err}}
}

// SharePost при повторной пересылке возвращает существующую запись вместе с ошибкой.
func (r *Resolver) SharePost(ctx context.Context, args struct {
	PostID            graphql.ID
	RecipientUsername string
}) *sharePayload {
	share, err := r.shares.SharePost(ctx, auth.CurrentUser(ctx), string(args.PostID), args.RecipientUsername)
	return &sharePayload{payload: payload{err}, share: r.share(share)}
}

// AddInteraction при повторной реакции возвращает существующую запись вместе с ошибкой.
func (r *Resolver) AddInteraction(ctx context.Context, args struct {
	PostID          graphql.ID
	InteractionType string
}) *interactionPayload {
	interaction, err := r.reactions.AddInteraction(ctx, auth.CurrentUser(ctx), string(args.PostID), args.InteractionType)
	r.postChanged(ctx, err)
	return &interactionPayload{payload: payload{err}, interaction: r.interaction(interaction)}
}

func (r *Resolver) RemoveInteraction(ctx context.Context, args struct {
	PostID          graphql.ID
	InteractionType string
}) *deletePayload {
	err := r.reactions.RemoveInteraction(ctx, auth.CurrentUser(ctx), string(args.PostID), args.InteractionType)
	r.postChanged(ctx, err)
	return &deletePayload{payload{err}}
}
