package graph

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vektah/gqlparser/v2"

	"github.com/UkralStul/graphql-social-feed/internal/auth"
	"github.com/UkralStul/graphql-social-feed/internal/service"
	"github.com/UkralStul/graphql-social-feed/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type payloadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := inmemory.New()
	tokens := auth.NewTokenManager("graph-test-secret", time.Hour)
	resolver := NewResolver(store, service.New(store, tokens))
	schema, err := NewSchema(resolver, SchemaOptions{MaxDepth: 12})
	require.NoError(t, err)

	server := httptest.NewServer(Handler(schema, store, tokens))
	t.Cleanup(server.Close)
	return &testAPI{t: t, server: server}
}

// exec проверяет документ независимым парсером и выполняет его на сервере
func (a *testAPI) exec(token, query string, vars map[string]interface{}, out interface{}) []gqlError {
	a.t.Helper()

	parsed, err := ValidateSchema()
	require.NoError(a.t, err)
	_, errs := gqlparser.LoadQuery(parsed, query)
	require.Empty(a.t, errs, "document must be valid against the schema")

	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(a.t, err)
	req, err := http.NewRequest(http.MethodPost, a.server.URL, bytes.NewReader(body))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	require.Equal(a.t, http.StatusOK, resp.StatusCode)

	var decoded gqlResponse
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&decoded))
	if out != nil && len(decoded.Data) > 0 && string(decoded.Data) != "null" {
		require.NoError(a.t, json.Unmarshal(decoded.Data, out))
	}
	return decoded.Errors
}

// signUp регистрирует пользователя и возвращает его токен
func (a *testAPI) signUp(username string) string {
	a.t.Helper()
	var created struct {
		CreateUser struct {
			Success bool          `json:"success"`
			Error   *payloadError `json:"error"`
		} `json:"createUser"`
	}
	errs := a.exec("", `mutation($u: String!) {
		createUser(username: $u, password: "pass-123", email: "me@example.com", firstName: "Test") {
			success
			error { code message }
		}
	}`, map[string]interface{}{"u": username}, &created)
	require.Empty(a.t, errs)
	require.True(a.t, created.CreateUser.Success, "%+v", created.CreateUser.Error)

	var login struct {
		TokenAuth struct {
			Success bool    `json:"success"`
			Token   *string `json:"token"`
		} `json:"tokenAuth"`
	}
	errs = a.exec("", `mutation($u: String!) {
		tokenAuth(username: $u, password: "pass-123") { success token }
	}`, map[string]interface{}{"u": username}, &login)
	require.Empty(a.t, errs)
	require.True(a.t, login.TokenAuth.Success)
	require.NotNil(a.t, login.TokenAuth.Token)
	return *login.TokenAuth.Token
}

func (a *testAPI) createPost(token, title, content string) string {
	a.t.Helper()
	var out struct {
		CreatePost struct {
			Success bool `json:"success"`
			Post    struct {
				ID string `json:"id"`
			} `json:"post"`
		} `json:"createPost"`
	}
	errs := a.exec(token, `mutation($t: String!, $c: String!) {
		createPost(title: $t, content: $c) { success post { id } }
	}`, map[string]interface{}{"t": title, "c": content}, &out)
	require.Empty(a.t, errs)
	require.True(a.t, out.CreatePost.Success)
	return out.CreatePost.Post.ID
}

func (a *testAPI) interactionsCount(postID string) int {
	a.t.Helper()
	var out struct {
		Post struct {
			InteractionsCount int `json:"interactionsCount"`
		} `json:"post"`
	}
	errs := a.exec("", `query($id: ID!) { post(id: $id) { interactionsCount } }`,
		map[string]interface{}{"id": postID}, &out)
	require.Empty(a.t, errs)
	return out.Post.InteractionsCount
}

func TestValidateSchema(t *testing.T) {
	schema, err := ValidateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema.Types["InteractionType"])
	assert.Len(t, schema.Types["InteractionType"].EnumValues, 7)
	assert.NotNil(t, schema.Mutation.Fields.ForName("addInteraction"))
}

func TestAPI_ReactionToggleScenario(t *testing.T) {
	api := newTestAPI(t)
	u1 := api.signUp("u1")
	u2 := api.signUp("u2")
	postID := api.createPost(u1, "Hello", "World")

	const add = `mutation($p: ID!) {
		addInteraction(postId: $p, interactionType: LOVE) {
			success
			error { code }
			interaction { id interactionType user { username } post { interactionsCount } }
		}
	}`
	type addResult struct {
		AddInteraction struct {
			Success     bool          `json:"success"`
			Error       *payloadError `json:"error"`
			Interaction *struct {
				ID              string `json:"id"`
				InteractionType string `json:"interactionType"`
				User            struct {
					Username string `json:"username"`
				} `json:"user"`
			} `json:"interaction"`
		} `json:"addInteraction"`
	}

	var first addResult
	require.Empty(t, api.exec(u2, add, map[string]interface{}{"p": postID}, &first))
	require.True(t, first.AddInteraction.Success)
	require.NotNil(t, first.AddInteraction.Interaction)
	assert.Equal(t, "LOVE", first.AddInteraction.Interaction.InteractionType)
	assert.Equal(t, "u2", first.AddInteraction.Interaction.User.Username)
	assert.Equal(t, 1, api.interactionsCount(postID))

	var second addResult
	require.Empty(t, api.exec(u2, add, map[string]interface{}{"p": postID}, &second))
	assert.False(t, second.AddInteraction.Success)
	require.NotNil(t, second.AddInteraction.Error)
	assert.Equal(t, "DUPLICATE_INTERACTION", second.AddInteraction.Error.Code)
	require.NotNil(t, second.AddInteraction.Interaction)
	assert.Equal(t, first.AddInteraction.Interaction.ID, second.AddInteraction.Interaction.ID)
	assert.Equal(t, 1, api.interactionsCount(postID))

	var removed struct {
		RemoveInteraction struct {
			Success bool `json:"success"`
		} `json:"removeInteraction"`
	}
	require.Empty(t, api.exec(u2, `mutation($p: ID!) {
		removeInteraction(postId: $p, interactionType: LOVE) { success }
	}`, map[string]interface{}{"p": postID}, &removed))
	assert.True(t, removed.RemoveInteraction.Success)
	assert.Equal(t, 0, api.interactionsCount(postID))
}

func TestAPI_Unauthenticated(t *testing.T) {
	api := newTestAPI(t)

	var out struct {
		CreatePost struct {
			Success bool          `json:"success"`
			Error   *payloadError `json:"error"`
			Post    *struct{}     `json:"post"`
		} `json:"createPost"`
	}
	errs := api.exec("", `mutation { createPost(title: "t", content: "c") { success error { code message } post { id } } }`, nil, &out)
	require.Empty(t, errs)
	assert.False(t, out.CreatePost.Success)
	require.NotNil(t, out.CreatePost.Error)
	assert.Equal(t, "UNAUTHENTICATED", out.CreatePost.Error.Code)
	assert.Nil(t, out.CreatePost.Post)

	// Недействительный токен не прерывает запрос, он выполняется анонимно
	errs = api.exec("not-a-token", `mutation { createPost(title: "t", content: "c") { success error { code message } post { id } } }`, nil, &out)
	require.Empty(t, errs)
	assert.Equal(t, "UNAUTHENTICATED", out.CreatePost.Error.Code)

	errs = api.exec("", `query { me { id } }`, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "UNAUTHENTICATED", errs[0].Extensions["code"])
}

func TestAPI_OwnershipAndCascade(t *testing.T) {
	api := newTestAPI(t)
	u1 := api.signUp("u1")
	u2 := api.signUp("u2")
	postID := api.createPost(u1, "Hello", "World")

	var comment struct {
		CreateComment struct {
			Success bool `json:"success"`
			Comment struct {
				Post struct {
					CommentsCount int `json:"commentsCount"`
				} `json:"post"`
				Author struct {
					Username string `json:"username"`
				} `json:"author"`
			} `json:"comment"`
		} `json:"createComment"`
	}
	require.Empty(t, api.exec(u2, `mutation($p: ID!) {
		createComment(postId: $p, content: "nice") { success comment { post { commentsCount } author { username } } }
	}`, map[string]interface{}{"p": postID}, &comment))
	require.True(t, comment.CreateComment.Success)
	assert.Equal(t, 1, comment.CreateComment.Comment.Post.CommentsCount)
	assert.Equal(t, "u2", comment.CreateComment.Comment.Author.Username)

	var share struct {
		SharePost struct {
			Success bool `json:"success"`
			Share   struct {
				SharedWith struct {
					Username string `json:"username"`
				} `json:"sharedWith"`
			} `json:"share"`
		} `json:"sharePost"`
	}
	require.Empty(t, api.exec(u2, `mutation($p: ID!) {
		sharePost(postId: $p, recipientUsername: "u1") { success share { sharedWith { username } } }
	}`, map[string]interface{}{"p": postID}, &share))
	require.True(t, share.SharePost.Success)
	assert.Equal(t, "u1", share.SharePost.Share.SharedWith.Username)

	const del = `mutation($p: ID!) { deletePost(postId: $p) { success error { code } } }`
	var deleted struct {
		DeletePost struct {
			Success bool          `json:"success"`
			Error   *payloadError `json:"error"`
		} `json:"deletePost"`
	}
	require.Empty(t, api.exec(u2, del, map[string]interface{}{"p": postID}, &deleted))
	assert.False(t, deleted.DeletePost.Success)
	require.NotNil(t, deleted.DeletePost.Error)
	assert.Equal(t, "FORBIDDEN", deleted.DeletePost.Error.Code)
	assert.Equal(t, 0, api.interactionsCount(postID))

	require.Empty(t, api.exec(u1, del, map[string]interface{}{"p": postID}, &deleted))
	assert.True(t, deleted.DeletePost.Success)
	assert.Nil(t, deleted.DeletePost.Error)

	errs := api.exec("", `query($id: ID!) { post(id: $id) { id } }`, map[string]interface{}{"id": postID}, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "NOT_FOUND", errs[0].Extensions["code"])

	var comments struct {
		CommentsForPost []struct{} `json:"commentsForPost"`
	}
	require.Empty(t, api.exec("", `query($p: ID!) { commentsForPost(postId: $p) { id } }`,
		map[string]interface{}{"p": postID}, &comments))
	assert.Empty(t, comments.CommentsForPost)
}

func TestAPI_PostsFilters(t *testing.T) {
	api := newTestAPI(t)
	u1 := api.signUp("u1")
	u2 := api.signUp("u2")
	api.createPost(u1, "Hello", "World")
	api.createPost(u2, "Unrelated", "Cats")
	newest := api.createPost(u2, "Shelter", "Dogs")

	type postsResult struct {
		Posts []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Author struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"posts"`
	}

	var out postsResult
	require.Empty(t, api.exec("", `query { posts(titleContains: "hel", first: 1) { id title author { username } } }`, nil, &out))
	require.Len(t, out.Posts, 1)
	assert.Equal(t, newest, out.Posts[0].ID)
	assert.Equal(t, "u2", out.Posts[0].Author.Username)

	out = postsResult{}
	require.Empty(t, api.exec("", `query { posts(byAuthorUsername: "u2") { id title author { username } } }`, nil, &out))
	require.Len(t, out.Posts, 2)
	assert.Equal(t, "Shelter", out.Posts[0].Title)
	assert.Equal(t, "Unrelated", out.Posts[1].Title)

	var user struct {
		User struct {
			Posts []struct {
				Title string `json:"title"`
			} `json:"posts"`
		} `json:"user"`
	}
	require.Empty(t, api.exec("", `query { user(username: "u1") { posts { title } } }`, nil, &user))
	require.Len(t, user.User.Posts, 1)
	assert.Equal(t, "Hello", user.User.Posts[0].Title)

	errs := api.exec("", `query { posts(first: -1) { id } }`, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "INVALID_ARGUMENT", errs[0].Extensions["code"])
}

func TestAPI_TokenLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp("carol")

	var me struct {
		Me struct {
			Username string `json:"username"`
		} `json:"me"`
	}
	require.Empty(t, api.exec(token, `query { me { username } }`, nil, &me))
	assert.Equal(t, "carol", me.Me.Username)

	var logged struct {
		LoggedUser struct {
			Username string `json:"username"`
		} `json:"loggedUser"`
	}
	require.Empty(t, api.exec(token, `query { loggedUser { username } }`, nil, &logged))
	assert.Equal(t, "carol", logged.LoggedUser.Username)

	var login struct {
		LoginUser struct {
			Success bool    `json:"success"`
			Token   *string `json:"token"`
		} `json:"loginUser"`
	}
	require.Empty(t, api.exec("", `mutation { loginUser(username: "carol", password: "pass-123") { success token } }`, nil, &login))
	assert.True(t, login.LoginUser.Success)
	assert.NotNil(t, login.LoginUser.Token)

	var verified struct {
		VerifyToken struct {
			Success bool `json:"success"`
			User    struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"verifyToken"`
	}
	require.Empty(t, api.exec("", `mutation($t: String!) { verifyToken(token: $t) { success user { username } } }`,
		map[string]interface{}{"t": token}, &verified))
	assert.True(t, verified.VerifyToken.Success)
	assert.Equal(t, "carol", verified.VerifyToken.User.Username)

	var wrong struct {
		TokenAuth struct {
			Success bool          `json:"success"`
			Error   *payloadError `json:"error"`
		} `json:"tokenAuth"`
	}
	require.Empty(t, api.exec("", `mutation { tokenAuth(username: "carol", password: "nope") { success error { code } } }`, nil, &wrong))
	assert.False(t, wrong.TokenAuth.Success)
	require.NotNil(t, wrong.TokenAuth.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", wrong.TokenAuth.Error.Code)

	var taken struct {
		CreateUser struct {
			Error *payloadError `json:"error"`
		} `json:"createUser"`
	}
	require.Empty(t, api.exec("", `mutation {
		createUser(username: "carol", password: "x", email: "c@example.com", firstName: "C") { error { code } }
	}`, nil, &taken))
	require.NotNil(t, taken.CreateUser.Error)
	assert.Equal(t, "USERNAME_TAKEN", taken.CreateUser.Error.Code)
}

func TestAPI_SequentialMutationsSeeFreshCounters(t *testing.T) {
	api := newTestAPI(t)
	author := api.signUp("author")
	reader := api.signUp("reader")
	postID := api.createPost(author, "Hello", "World")

	var reacted struct {
		A struct {
			Interaction struct {
				Post struct {
					InteractionsCount int `json:"interactionsCount"`
				} `json:"post"`
			} `json:"interaction"`
		} `json:"a"`
		B struct {
			Interaction struct {
				Post struct {
					InteractionsCount int `json:"interactionsCount"`
				} `json:"post"`
			} `json:"interaction"`
		} `json:"b"`
	}
	require.Empty(t, api.exec(reader, `mutation($p: ID!) {
		a: addInteraction(postId: $p, interactionType: LOVE) { interaction { post { interactionsCount } } }
		b: addInteraction(postId: $p, interactionType: WOW) { interaction { post { interactionsCount } } }
	}`, map[string]interface{}{"p": postID}, &reacted))
	assert.Equal(t, 1, reacted.A.Interaction.Post.InteractionsCount)
	assert.Equal(t, 2, reacted.B.Interaction.Post.InteractionsCount)
	assert.Equal(t, 2, api.interactionsCount(postID))

	var commented struct {
		A struct {
			Comment struct {
				Post struct {
					CommentsCount int `json:"commentsCount"`
				} `json:"post"`
			} `json:"comment"`
		} `json:"a"`
		B struct {
			Comment struct {
				Post struct {
					CommentsCount int `json:"commentsCount"`
				} `json:"post"`
			} `json:"comment"`
		} `json:"b"`
	}
	require.Empty(t, api.exec(reader, `mutation($p: ID!) {
		a: createComment(postId: $p, content: "first") { comment { post { commentsCount } } }
		b: createComment(postId: $p, content: "second") { comment { post { commentsCount } } }
	}`, map[string]interface{}{"p": postID}, &commented))
	assert.Equal(t, 1, commented.A.Comment.Post.CommentsCount)
	assert.Equal(t, 2, commented.B.Comment.Post.CommentsCount)
}
