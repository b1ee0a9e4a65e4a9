package server

import (
	"net/http"
	"strconv"
	"testing"

	"moneyshelf/internal/models"
	"moneyshelf/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedHandlers(t *testing.T) {
	env := newTestEnv(t)
	authorToken, _ := env.register(t, "author")
	readerToken, _ := env.register(t, "reader")

	resp, _ := env.do(t, http.MethodPost, "/api/posts", fiber.Map{"title": "t", "content": "c"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/posts", fiber.Map{"title": " ", "content": "c"}, authorToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/posts", fiber.Map{
		"title": "積立を始めた", "content": "毎月3万円",
	}, authorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	post := decode[models.Post](t, body)
	assert.Equal(t, "author", post.User.Username)
	postPath := "/api/posts/" + strconv.Itoa(int(post.ID))

	resp, body = env.do(t, http.MethodPost, postPath+"/like", nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.LikeResult{Liked: true, LikeCount: 1}, decode[service.LikeResult](t, body))

	resp, body = env.do(t, http.MethodPost, postPath+"/comments", fiber.Map{"content": "いいですね"}, readerToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comments := decode[[]models.Comment](t, body)
	require.Len(t, comments, 1)
	assert.Equal(t, "reader", comments[0].User.Username)

	resp, _ = env.do(t, http.MethodPost, postPath+"/comments", fiber.Map{"content": ""}, readerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, postPath+"/repost", nil, readerToken)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Anonymous readers see counts but never a liked flag.
	resp, body = env.do(t, http.MethodGet, "/api/feed", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[[]models.Post](t, body)
	require.Len(t, feed, 1)
	assert.False(t, feed[0].Liked)
	assert.Equal(t, int64(1), feed[0].LikesCount)
	assert.Equal(t, int64(1), feed[0].CommentsCount)
	assert.Equal(t, int64(1), feed[0].RepostsCount)

	resp, body = env.do(t, http.MethodGet, postPath, nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[models.Post](t, body)
	assert.True(t, detail.Liked)
	require.Len(t, detail.Comments, 1)

	resp, body = env.do(t, http.MethodPost, postPath+"/like", nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.LikeResult{Liked: false, LikeCount: 0}, decode[service.LikeResult](t, body))
}

func TestFeedHandlers_BadIDs(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "someone")

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/posts/abc", http.StatusBadRequest},
		{http.MethodGet, "/api/posts/0", http.StatusBadRequest},
		{http.MethodGet, "/api/posts/404", http.StatusNotFound},
		{http.MethodPost, "/api/posts/404/like", http.StatusNotFound},
		{http.MethodPost, "/api/posts/404/repost", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, _ := env.do(t, tt.method, tt.path, nil, token)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestFeedHandlers_RevokedTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	authorToken, _ := env.register(t, "writer")
	readerToken, _ := env.register(t, "liker")

	resp, body := env.do(t, http.MethodPost, "/api/posts", fiber.Map{"title": "t", "content": "c"}, authorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	postPath := "/api/posts/" + strconv.Itoa(int(decode[models.Post](t, body).ID))

	resp, _ = env.do(t, http.MethodPost, postPath+"/like", nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, postPath, nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[models.Post](t, body).Liked)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/logout", nil, readerToken)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, postPath, nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[models.Post](t, body).Liked)

	resp, body = env.do(t, http.MethodGet, "/api/feed", nil, readerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[[]models.Post](t, body)
	require.Len(t, feed, 1)
	assert.False(t, feed[0].Liked)
}

func TestFeedHandlers_PlainTextRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "quoter")

	resp, body := env.do(t, http.MethodPost, "/api/posts", fiber.Map{
		"title": `Tom's "A&B"`, "content": "1 < 2 & it's fine",
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	post := decode[models.Post](t, body)
	assert.Equal(t, `Tom's "A&B"`, post.Title)
	assert.Equal(t, "1 < 2 & it's fine", post.Content)

	resp, body = env.do(t, http.MethodPost, "/api/posts/"+strconv.Itoa(int(post.ID))+"/comments",
		fiber.Map{"content": "Q&A <b>isn't</b> over"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	comments := decode[[]models.Comment](t, body)
	require.Len(t, comments, 1)
	assert.Equal(t, "Q&A isn't over", comments[0].Content)
}
