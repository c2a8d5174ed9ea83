package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/httpclient"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/stretchr/testify/assert"
)

func testClient() *httpclient.Client {
	return httpclient.New(5*time.Second, 1, 10*time.Millisecond)
}

const liveVideoBody = `{
	"items": [{
		"snippet": {"title": "Noticias en vivo", "channelTitle": "El Deber"},
		"statistics": {"viewCount": "15000", "likeCount": "320"},
		"liveStreamingDetails": {
			"concurrentViewers": "812",
			"activeLiveChatId": "chat-1",
			"actualStartTime": "2024-05-01T12:00:00Z"
		}
	}]
}`

const chatBody = `{
	"items": [
		{"snippet": {"displayMessage": "hola", "publishedAt": "2024-05-01T12:01:00Z"},
		 "authorDetails": {"displayName": "ana"}},
		{"snippet": {"displayMessage": "buenas", "publishedAt": "2024-05-01T12:01:05Z"},
		 "authorDetails": {"displayName": "luis"}}
	]
}`

func newYouTubeServer(t *testing.T, videosBody string, videosStatus int, chatBody string, chatStatus int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos":
			assert.Equal(t, "snippet,liveStreamingDetails,statistics", r.URL.Query().Get("part"))
			w.WriteHeader(videosStatus)
			w.Write([]byte(videosBody))
		case "/liveChat/messages":
			assert.Equal(t, "200", r.URL.Query().Get("maxResults"))
			w.WriteHeader(chatStatus)
			w.Write([]byte(chatBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestYouTubeSource_GetName(t *testing.T) {
	source := NewYouTubeSource("key", "http://example", testClient())
	assert.Equal(t, "youtube", source.GetName())
	assert.Equal(t, models.PlatformYouTube, source.Platform())
}

func TestYouTubeSource_IsEnabled(t *testing.T) {
	assert.True(t, NewYouTubeSource("key", "http://example", testClient()).IsEnabled())
	assert.False(t, NewYouTubeSource("", "http://example", testClient()).IsEnabled())
}

func TestYouTubeSource_FetchLiveVideo(t *testing.T) {
	server := newYouTubeServer(t, liveVideoBody, 200, chatBody, 200)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusOK, record.Status)
	assert.Equal(t, "abc123XYZ_-", record.StreamID)
	assert.Equal(t, int64(15000), record.ViewCount)
	assert.Equal(t, int64(320), record.LikeCount)
	assert.Equal(t, int64(812), record.ConcurrentViewers)
	assert.Equal(t, int64(2), record.CommentCount)
	assert.Len(t, record.ChatMessages, 2)
	assert.Equal(t, "ana", record.ChatMessages[0].Author)
	assert.Equal(t, "hola", record.ChatMessages[0].Message)
}

func TestYouTubeSource_MissingLikeCountCoercesToZero(t *testing.T) {
	body := `{
		"items": [{
			"statistics": {"viewCount": "100"},
			"liveStreamingDetails": {"concurrentViewers": "5"}
		}]
	}`
	server := newYouTubeServer(t, body, 200, "{}", 200)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusOK, record.Status)
	assert.Equal(t, int64(100), record.ViewCount)
	assert.Equal(t, int64(0), record.LikeCount)
}

func TestYouTubeSource_EmptyItemsIsNotFound(t *testing.T) {
	server := newYouTubeServer(t, `{"items": []}`, 200, "", 200)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusNotFound, record.Status)
	assert.Zero(t, record.ViewCount)
	assert.Zero(t, record.LikeCount)
	assert.Zero(t, record.ConcurrentViewers)
	assert.Zero(t, record.CommentCount)
	assert.Contains(t, record.Reason, "no devolvió información")
}

func TestYouTubeSource_UpstreamRejection(t *testing.T) {
	server := newYouTubeServer(t, `{"error": {"code": 403}}`, 403, "", 200)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusUpstreamError, record.Status)
	assert.Contains(t, record.Reason, "403")
}

func TestYouTubeSource_UnparseableBodyIsNotFound(t *testing.T) {
	server := newYouTubeServer(t, "<html>quota exceeded</html>", 200, "", 200)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusNotFound, record.Status)
}

func TestYouTubeSource_NotLiveWithoutChatOrViewers(t *testing.T) {
	body := `{
		"items": [{
			"statistics": {"viewCount": "9000", "likeCount": "50"}
		}]
	}`
	server := newYouTubeServer(t, body, 200, "", 200)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusNotLive, record.Status)
	// Lifetime counts survive; only live fields are zero.
	assert.Equal(t, int64(9000), record.ViewCount)
	assert.Equal(t, int64(50), record.LikeCount)
	assert.Zero(t, record.ConcurrentViewers)
}

func TestYouTubeSource_ChatFailureDoesNotFailRecord(t *testing.T) {
	server := newYouTubeServer(t, liveVideoBody, 200, `{"error": "disabled"}`, 403)
	defer server.Close()

	source := NewYouTubeSource("key", server.URL, testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusOK, record.Status)
	assert.Equal(t, int64(812), record.ConcurrentViewers)
	assert.Zero(t, record.CommentCount)
	assert.Empty(t, record.ChatMessages)
}

func TestYouTubeSource_MissingAPIKey(t *testing.T) {
	source := NewYouTubeSource("", "http://example", testClient())
	record := source.Fetch(context.Background(), "abc123XYZ_-")

	assert.Equal(t, models.StatusUpstreamError, record.Status)
	assert.Contains(t, record.Reason, "YOUTUBE_API_KEY")
}
