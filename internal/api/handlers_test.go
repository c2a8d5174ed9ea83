package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/aggregator"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/cache"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/httpclient"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/sources"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router    http.Handler
	store     storage.Store
	upstream  *httptest.Server
	apiCalls  *int32
	videoBody string
}

// newFixture wires the real pipeline end to end: handlers over aggregator,
// cache, adapters, retrying client and a fake Data API upstream.
func newFixture(t *testing.T, apiKey, videoBody string) *fixture {
	t.Helper()

	f := &fixture{videoBody: videoBody, apiCalls: new(int32)}

	f.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/videos":
			atomic.AddInt32(f.apiCalls, 1)
			w.Write([]byte(f.videoBody))
		case "/liveChat/messages":
			w.Write([]byte(`{"items": [{"snippet": {"displayMessage": "hola", "publishedAt": "ts1"}, "authorDetails": {"displayName": "ana"}}]}`))
		default:
			w.WriteHeader(404)
		}
	}))
	t.Cleanup(f.upstream.Close)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	f.store = store

	cfg := &config.Config{
		YouTubeAPIKey:   apiKey,
		YouTubeAPIBase:  f.upstream.URL,
		SnapshotDefault: "live_data1.json",
		YouTubeTTL:      time.Minute,
		TikTokTTL:       time.Minute,
		NegativeTTL:     time.Second,
		HistoryCapacity: 10,
	}

	client := httpclient.New(5*time.Second, 1, 10*time.Millisecond)
	service := aggregator.NewService(cfg, cache.New(),
		sources.NewYouTubeSource(cfg.YouTubeAPIKey, cfg.YouTubeAPIBase, client),
		sources.NewTikTokSource(store, cfg.SnapshotDefault, "", client),
	)

	f.router = NewHandlers(cfg, service).Router()
	return f
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

const liveBody = `{
	"items": [{
		"statistics": {"viewCount": "15000", "likeCount": "320"},
		"liveStreamingDetails": {"concurrentViewers": "812", "activeLiveChatId": "chat-1"}
	}]
}`

func TestHealth(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	rec, body := f.get(t, "/health")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestLiveData_MissingAPIKey(t *testing.T) {
	f := newFixture(t, "", liveBody)
	rec, body := f.get(t, "/live-data?video=abc123XYZ_-")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "Falta YOUTUBE_API_KEY en .env", body["error"])
}

func TestLiveData_EmptyInput(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	rec, body := f.get(t, "/live-data")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "Pega una URL o ID válido de YouTube.", body["warning"])
	assert.Empty(t, body["items"])
}

func TestLiveData_LiveVideo(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	rec, body := f.get(t, "/live-data?video=https%3A%2F%2Fyoutu.be%2Fabc123XYZ_-")

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "abc123XYZ_-", body["videoId"])

	stats := body["statistics"].(map[string]interface{})
	assert.Equal(t, float64(15000), stats["viewCount"])
	assert.Equal(t, float64(320), stats["likeCount"])
	assert.Equal(t, float64(812), stats["concurrentViewers"])

	assert.Equal(t, float64(1), body["liveCommentCount"])
	comentarios := body["comentarios"].([]interface{})
	require.Len(t, comentarios, 1)
	first := comentarios[0].(map[string]interface{})
	assert.Equal(t, "ana", first["autor"])
	assert.Equal(t, "hola", first["mensaje"])
}

func TestLiveData_VideoNotFoundIsWarningNot5xx(t *testing.T) {
	f := newFixture(t, "key", `{"items": []}`)
	rec, body := f.get(t, "/live-data?video=abc123XYZ_-")

	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, body["items"])
	assert.Contains(t, body["warning"], "no devolvió información")
	assert.NotContains(t, body, "error")
}

func TestLiveData_CacheHitSkipsUpstream(t *testing.T) {
	f := newFixture(t, "key", liveBody)

	f.get(t, "/live-data?video=abc123XYZ_-")
	f.get(t, "/live-data?video=abc123XYZ_-")
	// Different spelling of the same video still hits the cache.
	f.get(t, "/live-data?video=https%3A%2F%2Fyoutu.be%2Fabc123XYZ_-")

	assert.Equal(t, int32(1), atomic.LoadInt32(f.apiCalls))
}

func TestTikTokStats_NoDataNoFallback(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	rec, body := f.get(t, "/tiktok-stats?user=alice&fallback=false")

	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, body["items"])
	assert.Equal(t, "No hay datos para @alice. Ejecuta el capturador Node para ese usuario.", body["error"])
}

func TestTikTokStats_UserSnapshot(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	require.NoError(t, f.store.Store("live_alice.json",
		[]byte(`{"username":"alice","likes":42,"comments":7,"viewers":3,"diamonds":9,"shares":1,"gifts":[{"user":"fan","gift":"Rose","amount":1,"diamonds":1,"ts":""}]}`)))

	rec, body := f.get(t, "/tiktok-stats?user=alice")

	assert.Equal(t, 200, rec.Code)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "TikTok", item["platform"])

	stats := item["statistics"].(map[string]interface{})
	assert.Equal(t, "alice", stats["username"])
	assert.Equal(t, float64(42), stats["likes"])
	assert.Equal(t, float64(7), stats["comments"])
	assert.Equal(t, float64(3), stats["viewers"])
	assert.Equal(t, float64(9), stats["diamonds"])
	assert.Equal(t, float64(1), stats["giftsCount"])

	gifts := item["gifts"].([]interface{})
	require.Len(t, gifts, 1)
}

func TestTikTokStats_DefaultSnapshot(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	require.NoError(t, f.store.Store("live_data1.json",
		[]byte(`{"username":"defaultuser","likes":5,"viewers":2}`)))

	rec, body := f.get(t, "/tiktok-stats")

	assert.Equal(t, 200, rec.Code)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	stats := items[0].(map[string]interface{})["statistics"].(map[string]interface{})
	assert.Equal(t, "defaultuser", stats["username"])
}

func TestTikTokStats_FallbackSubstitutionIsWarned(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	require.NoError(t, f.store.Store("live_data1.json",
		[]byte(`{"username":"otheruser","likes":5}`)))

	rec, body := f.get(t, "/tiktok-stats?user=bob&fallback=true")

	assert.Equal(t, 200, rec.Code)
	assert.NotEmpty(t, body["items"])
	assert.Contains(t, body["warning"], "live_data1.json")
}

func TestCompare_SideBySide(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	require.NoError(t, f.store.Store("live_alice.json", []byte("{broken")))

	_, body := f.get(t, "/compare?video=abc123XYZ_-&user=alice")
	items := body["items"].([]interface{})
	require.Len(t, items, 2)

	first := items[0].(map[string]interface{})
	second := items[1].(map[string]interface{})
	assert.Equal(t, "youtube", first["platform"])
	assert.Equal(t, "tiktok", second["platform"])
	// A broken TikTok snapshot must not suppress the YouTube record.
	assert.Equal(t, "ok", first["status"])
	assert.Equal(t, "upstream_error", second["status"])
}

func TestCompare_RequiresAParameter(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	rec, body := f.get(t, "/compare")

	assert.Equal(t, 400, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestHistory_BadPlatform(t *testing.T) {
	f := newFixture(t, "key", liveBody)
	rec, _ := f.get(t, "/history?platform=twitch&id=x")
	assert.Equal(t, 400, rec.Code)
}

func TestHistory_AfterFetches(t *testing.T) {
	f := newFixture(t, "key", liveBody)

	f.get(t, "/live-data?video=abc123XYZ_-")
	_, body := f.get(t, "/history?platform=youtube&id=abc123XYZ_-")

	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	sample := items[0].(map[string]interface{})
	assert.Equal(t, float64(812), sample["concurrent_viewers"])
}

func TestMetrics_Counters(t *testing.T) {
	f := newFixture(t, "key", liveBody)

	f.get(t, "/live-data?video=abc123XYZ_-")
	f.get(t, "/live-data?video=abc123XYZ_-")
	_, body := f.get(t, "/metrics")

	assert.Equal(t, float64(2), body["requests"])
	assert.Equal(t, float64(1), body["cache_hits"])
}
