// Package api exposes the aggregation core to the dashboard. Every upstream
// hiccup comes back as HTTP 200 with an error or warning string in the JSON
// body; the dashboard never sees a status page or a trace for something that
// will fix itself on the next poll.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/aggregator"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handlers carries the route handlers' dependencies.
type Handlers struct {
	config  *config.Config
	service *aggregator.Service
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, service *aggregator.Service) *Handlers {
	return &Handlers{config: cfg, service: service}
}

// Router builds the service's route table.
func (h *Handlers) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/live-data", h.LiveData).Methods("GET")
	router.HandleFunc("/tiktok-stats", h.TikTokStats).Methods("GET")
	router.HandleFunc("/compare", h.Compare).Methods("GET")
	router.HandleFunc("/history", h.History).Methods("GET")
	router.HandleFunc("/metrics", h.Metrics).Methods("GET")
	return router
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LiveData serves YouTube live metrics for a raw URL or video ID.
func (h *Handlers) LiveData(w http.ResponseWriter, r *http.Request) {
	if h.config.YouTubeAPIKey == "" {
		writeJSON(w, http.StatusOK, map[string]string{"error": "Falta YOUTUBE_API_KEY en .env"})
		return
	}

	video := strings.TrimSpace(r.URL.Query().Get("video"))
	if video == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":   []interface{}{},
			"warning": "Pega una URL o ID válido de YouTube.",
		})
		return
	}

	record := h.service.GetMetrics(r.Context(), models.PlatformYouTube, video)

	switch record.Status {
	case models.StatusNotFound:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":   []interface{}{},
			"warning": record.Reason,
		})
		return
	case models.StatusUpstreamError:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []interface{}{},
			"error": record.Reason,
		})
		return
	}

	comentarios := record.ChatMessages
	if comentarios == nil {
		comentarios = []models.ChatMessage{}
	}

	body := map[string]interface{}{
		"videoId": record.StreamID,
		"statistics": map[string]int64{
			"viewCount":         record.ViewCount,
			"likeCount":         record.LikeCount,
			"concurrentViewers": record.ConcurrentViewers,
			"liveCommentCount":  record.CommentCount,
		},
		"liveCommentCount": record.CommentCount,
		"comentarios":      comentarios,
	}
	if record.Status == models.StatusNotLive {
		body["warning"] = record.Reason
	}
	writeJSON(w, http.StatusOK, body)
}

// TikTokStats serves TikTok live session metrics from the captured snapshot.
// fallback=false disables substituting the default snapshot for an unmatched
// user.
func (h *Handlers) TikTokStats(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))

	fallback := true
	if raw := r.URL.Query().Get("fallback"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			fallback = parsed
		}
	}

	// An absent user still serves the default snapshot.
	var record *models.MetricsRecord
	if user == "" {
		record = h.service.GetTikTokDefault(r.Context())
	} else {
		record = h.service.GetTikTokStats(r.Context(), user, fallback)
	}

	if !record.IsOK() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []interface{}{},
			"error": record.Reason,
		})
		return
	}

	gifts := record.Gifts
	if gifts == nil {
		gifts = []models.Gift{}
	}

	body := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{
				"platform": "TikTok",
				"statistics": map[string]interface{}{
					"username":   record.StreamID,
					"likes":      record.LikeCount,
					"comments":   record.CommentCount,
					"viewers":    record.ConcurrentViewers,
					"diamonds":   record.Extra["diamonds"],
					"shares":     record.Extra["shares"],
					"giftsCount": record.Extra["giftsCount"],
				},
				"gifts": gifts,
			},
		},
	}
	if record.Reason != "" {
		body["warning"] = record.Reason
	}
	writeJSON(w, http.StatusOK, body)
}

// Compare serves a side-by-side view of both platforms' records.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	identifiers := make(map[models.Platform]string)
	if video := strings.TrimSpace(r.URL.Query().Get("video")); video != "" {
		identifiers[models.PlatformYouTube] = video
	}
	if user := strings.TrimSpace(r.URL.Query().Get("user")); user != "" {
		identifiers[models.PlatformTikTok] = user
	}

	if len(identifiers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Indica al menos un parámetro: video o user.",
		})
		return
	}

	records := h.service.Compare(r.Context(), identifiers)
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": records})
}

// History serves the rolling sample buffer for one stream.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	platform := models.Platform(strings.TrimSpace(r.URL.Query().Get("platform")))
	id := strings.TrimSpace(r.URL.Query().Get("id"))

	if platform != models.PlatformYouTube && platform != models.PlatformTikTok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Parámetro platform debe ser youtube o tiktok.",
		})
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Falta el parámetro id.",
		})
		return
	}

	samples := h.service.History(platform, id)
	if samples == nil {
		samples = []models.StreamSample{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": samples})
}

// Metrics serves the service's own counters.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetStats())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
