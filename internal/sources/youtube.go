package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/httpclient"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/sirupsen/logrus"
)

// YouTubeSource implements the YouTube Data API metrics adapter.
type YouTubeSource struct {
	apiKey  string
	apiBase string
	client  *httpclient.Client
}

type youTubeVideosResponse struct {
	Items []youTubeVideo `json:"items"`
}

type youTubeVideo struct {
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount flexInt `json:"viewCount"`
		LikeCount flexInt `json:"likeCount"`
	} `json:"statistics"`
	LiveStreamingDetails *struct {
		ConcurrentViewers flexInt `json:"concurrentViewers"`
		ActiveLiveChatID  string  `json:"activeLiveChatId"`
		ActualStartTime   string  `json:"actualStartTime"`
		ActualEndTime     string  `json:"actualEndTime"`
	} `json:"liveStreamingDetails"`
}

type youTubeChatResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			DisplayMessage string `json:"displayMessage"`
			PublishedAt    string `json:"publishedAt"`
		} `json:"snippet"`
		AuthorDetails struct {
			DisplayName string `json:"displayName"`
		} `json:"authorDetails"`
	} `json:"items"`
}

// NewYouTubeSource creates a new YouTube metrics adapter.
func NewYouTubeSource(apiKey, apiBase string, client *httpclient.Client) *YouTubeSource {
	return &YouTubeSource{
		apiKey:  apiKey,
		apiBase: apiBase,
		client:  client,
	}
}

func (y *YouTubeSource) GetName() string {
	return "youtube"
}

func (y *YouTubeSource) Platform() models.Platform {
	return models.PlatformYouTube
}

func (y *YouTubeSource) IsEnabled() bool {
	return y.apiKey != ""
}

// Fetch retrieves the video details and, when the stream has an active live
// chat, its most recent chat window. Every failure mode collapses into the
// record's Status; chat-endpoint failures in particular leave the record
// status untouched and only zero the comment count.
func (y *YouTubeSource) Fetch(ctx context.Context, videoID string) *models.MetricsRecord {
	if !y.IsEnabled() {
		return models.ErrorRecord(models.PlatformYouTube, videoID,
			models.StatusUpstreamError, "Falta YOUTUBE_API_KEY en .env")
	}

	resp, err := y.client.Get(ctx, y.apiBase+"/videos", map[string]string{
		"part": "snippet,liveStreamingDetails,statistics",
		"id":   videoID,
		"key":  y.apiKey,
	})
	if err != nil {
		logrus.Errorf("YouTube videos call failed for %s: %v", videoID, err)
		return models.ErrorRecord(models.PlatformYouTube, videoID,
			models.StatusUpstreamError, "No se pudo contactar al Data API")
	}

	if resp.StatusCode != 200 {
		return models.ErrorRecord(models.PlatformYouTube, videoID,
			models.StatusUpstreamError,
			fmt.Sprintf("No se pudo obtener datos del video (%d)", resp.StatusCode))
	}

	var details youTubeVideosResponse
	if err := json.Unmarshal(resp.Body, &details); err != nil {
		logrus.Debugf("Unparseable videos payload for %s: %v", videoID, err)
		// Same outcome as an empty result list, per the original behavior.
	}

	if len(details.Items) == 0 {
		return models.ErrorRecord(models.PlatformYouTube, videoID,
			models.StatusNotFound,
			"El Data API no devolvió información para este video (¿privado/restringido/solo miembros?).")
	}

	item := details.Items[0]

	record := &models.MetricsRecord{
		Platform:  models.PlatformYouTube,
		StreamID:  videoID,
		ViewCount: item.Statistics.ViewCount.Int64(0),
		LikeCount: item.Statistics.LikeCount.Int64(0),
		FetchedAt: time.Now(),
		Status:    models.StatusOK,
	}

	chatID := ""
	if live := item.LiveStreamingDetails; live != nil {
		record.ConcurrentViewers = live.ConcurrentViewers.Int64(0)
		chatID = live.ActiveLiveChatID
	}

	if chatID == "" && record.ConcurrentViewers == 0 {
		record.Status = models.StatusNotLive
		record.Reason = "El video no está en vivo en este momento."
		return record
	}

	if chatID != "" {
		messages := y.fetchChat(ctx, chatID)
		record.ChatMessages = messages
		record.CommentCount = int64(len(messages))
	}

	return record
}

// fetchChat reads the most recent live chat window. Each poll is independent:
// no continuation token is persisted across requests, so windows can overlap
// or miss messages between polls. Any failure here means zero messages, not a
// failed record.
func (y *YouTubeSource) fetchChat(ctx context.Context, chatID string) []models.ChatMessage {
	resp, err := y.client.Get(ctx, y.apiBase+"/liveChat/messages", map[string]string{
		"liveChatId": chatID,
		"part":       "snippet,authorDetails",
		"maxResults": "200",
		"key":        y.apiKey,
	})
	if err != nil {
		logrus.Errorf("Live chat call failed for %s: %v", chatID, err)
		return nil
	}

	if resp.StatusCode != 200 {
		logrus.Debugf("Live chat endpoint returned %d for %s", resp.StatusCode, chatID)
		return nil
	}

	var chat youTubeChatResponse
	if err := json.Unmarshal(resp.Body, &chat); err != nil {
		logrus.Debugf("Unparseable live chat payload for %s: %v", chatID, err)
		return nil
	}

	var messages []models.ChatMessage
	for _, it := range chat.Items {
		messages = append(messages, models.ChatMessage{
			Author:      it.AuthorDetails.DisplayName,
			Message:     it.Snippet.DisplayMessage,
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return messages
}
