package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/httpclient"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/storage"
	"github.com/sirupsen/logrus"
)

// TikTokSource reads live session metrics captured by the external Node
// process. Two strategies produce the same record shape: a per-user snapshot
// document in the configured store (live_<user>.json), or a remote public
// snapshot URL fetched with a cache-busting query parameter.
type TikTokSource struct {
	store       storage.Store
	defaultFile string
	statsURL    string
	client      *httpclient.Client
}

// tikTokSnapshot mirrors the capture file. The remote document may wrap the
// same fields in items[0].statistics, so both shapes decode through here.
type tikTokSnapshot struct {
	Username string       `json:"username"`
	Likes    flexInt      `json:"likes"`
	Comments flexInt      `json:"comments"`
	Viewers  flexInt      `json:"viewers"`
	Diamonds flexInt      `json:"diamonds"`
	Shares   flexInt      `json:"shares"`
	Gifts    []tikTokGift `json:"gifts"`
}

type tikTokGift struct {
	User     string  `json:"user"`
	Gift     string  `json:"gift"`
	Amount   flexInt `json:"amount"`
	Diamonds flexInt `json:"diamonds"`
	TS       string  `json:"ts"`
}

type tikTokRemoteDocument struct {
	tikTokSnapshot
	Items []struct {
		Statistics tikTokSnapshot `json:"statistics"`
		Gifts      []tikTokGift   `json:"gifts"`
	} `json:"items"`
}

// NewTikTokSource creates a new TikTok metrics adapter. statsURL is optional;
// when set it takes precedence over the snapshot store.
func NewTikTokSource(store storage.Store, defaultFile, statsURL string, client *httpclient.Client) *TikTokSource {
	return &TikTokSource{
		store:       store,
		defaultFile: defaultFile,
		statsURL:    statsURL,
		client:      client,
	}
}

func (t *TikTokSource) GetName() string {
	return "tiktok"
}

func (t *TikTokSource) Platform() models.Platform {
	return models.PlatformTikTok
}

func (t *TikTokSource) IsEnabled() bool {
	return t.store != nil || t.statsURL != ""
}

// Fetch retrieves metrics for a user with the default fallback behavior
// (substituting the default snapshot when no per-user file exists).
func (t *TikTokSource) Fetch(ctx context.Context, user string) *models.MetricsRecord {
	return t.FetchUser(ctx, user, true)
}

// FetchUser retrieves metrics for a user. With fallback enabled, a missing
// per-user snapshot falls back to the default snapshot file, which may be a
// different user's previous session; the substituted filename is surfaced in
// the record Reason so the dashboard can tell. With fallback disabled the
// caller gets a not-found scoped to that user instead.
func (t *TikTokSource) FetchUser(ctx context.Context, user string, fallback bool) *models.MetricsRecord {
	if t.statsURL != "" {
		return t.fetchRemote(ctx, user)
	}
	return t.fetchLocal(user, fallback)
}

func (t *TikTokSource) fetchLocal(user string, fallback bool) *models.MetricsRecord {
	filename := t.defaultFile
	substituted := false

	var data []byte
	var err error

	if user != "" {
		primary := fmt.Sprintf("live_%s.json", user)
		data, err = t.store.Retrieve(primary)
		if err == nil {
			filename = primary
		} else if !errors.Is(err, os.ErrNotExist) {
			return models.ErrorRecord(models.PlatformTikTok, user,
				models.StatusUpstreamError, fmt.Sprintf("No se pudo leer %s: %v", primary, err))
		} else if fallback {
			substituted = true
		} else {
			return models.ErrorRecord(models.PlatformTikTok, user,
				models.StatusNotFound,
				fmt.Sprintf("No hay datos para @%s. Ejecuta el capturador Node para ese usuario.", user))
		}
	}

	if data == nil {
		data, err = t.store.Retrieve(filename)
	}
	if err != nil && data == nil {
		if errors.Is(err, os.ErrNotExist) {
			if user != "" {
				return models.ErrorRecord(models.PlatformTikTok, user,
					models.StatusNotFound,
					fmt.Sprintf("No hay datos para @%s (y tampoco %s).", user, t.defaultFile))
			}
			return models.ErrorRecord(models.PlatformTikTok, user,
				models.StatusNotFound,
				fmt.Sprintf("No se encontró %s. Ejecuta el capturador.", t.defaultFile))
		}
		return models.ErrorRecord(models.PlatformTikTok, user,
			models.StatusUpstreamError, fmt.Sprintf("No se pudo leer %s: %v", filename, err))
	}

	var snap tikTokSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.ErrorRecord(models.PlatformTikTok, user,
			models.StatusUpstreamError, fmt.Sprintf("No se pudo leer JSON: %v", err))
	}

	record := t.buildRecord(user, &snap)
	if substituted {
		logrus.Debugf("No snapshot for @%s, serving default %s", user, filename)
		record.Reason = fmt.Sprintf("Sin datos de @%s; mostrando %s.", user, filename)
	}
	return record
}

// fetchRemote pulls the public snapshot document. The cb parameter defeats
// intermediary caches that would otherwise serve a stale document between
// polls.
func (t *TikTokSource) fetchRemote(ctx context.Context, user string) *models.MetricsRecord {
	resp, err := t.client.Get(ctx, t.statsURL, map[string]string{
		"cb": strconv.FormatInt(time.Now().UnixNano(), 10),
	})
	if err != nil {
		logrus.Errorf("Remote snapshot fetch failed: %v", err)
		return models.ErrorRecord(models.PlatformTikTok, user,
			models.StatusUpstreamError, "No se pudo contactar el snapshot remoto")
	}

	if resp.StatusCode != 200 {
		return models.ErrorRecord(models.PlatformTikTok, user,
			models.StatusUpstreamError,
			fmt.Sprintf("Snapshot remoto respondió %d", resp.StatusCode))
	}

	var doc tikTokRemoteDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return models.ErrorRecord(models.PlatformTikTok, user,
			models.StatusUpstreamError, fmt.Sprintf("No se pudo leer JSON: %v", err))
	}

	snap := doc.tikTokSnapshot
	if len(doc.Items) > 0 {
		snap = doc.Items[0].Statistics
		if len(snap.Gifts) == 0 {
			snap.Gifts = doc.Items[0].Gifts
		}
	}

	return t.buildRecord(user, &snap)
}

func (t *TikTokSource) buildRecord(user string, snap *tikTokSnapshot) *models.MetricsRecord {
	streamID := user
	if streamID == "" {
		streamID = snap.Username
	}

	var gifts []models.Gift
	for _, g := range snap.Gifts {
		gifts = append(gifts, models.Gift{
			User:     g.User,
			Gift:     g.Gift,
			Amount:   g.Amount.Int64(1),
			Diamonds: g.Diamonds.Int64(0),
			TS:       g.TS,
		})
	}

	return &models.MetricsRecord{
		Platform:          models.PlatformTikTok,
		StreamID:          streamID,
		LikeCount:         snap.Likes.Int64(0),
		ConcurrentViewers: snap.Viewers.Int64(0),
		CommentCount:      snap.Comments.Int64(0),
		Extra: map[string]int64{
			"diamonds":   snap.Diamonds.Int64(0),
			"shares":     snap.Shares.Int64(0),
			"giftsCount": int64(len(gifts)),
		},
		FetchedAt: time.Now(),
		Status:    models.StatusOK,
		Gifts:     gifts,
	}
}
