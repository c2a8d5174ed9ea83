// Package normalize turns free-form user input (URLs of several shapes or
// bare platform IDs) into canonical stream identifiers.
package normalize

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
)

// ErrEmptyIdentifier is returned when the input is blank after trimming.
var ErrEmptyIdentifier = errors.New("empty identifier")

// ErrUnknownPlatform is returned for a platform the normalizer does not know.
var ErrUnknownPlatform = errors.New("unknown platform")

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoIDRescue  = regexp.MustCompile(`v=([A-Za-z0-9_-]{11})`)
)

// Normalize resolves raw user input into the canonical stream identifier for
// the given platform.
//
// For YouTube it accepts a bare 11-character video ID, youtu.be short links,
// youtube.com watch URLs (?v=), and /live/, /embed/ and /shorts/ path forms.
// Input that matches none of these is returned trimmed as a best-effort ID:
// the adapter will report it as not found if it doesn't resolve upstream.
//
// For TikTok it strips a leading @ and surrounding whitespace; a blank
// result is ErrEmptyIdentifier.
func Normalize(raw string, platform models.Platform) (string, error) {
	switch platform {
	case models.PlatformYouTube:
		return normalizeYouTube(raw)
	case models.PlatformTikTok:
		return normalizeTikTok(raw)
	default:
		return "", ErrUnknownPlatform
	}
}

func normalizeYouTube(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyIdentifier
	}

	if videoIDPattern.MatchString(s) {
		return s, nil
	}

	if id := extractFromURL(s); id != "" {
		return id, nil
	}

	// Last resort: look for a v=<id> anywhere in the string, covering inputs
	// that url.Parse rejects (missing scheme, stray whitespace).
	if m := videoIDRescue.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}

	// Never fail outright: hand back the trimmed input and let the adapter
	// decide whether it resolves to a real video.
	return s, nil
}

func extractFromURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)

	if strings.HasSuffix(host, "youtu.be") {
		return strings.Trim(u.Path, "/")
	}

	if strings.HasSuffix(host, "youtube.com") {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		// Path-segment forms: /live/<id>, /embed/<id>, /shorts/<id>
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) == 2 {
			switch segments[0] {
			case "live", "embed", "shorts":
				return segments[1]
			}
		}
	}

	return ""
}

func normalizeTikTok(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyIdentifier
	}
	return s, nil
}
