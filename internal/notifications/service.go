package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends live-status transition alerts via the configured channels:
// a Teams incoming webhook, SMTP email, or both.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// IsEnabled reports whether any notification channel is configured.
func (s *Service) IsEnabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendStatusChange delivers a transition alert to every configured channel.
// Channel failures are collected, not fatal: a dead webhook must never take
// the polling pipeline down with it.
func (s *Service) SendStatusChange(change *models.StatusChange) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(change); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent Teams alert for %s/%s", change.Platform, change.StreamID)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(change); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent email alert for %s/%s", change.Platform, change.StreamID)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(change *models.StatusChange) error {
	message := s.buildTeamsMessage(change)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(change *models.StatusChange) *TeamsMessage {
	return &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Live stream status change: %s", change.StreamID),
		Text:    summarize(change),
		Sections: []TeamsSection{
			{
				ActivityTitle: "Details",
				Facts: []TeamsFact{
					{Name: "Platform", Value: string(change.Platform)},
					{Name: "Stream", Value: change.StreamID},
					{Name: "Previous status", Value: string(change.From)},
					{Name: "New status", Value: string(change.To)},
					{Name: "Observed", Value: change.At.Format("2006-01-02 15:04:05 UTC")},
				},
				Markdown: true,
			},
		},
	}
}

func (s *Service) sendEmail(change *models.StatusChange) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", fmt.Sprintf("[Live Metrics] %s/%s: %s", change.Platform, change.StreamID, change.To))
	m.SetBody("text/plain", summarize(change))

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func summarize(change *models.StatusChange) string {
	switch change.To {
	case models.StatusOK:
		return fmt.Sprintf("%s stream %s is live again (was %s).", change.Platform, change.StreamID, change.From)
	case models.StatusNotLive:
		return fmt.Sprintf("%s stream %s went offline (was %s).", change.Platform, change.StreamID, change.From)
	default:
		return fmt.Sprintf("%s stream %s changed from %s to %s.", change.Platform, change.StreamID, change.From, change.To)
	}
}
