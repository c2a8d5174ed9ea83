package notifications

import "github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendStatusChange(change *models.StatusChange) error
}
