package notifications

import "github.com/intent-feedx/feedx/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(report *models.DailyReport) error
}
