// internal/workers/loan/send-sanction-notification/models.go
package sendsanctionnotification

type Input struct {
	Reference string `json:"reference"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Letter    string `json:"letter"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "disabled"
	Recipients     []string `json:"recipients,omitempty"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)
