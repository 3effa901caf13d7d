package notification

import "time"

// ListFilter selects one user's notifications. A zero Limit means no limit.
type ListFilter struct {
	UserID     int64
	Type       *string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type NotificationView struct {
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"user_id"`
	Type        string                 `json:"type"`
	TypeDisplay string                 `json:"type_display"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Data        map[string]interface{} `json:"data"`
	IsRead      bool                   `json:"is_read"`
	IsSent      bool                   `json:"is_sent"`
	Priority    string                 `json:"priority"`
	CreatedAt   time.Time              `json:"created_at"`
	ReadAt      *time.Time             `json:"read_at"`
	ExpiresAt   *time.Time             `json:"expires_at"`
	IsExpired   bool                   `json:"is_expired"`
	TimeAgo     string                 `json:"time_ago"`
}

func NewNotificationView(n *Notification, now time.Time) NotificationView {
	data := n.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	return NotificationView{
		ID:          n.ID,
		UserID:      n.UserID,
		Type:        n.Type,
		TypeDisplay: TypeDisplay(n.Type),
		Title:       n.Title,
		Message:     n.Message,
		Data:        data,
		IsRead:      n.IsRead,
		IsSent:      n.IsSent,
		Priority:    n.Priority,
		CreatedAt:   n.CreatedAt,
		ReadAt:      n.ReadAt,
		ExpiresAt:   n.ExpiresAt,
		IsExpired:   n.IsExpired(now),
		TimeAgo:     TimeAgo(n.CreatedAt, now),
	}
}

type Pagination struct {
	TotalCount  int64 `json:"total_count"`
	UnreadCount int64 `json:"unread_count"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	HasMore     bool  `json:"has_more"`
}

type ListResponse struct {
	Notifications []NotificationView `json:"notifications"`
	Pagination    Pagination         `json:"pagination"`
}

// Message is the wire form published to the delivery exchange.
type Message struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Priority       string    `json:"priority"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewMessage(n *Notification) Message {
	return Message{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Priority:       n.Priority,
		CreatedAt:      n.CreatedAt,
	}
}
