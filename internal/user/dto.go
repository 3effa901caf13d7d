package user

type NotificationSettings struct {
	EmailNotifications bool `json:"email_notifications"`
}

type UpdateNotificationSettingsDTO struct {
	EmailNotifications *bool `json:"email_notifications"`
}

type CreateUserDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}
