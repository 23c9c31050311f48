package dto

import "github.com/Xushengqwer/starter_hub/models/enums"

// SendNotificationDTO 管理员向租户内某个用户发送通知，收件地址取自用户资料
type SendNotificationDTO struct {
	UserID  string                    `json:"user_id" binding:"required,uuid"`
	Channel enums.NotificationChannel `json:"channel" binding:"required,oneof=email sms"`
	Subject string                    `json:"subject" binding:"omitempty,max=255"`
	Body    string                    `json:"body" binding:"required"`
}
