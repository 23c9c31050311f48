package vo

import (
	"time"

	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// NotificationVO 用户可见的通知，不含收件地址和投递错误
type NotificationVO struct {
	ID        string                    `json:"id"`
	Channel   enums.NotificationChannel `json:"channel"`
	Subject   string                    `json:"subject"`
	Body      string                    `json:"body"`
	Status    enums.NotificationStatus  `json:"status"`
	ReadAt    *time.Time                `json:"read_at,omitempty"`
	SentAt    *time.Time                `json:"sent_at,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
}

type NotificationPageVO struct {
	Items    []NotificationVO      `json:"items"`
	Metadata querybuilder.Metadata `json:"metadata"`
}
