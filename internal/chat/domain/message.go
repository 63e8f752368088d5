package domain

import "time"

// Message 一則已持久化的聊天訊息, never deleted
type Message struct {
	ID             string    `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID       string    `bson:"sender_id" json:"senderID" gorm:"index:idx_chat_pair;not null"`
	ReceiverID     string    `bson:"receiver_id" json:"receiverID" gorm:"index:idx_chat_pair;index:idx_chat_receiver;not null"`
	SenderName     string    `bson:"sender_name,omitempty" json:"senderName"`
	ReceiverName   string    `bson:"receiver_name,omitempty" json:"receiverName"`
	SenderAvatar   string    `bson:"sender_avatar,omitempty" json:"senderAvatar"`
	ReceiverAvatar string    `bson:"receiver_avatar,omitempty" json:"receiverAvatar"`
	SenderRole     string    `bson:"sender_role,omitempty" json:"senderRole"`
	ReceiverRole   string    `bson:"receiver_role,omitempty" json:"receiverRole"`
	Content        string    `bson:"content" json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt" gorm:"index;autoCreateTime:false"`
	Read           bool      `bson:"read" json:"read" gorm:"column:is_read;default:false"`
}

// TableName gorm table name
func (Message) TableName() string {
	return "chat_messages"
}

// ChatUserSummary 與 owner 對話過的使用者, newest conversation first
type ChatUserSummary struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Avatar      string    `bson:"avatar" json:"avatar"`
	LastMessage string    `bson:"lastMessage" json:"lastMessage"`
	LastAt      time.Time `bson:"lastAt" json:"lastAt"`
}

// HistoryPage one page of a two-party conversation plus the conversation size
type HistoryPage struct {
	Messages []Message `json:"messages"`
	Total    int64     `json:"total"`
}
