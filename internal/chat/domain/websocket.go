package domain

import "encoding/json"

// Event websocket event name
type Event string

const (
	// EventJoin client binds the connection to a user id
	EventJoin Event = "join"
	// EventChatMessage client sends a message, server echoes the persisted record
	EventChatMessage Event = "chat_message"

	// EventOnlineUsers presence snapshot broadcast
	EventOnlineUsers Event = "online_users"
	// EventNewMessage receiver-only notification
	EventNewMessage Event = "new_message"
	// EventJoined join acknowledgement
	EventJoined Event = "joined"
	// EventChatMessageError failure ack to the sending session
	EventChatMessageError Event = "chat_message_error"
	// EventMessagesRead read receipt to the sender
	EventMessagesRead Event = "messages_read"
	// EventError protocol level error
	EventError Event = "error"
)

// WSRequest websocket Request
type WSRequest struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSResponse websocket Response
type WSResponse struct {
	Event   Event       `json:"event"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JoinRequest data of a join event
type JoinRequest struct {
	UserID string `json:"userID"`
}

// JoinedPayload data of a joined event
type JoinedPayload struct {
	UserID       string `json:"userID"`
	SessionID    string `json:"sessionID"`
	AlreadyBound bool   `json:"alreadyBound"`
}

// ChatMessageRequest data of a chat_message event
type ChatMessageRequest struct {
	SenderID        string `json:"senderID" validate:"required"`
	ReceiverID      string `json:"receiverID" validate:"required"`
	SenderName      string `json:"senderName"`
	ReceiverName    string `json:"receiverName"`
	SenderAvatar    string `json:"senderAvatar"`
	ReceiverAvatar  string `json:"receiverAvatar"`
	SenderRole      string `json:"senderRole"`
	ReceiverRole    string `json:"receiverRole"`
	Content         string `json:"content" validate:"required"`
	ClientMessageID string `json:"clientMessageID,omitempty"`
}

// ToMessage copies the request fields into an unsaved Message
func (r ChatMessageRequest) ToMessage() Message {
	return Message{
		SenderID:       r.SenderID,
		ReceiverID:     r.ReceiverID,
		SenderName:     r.SenderName,
		ReceiverName:   r.ReceiverName,
		SenderAvatar:   r.SenderAvatar,
		ReceiverAvatar: r.ReceiverAvatar,
		SenderRole:     r.SenderRole,
		ReceiverRole:   r.ReceiverRole,
		Content:        r.Content,
	}
}

// MessageErrorPayload data of a chat_message_error event
type MessageErrorPayload struct {
	ClientMessageID string `json:"clientMessageID,omitempty"`
}

// MessagesReadPayload data of a messages_read event
type MessagesReadPayload struct {
	SenderID   string `json:"senderID"`
	ReceiverID string `json:"receiverID"`
	Updated    int64  `json:"updated"`
}

// Error codes carried in WSResponse.Error
const (
	CodeInvalidInput     = "invalid_input"
	CodeStoreUnavailable = "store_unavailable"
	CodeInvalidIdentity  = "invalid_identity"
	CodeBadFrame         = "bad_frame"
	CodeUnknownEvent     = "unknown_event"
	CodeRateLimited      = "rate_limited"
)
