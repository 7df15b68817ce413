package models

import "time"

// Message is one entry in a lost/found conversation.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	ReportID       string    `db:"report_id" json:"report_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	ReceiverID     string    `db:"receiver_id" json:"receiver_id"`
	Content        string    `db:"content" json:"content"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MessageDetail enriches a message with participant and report display data.
type MessageDetail struct {
	Message
	SenderName    string `db:"sender_name" json:"sender_name"`
	SenderEmail   string `db:"sender_email" json:"sender_email"`
	ReceiverName  string `db:"receiver_name" json:"receiver_name"`
	ReceiverEmail string `db:"receiver_email" json:"receiver_email"`
	ReportPetName string `db:"report_pet_name" json:"report_pet_name"`
	ReportPhoto   string `db:"report_photo" json:"report_photo,omitempty"`
}

// ConversationSummary describes one conversation in the caller's inbox.
type ConversationSummary struct {
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	ReportID       string    `db:"report_id" json:"report_id"`
	ReportPetName  string    `db:"report_pet_name" json:"report_pet_name"`
	ReportPhoto    string    `db:"report_photo" json:"report_photo,omitempty"`
	OtherUserID    string    `db:"other_user_id" json:"other_user_id"`
	OtherUserName  string    `db:"other_user_name" json:"other_user_name"`
	LastMessage    string    `db:"last_message" json:"last_message"`
	LastMessageAt  time.Time `db:"last_message_at" json:"last_message_at"`
	UnreadCount    int       `db:"unread_count" json:"unread_count"`
}

// SendMessageRequest is the payload for appending to a conversation.
type SendMessageRequest struct {
	PetID      string `json:"petId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Message    string `json:"message" validate:"required,max=1000"`
}
