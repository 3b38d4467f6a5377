package types

import (
	"time"
)

type User struct {
	Id             int        `json:"id"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name,omitempty"`
	EmailAddress   string     `json:"email_address,omitempty"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	IsOnline       bool       `json:"is_online"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at,omitempty"`
}

type Conversation struct {
	Id           int       `json:"id"`
	ExternalId   string    `json:"external_id"`
	IsGroup      bool      `json:"is_group"`
	GroupName    string    `json:"group_name,omitempty"`
	GroupAdminId int       `json:"group_admin_id,omitempty"`
	Participants []User    `json:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	UnreadCount  int       `json:"unread_count"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type MediaItem struct {
	Url  string `json:"url"`
	Type string `json:"type"`
}

type Message struct {
	Id             int         `json:"id"`
	ConversationId string      `json:"conversation_id"`
	Sender         User        `json:"sender"`
	Content        string      `json:"content"`
	Media          []MediaItem `json:"media,omitempty"`
	IsRead         bool        `json:"is_read"`
	ReadBy         []ReadMark  `json:"read_by,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

type ReadMark struct {
	UserId int       `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

type Notification struct {
	Id        int       `json:"id"`
	Recipient int       `json:"recipient"`
	Sender    User      `json:"sender"`
	Type      string    `json:"type"`
	RelatedId string    `json:"related_id,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types understood by clients.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationShare   = "share"
	NotificationMention = "mention"
)

type Story struct {
	Id         int         `json:"id"`
	ExternalId string      `json:"external_id"`
	Author     User        `json:"author"`
	Media      MediaItem   `json:"media"`
	Caption    string      `json:"caption,omitempty"`
	Views      []StoryView `json:"views,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

type StoryView struct {
	UserId   int       `json:"user_id"`
	ViewedAt time.Time `json:"viewed_at"`
}
