package database

import "time"

type User struct {
	Id             int
	Username       string
	FullName       string
	EmailAddress   string
	PasswordHash   string
	ProfilePicture string
	IsOnline       bool
	LastSeen       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Conversation struct {
	Id            int
	ExternalId    string
	IsGroup       bool
	GroupName     string
	GroupAdminId  int
	LastMessageId int
	Participants  []Participant
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Participant is a conversation membership row. Participants are
// ordered by join sequence, which is the order admin reassignment
// falls back on when a group admin leaves.
type Participant struct {
	AccountId      int
	Username       string
	FullName       string
	ProfilePicture string
	UnreadCount    int
	JoinedAt       time.Time
}

type Media struct {
	Url  string `json:"url"`
	Type string `json:"type"`
}

type Message struct {
	Id             int
	ConversationId int
	SenderId       int
	Content        string
	Media          []Media
	IsRead         bool
	ReadBy         []ReadMark
	CreatedAt      time.Time
}

type ReadMark struct {
	AccountId int
	ReadAt    time.Time
}

type Notification struct {
	Id          int
	RecipientId int
	SenderId    int
	Type        string
	RelatedId   string
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}

type Story struct {
	Id         int
	ExternalId string
	AuthorId   int
	MediaUrl   string
	MediaType  string
	Caption    string
	Views      []StoryView
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

type StoryView struct {
	AccountId int
	ViewedAt  time.Time
}

type CreateAccountParams struct {
	Username     string
	FullName     string
	EmailAddress string
	PasswordHash string
}

type CreateGroupConversationParams struct {
	ExternalId     string
	GroupName      string
	AdminId        int
	ParticipantIds []int
}

type CreateMessageParams struct {
	ConversationId int
	SenderId       int
	Content        string
	Media          []Media
	CreatedAt      time.Time
}

type CreateNotificationParams struct {
	RecipientId int
	SenderId    int
	Type        string
	RelatedId   string
	Message     string
}

type CreateStoryParams struct {
	ExternalId string
	AuthorId   int
	MediaUrl   string
	MediaType  string
	Caption    string
	ExpiresAt  time.Time
}
