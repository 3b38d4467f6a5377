package database

import "time"

// SocialRepository is the durable store consumed by the realtime core
// and the HTTP layer. The realtime server never reaches past this
// interface, so the backing store can be swapped without touching
// fan-out logic.
type SocialRepository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	UpdateAccountPresence(accountId int, online bool, lastSeen time.Time) error

	FollowAccount(followerId, followeeId int) error
	UnfollowAccount(followerId, followeeId int) error
	GetFollowers(accountId int) ([]User, error)

	// GetOrCreateDirectConversation returns the one conversation for the
	// unordered account pair, creating it if absent. The boolean reports
	// whether a new conversation was created. Concurrent calls for the
	// same pair converge on a single row.
	GetOrCreateDirectConversation(accountId, participantId int, externalId string) (Conversation, bool, error)
	CreateGroupConversation(params CreateGroupConversationParams) (Conversation, error)
	GetConversationByExternalId(externalId string) (Conversation, error)
	ListConversationsByParticipant(accountId int) ([]Conversation, error)
	AddParticipants(conversationId int, accountIds []int) error
	RemoveParticipant(conversationId, accountId int) error
	SetGroupAdmin(conversationId, accountId int) error
	// UpdateConversationOnMessage sets the last-message reference, bumps
	// the recency marker and increments unread counters for every
	// participant except the sender.
	UpdateConversationOnMessage(conversationId, messageId, senderId int) error

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageById(messageId int) (Message, error)
	GetMessages(conversationId, viewerId, beforeId, limit int) ([]Message, error)
	// BulkMarkRead marks the given messages read for readerId, skipping
	// messages readerId authored and messages already marked by the same
	// reader. Also resets the reader's unread counter.
	BulkMarkRead(conversationId, readerId int, messageIds []int) error
	DeleteMessageForAccount(messageId, accountId int) error

	CreateNotification(params CreateNotificationParams) (Notification, error)
	ListNotifications(recipientId, limit int) ([]Notification, error)
	MarkNotificationRead(notificationId, recipientId int) error
	DeleteReadNotificationsBefore(cutoff time.Time) (int64, error)

	CreateStory(params CreateStoryParams) (Story, error)
	GetStoryByExternalId(externalId string) (Story, error)
	// AppendStoryView records a view iff viewerId has not viewed the
	// story before. Returns false when the view was suppressed.
	AppendStoryView(storyId, viewerId int, viewedAt time.Time) (bool, error)
	DeleteExpiredStories(now time.Time) (int64, error)
}
