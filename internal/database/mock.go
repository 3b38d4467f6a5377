package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockSocialRepository struct {
	mock.Mock
}

func (m *MockSocialRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockSocialRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSocialRepository) UpdateAccountPresence(accountId int, online bool, lastSeen time.Time) error {
	args := m.Called(accountId, online, lastSeen)
	return args.Error(0)
}
func (m *MockSocialRepository) FollowAccount(followerId, followeeId int) error {
	args := m.Called(followerId, followeeId)
	return args.Error(0)
}
func (m *MockSocialRepository) UnfollowAccount(followerId, followeeId int) error {
	args := m.Called(followerId, followeeId)
	return args.Error(0)
}
func (m *MockSocialRepository) GetFollowers(accountId int) ([]User, error) {
	args := m.Called(accountId)
	if followers, ok := args.Get(0).([]User); ok {
		return followers, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) GetOrCreateDirectConversation(accountId, participantId int, externalId string) (Conversation, bool, error) {
	args := m.Called(accountId, participantId, externalId)
	return args.Get(0).(Conversation), args.Bool(1), args.Error(2)
}
func (m *MockSocialRepository) CreateGroupConversation(params CreateGroupConversationParams) (Conversation, error) {
	args := m.Called(params)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockSocialRepository) GetConversationByExternalId(externalId string) (Conversation, error) {
	args := m.Called(externalId)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockSocialRepository) ListConversationsByParticipant(accountId int) ([]Conversation, error) {
	args := m.Called(accountId)
	if conversations, ok := args.Get(0).([]Conversation); ok {
		return conversations, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) AddParticipants(conversationId int, accountIds []int) error {
	args := m.Called(conversationId, accountIds)
	return args.Error(0)
}
func (m *MockSocialRepository) RemoveParticipant(conversationId, accountId int) error {
	args := m.Called(conversationId, accountId)
	return args.Error(0)
}
func (m *MockSocialRepository) SetGroupAdmin(conversationId, accountId int) error {
	args := m.Called(conversationId, accountId)
	return args.Error(0)
}
func (m *MockSocialRepository) UpdateConversationOnMessage(conversationId, messageId, senderId int) error {
	args := m.Called(conversationId, messageId, senderId)
	return args.Error(0)
}
func (m *MockSocialRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockSocialRepository) GetMessageById(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockSocialRepository) GetMessages(conversationId, viewerId, beforeId, limit int) ([]Message, error) {
	args := m.Called(conversationId, viewerId, beforeId, limit)
	if messages, ok := args.Get(0).([]Message); ok {
		return messages, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) BulkMarkRead(conversationId, readerId int, messageIds []int) error {
	args := m.Called(conversationId, readerId, messageIds)
	return args.Error(0)
}
func (m *MockSocialRepository) DeleteMessageForAccount(messageId, accountId int) error {
	args := m.Called(messageId, accountId)
	return args.Error(0)
}
func (m *MockSocialRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	args := m.Called(params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockSocialRepository) ListNotifications(recipientId, limit int) ([]Notification, error) {
	args := m.Called(recipientId, limit)
	if notifications, ok := args.Get(0).([]Notification); ok {
		return notifications, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockSocialRepository) MarkNotificationRead(notificationId, recipientId int) error {
	args := m.Called(notificationId, recipientId)
	return args.Error(0)
}
func (m *MockSocialRepository) DeleteReadNotificationsBefore(cutoff time.Time) (int64, error) {
	args := m.Called(cutoff)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSocialRepository) CreateStory(params CreateStoryParams) (Story, error) {
	args := m.Called(params)
	return args.Get(0).(Story), args.Error(1)
}
func (m *MockSocialRepository) GetStoryByExternalId(externalId string) (Story, error) {
	args := m.Called(externalId)
	return args.Get(0).(Story), args.Error(1)
}
func (m *MockSocialRepository) AppendStoryView(storyId, viewerId int, viewedAt time.Time) (bool, error) {
	args := m.Called(storyId, viewerId, viewedAt)
	return args.Bool(0), args.Error(1)
}
func (m *MockSocialRepository) DeleteExpiredStories(now time.Time) (int64, error) {
	args := m.Called(now)
	return args.Get(0).(int64), args.Error(1)
}
