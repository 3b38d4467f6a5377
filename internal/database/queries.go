package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

func (db *PgSocialRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, full_name, email, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, username, full_name, email, created_at",
		params.Username,
		params.FullName,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.FullName,
		&u.EmailAddress,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgSocialRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, full_name, email, profile_picture, is_online, last_seen, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.FullName,
		&u.EmailAddress,
		&u.ProfilePicture,
		&u.IsOnline,
		&u.LastSeen,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSocialRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, full_name, email, password_hash, profile_picture, is_online, last_seen, created_at, updated_at "+
			"FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.FullName,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.ProfilePicture,
		&u.IsOnline,
		&u.LastSeen,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSocialRepository) UpdateAccountPresence(accountId int, online bool, lastSeen time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET is_online = $2, last_seen = $3, updated_at = $3 WHERE id = $1",
		accountId,
		online,
		lastSeen.UTC(),
	)

	return err
}

func (db *PgSocialRepository) FollowAccount(followerId, followeeId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO followers (follower_id, followee_id) VALUES ($1, $2) "+
			"ON CONFLICT (follower_id, followee_id) DO NOTHING",
		followerId,
		followeeId,
	)

	return err
}

func (db *PgSocialRepository) UnfollowAccount(followerId, followeeId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM followers WHERE follower_id = $1 AND followee_id = $2",
		followerId,
		followeeId,
	)

	return err
}

func (db *PgSocialRepository) GetFollowers(accountId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT a.id, a.username, a.full_name, a.profile_picture FROM followers f "+
			"JOIN accounts a ON a.id = f.follower_id WHERE f.followee_id = $1 ORDER BY f.created_at",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followers []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username, &u.FullName, &u.ProfilePicture); err != nil {
			return nil, err
		}
		followers = append(followers, u)
	}

	return followers, rows.Err()
}

func pairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func (db *PgSocialRepository) GetOrCreateDirectConversation(accountId, participantId int, externalId string) (Conversation, bool, error) {
	key := pairKey(accountId, participantId)

	var id int
	created := true
	err := db.conn.QueryRow(
		"INSERT INTO conversations (external_id, is_group, pair_key) VALUES ($1, FALSE, $2) "+
			"ON CONFLICT (pair_key) DO NOTHING RETURNING id",
		externalId,
		key,
	).Scan(&id)
	if err == sql.ErrNoRows {
		// lost the race or the pair already exists
		created = false
		err = db.conn.QueryRow(
			"SELECT id FROM conversations WHERE pair_key = $1 LIMIT 1", key,
		).Scan(&id)
	}
	if err != nil {
		return Conversation{}, false, err
	}

	if created {
		if err := db.AddParticipants(id, []int{accountId, participantId}); err != nil {
			return Conversation{}, false, err
		}
	}

	conv, err := db.getConversationById(id)
	return conv, created, err
}

func (db *PgSocialRepository) CreateGroupConversation(params CreateGroupConversationParams) (Conversation, error) {
	var id int
	err := db.conn.QueryRow(
		"INSERT INTO conversations (external_id, is_group, group_name, group_admin_id) "+
			"VALUES ($1, TRUE, $2, $3) RETURNING id",
		params.ExternalId,
		params.GroupName,
		params.AdminId,
	).Scan(&id)
	if err != nil {
		return Conversation{}, err
	}

	members := append([]int{params.AdminId}, params.ParticipantIds...)
	if err := db.AddParticipants(id, members); err != nil {
		return Conversation{}, err
	}

	return db.getConversationById(id)
}

func (db *PgSocialRepository) getConversationById(conversationId int) (Conversation, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, is_group, group_name, COALESCE(group_admin_id, 0), "+
			"COALESCE(last_message_id, 0), created_at, updated_at "+
			"FROM conversations WHERE id = $1 LIMIT 1",
		conversationId,
	)

	var c Conversation
	err := row.Scan(
		&c.Id,
		&c.ExternalId,
		&c.IsGroup,
		&c.GroupName,
		&c.GroupAdminId,
		&c.LastMessageId,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Conversation{}, err
	}

	c.Participants, err = db.getParticipants(c.Id)
	return c, err
}

func (db *PgSocialRepository) GetConversationByExternalId(externalId string) (Conversation, error) {
	var id int
	err := db.conn.QueryRow(
		"SELECT id FROM conversations WHERE external_id = $1 LIMIT 1", externalId,
	).Scan(&id)
	if err != nil {
		return Conversation{}, err
	}

	return db.getConversationById(id)
}

func (db *PgSocialRepository) getParticipants(conversationId int) ([]Participant, error) {
	rows, err := db.conn.Query(
		"SELECT cp.account_id, a.username, a.full_name, a.profile_picture, cp.unread_count, cp.created_at "+
			"FROM conversation_participants cp JOIN accounts a ON a.id = cp.account_id "+
			"WHERE cp.conversation_id = $1 ORDER BY cp.id",
		conversationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.AccountId, &p.Username, &p.FullName, &p.ProfilePicture, &p.UnreadCount, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (db *PgSocialRepository) ListConversationsByParticipant(accountId int) ([]Conversation, error) {
	rows, err := db.conn.Query(
		"SELECT c.id FROM conversations c "+
			"JOIN conversation_participants cp ON cp.conversation_id = c.id "+
			"WHERE cp.account_id = $1 ORDER BY c.updated_at DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var conversations []Conversation
	for _, id := range ids {
		conv, err := db.getConversationById(id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, nil
}

func (db *PgSocialRepository) AddParticipants(conversationId int, accountIds []int) error {
	for _, accountId := range accountIds {
		_, err := db.conn.Exec(
			"INSERT INTO conversation_participants (conversation_id, account_id) VALUES ($1, $2) "+
				"ON CONFLICT (conversation_id, account_id) DO NOTHING",
			conversationId,
			accountId,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (db *PgSocialRepository) RemoveParticipant(conversationId, accountId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM conversation_participants WHERE conversation_id = $1 AND account_id = $2",
		conversationId,
		accountId,
	)

	return err
}

func (db *PgSocialRepository) SetGroupAdmin(conversationId, accountId int) error {
	_, err := db.conn.Exec(
		"UPDATE conversations SET group_admin_id = NULLIF($2, 0), updated_at = $3 WHERE id = $1",
		conversationId,
		accountId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgSocialRepository) UpdateConversationOnMessage(conversationId, messageId, senderId int) error {
	_, err := db.conn.Exec(
		"UPDATE conversations SET last_message_id = $2, updated_at = $3 WHERE id = $1",
		conversationId,
		messageId,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(
		"UPDATE conversation_participants SET unread_count = unread_count + 1 "+
			"WHERE conversation_id = $1 AND account_id != $2",
		conversationId,
		senderId,
	)

	return err
}

func (db *PgSocialRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	media := params.Media
	if media == nil {
		media = []Media{}
	}
	mediaJson, err := json.Marshal(media)
	if err != nil {
		return Message{}, fmt.Errorf("marshal media: %w", err)
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := db.conn.QueryRow(
		"INSERT INTO messages (conversation_id, sender_id, content, media, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at",
		params.ConversationId,
		params.SenderId,
		params.Content,
		mediaJson,
		createdAt,
	)

	msg := Message{
		ConversationId: params.ConversationId,
		SenderId:       params.SenderId,
		Content:        params.Content,
		Media:          media,
	}
	err = row.Scan(&msg.Id, &msg.CreatedAt)

	return msg, err
}

func (db *PgSocialRepository) GetMessageById(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, conversation_id, sender_id, content, media, is_read, created_at "+
			"FROM messages WHERE id = $1 LIMIT 1",
		messageId,
	)

	msg, err := scanMessage(row)
	if err != nil {
		return Message{}, err
	}

	marks, err := db.getReadMarks([]int{msg.Id})
	if err != nil {
		return Message{}, err
	}
	msg.ReadBy = marks[msg.Id]

	return msg, nil
}

func (db *PgSocialRepository) getReadMarks(messageIds []int) (map[int][]ReadMark, error) {
	if len(messageIds) == 0 {
		return nil, nil
	}

	rows, err := db.conn.Query(
		"SELECT message_id, account_id, read_at FROM message_reads "+
			"WHERE message_id = ANY($1) ORDER BY read_at, account_id",
		pq.Array(messageIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	marks := make(map[int][]ReadMark)
	for rows.Next() {
		var messageId int
		var mark ReadMark
		if err := rows.Scan(&messageId, &mark.AccountId, &mark.ReadAt); err != nil {
			return nil, err
		}
		marks[messageId] = append(marks[messageId], mark)
	}

	return marks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var msg Message
	var mediaJson []byte
	err := row.Scan(
		&msg.Id,
		&msg.ConversationId,
		&msg.SenderId,
		&msg.Content,
		&mediaJson,
		&msg.IsRead,
		&msg.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}

	if err := json.Unmarshal(mediaJson, &msg.Media); err != nil {
		return Message{}, fmt.Errorf("unmarshal media: %w", err)
	}

	return msg, nil
}

func (db *PgSocialRepository) GetMessages(conversationId, viewerId, beforeId, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT id, conversation_id, sender_id, content, media, is_read, created_at FROM messages " +
		"WHERE conversation_id = $1 " +
		"AND id NOT IN (SELECT message_id FROM message_deletes WHERE account_id = $2) "
	args := []any{conversationId, viewerId}

	if beforeId > 0 {
		query += "AND id < $3 ORDER BY created_at DESC, id DESC LIMIT $4"
		args = append(args, beforeId, limit)
	} else {
		query += "ORDER BY created_at DESC, id DESC LIMIT $3"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	ids := make([]int, len(messages))
	for i, msg := range messages {
		ids[i] = msg.Id
	}
	marks, err := db.getReadMarks(ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].ReadBy = marks[messages[i].Id]
	}

	return messages, nil
}

func (db *PgSocialRepository) BulkMarkRead(conversationId, readerId int, messageIds []int) error {
	readAt := time.Now().UTC()

	_, err := db.conn.Exec(
		"INSERT INTO message_reads (message_id, account_id, read_at) "+
			"SELECT m.id, $2, $3 FROM messages m "+
			"WHERE m.id = ANY($4) AND m.conversation_id = $1 AND m.sender_id != $2 "+
			"ON CONFLICT (message_id, account_id) DO NOTHING",
		conversationId,
		readerId,
		readAt,
		pq.Array(messageIds),
	)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(
		"UPDATE messages SET is_read = TRUE "+
			"WHERE id = ANY($2) AND conversation_id = $1 AND sender_id != $3",
		conversationId,
		pq.Array(messageIds),
		readerId,
	)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(
		"UPDATE conversation_participants SET unread_count = 0 "+
			"WHERE conversation_id = $1 AND account_id = $2",
		conversationId,
		readerId,
	)

	return err
}

func (db *PgSocialRepository) DeleteMessageForAccount(messageId, accountId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO message_deletes (message_id, account_id) VALUES ($1, $2) "+
			"ON CONFLICT (message_id, account_id) DO NOTHING",
		messageId,
		accountId,
	)

	return err
}

func (db *PgSocialRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	row := db.conn.QueryRow(
		"INSERT INTO notifications (recipient_id, sender_id, type, related_id, message, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		params.RecipientId,
		params.SenderId,
		params.Type,
		params.RelatedId,
		params.Message,
		time.Now().UTC(),
	)

	n := Notification{
		RecipientId: params.RecipientId,
		SenderId:    params.SenderId,
		Type:        params.Type,
		RelatedId:   params.RelatedId,
		Message:     params.Message,
	}
	err := row.Scan(&n.Id, &n.CreatedAt)

	return n, err
}

func (db *PgSocialRepository) ListNotifications(recipientId, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(
		"SELECT id, recipient_id, sender_id, type, related_id, message, is_read, created_at "+
			"FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2",
		recipientId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(
			&n.Id,
			&n.RecipientId,
			&n.SenderId,
			&n.Type,
			&n.RelatedId,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (db *PgSocialRepository) MarkNotificationRead(notificationId, recipientId int) error {
	res, err := db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2",
		notificationId,
		recipientId,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgSocialRepository) DeleteReadNotificationsBefore(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1",
		cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (db *PgSocialRepository) CreateStory(params CreateStoryParams) (Story, error) {
	row := db.conn.QueryRow(
		"INSERT INTO stories (external_id, author_id, media_url, media_type, caption, created_at, expires_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at",
		params.ExternalId,
		params.AuthorId,
		params.MediaUrl,
		params.MediaType,
		params.Caption,
		time.Now().UTC(),
		params.ExpiresAt.UTC(),
	)

	story := Story{
		ExternalId: params.ExternalId,
		AuthorId:   params.AuthorId,
		MediaUrl:   params.MediaUrl,
		MediaType:  params.MediaType,
		Caption:    params.Caption,
		ExpiresAt:  params.ExpiresAt,
	}
	err := row.Scan(&story.Id, &story.CreatedAt)

	return story, err
}

func (db *PgSocialRepository) GetStoryByExternalId(externalId string) (Story, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, author_id, media_url, media_type, caption, created_at, expires_at "+
			"FROM stories WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var story Story
	err := row.Scan(
		&story.Id,
		&story.ExternalId,
		&story.AuthorId,
		&story.MediaUrl,
		&story.MediaType,
		&story.Caption,
		&story.CreatedAt,
		&story.ExpiresAt,
	)
	if err != nil {
		return Story{}, err
	}

	rows, err := db.conn.Query(
		"SELECT account_id, viewed_at FROM story_views WHERE story_id = $1 ORDER BY viewed_at",
		story.Id,
	)
	if err != nil {
		return Story{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var v StoryView
		if err := rows.Scan(&v.AccountId, &v.ViewedAt); err != nil {
			return Story{}, err
		}
		story.Views = append(story.Views, v)
	}

	return story, rows.Err()
}

func (db *PgSocialRepository) AppendStoryView(storyId, viewerId int, viewedAt time.Time) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT INTO story_views (story_id, account_id, viewed_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (story_id, account_id) DO NOTHING",
		storyId,
		viewerId,
		viewedAt.UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (db *PgSocialRepository) DeleteExpiredStories(now time.Time) (int64, error) {
	res, err := db.conn.Exec(
		"DELETE FROM stories WHERE expires_at < $1",
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
