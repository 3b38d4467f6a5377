package server

import (
	"fmt"

	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/types"
)

// CreateAndDeliver persists a notification, then delivers it to the
// recipient's personal room if they have any live connection. Offline
// recipients keep the durable record and fetch it later; there is no
// other delivery channel here. Callers are responsible for not
// notifying users about their own actions.
func (s *SocialServer) CreateAndDeliver(recipientId int, sender types.User, ntype, relatedId, text string) (*types.Notification, error) {
	dbNotif, err := s.store.CreateNotification(database.CreateNotificationParams{
		RecipientId: recipientId,
		SenderId:    sender.Id,
		Type:        ntype,
		RelatedId:   relatedId,
		Message:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	notif := &types.Notification{
		Id:        dbNotif.Id,
		Recipient: recipientId,
		Sender: types.User{
			Id:             sender.Id,
			Username:       sender.Username,
			FullName:       sender.FullName,
			ProfilePicture: sender.ProfilePicture,
		},
		Type:      ntype,
		RelatedId: relatedId,
		Message:   text,
		CreatedAt: dbNotif.CreatedAt,
	}

	if s.registry.IsOnline(recipientId) {
		s.rooms.Broadcast(PersonalRoom(recipientId), &ServerEvent{
			Timestamp:    Now(),
			Notification: notif,
		})
		s.stats.Incr(statNotificationsDelivered)
	}

	return notif, nil
}
