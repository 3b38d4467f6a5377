package server

import (
	"log"

	"github.com/jdriscoll/go-social/internal/types"
	"github.com/stretchr/testify/mock"
)

// OfflinePushNotifier receives messages addressed to participants with
// zero live connections. Delivery beyond this hand-off (APNs, FCM) is
// somebody else's problem.
type OfflinePushNotifier interface {
	Notify(userId int, msg *types.Message)
}

// LogPushNotifier is the stub implementation: it only records the
// hand-off.
type LogPushNotifier struct {
	log *log.Logger
}

func NewLogPushNotifier(logger *log.Logger) *LogPushNotifier {
	return &LogPushNotifier{log: logger}
}

func (n *LogPushNotifier) Notify(userId int, msg *types.Message) {
	n.log.Printf("offline push for user %d: message %d", userId, msg.Id)
}

type MockPushNotifier struct {
	mock.Mock
}

func (m *MockPushNotifier) Notify(userId int, msg *types.Message) {
	m.Called(userId, msg)
}
