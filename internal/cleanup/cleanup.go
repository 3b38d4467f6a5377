package cleanup

import (
	"log"
	"time"

	"github.com/jdriscoll/go-social/internal/database"
)

// Read notifications older than this are dropped by the sweep.
const notificationRetention = 30 * 24 * time.Hour

// Sweeper periodically removes expired stories and stale read
// notifications.
type Sweeper struct {
	log      *log.Logger
	store    database.SocialRepository
	interval time.Duration
	done     chan struct{}
}

func NewSweeper(logger *log.Logger, store database.SocialRepository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Sweeper{
		log:      logger,
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Run() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(time.Now().UTC())
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) Sweep(now time.Time) {
	stories, err := s.store.DeleteExpiredStories(now)
	if err != nil {
		s.log.Println("delete expired stories:", err)
	} else if stories > 0 {
		s.log.Printf("removed %d expired stories\n", stories)
	}

	notifications, err := s.store.DeleteReadNotificationsBefore(now.Add(-notificationRetention))
	if err != nil {
		s.log.Println("delete read notifications:", err)
	} else if notifications > 0 {
		s.log.Printf("removed %d read notifications\n", notifications)
	}
}
