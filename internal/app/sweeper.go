package app

import (
	"context"
	"log"
	"time"

	"sessiondemo/internal/domain"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically deletes expired session rows. Sweeps are best-effort
// housekeeping: a failed run is logged and never aborts the schedule, and
// expired sessions are already invisible to reads before they are swept.
type Sweeper struct {
	sessions domain.SessionRepository
	interval time.Duration
	cron     *cron.Cron
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(sessions domain.SessionRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start schedules the sweep. The first run happens one interval after Start.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop cancels the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		log.Printf("session sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("swept %d expired sessions", n)
	}
}
