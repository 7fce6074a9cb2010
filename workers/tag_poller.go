package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/nfc"
)

// TapHandler runs once for every newly presented tag. The card stays
// connected for the duration of the call.
type TapHandler func(ctx context.Context, card nfc.Card, uid string) error

// Session is the presence state carried between ticks.
type Session struct {
	card    nfc.Card
	lastUID string
}

// LastUID is the UID of the tag currently resting on the reader, if any.
func (s *Session) LastUID() string {
	return s.lastUID
}

func (s *Session) closeCard() {
	if s.card == nil {
		return
	}
	if err := s.card.Close(); err != nil {
		log.Debugf("workers: Failed to close card: %v", err)
	}
	s.card = nil
}

// TagPoller connects to the reader on a fixed interval and calls the
// handler when a different tag shows up. A tag that stays on the reader
// is handled once.
type TagPoller struct {
	Reader     nfc.Reader
	Handler    TapHandler
	Interval   time.Duration
	ErrorDelay time.Duration

	Wg       sync.WaitGroup
	StopChan chan struct{}
	stopOnce sync.Once
}

func NewTagPoller(reader nfc.Reader, handler TapHandler, interval, errorDelay time.Duration) *TagPoller {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if errorDelay <= 0 {
		errorDelay = time.Second
	}
	return &TagPoller{
		Reader:     reader,
		Handler:    handler,
		Interval:   interval,
		ErrorDelay: errorDelay,
		StopChan:   make(chan struct{}),
	}
}

// Start runs the loop in a goroutine; Stop waits for it to finish.
func (p *TagPoller) Start(ctx context.Context) {
	p.Wg.Add(1)
	go func() {
		defer p.Wg.Done()
		p.Run(ctx)
	}()
	log.Printf("workers: Tag poller started (interval %s)", p.Interval)
}

func (p *TagPoller) Stop() {
	p.stopOnce.Do(func() { close(p.StopChan) })
	p.Wg.Wait()
	log.Printf("workers: Tag poller stopped")
}

// Run blocks until ctx is cancelled or Stop is called.
func (p *TagPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var session Session
	for {
		if delay := p.Tick(ctx, &session); delay > 0 {
			if !p.sleep(ctx, delay) {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-p.StopChan:
			return
		case <-ticker.C:
		}
	}
}

// Tick performs one poll and returns the extra delay to wait after a
// reader fault.
func (p *TagPoller) Tick(ctx context.Context, s *Session) time.Duration {
	card, err := p.Reader.Connect()
	if err != nil {
		if errors.Is(err, nfc.ErrNoCard) {
			s.lastUID = ""
			return 0
		}
		log.Warnf("workers: Reader error: %v", err)
		return p.ErrorDelay
	}
	s.card = card
	defer s.closeCard()

	uid, err := nfc.ReadUID(card)
	if err != nil {
		log.Warnf("workers: Failed to read UID: %v", err)
		return 0
	}
	if uid == s.lastUID {
		return 0
	}
	s.lastUID = uid

	log.Printf("workers: Tag detected %s", uid)
	if p.Handler != nil {
		if err := p.Handler(ctx, card, uid); err != nil {
			log.Errorf("workers: Handler failed for %s: %v", uid, err)
		}
	}
	return 0
}

func (p *TagPoller) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-p.StopChan:
		return false
	case <-timer.C:
		return true
	}
}
