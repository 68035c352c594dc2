package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/giftwrap/api/internal/domain"
	"github.com/giftwrap/api/internal/gate"
)

var (
	// ErrGateStillLocked indicates an unlock attempt before the unlock time.
	ErrGateStillLocked = errors.New("gate: still locked")
	// ErrGateNotUnlocked indicates an open attempt from the locked stage.
	ErrGateNotUnlocked = errors.New("gate: not unlocked yet")
	// ErrGateContentMissing signals that the content service dependency is absent.
	ErrGateContentMissing = errors.New("gate service: content service is not configured")
)

// GateServiceDeps groups constructor parameters for the gate service.
type GateServiceDeps struct {
	Content            ContentService
	Clock              func() time.Time
	FallbackUnlockDate string
}

type gateService struct {
	content      ContentService
	clock        func() time.Time
	fallbackDate string
}

// NewGateService constructs the gate service with the supplied dependencies.
func NewGateService(deps GateServiceDeps) (GateService, error) {
	if deps.Content == nil {
		return nil, ErrGateContentMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &gateService{
		content:      deps.Content,
		clock:        clock,
		fallbackDate: strings.TrimSpace(deps.FallbackUnlockDate),
	}, nil
}

func (s *gateService) State(ctx context.Context, flags gate.Flags) (GateState, error) {
	now := s.clock()
	unlockAt, err := s.UnlockTime(ctx)
	if err != nil {
		return GateState{}, err
	}
	return s.stateFrom(flags, now, unlockAt), nil
}

func (s *gateService) Unlock(ctx context.Context, cmd UnlockCommand) (GateState, error) {
	now := s.clock()
	unlockAt, err := s.UnlockTime(ctx)
	if err != nil {
		return GateState{}, err
	}

	flags := cmd.Flags
	if !flags.Unlocked {
		if now.Before(unlockAt) && !cmd.Admin {
			return s.stateFrom(flags, now, unlockAt), ErrGateStillLocked
		}
		flags.Unlocked = true
	}
	return s.stateFrom(flags, now, unlockAt), nil
}

func (s *gateService) Open(ctx context.Context, cmd UnlockCommand) (GateState, error) {
	now := s.clock()
	unlockAt, err := s.UnlockTime(ctx)
	if err != nil {
		return GateState{}, err
	}

	flags := cmd.Flags
	unlocked := flags.Unlocked || !now.Before(unlockAt) || cmd.Admin
	if !unlocked {
		return s.stateFrom(flags, now, unlockAt), ErrGateNotUnlocked
	}
	flags.Unlocked = true
	flags.Opened = true
	return s.stateFrom(flags, now, unlockAt), nil
}

func (s *gateService) Decide(ctx context.Context, path string, flags gate.Flags) (gate.Decision, error) {
	now := s.clock()
	unlockAt, err := s.UnlockTime(ctx)
	if err != nil {
		// The edge stays up on content outages: fall back to the
		// configured date rather than failing the page request.
		unlockAt = gate.UnlockTime("", s.fallbackDate, now)
	}
	return gate.DecideRoute(path, flags, now, unlockAt), nil
}

// UnlockTime resolves the unlock moment from the countdown_target content
// key, falling back to the configured month and day.
func (s *gateService) UnlockTime(ctx context.Context) (time.Time, error) {
	content, err := s.content.GetAll(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return gate.UnlockTime(content[domain.ContentKeyCountdownTarget], s.fallbackDate, s.clock()), nil
}

func (s *gateService) stateFrom(flags gate.Flags, now, unlockAt time.Time) GateState {
	// Opening implies unlocking, and an elapsed countdown unlocks even
	// before the browser persists the flag.
	flags.Unlocked = flags.Unlocked || flags.Opened || !now.Before(unlockAt)
	return GateState{
		Stage:        gate.StageOf(flags),
		UnlockAt:     unlockAt,
		ServerNow:    now.UTC(),
		Unlocked:     flags.Unlocked,
		Opened:       flags.Opened,
		MusicPlaying: flags.MusicPlaying,
		AdminBypass:  flags.AdminBypass,
	}
}
