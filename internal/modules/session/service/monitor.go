package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/internal/modules/user/dto"
	"anoa.com/communityreview/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type View string

const (
	ViewAuth View = "auth"
	ViewMain View = "main"
)

const (
	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
)

type State struct {
	Authenticated bool            `json:"authenticated"`
	Identity      *dto.Identity   `json:"identity,omitempty"`
	Profile       *entity.Profile `json:"profile,omitempty"`
	View          View            `json:"view"`
}

type Event struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*dto.Claims, error)
}

type ProfileFinder interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
}

type Monitor struct {
	tokens   TokenParser
	profiles ProfileFinder
	rdb      *redis.Client
	hub      *hub
	now      func() time.Time
}

// NewMonitor publishes over Redis when rdb is set and keeps events inside
// the process otherwise. The token parser is attached later with
// SetTokenParser because the auth service publishes to the monitor.
func NewMonitor(profiles ProfileFinder, rdb *redis.Client) *Monitor {
	return &Monitor{
		profiles: profiles,
		rdb:      rdb,
		hub:      newHub(),
		now:      time.Now,
	}
}

func (m *Monitor) SetTokenParser(tokens TokenParser) {
	m.tokens = tokens
}

func channelName(userID uuid.UUID) string {
	return fmt.Sprintf("auth_state:%s", userID)
}

func signedOut() *State {
	return &State{View: ViewAuth}
}

// Resolve turns a session token into the state the page renders. Bad or
// expired tokens resolve to the signed out state rather than an error.
func (m *Monitor) Resolve(ctx context.Context, token string) (*State, error) {
	if token == "" || m.tokens == nil {
		return signedOut(), nil
	}

	claims, err := m.tokens.ParseToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			return signedOut(), nil
		}
		return nil, err
	}

	identity, err := claims.Identity()
	if err != nil {
		return signedOut(), nil
	}

	state := &State{
		Authenticated: true,
		Identity:      &identity,
		View:          ViewMain,
	}

	profile, err := m.profiles.FindProfile(ctx, identity.UserID)
	switch {
	case err == nil:
		state.Profile = profile
	case errors.Is(err, apperror.ErrNotFound):
		log.Warn().Str("user_id", identity.UserID.String()).Msg("signed in user has no profile")
	default:
		return nil, err
	}

	return state, nil
}

func (m *Monitor) SignedIn(ctx context.Context, identity dto.Identity) error {
	return m.publish(ctx, EventSignedIn, identity)
}

func (m *Monitor) SignedOut(ctx context.Context, identity dto.Identity) error {
	return m.publish(ctx, EventSignedOut, identity)
}

func (m *Monitor) publish(ctx context.Context, kind string, identity dto.Identity) error {
	event := Event{
		Type:   kind,
		UserID: identity.UserID,
		Email:  identity.Email,
		At:     m.now().UTC(),
	}

	if m.rdb == nil {
		m.hub.publish(event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return m.rdb.Publish(ctx, channelName(identity.UserID), payload).Err()
}

// Subscribe streams auth transitions of one identity until ctx is done or
// cancel is called.
func (m *Monitor) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Event, func(), error) {
	if m.rdb == nil {
		ch, release := m.hub.subscribe(userID)
		done := make(chan struct{})
		var once sync.Once
		cancel := func() {
			once.Do(func() {
				close(done)
				release()
			})
		}
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
		return ch, cancel, nil
	}

	pubsub := m.rdb.Subscribe(ctx, channelName(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to auth state: %w", err)
	}

	out := make(chan Event, 8)
	done := make(chan struct{})
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Warn().Err(err).Msg("dropping malformed auth state event")
					continue
				}
				select {
				case out <- event:
				default:
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}
	return out, cancel, nil
}
