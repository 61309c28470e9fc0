package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/iburimskiy/neural-nexus/internal/api"
	"github.com/iburimskiy/neural-nexus/internal/audio"
	"github.com/iburimskiy/neural-nexus/internal/media"
	"github.com/iburimskiy/neural-nexus/internal/settings"
	"github.com/iburimskiy/neural-nexus/internal/store"
	"github.com/iburimskiy/neural-nexus/internal/supervisor"
	"github.com/iburimskiy/neural-nexus/internal/validation"
)

// Backend is the recommendation service. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, creds validation.Credentials) (string, error)
	Signup(ctx context.Context, s validation.Signup) error
	Recommend(ctx context.Context, q api.Query, token string) ([]media.MediaItem, error)
	Similar(ctx context.Context, id media.ItemID) ([]media.MediaItem, error)
	AddToWishlist(ctx context.Context, token string, id media.ItemID) error
	RemoveFromWishlist(ctx context.Context, token string, id media.ItemID) error
	Wishlist(ctx context.Context, token string) ([]media.MediaItem, error)
}

// Store keeps the session and search history. *store.Store implements it.
type Store interface {
	Token() (string, error)
	SetToken(token string) error
	Username() (string, error)
	SetUsername(name string) error
	History() ([]store.HistoryEntry, error)
	AddHistory(query string, now time.Time) (store.HistoryEntry, error)
	Logout() error
}

// Dialogs asks the user for credentials and shows notices. The calls block
// and are only made off the game loop.
type Dialogs interface {
	// Login returns ErrSignupRequested when the user asks to register
	// instead, and ErrCanceled when the dialog is dismissed.
	Login() (validation.Credentials, error)
	Signup() (validation.Signup, error)
	Notify(msg string) error
}

// StatusSource reports backend reachability. *supervisor.HealthService
// implements it.
type StatusSource interface {
	Status() supervisor.Status
}

// Deps wires a Game to the rest of the client.
type Deps struct {
	Backend  Backend
	Store    Store
	Dialogs  Dialogs
	Settings *settings.Settings
	Status   StatusSource
	Cues     *audio.Cues

	// Model is the initial recommendation engine.
	Model string

	Rand *rand.Rand
	Now  func() time.Time

	// Done, when closed, ends the run loop.
	Done <-chan struct{}
}
