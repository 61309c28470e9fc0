package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/neural-nexus/internal/api"
	"github.com/iburimskiy/neural-nexus/internal/audio"
	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/logging"
	"github.com/iburimskiy/neural-nexus/internal/media"
	"github.com/iburimskiy/neural-nexus/internal/particles"
	"github.com/iburimskiy/neural-nexus/internal/store"
	"github.com/iburimskiy/neural-nexus/internal/supervisor"
	"github.com/iburimskiy/neural-nexus/internal/validation"
)

const maxQueryLen = 200

// Text shown in place of the result list.
const (
	msgScanning       = "NEURAL SCAN IN PROGRESS..."
	msgTriangulating  = "TRIANGULATING SIMILAR VECTORS..."
	msgLoadingWish    = "LOADING WISHLIST..."
	msgNoPatterns     = "NO PATTERNS FOUND"
	msgConnection     = "CONNECTION ERROR"
	msgLoginWishlist  = "PLEASE LOGIN TO VIEW WISHLIST"
	msgEmptyWishlist  = "YOUR WISHLIST IS EMPTY"
	msgNoHistory      = "NO SEARCH HISTORY"
	msgIdle           = "DESCRIBE WHAT YOU WANT TO WATCH AND PRESS ENTER"
	msgMissingCreds   = "MISSING CREDENTIALS"
	msgPasswordsDiff  = "PASSWORDS DO NOT MATCH"
	msgLoginOK        = "LOGIN SUCCESSFUL"
	msgAccountCreated = "ACCOUNT CREATED! PLEASE LOGIN."
	msgLoggedOut      = "LOGGED OUT"
)

type view int

const (
	viewResults view = iota
	viewSimilar
	viewWishlist
	viewHistory
)

// action is one user command, decoupled from the keys that trigger it.
type action int

const (
	actSubmit action = iota + 1
	actBackspace
	actUp
	actDown
	actPageUp
	actPageDown
	actBack
	actQuit
	actAbout
	actHistory
	actWishlist
	actAuth
	actSignup
	actRandom
	actModel
	actSort
	actFilter
	actTheme
	actToggleWish
	actSimilar
)

// Game is the windowed client: the particle backdrop plus the search UI.
// All fields are owned by the ebiten loop; background work reports back
// through inbox.
type Game struct {
	deps  Deps
	field *particles.Field
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan func(*Game)
	spawn  func(func())

	// session
	token string
	user  string
	model string

	// search box
	query []rune

	view       view
	showAbout  bool
	searched   bool
	lastSearch []media.MediaItem
	cards      []media.MediaItem
	similarOf  string
	history    []store.HistoryEntry
	wishIDs    map[media.ItemID]bool
	filter     media.Filter
	order      media.SortOrder
	selected   int
	scroll     int
	busy       string
	notice     string
	flash      string
	authBusy   bool
	seq        int

	lastErr error

	// window
	width, height int
	layoutW       int
	layoutH       int
	canvas        *Canvas
	ticks         int

	// toolbar button under the cursor and under a held click, -1 for none
	hovered int
	pressed int
}

// New builds the client around field. Background work starts with Start.
func New(field *particles.Field, deps Deps) *Game {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Model == "" {
		deps.Model = config.DefaultModel
	}
	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		deps:    deps,
		field:   field,
		log:     logging.WithComponent("game"),
		ctx:     ctx,
		cancel:  cancel,
		inbox:   make(chan func(*Game), 32),
		spawn:   func(f func()) { go f() },
		model:   deps.Model,
		wishIDs: map[media.ItemID]bool{},
		filter:  media.FilterAll,
		order:   media.SortRelevance,
		hovered: -1,
		pressed: -1,
	}
	g.canvas = NewCanvas(deps.Settings)
	return g
}

// Start restores the stored session and loads the wishlist markers.
func (g *Game) Start() {
	token, err := g.deps.Store.Token()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			g.reportErr(fmt.Errorf("read session: %w", err))
		}
		return
	}
	g.token = token
	if user, err := g.deps.Store.Username(); err == nil {
		g.user = user
	}
	g.refreshWishIDs()
}

// Close cancels in-flight requests.
func (g *Game) Close() { g.cancel() }

// async runs work off the game loop. The returned func, if any, is applied
// on the next Update.
func (g *Game) async(work func(ctx context.Context) func(*Game)) {
	ctx := g.ctx
	inbox := g.inbox
	g.spawn(func() {
		apply := work(ctx)
		if apply == nil {
			return
		}
		select {
		case inbox <- apply:
		case <-ctx.Done():
		}
	})
}

// drain applies every finished background result.
func (g *Game) drain() {
	for {
		select {
		case fn := <-g.inbox:
			fn(g)
		default:
			return
		}
	}
}

// step applies one frame of input. It returns ebiten.Termination to quit.
func (g *Game) step(acts []action, chars []rune) error {
	g.typeRunes(chars)
	for _, a := range acts {
		if err := g.do(a); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) typeRunes(chars []rune) {
	for _, r := range chars {
		if !unicode.IsPrint(r) || len(g.query) >= maxQueryLen {
			continue
		}
		g.query = append(g.query, r)
	}
}

func (g *Game) do(a action) error {
	switch a {
	case actSubmit:
		if g.view == viewHistory {
			if g.selected < len(g.history) {
				g.search(g.history[g.selected].Query)
			}
			return nil
		}
		g.search(string(g.query))
	case actBackspace:
		if n := len(g.query); n > 0 {
			g.query = g.query[:n-1]
		}
	case actUp:
		g.moveSelection(-1)
	case actDown:
		g.moveSelection(1)
	case actPageUp:
		g.moveSelection(-pageSize)
	case actPageDown:
		g.moveSelection(pageSize)
	case actBack:
		return g.back()
	case actQuit:
		return ebiten.Termination
	case actAbout:
		g.showAbout = !g.showAbout
	case actHistory:
		g.showHistory()
	case actWishlist:
		g.showWishlist()
	case actAuth:
		if g.token != "" {
			g.logout()
		} else {
			g.login()
		}
	case actSignup:
		if g.token == "" {
			g.signup()
		}
	case actRandom:
		q := media.RandomQuery(g.deps.Rand)
		g.query = []rune(q)
		g.search(q)
	case actModel:
		g.toggleModel()
	case actSort:
		g.order = g.order.Toggle()
		g.resetSelection()
	case actFilter:
		// The filter bar is hidden while exploring similar titles.
		if g.view != viewSimilar && g.view != viewHistory {
			g.filter = g.filter.Next()
			g.resetSelection()
		}
	case actTheme:
		theme, err := g.deps.Settings.ToggleTheme()
		if err != nil {
			g.reportErr(fmt.Errorf("save theme: %w", err))
		}
		g.log.Debug().Stringer("theme", theme).Msg("theme toggled")
	case actToggleWish:
		if item, ok := g.current(); ok {
			g.toggleWishlist(item)
		}
	case actSimilar:
		if item, ok := g.current(); ok {
			g.exploreSimilar(item)
		}
	}
	return nil
}

// back closes the topmost layer: the about panel, then a secondary view,
// then the query. With nothing left to close it quits.
func (g *Game) back() error {
	switch {
	case g.showAbout:
		g.showAbout = false
	case g.view != viewResults:
		g.returnToMain()
	case len(g.query) > 0:
		g.query = g.query[:0]
	default:
		return ebiten.Termination
	}
	return nil
}

// visible is the card list of the current view after filter and sort.
func (g *Game) visible() []media.MediaItem {
	switch g.view {
	case viewResults:
		return media.Apply(g.lastSearch, g.filter, g.order)
	case viewSimilar, viewWishlist:
		return media.Apply(g.cards, g.filter, g.order)
	default:
		return nil
	}
}

func (g *Game) rows() int {
	if g.view == viewHistory {
		return len(g.history)
	}
	return len(g.visible())
}

func (g *Game) current() (media.MediaItem, bool) {
	items := g.visible()
	if g.selected < 0 || g.selected >= len(items) {
		return media.MediaItem{}, false
	}
	return items[g.selected], true
}

// posterLink is the poster URL of the selected card, or "" when no card is
// selected.
func (g *Game) posterLink() string {
	if g.message() != "" {
		return ""
	}
	it, ok := g.current()
	if !ok {
		return ""
	}
	return it.ImageURL()
}

func (g *Game) moveSelection(delta int) {
	n := g.rows()
	if n == 0 {
		g.selected, g.scroll = 0, 0
		return
	}
	g.selected = min(max(g.selected+delta, 0), n-1)
}

func (g *Game) resetSelection() { g.selected, g.scroll = 0, 0 }

// message is the text shown instead of the list, or "" when the list has
// rows to show.
func (g *Game) message() string {
	switch {
	case g.busy != "":
		return g.busy
	case g.notice != "":
		return g.notice
	}
	switch g.view {
	case viewHistory:
		if len(g.history) == 0 {
			return msgNoHistory
		}
		return ""
	case viewWishlist:
		if len(g.cards) == 0 {
			return msgEmptyWishlist
		}
	case viewResults:
		if !g.searched {
			return msgIdle
		}
	}
	if len(g.visible()) == 0 {
		return msgNoPatterns
	}
	return ""
}

// returnToMain shows the last search again and drops pending view loads.
func (g *Game) returnToMain() {
	g.seq++
	g.view = viewResults
	g.busy, g.notice = "", ""
	g.cards, g.similarOf = nil, ""
	g.resetSelection()
}

// loading switches to v and returns the request number that must still be
// current when the result arrives.
func (g *Game) loading(v view, busy string) int {
	g.seq++
	g.view = v
	g.showAbout = false
	g.busy, g.notice, g.flash = busy, "", ""
	g.resetSelection()
	return g.seq
}

func (g *Game) search(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	g.query = []rune(text)
	if _, err := g.deps.Store.AddHistory(text, g.deps.Now()); err != nil {
		g.log.Warn().Err(err).Msg("history not saved")
	}

	seq := g.loading(viewResults, msgScanning)
	q := api.Query{Text: text, Model: g.model}
	token := g.token
	g.log.Info().Str("query", text).Str("model", q.Model).Bool("personalized", token != "").Msg("search")
	g.async(func(ctx context.Context) func(*Game) {
		items, err := g.deps.Backend.Recommend(ctx, q, token)
		return func(g *Game) {
			if seq != g.seq {
				return
			}
			g.busy = ""
			if err != nil {
				g.notice = msgConnection
				g.reportErr(err)
				return
			}
			g.searched = true
			g.lastSearch = items
			g.deps.Cues.Play(audio.CueSuccess)
		}
	})
}

func (g *Game) exploreSimilar(item media.MediaItem) {
	seq := g.loading(viewSimilar, msgTriangulating)
	g.cards = nil
	g.similarOf = item.Title
	g.async(func(ctx context.Context) func(*Game) {
		items, err := g.deps.Backend.Similar(ctx, item.ID)
		return func(g *Game) {
			if seq != g.seq {
				return
			}
			g.busy = ""
			if err != nil {
				g.notice = msgConnection
				g.reportErr(err)
				return
			}
			g.cards = items
			g.deps.Cues.Play(audio.CueSuccess)
		}
	})
}

func (g *Game) showWishlist() {
	if g.token == "" {
		g.loading(viewWishlist, "")
		g.cards = nil
		g.notice = msgLoginWishlist
		return
	}
	seq := g.loading(viewWishlist, msgLoadingWish)
	g.cards = nil
	token := g.token
	g.async(func(ctx context.Context) func(*Game) {
		items, err := g.deps.Backend.Wishlist(ctx, token)
		return func(g *Game) {
			if seq != g.seq {
				return
			}
			g.busy = ""
			if err != nil {
				g.notice = msgConnection
				g.reportErr(err)
				return
			}
			g.cards = items
			g.setWishIDs(items)
		}
	})
}

func (g *Game) showHistory() {
	g.loading(viewHistory, "")
	entries, err := g.deps.Store.History()
	if err != nil {
		g.reportErr(fmt.Errorf("read history: %w", err))
	}
	g.history = entries
}

func (g *Game) toggleWishlist(item media.MediaItem) {
	if g.token == "" {
		g.login()
		return
	}
	token := g.token
	remove := g.wishIDs[item.ID]
	g.async(func(ctx context.Context) func(*Game) {
		var err error
		if remove {
			err = g.deps.Backend.RemoveFromWishlist(ctx, token, item.ID)
		} else {
			err = g.deps.Backend.AddToWishlist(ctx, token, item.ID)
		}
		return func(g *Game) {
			if err != nil {
				g.reportErr(err)
				return
			}
			if remove {
				delete(g.wishIDs, item.ID)
				if g.view == viewWishlist {
					g.cards = without(g.cards, item.ID)
					g.moveSelection(0)
				}
			} else {
				g.wishIDs[item.ID] = true
			}
			g.deps.Cues.Play(audio.CueSuccess)
		}
	})
}

func (g *Game) refreshWishIDs() {
	token := g.token
	g.async(func(ctx context.Context) func(*Game) {
		items, err := g.deps.Backend.Wishlist(ctx, token)
		return func(g *Game) {
			if token != g.token {
				return
			}
			if err != nil {
				g.reportErr(err)
				return
			}
			g.setWishIDs(items)
		}
	})
}

func (g *Game) setWishIDs(items []media.MediaItem) {
	g.wishIDs = make(map[media.ItemID]bool, len(items))
	for _, it := range items {
		g.wishIDs[it.ID] = true
	}
}

func (g *Game) toggleModel() {
	if g.model == config.AlternateModel {
		g.model = config.DefaultModel
	} else {
		g.model = config.AlternateModel
	}
	g.flash = "MODEL: " + modelLabel(g.model)
}

func (g *Game) login() {
	if g.authBusy {
		return
	}
	g.authBusy = true
	g.async(func(ctx context.Context) func(*Game) {
		creds, err := g.deps.Dialogs.Login()
		switch {
		case errors.Is(err, ErrSignupRequested):
			return func(g *Game) {
				g.authBusy = false
				g.signup()
			}
		case errors.Is(err, ErrCanceled):
			return func(g *Game) { g.authBusy = false }
		case err != nil:
			return authFailed(fmt.Errorf("login dialog: %w", err))
		}
		if err := validation.ValidateStruct(creds); err != nil {
			g.notify(msgMissingCreds)
			return authFailed(err)
		}
		token, err := g.deps.Backend.Login(ctx, creds)
		if err != nil {
			return authFailed(err)
		}
		g.notify(msgLoginOK)
		return func(g *Game) {
			g.authBusy = false
			g.setSession(token, creds.Username)
			g.deps.Cues.Play(audio.CueSuccess)
		}
	})
}

func (g *Game) signup() {
	if g.authBusy {
		return
	}
	g.authBusy = true
	g.async(func(ctx context.Context) func(*Game) {
		req, err := g.deps.Dialogs.Signup()
		switch {
		case errors.Is(err, ErrCanceled):
			return func(g *Game) { g.authBusy = false }
		case err != nil:
			return authFailed(fmt.Errorf("signup dialog: %w", err))
		}
		if err := validation.ValidateStruct(req); err != nil {
			var ve *validation.Error
			if errors.As(err, &ve) && ve.Has("confirm", "eqfield") {
				g.notify(msgPasswordsDiff)
			} else {
				g.notify(msgMissingCreds)
			}
			return authFailed(err)
		}
		if err := g.deps.Backend.Signup(ctx, req); err != nil {
			return authFailed(err)
		}
		g.notify(msgAccountCreated)
		return func(g *Game) {
			g.authBusy = false
			g.deps.Cues.Play(audio.CueSuccess)
			g.login()
		}
	})
}

func authFailed(err error) func(*Game) {
	return func(g *Game) {
		g.authBusy = false
		g.reportErr(err)
	}
}

// notify shows a blocking notice; only call it off the game loop.
func (g *Game) notify(msg string) {
	if err := g.deps.Dialogs.Notify(msg); err != nil && !errors.Is(err, ErrCanceled) {
		g.log.Warn().Err(err).Str("msg", msg).Msg("notice not shown")
	}
}

func (g *Game) setSession(token, user string) {
	if err := g.deps.Store.SetToken(token); err != nil {
		g.reportErr(fmt.Errorf("save session: %w", err))
	}
	if err := g.deps.Store.SetUsername(user); err != nil {
		g.reportErr(fmt.Errorf("save session: %w", err))
	}
	g.token, g.user = token, user
	g.lastErr = nil
	g.flash = msgLoginOK
	g.log.Info().Str("user", user).Msg("logged in")
	g.refreshWishIDs()
}

func (g *Game) logout() {
	if err := g.deps.Store.Logout(); err != nil {
		g.reportErr(fmt.Errorf("logout: %w", err))
	}
	g.clearSession()
	g.history = nil
	if g.view == viewWishlist {
		g.showWishlist()
	}
	g.flash = msgLoggedOut
}

func (g *Game) clearSession() {
	g.token, g.user = "", ""
	g.wishIDs = map[media.ItemID]bool{}
}

// reportErr puts err on the error line. A rejected token ends the session.
func (g *Game) reportErr(err error) {
	if api.IsUnauthorized(err) && g.token != "" {
		if serr := g.deps.Store.Logout(); serr != nil {
			g.log.Warn().Err(serr).Msg("stale session not cleared")
		}
		g.clearSession()
		err = fmt.Errorf("session expired, please login: %w", err)
	}
	g.lastErr = err
	g.log.Warn().Err(err).Msg("request failed")
	g.deps.Cues.Play(audio.CueFailure)
}

func (g *Game) status() supervisor.Status {
	if g.deps.Status == nil {
		return supervisor.StatusUnknown
	}
	return g.deps.Status.Status()
}

func without(items []media.MediaItem, id media.ItemID) []media.MediaItem {
	out := items[:0:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func modelLabel(model string) string {
	if model == config.AlternateModel {
		return "EXTERNAL API"
	}
	return "INTERNAL CORE"
}
