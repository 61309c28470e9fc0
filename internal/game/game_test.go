package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/neural-nexus/internal/api"
	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/media"
	"github.com/iburimskiy/neural-nexus/internal/particles"
	"github.com/iburimskiy/neural-nexus/internal/settings"
	"github.com/iburimskiy/neural-nexus/internal/store"
	"github.com/iburimskiy/neural-nexus/internal/supervisor"
	"github.com/iburimskiy/neural-nexus/internal/validation"
)

// fakeBackend answers from canned data. Tests run background work
// synchronously, so it needs no locking.
type fakeBackend struct {
	results  map[string][]media.MediaItem
	recErr   error
	queries  []api.Query
	tokens   []string
	similar  []media.MediaItem
	similarQ []media.ItemID
	wishlist []media.MediaItem
	added    []media.ItemID
	removed  []media.ItemID

	loginToken string
	loginErr   error
	logins     []validation.Credentials
	signups    []validation.Signup
}

func (b *fakeBackend) Login(_ context.Context, c validation.Credentials) (string, error) {
	b.logins = append(b.logins, c)
	return b.loginToken, b.loginErr
}

func (b *fakeBackend) Signup(_ context.Context, s validation.Signup) error {
	b.signups = append(b.signups, s)
	return nil
}

func (b *fakeBackend) Recommend(_ context.Context, q api.Query, token string) ([]media.MediaItem, error) {
	b.queries = append(b.queries, q)
	b.tokens = append(b.tokens, token)
	if b.recErr != nil {
		return nil, b.recErr
	}
	return b.results[q.Text], nil
}

func (b *fakeBackend) Similar(_ context.Context, id media.ItemID) ([]media.MediaItem, error) {
	b.similarQ = append(b.similarQ, id)
	return b.similar, nil
}

func (b *fakeBackend) AddToWishlist(_ context.Context, _ string, id media.ItemID) error {
	b.added = append(b.added, id)
	return nil
}

func (b *fakeBackend) RemoveFromWishlist(_ context.Context, _ string, id media.ItemID) error {
	b.removed = append(b.removed, id)
	return nil
}

func (b *fakeBackend) Wishlist(context.Context, string) ([]media.MediaItem, error) {
	return b.wishlist, nil
}

type loginReply struct {
	creds validation.Credentials
	err   error
}

type signupReply struct {
	req validation.Signup
	err error
}

// fakeDialogs pops replies in order and cancels once they run out.
type fakeDialogs struct {
	logins      []loginReply
	signups     []signupReply
	loginCalls  int
	signupCalls int
	notices     []string
}

func (d *fakeDialogs) Login() (validation.Credentials, error) {
	d.loginCalls++
	if len(d.logins) == 0 {
		return validation.Credentials{}, ErrCanceled
	}
	r := d.logins[0]
	d.logins = d.logins[1:]
	return r.creds, r.err
}

func (d *fakeDialogs) Signup() (validation.Signup, error) {
	d.signupCalls++
	if len(d.signups) == 0 {
		return validation.Signup{}, ErrCanceled
	}
	r := d.signups[0]
	d.signups = d.signups[1:]
	return r.req, r.err
}

func (d *fakeDialogs) Notify(msg string) error {
	d.notices = append(d.notices, msg)
	return nil
}

type fixedStatus supervisor.Status

func (s fixedStatus) Status() supervisor.Status { return supervisor.Status(s) }

var items = []media.MediaItem{
	{ID: "1", Title: "Alien", Type: "Movie", Rating: media.Rating{Value: 8.5, Valid: true}},
	{ID: "2", Title: "Cowboy Bebop", Type: "Anime Series", Rating: media.Rating{Value: 8.9, Valid: true}},
	{ID: "3", Title: "Cosmos", Type: "Documentary", Rating: media.Rating{Value: 9.3, Valid: true}},
	{ID: "4", Title: "Blade Runner", Type: "movie", Rating: media.Rating{Value: 8.1, Valid: true}},
}

func newTestGame(t *testing.T, b *fakeBackend, d *fakeDialogs) (*Game, *store.Store) {
	t.Helper()
	st, err := store.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := New(particles.New(particles.DefaultOptions(), rand.New(rand.NewSource(1))), Deps{
		Backend:  b,
		Store:    st,
		Dialogs:  d,
		Settings: settings.New("dark", nil),
		Status:   fixedStatus(supervisor.StatusOnline),
		Rand:     rand.New(rand.NewSource(1)),
		Now:      func() time.Time { return now },
	})
	g.spawn = func(f func()) { f() }
	t.Cleanup(g.Close)
	return g, st
}

func typeAndSubmit(t *testing.T, g *Game, q string) {
	t.Helper()
	if err := g.step([]action{actSubmit}, []rune(q)); err != nil {
		t.Fatalf("step: %v", err)
	}
}

func titles(items []media.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestSearch(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"space horror": items}}
	g, st := newTestGame(t, b, &fakeDialogs{})

	if g.message() != msgIdle {
		t.Errorf("idle message = %q", g.message())
	}
	typeAndSubmit(t, g, "  space horror ")
	if g.message() != msgScanning {
		t.Errorf("message while loading = %q", g.message())
	}
	g.drain()

	if g.message() != "" {
		t.Errorf("message after results = %q", g.message())
	}
	if len(g.visible()) != len(items) {
		t.Errorf("visible = %d items", len(g.visible()))
	}
	if len(b.queries) != 1 || b.queries[0].Text != "space horror" || b.queries[0].Model != config.DefaultModel {
		t.Errorf("queries = %+v", b.queries)
	}
	if b.tokens[0] != "" {
		t.Errorf("anonymous search sent token %q", b.tokens[0])
	}
	h, err := st.History()
	if err != nil || len(h) != 1 || h[0].Query != "space horror" {
		t.Errorf("history = %+v, %v", h, err)
	}
}

func TestSearchIgnoresBlankQuery(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	typeAndSubmit(t, g, "   ")
	g.drain()
	if len(b.queries) != 0 {
		t.Errorf("blank query sent: %+v", b.queries)
	}
}

func TestSearchErrorAndEmptyResults(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{recErr: errors.New("dial tcp: connection refused")}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	typeAndSubmit(t, g, "noir")
	g.drain()
	if g.message() != msgConnection || g.lastErr == nil {
		t.Errorf("message = %q, lastErr = %v", g.message(), g.lastErr)
	}

	b.recErr = nil
	typeAndSubmit(t, g, "")
	g.drain()
	if g.message() != msgNoPatterns {
		t.Errorf("empty result message = %q", g.message())
	}
}

func TestStaleResultsAreDropped(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{
		"first":  items[:1],
		"second": items[1:2],
	}}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	var pending []func()
	g.spawn = func(f func()) { pending = append(pending, f) }

	typeAndSubmit(t, g, "first")
	g.query = nil
	typeAndSubmit(t, g, "second")
	pending[1]()
	pending[0]()
	g.drain()

	if got := titles(g.lastSearch); len(got) != 1 || got[0] != "Cowboy Bebop" {
		t.Errorf("lastSearch = %v, want the second search", got)
	}
}

func TestFilterSortAndSelection(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"x": items}}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	typeAndSubmit(t, g, "x")
	g.drain()

	mustStep(t, g, actFilter)
	if g.filter != media.FilterMovie {
		t.Fatalf("filter = %q", g.filter)
	}
	if got := titles(g.visible()); len(got) != 2 || got[0] != "Alien" || got[1] != "Blade Runner" {
		t.Errorf("movie filter = %v", got)
	}

	mustStep(t, g, actFilter, actFilter, actFilter, actFilter, actSort)
	if g.filter != media.FilterAll || g.order != media.SortRating {
		t.Fatalf("filter, order = %q, %q", g.filter, g.order)
	}
	if got := titles(g.visible()); got[0] != "Cosmos" || got[3] != "Blade Runner" {
		t.Errorf("rating order = %v", got)
	}

	mustStep(t, g, actDown, actDown, actPageDown)
	if g.selected != 3 {
		t.Errorf("selection past the end = %d", g.selected)
	}
	mustStep(t, g, actPageUp)
	if g.selected != 0 {
		t.Errorf("selection before the start = %d", g.selected)
	}
}

func mustStep(t *testing.T, g *Game, acts ...action) {
	t.Helper()
	if err := g.step(acts, nil); err != nil {
		t.Fatalf("step(%v) = %v", acts, err)
	}
}

func TestBackClosesLayersThenQuits(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"x": items}, similar: items[2:]}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	typeAndSubmit(t, g, "x")
	g.drain()
	mustStep(t, g, actSimilar, actAbout)

	steps := []struct {
		check func() bool
		name  string
	}{
		{func() bool { return !g.showAbout && g.view == viewSimilar }, "about closed"},
		{func() bool { return g.view == viewResults && len(g.query) == 1 }, "returned to search"},
		{func() bool { return len(g.query) == 0 }, "query cleared"},
	}
	for _, s := range steps {
		mustStep(t, g, actBack)
		if !s.check() {
			t.Fatalf("after Esc: want %s", s.name)
		}
	}
	if err := g.step([]action{actBack}, nil); !errors.Is(err, ebiten.Termination) {
		t.Errorf("final Esc = %v, want Termination", err)
	}
	if err := g.step([]action{actQuit}, nil); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Ctrl+Q = %v, want Termination", err)
	}
}

func TestExploreSimilar(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"x": items}, similar: items[2:]}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	typeAndSubmit(t, g, "x")
	g.drain()

	mustStep(t, g, actDown, actSimilar)
	if g.view != viewSimilar || g.similarOf != "Cowboy Bebop" || g.message() != msgTriangulating {
		t.Fatalf("view = %v, similarOf = %q, message = %q", g.view, g.similarOf, g.message())
	}
	g.drain()
	if len(b.similarQ) != 1 || b.similarQ[0] != "2" {
		t.Errorf("similar requested for %v", b.similarQ)
	}
	if got := titles(g.visible()); len(got) != 2 {
		t.Errorf("similar cards = %v", got)
	}

	if got, want := g.posterLink(), "https://placehold.co/300x450/111/FFF?text=Cosmos"; got != want {
		t.Errorf("posterLink() = %q, want %q", got, want)
	}

	mustStep(t, g, actFilter)
	if g.filter != media.FilterAll {
		t.Errorf("filter changed in similar view: %q", g.filter)
	}

	mustStep(t, g, actBack)
	if g.view != viewResults || len(g.visible()) != len(items) {
		t.Errorf("return to search: view = %v, %d cards", g.view, len(g.visible()))
	}

	mustStep(t, g, actHistory)
	if link := g.posterLink(); link != "" {
		t.Errorf("history view shows poster %q", link)
	}
}

func TestWishlistNeedsLogin(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"x": items}}
	d := &fakeDialogs{}
	g, _ := newTestGame(t, b, d)

	mustStep(t, g, actWishlist)
	if g.view != viewWishlist || g.message() != msgLoginWishlist {
		t.Errorf("view = %v, message = %q", g.view, g.message())
	}

	mustStep(t, g, actBack)
	typeAndSubmit(t, g, "x")
	g.drain()
	mustStep(t, g, actToggleWish)
	g.drain()
	if d.loginCalls != 1 || len(b.added) != 0 {
		t.Errorf("login dialogs = %d, added = %v", d.loginCalls, b.added)
	}
	if g.authBusy {
		t.Error("cancelled login left the auth flow busy")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{loginToken: "tok", wishlist: items[:2]}
	d := &fakeDialogs{logins: []loginReply{{creds: validation.Credentials{Username: "neo", Password: "matrix"}}}}
	g, st := newTestGame(t, b, d)

	mustStep(t, g, actAuth)
	g.drain()

	if g.token != "tok" || g.user != "neo" {
		t.Errorf("session = %q, %q", g.token, g.user)
	}
	if tok, err := st.Token(); err != nil || tok != "tok" {
		t.Errorf("stored token = %q, %v", tok, err)
	}
	if !g.wishIDs["1"] || !g.wishIDs["2"] || g.wishIDs["3"] {
		t.Errorf("wishIDs = %v", g.wishIDs)
	}
	if len(d.notices) != 1 || d.notices[0] != msgLoginOK {
		t.Errorf("notices = %v", d.notices)
	}

	mustStep(t, g, actWishlist)
	g.drain()
	if got := titles(g.visible()); len(got) != 2 {
		t.Errorf("wishlist view = %v", got)
	}

	mustStep(t, g, actAuth)
	if g.token != "" || len(g.wishIDs) != 0 || g.message() != msgLoginWishlist {
		t.Errorf("after logout: token = %q, wishIDs = %v, message = %q", g.token, g.wishIDs, g.message())
	}
	if _, err := st.Token(); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("token survived logout: %v", err)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{loginToken: "tok"}
	d := &fakeDialogs{logins: []loginReply{{creds: validation.Credentials{Username: "neo"}}}}
	g, _ := newTestGame(t, b, d)

	mustStep(t, g, actAuth)
	g.drain()
	if len(b.logins) != 0 {
		t.Errorf("incomplete credentials sent: %+v", b.logins)
	}
	if len(d.notices) != 1 || d.notices[0] != msgMissingCreds {
		t.Errorf("notices = %v", d.notices)
	}
	if g.token != "" || g.authBusy || g.lastErr == nil {
		t.Errorf("token = %q, authBusy = %v, lastErr = %v", g.token, g.authBusy, g.lastErr)
	}
}

func TestSignup(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	d := &fakeDialogs{
		logins: []loginReply{{err: ErrSignupRequested}},
		signups: []signupReply{
			{req: validation.Signup{Username: "neo", Email: "neo@zion.io", Password: "a", Confirm: "b"}},
			{req: validation.Signup{Username: "neo", Email: "neo@zion.io", Password: "a", Confirm: "a"}},
		},
	}
	g, _ := newTestGame(t, b, d)

	mustStep(t, g, actAuth)
	g.drain()
	if d.signupCalls != 1 || len(b.signups) != 0 {
		t.Fatalf("signup dialogs = %d, sent = %v", d.signupCalls, b.signups)
	}
	if len(d.notices) != 1 || d.notices[0] != msgPasswordsDiff {
		t.Errorf("notices = %v", d.notices)
	}

	mustStep(t, g, actSignup)
	g.drain()
	if len(b.signups) != 1 || b.signups[0].Username != "neo" {
		t.Errorf("sent = %+v", b.signups)
	}
	if d.notices[len(d.notices)-1] != msgAccountCreated {
		t.Errorf("notices = %v", d.notices)
	}
	// A created account goes straight to the login dialog.
	if d.loginCalls != 2 {
		t.Errorf("login dialogs = %d", d.loginCalls)
	}
}

func TestToggleWishlist(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"x": items}}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	g.token = "tok"
	typeAndSubmit(t, g, "x")
	g.drain()

	mustStep(t, g, actToggleWish)
	g.drain()
	if !g.wishIDs["1"] || len(b.added) != 1 {
		t.Fatalf("add: wishIDs = %v, added = %v", g.wishIDs, b.added)
	}
	mustStep(t, g, actToggleWish)
	g.drain()
	if g.wishIDs["1"] || len(b.removed) != 1 || b.removed[0] != "1" {
		t.Errorf("remove: wishIDs = %v, removed = %v", g.wishIDs, b.removed)
	}
}

func TestUnauthorizedEndsSession(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{recErr: &api.APIError{Status: 401, Detail: "Could not validate credentials"}}
	g, st := newTestGame(t, b, &fakeDialogs{})
	if err := st.SetToken("stale"); err != nil {
		t.Fatal(err)
	}
	g.Start()
	g.drain()
	if g.token != "stale" {
		t.Fatalf("Start did not restore token: %q", g.token)
	}

	typeAndSubmit(t, g, "x")
	g.drain()
	if b.tokens[0] != "stale" {
		t.Errorf("personalized search token = %q", b.tokens[0])
	}
	if g.token != "" || !api.IsUnauthorized(g.lastErr) {
		t.Errorf("token = %q, lastErr = %v", g.token, g.lastErr)
	}
	if _, err := st.Token(); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stale token kept: %v", err)
	}
}

func TestStartRestoresSession(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{wishlist: items[3:]}
	g, st := newTestGame(t, b, &fakeDialogs{})
	if err := st.SetToken("tok"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetUsername("trinity"); err != nil {
		t.Fatal(err)
	}
	g.Start()
	g.drain()
	if g.token != "tok" || g.user != "trinity" || !g.wishIDs["4"] {
		t.Errorf("token = %q, user = %q, wishIDs = %v", g.token, g.user, g.wishIDs)
	}

	fresh, _ := newTestGame(t, b, &fakeDialogs{})
	fresh.Start()
	fresh.drain()
	if fresh.token != "" || fresh.lastErr != nil {
		t.Errorf("empty store: token = %q, lastErr = %v", fresh.token, fresh.lastErr)
	}
}

func TestHistoryReload(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	g, _ := newTestGame(t, b, &fakeDialogs{})

	mustStep(t, g, actHistory)
	if g.message() != msgNoHistory {
		t.Errorf("empty history message = %q", g.message())
	}
	mustStep(t, g, actBack)

	typeAndSubmit(t, g, "first")
	g.query = nil
	typeAndSubmit(t, g, "second")
	g.drain()

	mustStep(t, g, actHistory)
	if len(g.history) != 2 || g.history[0].Query != "second" {
		t.Fatalf("history = %+v", g.history)
	}
	mustStep(t, g, actDown, actSubmit)
	g.drain()
	if last := b.queries[len(b.queries)-1]; last.Text != "first" {
		t.Errorf("reloaded %q", last.Text)
	}
	if g.view != viewResults || string(g.query) != "first" {
		t.Errorf("view = %v, query = %q", g.view, string(g.query))
	}
}

func TestModelAndRandomQuery(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	g, _ := newTestGame(t, b, &fakeDialogs{})

	mustStep(t, g, actModel, actRandom)
	g.drain()
	if g.model != config.AlternateModel {
		t.Errorf("model = %q", g.model)
	}
	if len(b.queries) != 1 || b.queries[0].Model != config.AlternateModel || b.queries[0].Text == "" {
		t.Errorf("queries = %+v", b.queries)
	}
	mustStep(t, g, actModel)
	if g.model != config.DefaultModel {
		t.Errorf("model = %q", g.model)
	}
}

func TestThemeToggle(t *testing.T) {
	t.Parallel()

	g, _ := newTestGame(t, &fakeBackend{}, &fakeDialogs{})
	mustStep(t, g, actTheme)
	if g.deps.Settings.Theme() != particles.Light {
		t.Errorf("theme = %v", g.deps.Settings.Theme())
	}
}

func TestTypeRunes(t *testing.T) {
	t.Parallel()

	g, _ := newTestGame(t, &fakeBackend{}, &fakeDialogs{})
	g.typeRunes([]rune("a\tb\x00c"))
	if string(g.query) != "abc" {
		t.Errorf("query = %q", string(g.query))
	}
	mustStep(t, g, actBackspace)
	if string(g.query) != "ab" {
		t.Errorf("after backspace = %q", string(g.query))
	}
	long := make([]rune, maxQueryLen+10)
	for i := range long {
		long[i] = 'x'
	}
	g.typeRunes(long)
	if len(g.query) != maxQueryLen {
		t.Errorf("query length = %d", len(g.query))
	}
}

func TestScrollAndRowAt(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{results: map[string][]media.MediaItem{"x": append(append([]media.MediaItem{}, items...), items...)}}
	g, _ := newTestGame(t, b, &fakeDialogs{})
	g.Layout(800, listTop+footerHeight+3*rowHeight)
	typeAndSubmit(t, g, "x")
	g.drain()

	if g.capacity() != 3 {
		t.Fatalf("capacity = %d", g.capacity())
	}
	mustStep(t, g, actDown, actDown, actDown, actDown)
	g.ensureVisible()
	if g.scroll != 2 {
		t.Errorf("scroll = %d", g.scroll)
	}
	if i, ok := g.rowAt(100, listTop+rowHeight+5); !ok || i != 3 {
		t.Errorf("rowAt = %d, %v", i, ok)
	}
	if _, ok := g.rowAt(100, listTop-5); ok {
		t.Error("rowAt above the list")
	}
}

func TestTrackResize(t *testing.T) {
	t.Parallel()

	g, _ := newTestGame(t, &fakeBackend{}, &fakeDialogs{})
	g.Layout(1024, 600)
	g.trackResize()
	if g.field.Size() != (particles.Size{Width: 1024, Height: 600}) {
		t.Fatalf("first layout size = %+v", g.field.Size())
	}
	g.Layout(1280, 800)
	g.trackResize()
	if !g.field.ResizePending() || g.field.Size().Width != 1024 {
		t.Errorf("resize not debounced: pending = %v, size = %+v", g.field.ResizePending(), g.field.Size())
	}
}

func TestButtons(t *testing.T) {
	t.Parallel()

	g, _ := newTestGame(t, &fakeBackend{}, &fakeDialogs{})
	bs := g.buttons()
	if bs[len(bs)-1].label != "SIGN UP" {
		t.Errorf("anonymous toolbar ends with %q", bs[len(bs)-1].label)
	}
	for i := 1; i < len(bs); i++ {
		if bs[i].x <= bs[i-1].x+bs[i-1].w {
			t.Errorf("buttons %d and %d overlap", i-1, i)
		}
	}
	if !bs[0].contains(bs[0].x+1, bs[0].y+1) || bs[0].contains(bs[0].x-1, bs[0].y) {
		t.Error("contains")
	}
	g.token = "tok"
	for _, b := range g.buttons() {
		if b.label == "SIGN UP" || b.label == "LOGIN" {
			t.Errorf("logged-in toolbar has %q", b.label)
		}
	}
}
