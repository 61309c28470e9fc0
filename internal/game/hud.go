package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/iburimskiy/neural-nexus/internal/media"
	"github.com/iburimskiy/neural-nexus/internal/particles"
	"github.com/iburimskiy/neural-nexus/internal/supervisor"
)

// HUD geometry in window pixels.
const (
	margin       = 24
	charWidth    = 7
	lineHeight   = 14
	buttonY      = 34
	buttonHeight = 24
	buttonPad    = 8
	searchY      = 70
	searchHeight = 28
	barY         = 108
	listTop      = 132
	rowHeight    = 36
	footerHeight = 56
	pageSize     = 5
)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

type palette struct {
	text, dim, accent, panel, err color.NRGBA
}

func paletteFor(t particles.Theme) palette {
	if t == particles.Light {
		return palette{
			text:   color.NRGBA{R: 20, G: 20, B: 30, A: 255},
			dim:    color.NRGBA{R: 90, G: 90, B: 110, A: 255},
			accent: color.NRGBA{R: 120, G: 40, B: 220, A: 255},
			panel:  color.NRGBA{R: 255, G: 255, B: 255, A: 200},
			err:    color.NRGBA{R: 200, G: 0, B: 40, A: 255},
		}
	}
	return palette{
		text:   color.NRGBA{R: 0, G: 243, B: 255, A: 255},
		dim:    color.NRGBA{R: 120, G: 150, B: 170, A: 255},
		accent: color.NRGBA{R: 255, G: 0, B: 200, A: 255},
		panel:  color.NRGBA{R: 0, G: 0, B: 0, A: 170},
		err:    color.NRGBA{R: 255, G: 60, B: 90, A: 255},
	}
}

// typeColors tint the media type label.
var typeColors = map[string]color.NRGBA{
	"movie": {R: 255, G: 80, B: 80, A: 255},
	"tv":    {R: 80, G: 220, B: 120, A: 255},
	"anime": {R: 255, G: 120, B: 220, A: 255},
	"doc":   {R: 240, G: 200, B: 60, A: 255},
}

var statusColors = map[supervisor.Status]color.NRGBA{
	supervisor.StatusUnknown: {R: 150, G: 150, B: 150, A: 255},
	supervisor.StatusOnline:  {R: 0, G: 255, B: 120, A: 255},
	supervisor.StatusOffline: {R: 255, G: 40, B: 60, A: 255},
}

type button struct {
	label      string
	act        action
	x, y, w, h int
}

func (b button) contains(x, y int) bool {
	return x >= b.x && x <= b.x+b.w && y >= b.y && y <= b.y+b.h
}

// buttons lays out the toolbar for the current state.
func (g *Game) buttons() []button {
	auth := "LOGIN"
	if g.token != "" {
		auth = "LOGOUT"
	}
	labels := []struct {
		label string
		act   action
	}{
		{"SEARCH", actSubmit},
		{"RANDOM", actRandom},
		{"HISTORY", actHistory},
		{"WISHLIST", actWishlist},
		{"MODEL", actModel},
		{"THEME", actTheme},
		{auth, actAuth},
		{"ABOUT", actAbout},
	}
	if g.token == "" {
		labels = append(labels, struct {
			label string
			act   action
		}{"SIGN UP", actSignup})
	}
	out := make([]button, 0, len(labels))
	x := margin
	for _, l := range labels {
		w := len(l.label)*charWidth + 2*buttonPad
		out = append(out, button{label: l.label, act: l.act, x: x, y: buttonY, w: w, h: buttonHeight})
		x += w + buttonPad
	}
	return out
}

// capacity is how many list rows fit in the window.
func (g *Game) capacity() int {
	return max((g.height-listTop-footerHeight)/rowHeight, 1)
}

// ensureVisible scrolls the list so the selection is on screen.
func (g *Game) ensureVisible() {
	n := g.capacity()
	if g.selected < g.scroll {
		g.scroll = g.selected
	}
	if g.selected >= g.scroll+n {
		g.scroll = g.selected - n + 1
	}
	g.scroll = max(g.scroll, 0)
}

// rowAt maps a window position to a list index.
func (g *Game) rowAt(x, y int) (int, bool) {
	if x < margin || x > g.width-margin || y < listTop {
		return 0, false
	}
	i := g.scroll + (y-listTop)/rowHeight
	if i >= g.scroll+g.capacity() || i >= g.rows() {
		return 0, false
	}
	return i, true
}

func drawText(dst *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, asciiOnly(s), hudFace, op)
}

// columns is how many characters fit between the margins.
func (g *Game) columns() int {
	return max((g.width-2*margin)/charWidth, 0)
}

func (g *Game) drawHUD(screen *ebiten.Image, pal palette) {
	g.drawHeader(screen, pal)
	g.drawToolbar(screen, pal)
	g.drawSearchBox(screen, pal)
	g.drawBar(screen, pal)
	g.drawList(screen, pal)
	g.drawFooter(screen, pal)
	if g.showAbout {
		g.drawAbout(screen, pal)
	}
}

func (g *Game) drawHeader(screen *ebiten.Image, pal palette) {
	drawText(screen, "NEURAL NEXUS", margin, 10, pal.text)

	who := "GUEST"
	if g.user != "" {
		who = strings.ToUpper(g.user)
	}
	st := g.status()
	right := fmt.Sprintf("%s | %s | %s", who, modelLabel(g.model), st)
	x := float64(g.width - margin - len(right)*charWidth)
	vector.DrawFilledCircle(screen, float32(x-10), 17, 4, statusColors[st], true)
	drawText(screen, right, x, 10, pal.dim)
}

// drawToolbar draws the buttons in their hovered and pressed states.
func (g *Game) drawToolbar(screen *ebiten.Image, pal palette) {
	for i, b := range g.buttons() {
		bg := pal.panel
		switch {
		case i == g.pressed && i == g.hovered:
			bg = pal.accent
			bg.A = 160
		case i == g.hovered:
			bg = pal.text
			bg.A = 60
		}
		vector.DrawFilledRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h), bg, false)
		vector.StrokeRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h), 1, pal.text, false)
		drawText(screen, b.label, float64(b.x+buttonPad), float64(b.y+(b.h-lineHeight)/2+1), pal.text)
	}
}

func (g *Game) drawSearchBox(screen *ebiten.Image, pal palette) {
	w := float32(g.width - 2*margin)
	vector.DrawFilledRect(screen, margin, searchY, w, searchHeight, pal.panel, false)
	vector.StrokeRect(screen, margin, searchY, w, searchHeight, 2, pal.text, false)

	q := string(g.query)
	if (g.ticks/30)%2 == 0 {
		q += "_"
	}
	// Keep the tail of a long query in view.
	room := g.columns() - 4
	if r := []rune(q); room > 0 && len(r) > room {
		q = string(r[len(r)-room:])
	}
	drawText(screen, "> "+q, margin+8, searchY+(searchHeight-lineHeight)/2+1, pal.text)
}

// drawBar draws the filter and sort state, or the view title.
func (g *Game) drawBar(screen *ebiten.Image, pal palette) {
	switch g.view {
	case viewSimilar:
		drawText(screen, "SIMILAR TO: "+truncate(g.similarOf, 60)+"   <- ESC: RETURN TO SEARCH", margin, barY, pal.accent)
		return
	case viewHistory:
		drawText(screen, "SEARCH HISTORY   ENTER: RELOAD   ESC: RETURN TO SEARCH", margin, barY, pal.accent)
		return
	}

	x := float64(margin)
	if g.view == viewWishlist {
		drawText(screen, "WISHLIST", x, barY, pal.accent)
		x += 11 * charWidth
	}
	for _, f := range media.Filters {
		label := string(f)
		clr := pal.dim
		if f == g.filter {
			label = "[" + label + "]"
			clr = pal.text
		}
		drawText(screen, label, x, barY, clr)
		x += float64((len(label) + 2) * charWidth)
	}
	drawText(screen, "SORT: "+string(g.order), x+2*charWidth, barY, pal.dim)
}

func (g *Game) drawList(screen *ebiten.Image, pal palette) {
	if msg := g.message(); msg != "" {
		drawText(screen, msg, margin, listTop+8, pal.text)
		return
	}
	cols := g.columns()
	n := g.capacity()
	if g.view == viewHistory {
		now := g.deps.Now()
		for i := g.scroll; i < len(g.history) && i < g.scroll+n; i++ {
			e := g.history[i]
			y := float64(listTop + (i-g.scroll)*rowHeight)
			g.drawRowBackground(screen, pal, i, y)
			age := formatAge(now.Sub(e.Timestamp), e.Timestamp)
			line := fmt.Sprintf("%-12s %s", age, e.Query)
			if i == g.selected {
				line += "   [RELOAD]"
			}
			drawText(screen, truncate(line, cols-2), margin+8, y+11, pal.text)
		}
		return
	}

	items := g.visible()
	for i := g.scroll; i < len(items) && i < g.scroll+n; i++ {
		it := items[i]
		y := float64(listTop + (i-g.scroll)*rowHeight)
		g.drawRowBackground(screen, pal, i, y)

		mark := "   "
		if g.wishIDs[it.ID] {
			mark = "<3 "
		}
		meta := fmt.Sprintf("  %s  %s  %d%% MATCH", it.TypeLabel(), it.RatingLabel(), it.MatchPercent())
		title := truncate(mark+strings.ToUpper(it.Title), cols-2-len([]rune(meta)))
		drawText(screen, title, margin+8, y+4, pal.text)
		tx := float64(margin + 8 + len([]rune(title))*charWidth)
		drawText(screen, meta, tx, y+4, typeColors[it.TypeClass()])
		drawText(screen, truncate(it.Summary(), cols-5), margin+8+3*charWidth, y+4+lineHeight, pal.dim)
	}
}

func (g *Game) drawRowBackground(screen *ebiten.Image, pal palette, i int, y float64) {
	bg := pal.panel
	if i == g.selected {
		bg = pal.text
		bg.A = 50
	}
	vector.DrawFilledRect(screen, margin, float32(y), float32(g.width-2*margin), rowHeight-4, bg, false)
}

func (g *Game) drawFooter(screen *ebiten.Image, pal palette) {
	y := float64(g.height - footerHeight + 8)
	switch {
	case g.lastErr != nil:
		drawText(screen, truncate("Error: "+g.lastErr.Error(), g.columns()), margin, y, pal.err)
	case g.flash != "":
		drawText(screen, g.flash, margin, y, pal.accent)
	}
	if link := g.posterLink(); link != "" {
		drawText(screen, truncate("POSTER "+link, g.columns()), margin, y+lineHeight, pal.dim)
	}
	help := "ENTER search  TAB filter  ^S sort  ^E similar  ^W wishlist  ^R random  ^M model  ^T theme  F1 about  ESC back"
	drawText(screen, truncate(help, g.columns()), margin, y+2*lineHeight, pal.dim)
}

var aboutLines = []string{
	"NEURAL NEXUS",
	"",
	"Describe a mood, a plot or a vibe and the recommendation engine",
	"returns the closest movies, shows, anime and documentaries.",
	"",
	"Log in for personalized results and a wishlist.",
	"Ctrl+E on a result finds titles with a similar signature.",
	"Ctrl+M switches between the internal core and the external API model.",
	"",
	"F2 history   F3 wishlist   F4 login/logout   F5 sign up",
	"",
	"ESC or F1 to close",
}

func (g *Game) drawAbout(screen *ebiten.Image, pal palette) {
	w := 0
	for _, l := range aboutLines {
		w = max(w, len(l))
	}
	pw, ph := w*charWidth+48, len(aboutLines)*lineHeight+40
	x, y := (g.width-pw)/2, (g.height-ph)/2
	bg := pal.panel
	bg.A = 235
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(pw), float32(ph), bg, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(pw), float32(ph), 2, pal.accent, false)
	for i, l := range aboutLines {
		drawText(screen, l, float64(x+24), float64(y+20+i*lineHeight), pal.text)
	}
}
