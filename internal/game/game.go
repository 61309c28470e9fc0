// Package game is the windowed client: an ebiten loop that draws the
// particle backdrop and the search interface on top of it.
package game

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

func (g *Game) Update() error {
	select {
	case <-g.deps.Done:
		return ebiten.Termination
	default:
	}
	g.ticks++
	g.drain()

	g.trackResize()

	mouseX, mouseY := ebiten.CursorPosition()
	g.field.MovePointer(float64(mouseX), float64(mouseY))

	acts, chars := readInput()
	acts = append(acts, g.pointerActions(mouseX, mouseY)...)
	if err := g.step(acts, chars); err != nil {
		return err
	}
	g.ensureVisible()
	return nil
}

// trackResize arms the debounced field rebuild whenever the window size
// changes. The field fires it itself once the size settles.
func (g *Game) trackResize() {
	if g.width == g.layoutW && g.height == g.layoutH {
		return
	}
	g.layoutW, g.layoutH = g.width, g.height
	if g.field.Size().Area() == 0 {
		g.field.Resize(float64(g.width), float64(g.height))
		return
	}
	g.field.RequestResize(float64(g.width), float64(g.height), g.deps.Now())
}

// pointerActions turns toolbar clicks into actions and list clicks into a
// selection.
func (g *Game) pointerActions(x, y int) []action {
	g.hovered = -1
	buttons := g.buttons()
	for i, b := range buttons {
		if b.contains(x, y) {
			g.hovered = i
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.pressed = g.hovered
		if row, ok := g.rowAt(x, y); ok && g.hovered < 0 {
			g.selected = row
		}
	}
	var acts []action
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if g.pressed >= 0 && g.pressed == g.hovered {
			acts = append(acts, buttons[g.pressed].act)
		}
		g.pressed = -1
	}
	return acts
}

func (g *Game) Draw(screen *ebiten.Image) {
	theme := g.deps.Settings.Theme()
	g.canvas.Target(screen)
	g.field.Frame(g.canvas, theme, g.deps.Now())
	g.drawHUD(screen, paletteFor(theme))
}

// Layout keeps one logical pixel per window pixel so the field fills the
// resized window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
