package game

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Held keys repeat after repeatDelay ticks, every repeatEvery ticks.
const (
	repeatDelay = 24
	repeatEvery = 3
)

type binding struct {
	key    ebiten.Key
	ctrl   bool
	repeat bool
	act    action
}

var keymap = []binding{
	{key: ebiten.KeyEnter, act: actSubmit},
	{key: ebiten.KeyNumpadEnter, act: actSubmit},
	{key: ebiten.KeyBackspace, repeat: true, act: actBackspace},
	{key: ebiten.KeyArrowUp, repeat: true, act: actUp},
	{key: ebiten.KeyArrowDown, repeat: true, act: actDown},
	{key: ebiten.KeyPageUp, repeat: true, act: actPageUp},
	{key: ebiten.KeyPageDown, repeat: true, act: actPageDown},
	{key: ebiten.KeyEscape, act: actBack},
	{key: ebiten.KeyTab, act: actFilter},
	{key: ebiten.KeyF1, act: actAbout},
	{key: ebiten.KeyF2, act: actHistory},
	{key: ebiten.KeyF3, act: actWishlist},
	{key: ebiten.KeyF4, act: actAuth},
	{key: ebiten.KeyF5, act: actSignup},
	{key: ebiten.KeyQ, ctrl: true, act: actQuit},
	{key: ebiten.KeyR, ctrl: true, act: actRandom},
	{key: ebiten.KeyM, ctrl: true, act: actModel},
	{key: ebiten.KeyS, ctrl: true, act: actSort},
	{key: ebiten.KeyT, ctrl: true, act: actTheme},
	{key: ebiten.KeyW, ctrl: true, act: actToggleWish},
	{key: ebiten.KeyE, ctrl: true, act: actSimilar},
}

// readInput collects this tick's commands and typed text. Typed text is
// dropped while a modifier is held so shortcuts never leak into the query.
func readInput() ([]action, []rune) {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)

	var acts []action
	for _, b := range keymap {
		if b.ctrl != ctrl {
			continue
		}
		if inpututil.IsKeyJustPressed(b.key) || (b.repeat && repeating(b.key)) {
			acts = append(acts, b.act)
		}
	}

	_, wheel := ebiten.Wheel()
	switch {
	case wheel > 0:
		acts = append(acts, actUp)
	case wheel < 0:
		acts = append(acts, actDown)
	}

	if ctrl {
		return acts, nil
	}
	return acts, ebiten.AppendInputChars(nil)
}

func repeating(k ebiten.Key) bool {
	d := inpututil.KeyPressDuration(k)
	return d > repeatDelay && (d-repeatDelay)%repeatEvery == 0
}
