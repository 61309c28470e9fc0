package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/iburimskiy/neural-nexus/internal/validation"
)

const dialogTitle = "Neural Nexus"

var (
	// ErrCanceled is returned when the user dismisses a dialog.
	ErrCanceled = zenity.ErrCanceled
	// ErrSignupRequested is returned by Login when the user picks
	// "Create account".
	ErrSignupRequested = errors.New("signup requested")
)

// NativeDialogs shows the platform's dialogs through zenity.
type NativeDialogs struct{}

func (NativeDialogs) Login() (validation.Credentials, error) {
	user, pass, err := zenity.Password(
		zenity.Title(dialogTitle+" - Login"),
		zenity.Username(),
		zenity.OKLabel("Login"),
		zenity.ExtraButton("Create account"),
	)
	if errors.Is(err, zenity.ErrExtraButton) {
		return validation.Credentials{}, ErrSignupRequested
	}
	if err != nil {
		return validation.Credentials{}, err
	}
	return validation.Credentials{Username: strings.TrimSpace(user), Password: pass}, nil
}

func (NativeDialogs) Signup() (validation.Signup, error) {
	var s validation.Signup
	steps := []struct {
		prompt string
		secret bool
		dst    *string
	}{
		{"Username", false, &s.Username},
		{"Email", false, &s.Email},
		{"Password", true, &s.Password},
		{"Confirm password", true, &s.Confirm},
	}
	for _, st := range steps {
		opts := []zenity.Option{zenity.Title(dialogTitle + " - Create account")}
		if st.secret {
			opts = append(opts, zenity.HideText())
		}
		v, err := zenity.Entry(st.prompt+":", opts...)
		if err != nil {
			return validation.Signup{}, err
		}
		if !st.secret {
			v = strings.TrimSpace(v)
		}
		*st.dst = v
	}
	return s, nil
}

func (NativeDialogs) Notify(msg string) error {
	if err := zenity.Info(msg, zenity.Title(dialogTitle), zenity.NoIcon); err != nil {
		return fmt.Errorf("show notice: %w", err)
	}
	return nil
}
