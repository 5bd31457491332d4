package store

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/log"
	"tracker/internal/storage"
)

// Theme is the persisted color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ErrInvalidTheme is returned by ParseTheme for anything but dark or light.
var ErrInvalidTheme = errors.New("unknown theme")

// ParseTheme accepts "dark" or "light".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("%w %q (expected dark or light)", ErrInvalidTheme, s)
	}
}

// Preferences stores the theme under its own key, independently of the
// transaction collection.
type Preferences struct {
	kv storage.KV
}

func NewPreferences(kv storage.KV) *Preferences {
	return &Preferences{kv: kv}
}

// Theme returns the saved theme; anything other than "dark" reads as light.
func (p *Preferences) Theme(ctx context.Context) (Theme, error) {
	v, _, err := p.kv.Get(ctx, storage.KeyTheme)
	if err != nil {
		return ThemeLight, &PersistenceError{Op: log.OpLoad, Key: storage.KeyTheme, Err: err}
	}
	if Theme(v) == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// SetTheme saves t.
func (p *Preferences) SetTheme(ctx context.Context, t Theme) error {
	if err := p.kv.Set(ctx, storage.KeyTheme, string(t)); err != nil {
		return &PersistenceError{Op: log.OpPersist, Key: storage.KeyTheme, Err: err}
	}
	return nil
}

// ToggleTheme flips between dark and light and returns the new theme.
func (p *Preferences) ToggleTheme(ctx context.Context) (Theme, error) {
	cur, err := p.Theme(ctx)
	if err != nil {
		return cur, err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	return next, p.SetTheme(ctx, next)
}
