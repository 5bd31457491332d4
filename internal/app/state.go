package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tracker/internal/cache"
	"tracker/internal/codec"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/query"
	"tracker/internal/store"
)

// State serializes every user-triggered operation: each one runs to
// completion before the next starts.
type State struct {
	mu       sync.Mutex
	store    *store.Store
	prefs    *store.Preferences
	params   Params
	pageSize int
	symbol   string
	views    cache.Cache[View]
	now      func() time.Time
	logger   *log.Logger
}

// Config holds the presentation settings of a State.
type Config struct {
	PageSize       int
	CurrencySymbol string
	Views          cache.Cache[View]
	Logger         *log.Logger
}

func NewState(s *store.Store, prefs *store.Preferences, cfg Config) *State {
	if cfg.PageSize < 1 {
		cfg.PageSize = query.DefaultPageSize
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = core.DefaultCurrencySymbol
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default(log.ComponentApp)
	}
	return &State{
		store:    s,
		prefs:    prefs,
		params:   DefaultParams(),
		pageSize: cfg.PageSize,
		symbol:   cfg.CurrencySymbol,
		views:    cfg.Views,
		now:      time.Now,
		logger:   cfg.Logger,
	}
}

// CurrencySymbol returns the symbol used to format amounts.
func (st *State) CurrencySymbol() string { return st.symbol }

// Params returns the current list parameters.
func (st *State) Params() Params {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.params
}

// View renders the current state.
func (st *State) View() View {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.render()
}

// Navigate moves to the requested parameters, applying the page reset
// rule, and renders the result.
func (st *State) Navigate(req Params) View {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.params = st.params.Next(req)
	return st.render()
}

// ResetFilters restores the default filter, search and sort.
func (st *State) ResetFilters() View {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.params = DefaultParams()
	return st.render()
}

// Add records a new transaction and returns to page 1. A persistence
// error still returns the created transaction.
func (st *State) Add(ctx context.Context, in core.Input) (core.Transaction, View, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	t, err := st.store.Add(ctx, in)
	if err != nil && t.ID == "" {
		return t, st.render(), err
	}
	st.params = st.params.WithPage(1)
	return t, st.render(), err
}

// Remove deletes a transaction by id and returns to page 1.
func (st *State) Remove(ctx context.Context, id string) (View, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	err := st.store.Remove(ctx, id)
	st.params = st.params.WithPage(1)
	return st.render(), err
}

// Import parses text and appends its records. Nothing is added when the
// file is malformed.
func (st *State) Import(ctx context.Context, text string, f codec.Format) (int, View, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	inputs, err := codec.Parse(text, f)
	if err != nil {
		st.logger.WarnContext(ctx, "Import rejected", log.FieldFormat, f, log.FieldError, err)
		return 0, st.render(), err
	}
	added, err := st.store.Append(ctx, inputs)
	if err != nil && len(added) == 0 {
		return 0, st.render(), err
	}
	st.params = st.params.WithPage(1)
	st.logger.InfoContext(ctx, "Import completed", log.FieldFormat, f, log.FieldCount, len(added))
	return len(added), st.render(), err
}

// Export renders the full collection in format f and names the file.
func (st *State) Export(f codec.Format) (filename string, body []byte, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	records := st.store.All()
	switch f {
	case codec.FormatCSV:
		body = []byte(codec.ToCSV(records))
	case codec.FormatJSON:
		body, err = codec.ToJSON(records, now)
		if err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("export: %w: %q", codec.ErrUnknownFormat, f)
	}
	return codec.ExportFilename(f, now), body, nil
}

// Report builds the monthly report over the whole collection, regardless
// of the active filter.
func (st *State) Report(year, month int) (core.MonthlyReport, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return core.BuildReport(st.store.All(), year, month)
}

// Theme returns the saved theme.
func (st *State) Theme(ctx context.Context) (store.Theme, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.prefs.Theme(ctx)
}

// SetTheme saves the theme.
func (st *State) SetTheme(ctx context.Context, t store.Theme) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.prefs.SetTheme(ctx, t)
}

// ToggleTheme flips the saved theme.
func (st *State) ToggleTheme(ctx context.Context) (store.Theme, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.prefs.ToggleTheme(ctx)
}

// render returns the memoized view for the current store version and
// params. Callers hold st.mu.
func (st *State) render() View {
	records, version := st.store.Snapshot()
	if st.views == nil {
		return Render(records, st.params, st.pageSize)
	}
	key := viewKey(version, st.params, st.pageSize)
	if v, ok := st.views.Get(key); ok {
		return v
	}
	v := Render(records, st.params, st.pageSize)
	st.views.Set(key, v)
	return v
}
