package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ayusman/gesturefield/internal/field"
	"github.com/ayusman/gesturefield/internal/plugin"
	"github.com/ayusman/gesturefield/internal/store"
)

// onFieldEvent persists ev and starts its hooks. It runs on whichever
// goroutine drove the machine, with a.mu held.
func (a *App) onFieldEvent(ev field.Event) {
	now := a.clock()
	screen := a.proc.Machine().Screen()
	b := ev.Bounds

	a.logger.Info().
		Str("kind", string(ev.Kind)).
		Float64("x", b.X).Float64("y", b.Y).
		Float64("width", b.Width).Float64("height", b.Height).
		Msg("field event")

	err := a.store.Field().Save(&store.FieldState{
		X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		ScreenWidth: screen.Width, ScreenHeight: screen.Height,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("saving field state")
	}

	logged := &store.FieldEvent{
		ID:        uuid.New().String(),
		Kind:      string(ev.Kind),
		X:         b.X,
		Y:         b.Y,
		Width:     b.Width,
		Height:    b.Height,
		CreatedAt: now,
	}
	if err := a.store.Events().Append(logged); err != nil {
		a.logger.Error().Err(err).Msg("logging field event")
	}

	req := plugin.Event{
		ID:        logged.ID,
		Kind:      logged.Kind,
		Bounds:    plugin.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height},
		Screen:    plugin.Rect{Width: screen.Width, Height: screen.Height},
		Timestamp: now.UnixMilli(),
	}

	a.hookMu.Lock()
	defer a.hookMu.Unlock()
	if a.hookCancel == nil {
		a.logger.Debug().Str("kind", logged.Kind).Msg("stopped, not running hooks")
		return
	}
	ctx := a.hookCtx
	a.hooks.Add(1)
	go func() {
		defer a.hooks.Done()
		a.runHooks(ctx, req)
	}()
}

// runHooks executes every enabled hook for ev.Kind in creation order.
func (a *App) runHooks(ctx context.Context, ev plugin.Event) {
	hooks, err := a.store.Hooks().ListEnabled(ev.Kind)
	if err != nil {
		a.logger.Error().Err(err).Str("kind", ev.Kind).Msg("listing hooks")
		return
	}

	for _, h := range hooks {
		if ctx.Err() != nil {
			return
		}
		log := a.logger.With().
			Str("hook", h.ID).
			Str("plugin", h.PluginName).
			Str("action", h.ActionName).
			Logger()

		p, err := a.pluginMgr.Get(h.PluginName)
		if errors.Is(err, plugin.ErrPluginNotFound) {
			log.Warn().Msg("hook plugin not installed")
			continue
		}

		resp, err := a.pluginExec.Execute(ctx, p, &plugin.Request{
			Action: h.ActionName,
			Event:  ev,
			Config: h.Config,
		})
		switch {
		case err != nil:
			log.Error().Err(err).Msg("hook failed")
		case !resp.Success:
			log.Warn().Str("error", resp.Error).Msg("hook reported failure")
		default:
			log.Debug().Msg("hook ran")
		}
	}
}
