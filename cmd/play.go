package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/audio"
	"github.com/desertthunder/nowplaying/internal/playback"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
)

// Play launches the interactive player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if !audio.Available {
		r.writePlain("⚠ This build has no audio output; tracks will browse but not play.\n")
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.Level)
	r.SetLogger(fileLogger)

	lib, closeCache, err := r.cachedLibrary()
	if err != nil {
		return err
	}
	defer closeCache()

	speaker := audio.NewSpeaker(r.httpClient, shared.WithLogger(r.logger, "component", "audio"))
	player := playback.New(speaker,
		playback.WithLogger(shared.WithLogger(r.logger, "component", "player")),
		playback.WithPlaybackRecorder(lib.RecordPlayback),
	)
	defer player.Close()

	userID := cmd.String("user")
	if userID == "" {
		userID = r.config.Player.UserID
	}

	model := ui.NewModel(ctx, ui.Deps{
		Library:  lib,
		Player:   player,
		UserID:   userID,
		PageSize: r.config.Player.PageSize,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
