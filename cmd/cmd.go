// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// userFlag and the other flag constructors return fresh instances since flags carry parse state.
func userFlag() cli.Flag {
	return &cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "User ID (defaults to player.user_id)"}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{Name: "limit", Usage: "Maximum number of items (defaults to player.page_size)"}
}

func offsetFlag() cli.Flag {
	return &cli.IntFlag{Name: "offset", Usage: "Number of items to skip"}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"}
}

func nameFlag() cli.Flag {
	return &cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Playlist name"}
}

func trackFlag() cli.Flag {
	return &cli.StringSliceFlag{Name: "track", Aliases: []string{"t"}, Usage: "Song ID to include (repeatable, in order)"}
}

// setupCommand writes config.toml and prepares the local track cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the track cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles Google sign-in.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in with Google",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in through the browser and save the token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a saved token exists and when it expires",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the saved token",
				Action: r.AuthLogout,
			},
		},
	}
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "songs",
		Usage:  "List songs in the library",
		Flags:  []cli.Flag{limitFlag(), offsetFlag(), jsonFlag(), prettyFlag()},
		Action: r.Songs,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "history",
		Usage:  "Show listening history",
		Flags:  []cli.Flag{userFlag(), limitFlag(), offsetFlag(), jsonFlag(), prettyFlag()},
		Action: r.History,
	}
}

// playlistCommand handles playlist browsing and editing.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a user's playlists",
				Flags:  []cli.Flag{userFlag(), jsonFlag(), prettyFlag()},
				Action: r.PlaylistList,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.PlaylistShow,
			},
			{
				Name:   "create",
				Usage:  "Create a playlist",
				Flags:  []cli.Flag{userFlag(), nameFlag(), trackFlag()},
				Action: r.PlaylistCreate,
			},
			{
				Name:      "update",
				Usage:     "Rename a playlist or replace its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{nameFlag(), trackFlag()},
				Action:    r.PlaylistUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{userFlag()},
				Action:    r.PlaylistDelete,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist as CSV, Markdown or text",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, md, txt",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: {id}.{format})",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

func followCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "follow",
		Usage:     "Follow a user",
		Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
		Action:    r.Follow,
	}
}

func unfollowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "unfollow",
		Usage:     "Unfollow a user",
		Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
		Action:    r.Unfollow,
	}
}

// cacheCommand inspects the local track cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local track cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only tracks by this artist",
					},
					limitFlag(),
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.CacheList,
			},
		},
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Open the interactive player",
		Flags:  []cli.Flag{userFlag()},
		Action: r.Play,
	}
}
