package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/alfredjeanlab/board/internal/config"
	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/prefs"
	"github.com/alfredjeanlab/board/internal/rpc"
	"github.com/alfredjeanlab/board/internal/source"
	"github.com/alfredjeanlab/board/internal/ui"
	"github.com/alfredjeanlab/board/internal/view"
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Render the board without a server",
	Long: `Fetch tickets straight from the data source and render them.

Grouping and ordering are remembered in ~/.local/state/board/prefs.toml.
Passing --grouping or --ordering changes the remembered value.`,
	GroupID:           "views",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := localOptions{}
		opts.grouping, _ = cmd.Flags().GetString("grouping")
		opts.ordering, _ = cmd.Flags().GetString("ordering")
		opts.list, _ = cmd.Flags().GetBool("list")
		sourceURL, _ := cmd.Flags().GetString("source-url")
		sourceFile, _ := cmd.Flags().GetString("source-file")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		locale, _ := cmd.Flags().GetString("locale")

		if sourceFile != "" {
			opts.source = source.NewFileSource(sourceFile)
		} else {
			opts.source = source.NewHTTPSource(sourceURL, timeout)
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("--locale: %w", err)
		}
		opts.locale = tag

		path, err := prefs.DefaultFilePath()
		if err != nil {
			return err
		}
		opts.kv = prefs.NewFileKV(path)
		opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
		return runLocal(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

type localOptions struct {
	source   source.Source
	kv       prefs.KV
	locale   language.Tag
	grouping string
	ordering string
	list     bool
	logger   *slog.Logger
}

// runLocal builds a board in-process: saved selectors are loaded from
// opts.kv, flag overrides are applied and persisted, then the view derived
// from a fresh fetch is written to w. Warnings go to errw.
func runLocal(ctx context.Context, opts localOptions, w, errw io.Writer) error {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := view.NewBoard(prefs.Load(ctx, opts.kv, logger), view.WithLocale(opts.locale))
	saver := prefs.NewSaver(opts.kv, logger)
	saver.Start()
	b.Subscribe(saver)
	// Stop flushes the pending save.
	defer saver.Stop()

	update := rpc.SelectorsUpdate{}
	if opts.grouping != "" {
		update.Grouping = &opts.grouping
	}
	if opts.ordering != "" {
		update.Ordering = &opts.ordering
	}
	sel, err := update.Apply(b.Selectors())
	if err != nil {
		return err
	}
	if sel != b.Selectors() {
		if err := b.SetSelectors(sel); err != nil {
			return err
		}
	}

	snap := source.Load(ctx, opts.source, logger)
	if snap == nil {
		fmt.Fprintln(errw, ui.RenderMuted("data source unavailable, showing an empty board"))
	}
	if err := b.SetSnapshot(snap); err != nil {
		return fmt.Errorf("derive view: %w", err)
	}

	v := b.View()
	switch {
	case jsonOutput && opts.list:
		return printJSON(w, rpc.ViewBody{Selectors: sel, View: v})
	case jsonOutput:
		return printJSON(w, rpc.BoardResponse{Selectors: sel, Columns: localColumns(b)})
	case opts.list:
		fmt.Fprint(w, ui.RenderGroups(v))
	default:
		fmt.Fprint(w, ui.NewBoardRenderer().Render(localColumns(b)))
	}
	return nil
}

func localColumns(b *view.Board) []view.Column {
	var users []*model.User
	if snap := b.Snapshot(); snap != nil {
		users = snap.Users
	}
	return view.Columns(b.View(), view.NewUserIndex(users), b.Selectors().Grouping)
}

func init() {
	localCmd.Flags().String("grouping", "", "group by status, user or priority (remembered)")
	localCmd.Flags().String("ordering", "", "order by priority or title (remembered)")
	localCmd.Flags().Bool("list", false, "print groups as a list instead of columns")
	localCmd.Flags().String("source-url", config.DefaultSourceURL, "data source URL")
	localCmd.Flags().String("source-file", "", "read tickets and users from a JSON file")
	localCmd.Flags().Duration("timeout", 10*time.Second, "data source timeout")
	localCmd.Flags().String("locale", "en", "BCP-47 locale for title ordering")
}
