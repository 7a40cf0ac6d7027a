package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davestewart/bskyinfo/internal/server"
	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/annotate"
	"github.com/davestewart/bskyinfo/pkg/browser"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/watch"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a live Bluesky tab and annotate it continuously",
	Long: `Attaches to a running Chrome instance (started with
--remote-debugging-port) and watches its Bluesky tab: as you scroll through
notifications, feeds or starter packs, profile links near the viewport are
classified and annotated, and follow/unfollow clicks update the cache.

Pass --serve to preview the latest annotated snapshot in a second tab.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetString("remote")
		interval, _ := cmd.Flags().GetDuration("interval")
		margin, _ := cmd.Flags().GetInt("margin")
		serveAddr, _ := cmd.Flags().GetString("serve")
		langFallback, _ := cmd.Flags().GetString("lang-fallback")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := browser.Connect(ctx, remote)
		if err != nil {
			return err
		}
		defer b.Close()
		utils.Log.Info("Connected to browser, waiting for the page session...")

		client := bsky.NewClient(b)
		if err := client.WaitForSession(ctx, time.Second); err != nil {
			return err
		}

		opts := loadOptions()
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		fixer := annotate.NewDelayedHeightFix(annotate.ListHeightDelay)
		w := watch.New(watch.Config{
			Options: opts,
			Store:   db,
			Client:  client,
			Fixer:   fixer,
		})

		var srv *server.Server
		if serveAddr != "" {
			srv = server.New(db)
			go func() {
				if err := srv.Start(serveAddr); err != nil {
					utils.Log.Errorf("Preview server stopped: %v", err)
				}
			}()
			utils.Log.Infof("Previewing annotated snapshots on %s", serveAddr)
		}

		utils.Log.Info("Watching, press Ctrl+C to stop")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				utils.Log.Info("Disconnecting observers")
				return nil
			case <-ticker.C:
			}

			doc, pagePath, err := b.Snapshot(ctx)
			if err != nil {
				utils.Log.Warnf("Could not capture snapshot: %v", err)
				continue
			}
			viewport, err := b.Viewport(margin)
			if err != nil {
				utils.Log.Warnf("Could not probe viewport: %v", err)
				continue
			}

			env := watch.Env{
				PagePath:     pagePath,
				LangFallback: langFallback,
				Viewport:     viewport,
			}
			stats, err := w.Scan(ctx, doc, env)
			if err != nil {
				utils.Log.Warnf("Scan failed: %v", err)
				continue
			}
			if stats.Annotated > 0 {
				utils.Log.Infof("Annotated %d links (%d deferred)", stats.Annotated, stats.Deferred)
			}

			// due list-height fixes land on this snapshot, after its lists
			// have been marked
			fixer.Apply(doc)

			for _, tr := range w.TrackFollows(ctx, doc, env) {
				if tr.Following {
					utils.Log.Infof("Followed %s", tr.Handle)
				} else {
					utils.Log.Infof("Unfollowed %s", tr.Handle)
				}
			}

			if srv != nil {
				if rendered, err := utils.RenderDocument(doc); err == nil {
					srv.SetPage(rendered)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("remote", "ws://127.0.0.1:9222", "Chrome DevTools debugging endpoint")
	watchCmd.Flags().Duration("interval", 2*time.Second, "Snapshot interval")
	watchCmd.Flags().Int("margin", 100, "Viewport margin in pixels for lazy processing")
	watchCmd.Flags().String("serve", "", "Serve the latest annotated snapshot on this address (e.g. :8080)")
	watchCmd.Flags().String("lang-fallback", "", "Phrase table to fall back to when the page language is unsupported")
}
