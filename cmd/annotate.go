package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/watch"
)

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate [file]",
	Short: "Annotate a saved Bluesky page with profile info",
	Long: `Reads an HTML snapshot of a Bluesky page from a file (or stdin),
splices profile annotations into it, and writes the result.

Profiles come from the local cache when fresh, otherwise from the API using
the session saved with --session (a copy of the page's BSKY_STORAGE blob).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionPath, _ := cmd.Flags().GetString("session")
		pagePath, _ := cmd.Flags().GetString("page-path")
		langFallback, _ := cmd.Flags().GetString("lang-fallback")
		offline, _ := cmd.Flags().GetBool("offline")
		output, _ := cmd.Flags().GetString("output")

		// read the snapshot
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		doc, err := goquery.NewDocumentFromReader(in)
		if err != nil {
			return fmt.Errorf("could not parse snapshot: %w", err)
		}

		ctx := context.Background()
		opts := loadOptions()

		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		var client *bsky.Client
		if !offline {
			if sessionPath == "" {
				return fmt.Errorf("either pass --session or run with --offline")
			}
			client = bsky.NewClient(&bsky.FileSession{Path: sessionPath})
			if err := client.Init(ctx); err != nil {
				return fmt.Errorf("could not load session: %w", err)
			}
		}

		w := watch.New(watch.Config{
			Options: opts,
			Store:   db,
			Client:  client,
		})
		stats, err := w.Scan(ctx, doc, watch.Env{
			PagePath:     pagePath,
			LangFallback: langFallback,
		})
		if err != nil {
			return err
		}
		utils.Log.Infof("Annotated %d of %d links (%d deferred, %d profiles refreshed)",
			stats.Annotated, stats.Discovered, stats.Deferred, stats.Refreshed)

		rendered, err := utils.RenderDocument(doc)
		if err != nil {
			return err
		}
		if output == "" || output == "-" {
			fmt.Println(rendered)
			return nil
		}
		return os.WriteFile(output, []byte(rendered), 0644)
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().StringP("session", "s", "", "Path to a saved BSKY_STORAGE session blob")
	annotateCmd.Flags().String("page-path", "/notifications", "Location path the snapshot was taken from")
	annotateCmd.Flags().String("lang-fallback", "", "Phrase table to fall back to when the page language is unsupported (e.g. en)")
	annotateCmd.Flags().Bool("offline", false, "Use cached profiles only, never call the API")
	annotateCmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")
}
