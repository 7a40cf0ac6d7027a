package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Interact with the local profile cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics about the cached profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}
		if stats.Profiles == 0 {
			fmt.Println("The cache is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "Profiles\t%d\n", stats.Profiles)
		fmt.Fprintf(w, "With data\t%d\n", stats.Fetched)
		fmt.Fprintf(w, "Oldest\t%s\n", time.UnixMilli(stats.Oldest).Format(time.RFC822))
		fmt.Fprintf(w, "Newest\t%s\n", time.UnixMilli(stats.Newest).Format(time.RFC822))
		return w.Flush()
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every cached handle",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		handles, err := db.Handles(context.Background())
		if err != nil {
			return err
		}
		for _, h := range handles {
			fmt.Println(h)
		}
		return nil
	},
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <handle>",
	Short: "Remove one profile from the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()
		return db.Remove(context.Background(), args[0])
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the retention sweep and print what remains",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		// the sweep runs as part of opening the cache
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%d profiles remain within the %d day retention window.\n",
			stats.Profiles, opts.Thresholds.RetentionDays)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := loadOptions()
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()
		return db.Clear(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
