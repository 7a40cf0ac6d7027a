package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/davestewart/bskyinfo/internal/utils"
	"github.com/davestewart/bskyinfo/pkg/bsky"
	"github.com/davestewart/bskyinfo/pkg/profile"
)

// profileCmd represents the parent profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and act on individual profiles",
}

var profileGetCmd = &cobra.Command{
	Use:   "get <handle>",
	Short: "Fetch and print a profile's stats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle := args[0]
		ctx := context.Background()

		opts := loadOptions()
		db, lock, err := openStore(opts)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		client, err := sessionClient(cmd, ctx)
		if err != nil {
			return err
		}

		pool := profile.NewPool(opts.Behavior.ExpandProfiles)
		p, err := pool.Refresh(ctx, handle, db, client, opts.Thresholds)
		if err != nil {
			return err
		}
		if p.Data == nil {
			return fmt.Errorf("could not load profile %s", handle)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "Handle\t%s\n", p.Handle)
		fmt.Fprintf(w, "Posts\t%s\n", utils.FormatCount(p.Data.PostsCount))
		fmt.Fprintf(w, "Followers\t%s\n", utils.FormatCount(p.Data.FollowersCount))
		fmt.Fprintf(w, "Following\t%s\n", utils.FormatCount(p.Data.FollowingCount))
		fmt.Fprintf(w, "Followed by you\t%v\n", p.Data.Following)
		if p.Data.Description != "" {
			fmt.Fprintf(w, "Description\t%s\n", p.Data.Description)
		}
		fmt.Fprintf(w, "Updated\t%s\n", time.UnixMilli(p.Updated).Format(time.RFC822))
		return w.Flush()
	},
}

var profileMuteCmd = &cobra.Command{
	Use:   "mute <handle>",
	Short: "Mute a profile for the logged-in account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return muteProfile(cmd, args[0], true)
	},
}

var profileUnmuteCmd = &cobra.Command{
	Use:   "unmute <handle>",
	Short: "Unmute a profile for the logged-in account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return muteProfile(cmd, args[0], false)
	},
}

func muteProfile(cmd *cobra.Command, handle string, state bool) error {
	ctx := context.Background()
	client, err := sessionClient(cmd, ctx)
	if err != nil {
		return err
	}
	p := profile.New(handle, false)
	if err := p.Mute(ctx, client, state); err != nil {
		return err
	}
	if state {
		utils.Log.Infof("Muted %s", handle)
	} else {
		utils.Log.Infof("Unmuted %s", handle)
	}
	return nil
}

// sessionClient builds an API client from the --session flag.
func sessionClient(cmd *cobra.Command, ctx context.Context) (*bsky.Client, error) {
	sessionPath, _ := cmd.Flags().GetString("session")
	if sessionPath == "" {
		return nil, fmt.Errorf("pass --session with a saved BSKY_STORAGE blob")
	}
	client := bsky.NewClient(&bsky.FileSession{Path: sessionPath})
	if err := client.Init(ctx); err != nil {
		return nil, fmt.Errorf("could not load session: %w", err)
	}
	return client, nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileGetCmd)
	profileCmd.AddCommand(profileMuteCmd)
	profileCmd.AddCommand(profileUnmuteCmd)
	profileCmd.PersistentFlags().StringP("session", "s", "", "Path to a saved BSKY_STORAGE session blob")
}
