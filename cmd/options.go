package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// optionsCmd represents the options command
var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the effective option set",
	Long:  "Prints the merged option set: values from the config file layered over defaults.",
	RunE: func(cmd *cobra.Command, args []string) error {
		o := loadOptions()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "process.feed_followed\t%v\n", o.Process.FeedFollowed)
		fmt.Fprintf(w, "process.list_followed\t%v\n", o.Process.ListFollowed)
		fmt.Fprintf(w, "process.list_reposted\t%v\n", o.Process.ListReposted)
		fmt.Fprintf(w, "process.list_liked\t%v\n", o.Process.ListLiked)
		fmt.Fprintf(w, "behavior.highlight_lists\t%v\n", o.Behavior.HighlightLists)
		fmt.Fprintf(w, "behavior.expand_profiles\t%v\n", o.Behavior.ExpandProfiles)
		fmt.Fprintf(w, "profile.emojis\t%v\n", o.Profile.Emojis)
		fmt.Fprintf(w, "profile.compact\t%v\n", o.Profile.Compact)
		fmt.Fprintf(w, "icons.profile\t%s\n", o.Icons.Profile)
		fmt.Fprintf(w, "icons.posted\t%s\n", o.Icons.Posted)
		fmt.Fprintf(w, "icons.engaged\t%s\n", o.Icons.Engaged)
		fmt.Fprintf(w, "icons.popular\t%s\n", o.Icons.Popular)
		fmt.Fprintf(w, "icons.following\t%s\n", o.Icons.Following)
		fmt.Fprintf(w, "thresholds.posted\t%d\n", o.Thresholds.Posted)
		fmt.Fprintf(w, "thresholds.engaged\t%d\n", o.Thresholds.Engaged)
		fmt.Fprintf(w, "thresholds.updated\t%d\n", o.Thresholds.UpdatedDays)
		fmt.Fprintf(w, "thresholds.created\t%d\n", o.Thresholds.CreatedDays)
		fmt.Fprintf(w, "thresholds.retention\t%d\n", o.Thresholds.RetentionDays)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}
