// Package options holds the process-wide configuration: which notification
// categories get annotated, how descriptions are displayed, which icon glyphs
// mark each signal, and the staleness thresholds.
//
// Persisted overrides are merged over hard defaults through viper, so a
// partial config file only changes the keys it names. The resulting Options
// value is passed explicitly into the classifier and renderer rather than
// shared as package state.
package options

import (
	"github.com/spf13/viper"
)

// Process selects which notification categories are annotated.
type Process struct {
	FeedFollowed bool
	ListFollowed bool
	ListReposted bool
	ListLiked    bool
}

// Behavior tweaks how annotations present themselves.
type Behavior struct {
	HighlightLists bool
	ExpandProfiles bool
}

// Display controls description rendering.
type Display struct {
	Emojis  bool
	Compact bool
}

// Icons are the decorative glyphs prefixed to each signal.
type Icons struct {
	Profile   string
	Posted    string
	Engaged   string
	Popular   string
	Following string
}

// Thresholds hold the count boundaries for icons and the age boundaries,
// in days, for profile staleness and cache retention.
type Thresholds struct {
	Posted        int
	Engaged       int
	UpdatedDays   int
	CreatedDays   int
	RetentionDays int
}

type Options struct {
	Process    Process
	Behavior   Behavior
	Profile    Display
	Icons      Icons
	Thresholds Thresholds
}

// Defaults returns the hard-coded option set used when nothing is persisted.
func Defaults() *Options {
	return &Options{
		Process: Process{
			FeedFollowed: true,
			ListFollowed: true,
			ListReposted: true,
			ListLiked:    true,
		},
		Behavior: Behavior{
			HighlightLists: true,
			ExpandProfiles: true,
		},
		Profile: Display{
			Emojis:  true,
			Compact: true,
		},
		Icons: Icons{
			Profile:   "ℹ️",
			Posted:    "📝",
			Engaged:   "✅",
			Popular:   "🔥",
			Following: "👍",
		},
		Thresholds: Thresholds{
			Posted:        5,
			Engaged:       25,
			UpdatedDays:   7,
			CreatedDays:   14,
			RetentionDays: 30,
		},
	}
}

// SetDefaults registers every option key with its default value so that a
// config file only has to name the keys it overrides.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("process.feed_followed", d.Process.FeedFollowed)
	v.SetDefault("process.list_followed", d.Process.ListFollowed)
	v.SetDefault("process.list_reposted", d.Process.ListReposted)
	v.SetDefault("process.list_liked", d.Process.ListLiked)
	v.SetDefault("behavior.highlight_lists", d.Behavior.HighlightLists)
	v.SetDefault("behavior.expand_profiles", d.Behavior.ExpandProfiles)
	v.SetDefault("profile.emojis", d.Profile.Emojis)
	v.SetDefault("profile.compact", d.Profile.Compact)
	v.SetDefault("icons.profile", d.Icons.Profile)
	v.SetDefault("icons.posted", d.Icons.Posted)
	v.SetDefault("icons.engaged", d.Icons.Engaged)
	v.SetDefault("icons.popular", d.Icons.Popular)
	v.SetDefault("icons.following", d.Icons.Following)
	v.SetDefault("thresholds.posted", d.Thresholds.Posted)
	v.SetDefault("thresholds.engaged", d.Thresholds.Engaged)
	v.SetDefault("thresholds.updated", d.Thresholds.UpdatedDays)
	v.SetDefault("thresholds.created", d.Thresholds.CreatedDays)
	v.SetDefault("thresholds.retention", d.Thresholds.RetentionDays)
}

// Load reads the effective option set: persisted overrides merged over
// defaults.
func Load(v *viper.Viper) *Options {
	SetDefaults(v)
	return &Options{
		Process: Process{
			FeedFollowed: v.GetBool("process.feed_followed"),
			ListFollowed: v.GetBool("process.list_followed"),
			ListReposted: v.GetBool("process.list_reposted"),
			ListLiked:    v.GetBool("process.list_liked"),
		},
		Behavior: Behavior{
			HighlightLists: v.GetBool("behavior.highlight_lists"),
			ExpandProfiles: v.GetBool("behavior.expand_profiles"),
		},
		Profile: Display{
			Emojis:  v.GetBool("profile.emojis"),
			Compact: v.GetBool("profile.compact"),
		},
		Icons: Icons{
			Profile:   v.GetString("icons.profile"),
			Posted:    v.GetString("icons.posted"),
			Engaged:   v.GetString("icons.engaged"),
			Popular:   v.GetString("icons.popular"),
			Following: v.GetString("icons.following"),
		},
		Thresholds: Thresholds{
			Posted:        v.GetInt("thresholds.posted"),
			Engaged:       v.GetInt("thresholds.engaged"),
			UpdatedDays:   v.GetInt("thresholds.updated"),
			CreatedDays:   v.GetInt("thresholds.created"),
			RetentionDays: v.GetInt("thresholds.retention"),
		},
	}
}

// Save writes the option set back through viper. Persistence failures are
// returned but callers treat saving as fire-and-forget.
func Save(v *viper.Viper, o *Options) error {
	v.Set("process.feed_followed", o.Process.FeedFollowed)
	v.Set("process.list_followed", o.Process.ListFollowed)
	v.Set("process.list_reposted", o.Process.ListReposted)
	v.Set("process.list_liked", o.Process.ListLiked)
	v.Set("behavior.highlight_lists", o.Behavior.HighlightLists)
	v.Set("behavior.expand_profiles", o.Behavior.ExpandProfiles)
	v.Set("profile.emojis", o.Profile.Emojis)
	v.Set("profile.compact", o.Profile.Compact)
	v.Set("icons.profile", o.Icons.Profile)
	v.Set("icons.posted", o.Icons.Posted)
	v.Set("icons.engaged", o.Icons.Engaged)
	v.Set("icons.popular", o.Icons.Popular)
	v.Set("icons.following", o.Icons.Following)
	v.Set("thresholds.posted", o.Thresholds.Posted)
	v.Set("thresholds.engaged", o.Thresholds.Engaged)
	v.Set("thresholds.updated", o.Thresholds.UpdatedDays)
	v.Set("thresholds.created", o.Thresholds.CreatedDays)
	v.Set("thresholds.retention", o.Thresholds.RetentionDays)
	return v.WriteConfig()
}
