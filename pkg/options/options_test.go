package options

import (
	"testing"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if !d.Process.FeedFollowed || !d.Process.ListFollowed || !d.Process.ListReposted || !d.Process.ListLiked {
		t.Fatalf("expected every category enabled by default, got %#v", d.Process)
	}
	if !d.Behavior.HighlightLists || !d.Behavior.ExpandProfiles {
		t.Fatalf("expected highlight and expand on by default, got %#v", d.Behavior)
	}
	if d.Thresholds.RetentionDays != 30 {
		t.Fatalf("expected 30 day retention, got %d", d.Thresholds.RetentionDays)
	}
	if d.Thresholds.UpdatedDays != 7 || d.Thresholds.CreatedDays != 14 {
		t.Fatalf("expected 7/14 day staleness thresholds, got %#v", d.Thresholds)
	}
}

func TestLoad_DefaultsWhenEmpty(t *testing.T) {
	v := viper.New()
	got := Load(v)
	want := Defaults()
	if *got != *want {
		t.Fatalf("expected defaults from an empty viper, got %#v", got)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	v := viper.New()
	v.Set("process.list_liked", false)
	v.Set("thresholds.updated", 3)
	v.Set("icons.popular", "⭐")

	got := Load(v)
	if got.Process.ListLiked {
		t.Fatal("expected list_liked override to stick")
	}
	if got.Thresholds.UpdatedDays != 3 {
		t.Fatalf("expected updated threshold 3, got %d", got.Thresholds.UpdatedDays)
	}
	if got.Icons.Popular != "⭐" {
		t.Fatalf("expected overridden icon, got '%s'", got.Icons.Popular)
	}
	// untouched keys keep their defaults
	if !got.Process.FeedFollowed {
		t.Fatal("expected feed_followed to keep its default")
	}
	if got.Thresholds.RetentionDays != 30 {
		t.Fatalf("expected default retention, got %d", got.Thresholds.RetentionDays)
	}
}
