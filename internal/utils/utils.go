package utils

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

var countPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCount renders a count with en-US digit grouping, matching the
// numbers the Bluesky UI itself displays.
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

// GetAbsCachePath resolves the cache database path to an absolute path.
func GetAbsCachePath(path string) (string, error) {
	return filepath.Abs(path)
}

// IsOlderThan reports whether a millisecond epoch timestamp lies more than
// the given number of days in the past. A zero timestamp is never old.
func IsOlderThan(epochMs int64, days int) bool {
	if epochMs == 0 {
		return false
	}
	period := time.Duration(days) * 24 * time.Hour
	return time.Since(time.UnixMilli(epochMs)) > period
}
