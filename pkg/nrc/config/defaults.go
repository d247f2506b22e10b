// Package config provides configuration management for the nrc resource compiler.
package config

import "time"

// Default configuration values for nrc.
const (
	// AppName names the XDG subdirectories used by nrc.
	AppName = "nrc"

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/nrc"

	// DefaultSkipHidden keeps dot files in the resource set.
	DefaultSkipHidden = false

	// DefaultFollowSymlinks descends into symbolic links when scanning.
	DefaultFollowSymlinks = true

	// DefaultHistoryLimit is the number of compile records shown by default.
	DefaultHistoryLimit = 20

	// DefaultHistoryRetentionDays is how long compile records are kept.
	DefaultHistoryRetentionDays = 30

	// DefaultWatchDebounce is the quiet period before a watch recompile.
	DefaultWatchDebounce = 200 * time.Millisecond
)

// DefaultExclusions is empty: every file under the root is a resource
// unless the configuration says otherwise.
var DefaultExclusions = []string{}

// SuggestedExclusions lists platform clutter. The generated config file
// offers it commented out.
var SuggestedExclusions = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"*.swp",
	"*~",
}
