package classify

import (
	"regexp"
	"strings"
)

var (
	// Absolute, home-relative or dotted paths ("/tmp/a", "~/Documents/x").
	pathPattern = regexp.MustCompile(`(?:~|\.{1,2})?/[\w.\-]+(?:/[\w.\-]+)*`)
	// Bare filenames with an extension ("notes.txt", "report.pdf").
	filePattern     = regexp.MustCompile(`\b[\w\-]+\.[A-Za-z][A-Za-z0-9]{0,4}\b`)
	numberPattern   = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	durationPattern = regexp.MustCompile(`\b\d+\s*(?:seconds?|minutes?|hours?|days?|weeks?)\b`)
)

// knownApps is the gazetteer of application names recognized during
// parameter extraction.
var knownApps = []string{
	"Safari", "Chrome", "Firefox", "Finder", "Mail", "Notes",
	"Terminal", "Calendar", "Music", "Photos", "Messages",
	"Reminders", "Preview", "Slack", "Spotify", "Xcode",
}

// extractParameters scans the input for path-like tokens, known application
// names and numeric/time values. Scanning is best-effort; an empty map
// means nothing was found.
func extractParameters(text string) map[string]string {
	params := make(map[string]string)

	paths := pathPattern.FindAllString(text, -1)
	if len(paths) == 0 {
		paths = filePattern.FindAllString(text, -1)
	}
	if len(paths) > 0 {
		params["path"] = paths[0]
		if len(paths) > 1 {
			params["paths"] = strings.Join(paths, ",")
		}
	}

	lower := strings.ToLower(text)
	for _, app := range knownApps {
		if containsTrigger(lower, strings.ToLower(app)) {
			params["app"] = app
			break
		}
	}

	if d := durationPattern.FindString(lower); d != "" {
		params["duration"] = d
	} else if n := numberPattern.FindString(text); n != "" {
		params["number"] = n
	}

	if len(params) == 0 {
		return nil
	}
	return params
}
