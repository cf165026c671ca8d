package util

import (
	"os"
	"strings"
)

var botDetectionErrors = []string{
	"Sign in to confirm you",
	"confirm your age",
	"This video is unavailable",
	"Private video",
}

// NeedsCookies reports whether yt-dlp output looks like a site refusing an
// anonymous download.
func NeedsCookies(errorOutput string) bool {
	for _, e := range botDetectionErrors {
		if strings.Contains(errorOutput, e) {
			return true
		}
	}
	return false
}

// CookiesArgs returns yt-dlp args for the configured cookies file, or nil when
// none is configured or it does not exist.
func CookiesArgs(cookiesFile string) []string {
	if cookiesFile == "" {
		return nil
	}
	if _, err := os.Stat(cookiesFile); err != nil {
		return nil
	}
	return []string{"--cookies", cookiesFile}
}
