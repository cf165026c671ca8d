package util

import "strings"

// ToUserError turns yt-dlp stderr into a short message fit for the response
// body. It returns "" when nothing recognisable is found.
func ToUserError(message string) string {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "video unavailable") || strings.Contains(msg, "private video") || strings.Contains(msg, "this content is private"):
		return "This video is unavailable or has been removed"
	case strings.Contains(msg, "live stream") || strings.Contains(msg, "is live"):
		return "Live streams can't be downloaded yet"
	case strings.Contains(msg, "age-restricted") || strings.Contains(msg, "age restricted") || strings.Contains(msg, "confirm your age"):
		return "This video is age-restricted"
	case strings.Contains(msg, "sign in to confirm") || strings.Contains(msg, "sign in to verify"):
		return "The site is blocking this request, try again later"
	case strings.Contains(msg, "geo restricted") || strings.Contains(msg, "geo-restricted") || strings.Contains(msg, "not available in your country"):
		return "This video isn't available in the server's region"
	case strings.Contains(msg, "copyright"):
		return "This video was removed for copyright"
	case strings.Contains(msg, "http error 403") || strings.Contains(msg, "403 forbidden"):
		return "Access denied, the site is blocking downloads"
	case strings.Contains(msg, "http error 404") || strings.Contains(msg, "404 not found"):
		return "Video not found, it may have been deleted"
	case strings.Contains(msg, "unsupported url"):
		return "This website isn't supported"
	case strings.Contains(msg, "no video formats") || strings.Contains(msg, "requested format not available"):
		return "No downloadable formats found"
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return "Connection timed out, try again"
	}
	return ""
}
