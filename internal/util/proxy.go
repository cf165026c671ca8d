package util

import (
	"net/url"
)

// ProxyArgs returns yt-dlp args routing the download through proxyURL. Invalid
// or empty values yield nil so a bad setting never breaks downloads.
func ProxyArgs(proxyURL string) []string {
	if proxyURL == "" {
		return nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return nil
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return []string{"--proxy", proxyURL}
	}
	return nil
}
