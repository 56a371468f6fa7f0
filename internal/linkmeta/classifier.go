// Package linkmeta classifies submitted URLs and scrapes webpage metadata.
// Classification fails open: anything that is not recognizably a video URL
// is treated as a webpage, so an odd URL degrades to the generic path
// instead of being rejected.
package linkmeta

import (
	"net/url"
	"strings"

	"github.com/lumenlabs/lumen-api/internal/domain"
)

// Platform identifies a recognized video hosting service.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformBilibili    Platform = "bilibili"
	PlatformVimeo       Platform = "vimeo"
	PlatformDailymotion Platform = "dailymotion"
	PlatformTwitch      Platform = "twitch"
	PlatformUnknown     Platform = "unknown"
)

// videoHosts maps known video hostnames to their platform. Subdomains of
// these hosts match as well.
var videoHosts = map[string]Platform{
	"youtube.com":     PlatformYouTube,
	"youtu.be":        PlatformYouTube,
	"bilibili.com":    PlatformBilibili,
	"b23.tv":          PlatformBilibili,
	"vimeo.com":       PlatformVimeo,
	"dailymotion.com": PlatformDailymotion,
	"twitch.tv":       PlatformTwitch,
}

// videoPathKeywords flag video URLs on hosts outside the known list.
var videoPathKeywords = []string{"/watch", "/video", "/v/", "/embed/"}

// Classify returns VIDEO for URLs that look like video pages and WEBPAGE
// for everything else, including URLs that fail to parse. A URL is a video
// when its host is a known video platform, its path contains a video
// keyword, or it carries a v= query parameter.
func Classify(rawURL string) domain.ContentType {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return domain.ContentTypeWebPage
	}
	if _, ok := matchVideoHost(u); ok {
		return domain.ContentTypeVideo
	}

	path := strings.ToLower(u.Path)
	for _, keyword := range videoPathKeywords {
		if strings.Contains(path, keyword) {
			return domain.ContentTypeVideo
		}
	}
	if u.Query().Get("v") != "" {
		return domain.ContentTypeVideo
	}
	return domain.ContentTypeWebPage
}

// DetectPlatform identifies the video platform of a URL by host. Returns
// PlatformUnknown for hosts outside the known list.
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return PlatformUnknown
	}
	if platform, ok := matchVideoHost(u); ok {
		return platform
	}
	return PlatformUnknown
}

func matchVideoHost(u *url.URL) (Platform, bool) {
	host := strings.ToLower(u.Hostname())
	if platform, ok := videoHosts[host]; ok {
		return platform, true
	}
	// Subdomain match, e.g. www.youtube.com or m.bilibili.com.
	for videoHost, platform := range videoHosts {
		if strings.HasSuffix(host, "."+videoHost) {
			return platform, true
		}
	}
	return PlatformUnknown, false
}
