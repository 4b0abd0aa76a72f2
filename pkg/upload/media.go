package upload

import (
	"net/url"
	"path/filepath"
	"strings"

	errs "tweetkit/pkg/errors"
)

const (
	KiB = 1024
	MiB = 1024 * KiB

	// DefaultChunkSize is the APPEND segment size
	DefaultChunkSize int64 = 4 * MiB
)

// Media categories accepted by INIT
const (
	CategoryTweetImage = "tweet_image"
	CategoryTweetVideo = "tweet_video"
	CategoryTweetGIF   = "tweet_gif"
	CategoryDMImage    = "dm_image"
	CategoryDMVideo    = "dm_video"
	CategoryDMGIF      = "dm_gif"
)

var validCategories = []string{
	CategoryTweetImage,
	CategoryTweetVideo,
	CategoryTweetGIF,
	CategoryDMImage,
	CategoryDMVideo,
	CategoryDMGIF,
}

// ValidateCategory accepts the empty category and the six known ones.
func ValidateCategory(category string) error {
	if category == "" {
		return nil
	}
	for _, c := range validCategories {
		if c == category {
			return nil
		}
	}
	return errs.Validation("upload", "invalid media category: %s. Must be one of: %s",
		category, strings.Join(validCategories, ", "))
}

// SizeLimits maps a MIME type to its maximum size in bytes.
type SizeLimits map[string]int64

// DefaultSizeLimits returns a fresh copy of the upload size table
func DefaultSizeLimits() SizeLimits {
	return SizeLimits{
		"image/jpeg":      5 * MiB,
		"image/png":       5 * MiB,
		"image/webp":      5 * MiB,
		"image/gif":       15 * MiB,
		"video/mp4":       512 * MiB,
		"video/quicktime": 512 * MiB,
	}
}

// Check validates the media type and size before anything is sent.
func (l SizeLimits) Check(mediaType string, size int64) error {
	limit, ok := l[mediaType]
	if !ok {
		return errs.Validation("upload", "unsupported MIME type: %q", mediaType)
	}
	if size > limit {
		return errs.Validation("upload", "file exceeds the maximum allowed size for %s (%d > %d bytes)",
			mediaType, size, limit)
	}
	return nil
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".qt":   "video/quicktime",
}

// ResolveMediaType maps a file name to its MIME type by extension.
// Unknown extensions yield a validation error.
func ResolveMediaType(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t, nil
	}
	if ext == "" {
		return "", errs.Validation("upload", "unsupported MIME type: %s has no extension", filepath.Base(name))
	}
	return "", errs.Validation("upload", "unsupported MIME type for extension %s", ext)
}

// remoteGIF reports whether source is an http(s) URL to a .gif.
// Any other http(s) URL is rejected.
func remoteGIF(source string) (bool, error) {
	lower := strings.ToLower(source)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false, nil
	}
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return false, errs.Validation("upload", "invalid source URL %q", source)
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), ".gif") {
		return false, errs.Validation("upload", "only .gif URLs can be uploaded remotely, got %q", source)
	}
	return true, nil
}
