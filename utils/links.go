package utils

import (
	"path"
	"regexp"
	"strings"
)

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s\)]+`)
	driveFileID  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveOpenArg = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

// FirstURL returns the first http(s) URL in text, or "".
func FirstURL(text string) string {
	return urlPattern.FindString(text)
}

// DriveDownloadURL rewrites Google Drive share links ("/file/d/<id>/view",
// "open?id=<id>") into direct download links. Other URLs are returned as is.
func DriveDownloadURL(raw string) string {
	if !strings.Contains(raw, "drive.google.com") {
		return raw
	}
	if m := driveFileID.FindStringSubmatch(raw); m != nil {
		return "https://drive.google.com/uc?id=" + m[1]
	}
	if strings.Contains(raw, "/uc?") {
		return raw
	}
	if m := driveOpenArg.FindStringSubmatch(raw); m != nil {
		return "https://drive.google.com/uc?id=" + m[1]
	}
	return raw
}

// LastPathSegment returns the final path element of a URL or file path.
func LastPathSegment(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")
	if ref == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if base == "." || base == "/" || strings.HasSuffix(base, ":") {
		return ""
	}
	return base
}
