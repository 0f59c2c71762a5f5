package audio

import (
	"path/filepath"
	"slices"
	"strings"
)

// mediaExtensions lists the containers ffmpeg can extract an audio track from.
var mediaExtensions = []string{
	".flac", ".m4a", ".mkv", ".mov", ".mp3", ".mp4",
	".mpeg", ".mpga", ".ogg", ".wav", ".webm",
}

// SupportedExtensions returns the accepted media extensions, sorted.
func SupportedExtensions() []string {
	return slices.Clone(mediaExtensions)
}

// IsSupported reports whether path has an accepted media extension.
func IsSupported(path string) bool {
	return slices.Contains(mediaExtensions, strings.ToLower(filepath.Ext(path)))
}
