package ffmpeg

import "errors"

// ErrNotFound indicates no usable FFmpeg binary was found.
var ErrNotFound = errors.New("ffmpeg not found")
