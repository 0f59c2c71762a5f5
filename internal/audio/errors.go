package audio

import "errors"

// ErrInvalidDuration indicates a non-positive or non-finite audio duration.
var ErrInvalidDuration = errors.New("invalid audio duration")

// ErrInvalidTarget indicates a non-positive size ceiling or a margin outside (0, 1].
var ErrInvalidTarget = errors.New("invalid compression target")

// ErrProbeFailed indicates FFmpeg output held no usable duration.
var ErrProbeFailed = errors.New("audio probe failed")

// ErrTranscodeFailed indicates FFmpeg failed to extract or compress audio.
var ErrTranscodeFailed = errors.New("audio transcode failed")
