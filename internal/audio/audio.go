package audio

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

var (
	// ErrUnavailable is returned by New when the build has no audio output.
	ErrUnavailable = errors.New("audio playback is not available in this build")
	// ErrUnsupportedRef is returned for audio refs that are not local files.
	ErrUnsupportedRef = errors.New("unsupported audio reference")
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNothingLoaded is returned by transport commands before any Load.
	ErrNothingLoaded = errors.New("no media loaded")
)

// positionInterval is how often position updates are reported while playing.
const positionInterval = 250 * time.Millisecond

// ResolveRef turns an audio ref into a local file path. Plain paths and
// file:// URLs are accepted; remote refs are rejected.
func ResolveRef(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsupportedRef)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// plain path, or a Windows drive letter
		return ref, nil
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedRef, ref)
	}
	return filepath.FromSlash(u.Path), nil
}

// FileURL returns the file:// URL for a local path.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func toMillis(d time.Duration) int {
	return int(d / time.Millisecond)
}
