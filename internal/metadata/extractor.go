package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Info is what could be read from an audio file. Empty fields were not
// present in the file.
type Info struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Year     int
	Duration time.Duration
}

// Extractor handles metadata extraction from audio files
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor creates a new metadata extractor
func NewExtractor(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Extractor{
		logger: logger,
	}
}

// ExtractFromFile reads tags and duration from an audio file. Missing tags
// are not an error; the title then falls back to the file name.
func (e *Extractor) ExtractFromFile(filePath string) (Info, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Error("Failed to open audio file")
		return Info{}, err
	}
	defer file.Close()

	info := Info{Title: stem(filePath)}

	duration, err := e.calculateDuration(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Warn("Failed to calculate duration, leaving it unknown")
	}
	info.Duration = duration

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Debug("No readable tags, using filename")
		return info, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		info.Title = title
	}
	info.Artist = strings.TrimSpace(metadata.Artist())
	info.Album = strings.TrimSpace(metadata.Album())
	info.Genre = strings.TrimSpace(metadata.Genre())
	info.Year = metadata.Year()

	e.logger.WithFields(logrus.Fields{
		"filePath":       filePath,
		"title":          info.Title,
		"genre":          info.Genre,
		"duration":       info.Duration,
		"processingTime": time.Since(startTime),
	}).Debug("Successfully extracted metadata")

	return info, nil
}

// calculateDuration dispatches on the file extension
func (e *Extractor) calculateDuration(filePath string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return e.durationMP3(filePath)
	case ".flac":
		return e.durationFLAC(filePath)
	case ".wav":
		return e.durationWAV(filePath)
	default:
		return 0, fmt.Errorf("no duration reader for format: %s", ext)
	}
}

// MP3 duration using frame decoding; fallback to average bitrate estimation only if frames fail entirely.
func (e *Extractor) durationMP3(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return e.estimateFromFileSize(path, 192000)
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return total, nil
}

// FLAC duration via STREAMINFO metadata block
func (e *Extractor) durationFLAC(path string) (time.Duration, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		secs := float64(si.NSamples) / float64(si.SampleRate)
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("flac stream missing sample info")
}

// WAV duration from the data chunk, or from the file size when the chunk
// cannot be located.
func (e *Extractor) durationWAV(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, fmt.Errorf("invalid wav header")
	}
	if d, err := dec.Duration(); err == nil && d > 0 {
		return d, nil
	}

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	headerSize := int64(44)
	pcmBytes := max(st.Size()-headerSize, 0)
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return 0, fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame
	return time.Duration(sampleFrames) * time.Second / time.Duration(dec.SampleRate), nil
}

// estimateFromFileSize provides last-resort estimation if parsing fails.
func (e *Extractor) estimateFromFileSize(path string, bitrate int) (time.Duration, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, fmt.Errorf("invalid bitrate")
	}
	return time.Duration(st.Size()*8) * time.Second / time.Duration(bitrate), nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
