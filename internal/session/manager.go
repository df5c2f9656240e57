package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"vibebeat/internal/audio"
	"vibebeat/internal/catalog"
	"vibebeat/internal/config"
	"vibebeat/internal/metadata"
	"vibebeat/internal/player"
	"vibebeat/internal/playlist"
	"vibebeat/internal/query"
	"vibebeat/internal/queue"
	"vibebeat/internal/transport"
	"vibebeat/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupportedFormat is returned by Upload for files the player cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrClosed is returned for work posted after Close.
	ErrClosed = errors.New("session closed")
)

const (
	uploadArtist = "Local File"
	uploadAlbum  = "Uploads"
)

// User is the profile shown in the shell
type User struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Session owns the catalog, liked set, playlists, queue and transport for
// one run of the player. All of that state is touched only on the session's
// event loop; use Do or Post to reach it from other goroutines.
type Session struct {
	ID   string
	User User

	cfg       *config.Config
	logger    *logrus.Logger
	catalog   *catalog.Catalog
	liked     *catalog.LikedSet
	playlists *playlist.Store
	queue     *queue.Queue
	states    *player.StateManager
	ctrl      *transport.Controller
	backend   transport.Backend
	extractor *metadata.Extractor
	home      query.HomeConfig
	now       func() time.Time

	work      chan func()
	done      chan struct{}
	exited    chan struct{}
	running   atomic.Bool
	closeOnce sync.Once
}

// New creates a session from cfg. backend may be nil, in which case the
// session runs without audio output.
func New(cfg *config.Config, backend transport.Backend, logger *logrus.Logger) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	cat := catalog.New()
	for _, song := range cfg.SeedSongs() {
		cat.Upsert(song)
	}

	source, err := queue.ParseSource(cfg.Player.QueueSource)
	if err != nil {
		logger.WithError(err).Warn("Falling back to single-song queue")
		source = queue.Single
	}

	s := &Session{
		ID: uuid.New().String(),
		User: User{
			Name:   cfg.User.Name,
			Avatar: cfg.User.Avatar,
		},
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		liked:     catalog.NewLikedSet(),
		playlists: playlist.NewStore(),
		queue:     queue.New(),
		states:    player.NewStateManager(),
		backend:   backend,
		extractor: metadata.NewExtractor(logger),
		home: query.HomeConfig{
			RecentLimit: cfg.Library.RecentLimit,
			MadeForYou:  cfg.Library.MadeForYou,
			Trending:    cfg.Library.Trending,
		},
		now:    time.Now,
		work:   make(chan func(), 64),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	s.ctrl = transport.NewController(transport.Deps{
		Catalog: s.catalog,
		Liked:   s.liked,
		Queue:   s.queue,
		Backend: backend,
		States:  s.states,
		Logger:  logger,
	}, transport.Options{
		Source: source,
		Volume: cfg.Player.DefaultVolume,
	})

	if backend != nil {
		if err := backend.SetVolume(s.ctrl.State().Volume); err != nil {
			logger.WithError(err).Warn("Failed to set initial backend volume")
		}
	}
	s.states.Publish(s.ctrl.Snapshot())

	logger.WithFields(logrus.Fields{
		"session_id": s.ID,
		"songs":      cat.Len(),
		"audio":      backend != nil,
		"queue":      source,
	}).Info("Session started")

	return s
}

// Run processes posted work and backend notifications until ctx is done or
// the session is closed.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session already running")
	}
	defer close(s.exited)

	var events <-chan transport.Event
	if n, ok := s.backend.(transport.Notifier); ok {
		events = n.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case fn := <-s.work:
			fn()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.ctrl.Handle(ev)
		}
	}
}

// Do runs fn on the event loop and waits for it to finish.
func (s *Session) Do(fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	if s.isClosed() {
		return ErrClosed
	}

	select {
	case s.work <- wrapped:
	case <-s.done:
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Post queues fn on the event loop without waiting.
func (s *Session) Post(fn func()) error {
	if s.isClosed() {
		return ErrClosed
	}
	select {
	case s.work <- fn:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Dispatch routes a backend notification onto the event loop.
func (s *Session) Dispatch(ev transport.Event) error {
	return s.Post(func() { s.ctrl.Handle(ev) })
}

// Control runs fn against the transport controller on the event loop.
func (s *Session) Control(fn func(*transport.Controller)) error {
	return s.Do(func() { fn(s.ctrl) })
}

// Close stops the event loop, the backend and all snapshot listeners.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.running.Load() {
			<-s.exited
		}
		if s.backend != nil {
			err = s.backend.Close()
		}
		s.states.Close()
		s.logger.WithField("session_id", s.ID).Info("Session closed")
	})
	return err
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// States returns the snapshot broadcaster. It is safe to use from any goroutine.
func (s *Session) States() *player.StateManager {
	return s.states
}

// HasAudio reports whether a media backend is attached.
func (s *Session) HasAudio() bool {
	return s.backend != nil
}

// Upload registers a local audio file in the catalog and plays it. Tags and
// duration are read when available; the title falls back to the file name.
func (s *Session) Upload(path string) (models.Song, error) {
	song, abs, err := s.prepare(path)
	if err != nil {
		return models.Song{}, err
	}

	err = s.Do(func() {
		song.ID = s.catalog.NextID()
		s.catalog.Upsert(song)
		s.ctrl.SelectAndPlay(song.ID)
	})
	if err != nil {
		return models.Song{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": s.ID,
		"song_id":    song.ID,
		"title":      song.Title,
		"file_path":  abs,
	}).Info("File uploaded and added to library")

	return song, nil
}

// Import registers a local audio file in the catalog without playing it.
func (s *Session) Import(path string) (models.Song, error) {
	song, abs, err := s.prepare(path)
	if err != nil {
		return models.Song{}, err
	}

	err = s.Do(func() {
		song.ID = s.catalog.NextID()
		s.catalog.Upsert(song)
	})
	if err != nil {
		return models.Song{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"song_id":   song.ID,
		"file_path": abs,
	}).Debug("File imported")

	return song, nil
}

// ImportDir imports the supported files directly inside dir in name order.
// Files that cannot be imported are logged and skipped.
func (s *Session) ImportDir(dir string) ([]models.Song, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", dir, err)
	}

	var songs []models.Song
	for _, entry := range entries {
		if entry.IsDir() || !s.cfg.IsFormatSupported(entry.Name()) {
			continue
		}
		song, err := s.Import(filepath.Join(dir, entry.Name()))
		if errors.Is(err, ErrClosed) {
			return songs, err
		}
		if err != nil {
			s.logger.WithError(err).WithField("file_path", entry.Name()).Warn("Skipping file")
			continue
		}
		songs = append(songs, song)
	}

	s.logger.WithFields(logrus.Fields{
		"dir":   dir,
		"songs": len(songs),
	}).Info("Imported directory")

	return songs, nil
}

// PlayWithin plays song id chosen from the list ids. Whether the list
// becomes the queue follows the configured queue source.
func (s *Session) PlayWithin(ids []int, id int) error {
	return s.Control(func(c *transport.Controller) { c.PlayWithin(ids, id) })
}

// prepare validates path and builds the catalog entry for it, without an id.
func (s *Session) prepare(path string) (models.Song, string, error) {
	if !s.cfg.IsFormatSupported(path) {
		return models.Song{}, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return models.Song{}, "", fmt.Errorf("resolve upload path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.Song{}, "", fmt.Errorf("upload %s: %w", path, err)
	}
	if info.IsDir() {
		return models.Song{}, "", fmt.Errorf("upload %s: is a directory", path)
	}

	ref, err := audio.FileURL(abs)
	if err != nil {
		return models.Song{}, "", err
	}

	meta, err := s.extractor.ExtractFromFile(abs)
	if err != nil {
		s.logger.WithError(err).WithField("file_path", abs).Warn("Failed to extract metadata from uploaded file")
		meta = metadata.Info{Title: stem(abs)}
	}

	song := models.Song{
		Title:    meta.Title,
		Artist:   uploadArtist,
		Album:    uploadAlbum,
		AudioRef: ref,
		Genre:    meta.Genre,
		Year:     s.now().Year(),
	}
	if meta.Duration > 0 {
		song.DurationLabel = query.FormatTime(int(meta.Duration.Milliseconds()))
	}
	return song, abs, nil
}

// CreatePlaylist handles the naming dialog result. A cancelled dialog or a
// blank name does nothing and reports false.
func (s *Session) CreatePlaylist(name string, ok bool) (models.Playlist, bool) {
	if !ok {
		return models.Playlist{}, false
	}

	var (
		p   models.Playlist
		err error
	)
	if doErr := s.Do(func() { p, err = s.playlists.Create(name) }); doErr != nil {
		return models.Playlist{}, false
	}
	if err != nil {
		s.logger.WithError(err).Debug("Playlist not created")
		return models.Playlist{}, false
	}

	s.logger.WithFields(logrus.Fields{
		"playlist_id": p.ID,
		"name":        p.Name,
	}).Info("Created playlist")
	return p, true
}

// Search runs a catalog search.
func (s *Session) Search(text string) (res query.SearchResult, err error) {
	err = s.Do(func() { res = query.Search(s.catalog, text) })
	return res, err
}

// Library returns the library view for a filter chip.
func (s *Session) Library(filter query.Filter) (items []models.LibraryItem, err error) {
	err = s.Do(func() { items = query.FilterLibrary(s.catalog, s.playlists, filter) })
	return items, err
}

// Home returns the home page sections.
func (s *Session) Home() (home query.HomeSections, err error) {
	err = s.Do(func() { home = query.Home(s.catalog, s.home) })
	return home, err
}

// LikedSongs returns the liked songs, oldest like first.
func (s *Session) LikedSongs() (songs []models.Song, err error) {
	err = s.Do(func() { songs = query.Liked(s.catalog, s.liked) })
	return songs, err
}

// Playlists returns the playlists in creation order.
func (s *Session) Playlists() (list []models.Playlist, err error) {
	err = s.Do(func() { list = s.playlists.List() })
	return list, err
}

// PlaylistSongs returns the songs of a playlist. Unknown ids yield no songs.
func (s *Session) PlaylistSongs(id int64) (songs []models.Song, err error) {
	err = s.Do(func() {
		if p, ok := s.playlists.Get(id); ok {
			songs = query.PlaylistSongs(s.catalog, p)
		}
	})
	return songs, err
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
