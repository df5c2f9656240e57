package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"vibebeat/internal/player"
	"vibebeat/internal/queue"
	"vibebeat/internal/session"
	"vibebeat/internal/transport"
	"vibebeat/pkg/models"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type playParams struct {
	File   string `pos:"true" required:"true" help:"Audio file, or directory of audio files, to add to the library and play."`
	Repeat bool   `short:"r" optional:"true" help:"Restart the track when it ends."`
	Volume int    `short:"v" optional:"true" help:"Volume from 0 to 100; -1 keeps the configured default." default:"-1"`
}

func PlayCmd() *cobra.Command {
	return boa.CmdT[playParams]{
		Use:         "play",
		Short:       "Play a local audio file or directory",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *playParams, cmd *cobra.Command, args []string) {
			exitOnError("play", runPlay(params, os.Stdout))
		},
	}.ToCobra()
}

func runPlay(params *playParams, stdout io.Writer) error {
	if params.Volume != -1 {
		if err := transport.ValidateVolume(params.Volume); err != nil {
			return err
		}
	}

	info, err := os.Stat(params.File)
	if err != nil {
		return err
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	updates := a.session.States().Subscribe()
	defer a.session.States().Unsubscribe(updates)

	if info.IsDir() {
		err = playDir(a.session, params.File, stdout)
	} else {
		err = playFile(a.session, params.File, stdout)
	}
	if err != nil {
		return err
	}

	err = a.session.Control(func(c *transport.Controller) {
		if params.Repeat {
			c.ToggleRepeat()
		}
		if params.Volume >= 0 {
			c.SetVolume(params.Volume)
		}
	})
	if err != nil {
		return err
	}

	if !a.session.HasAudio() {
		fmt.Fprintln(stdout, transport.NoticePlaybackUnavailable)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if info.IsDir() {
		fmt.Fprintln(stdout, "Enter n (next), p (previous), t (play/pause) or q (quit)")
		go readCommands(os.Stdin, a.session, stop)
		return followPlayback(ctx, updates, true, stdout)
	}
	return followPlayback(ctx, updates, params.Repeat, stdout)
}

func playFile(s *session.Session, path string, stdout io.Writer) error {
	song, err := s.Upload(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %q to the library as song %d\n", song.Title, song.ID)
	return nil
}

// playDir imports every supported file in dir and plays the first one from
// that list, so a list queue source makes the whole directory the queue.
func playDir(s *session.Session, dir string, stdout io.Writer) error {
	songs, err := s.ImportDir(dir)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return fmt.Errorf("no supported audio files in %s", dir)
	}

	ids := lo.Map(songs, func(song models.Song, _ int) int { return song.ID })
	if err := s.PlayWithin(ids, ids[0]); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %d songs from %s to the library\n", len(songs), dir)
	return nil
}

// readCommands applies one transport command per input line until in is
// exhausted or q is read.
func readCommands(in io.Reader, s *session.Session, quit func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var cmd func(*transport.Controller)
		switch strings.TrimSpace(scanner.Text()) {
		case "n":
			cmd = func(c *transport.Controller) { c.Skip(queue.Next) }
		case "p":
			cmd = func(c *transport.Controller) { c.Skip(queue.Previous) }
		case "t":
			cmd = (*transport.Controller).TogglePlayPause
		case "q":
			quit()
			return
		default:
			continue
		}
		if err := s.Control(cmd); err != nil {
			return
		}
	}
}

var errPlaybackFailed = errors.New(transport.NoticePlaybackFailed.String())

// followPlayback prints the transport bar until the track stops or ctx ends.
// With keepGoing set, a stopped track does not end the loop; repeat and
// directory playback rely on that.
func followPlayback(ctx context.Context, updates <-chan *player.State, keepGoing bool, stdout io.Writer) error {
	started := false
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(stdout)
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if st.Notice == transport.NoticePlaybackFailed.String() {
				fmt.Fprintln(stdout)
				return errPlaybackFailed
			}
			fmt.Fprintf(stdout, "\r%s", progressLine(st))

			switch st.Playback {
			case transport.LoadedPlaying.String():
				started = true
			case transport.LoadedPaused.String():
				if started && !keepGoing {
					fmt.Fprintln(stdout)
					return nil
				}
			}
		}
	}
}
