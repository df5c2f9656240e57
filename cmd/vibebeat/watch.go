package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"vibebeat/internal/watcher"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type watchParams struct {
	Dir string `short:"d" optional:"true" help:"Directory to watch; defaults to uploads.watch_dir." default:""`
}

func WatchCmd() *cobra.Command {
	return boa.CmdT[watchParams]{
		Use:         "watch",
		Short:       "Import and play audio files dropped into a directory",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *watchParams, cmd *cobra.Command, args []string) {
			exitOnError("watch", runWatch(params, os.Stdout))
		},
	}.ToCobra()
}

func runWatch(params *watchParams, stdout io.Writer) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := params.Dir
	if dir == "" {
		dir = a.cfg.Uploads.WatchDir
	}
	if dir == "" {
		return errors.New("no directory given and uploads.watch_dir is not set")
	}

	w := watcher.New(dir, a.cfg.IsFormatSupported, func(path string) {
		song, err := a.session.Upload(path)
		if err != nil {
			a.logger.WithError(err).WithField("file_path", path).Warn("Failed to import dropped file")
			return
		}
		fmt.Fprintf(stdout, "Now playing %q (song %d)\n", song.Title, song.ID)
	}, a.logger, watcher.Options{})

	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	a.logger.WithFields(logrus.Fields{
		"dir":   dir,
		"audio": a.session.HasAudio(),
	}).Info("Watching for new audio files")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.logger.Info("Received shutdown signal")
	return nil
}
