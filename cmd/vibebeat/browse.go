package main

import (
	"fmt"
	"io"
	"os"

	"vibebeat/internal/query"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
)

type libraryParams struct {
	Filter string `short:"f" optional:"true" help:"Library filter: all, songs, artists, albums or playlists." default:"all"`
}

type searchParams struct {
	Query string `pos:"true" required:"true" help:"Text to match against title, artist and album."`
}

func HomeCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "home",
		Short:       "Show the home page sections",
		ParamEnrich: paramEnricher(),
		RunFunc: func(_ *boa.NoParams, cmd *cobra.Command, args []string) {
			exitOnError("home", runHome(os.Stdout))
		},
	}.ToCobra()
}

func LibraryCmd() *cobra.Command {
	return boa.CmdT[libraryParams]{
		Use:         "library",
		Short:       "List the library",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *libraryParams, cmd *cobra.Command, args []string) {
			exitOnError("library", runLibrary(params, os.Stdout))
		},
	}.ToCobra()
}

func SearchCmd() *cobra.Command {
	return boa.CmdT[searchParams]{
		Use:         "search",
		Short:       "Search the catalog",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *searchParams, cmd *cobra.Command, args []string) {
			exitOnError("search", runSearch(params, os.Stdout))
		},
	}.ToCobra()
}

func runHome(stdout io.Writer) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	home, err := a.session.Home()
	if err != nil {
		return err
	}
	renderHome(stdout, a.session.User.Name, home)
	return nil
}

func runLibrary(params *libraryParams, stdout io.Writer) error {
	filter, err := query.ParseFilter(params.Filter)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.session.Library(filter)
	if err != nil {
		return err
	}
	renderLibrary(stdout, items)
	return nil
}

func runSearch(params *searchParams, stdout io.Writer) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.session.Search(params.Query)
	if err != nil {
		return err
	}
	if res.Status != query.Matches {
		fmt.Fprintln(stdout, res.Message())
		return nil
	}
	renderSongs(stdout, res.Songs)
	return nil
}

func exitOnError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}
