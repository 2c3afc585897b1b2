package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/dashboarrd/dashboard"
	"github.com/jrsteele09/dashboarrd/media"
	"github.com/jrsteele09/dashboarrd/services"
)

// typedArgs parses "<movie|series> <rest...>" after the command's flags.
func typedArgs(fs *flag.FlagSet, args []string, what string) (media.MediaType, string, error) {
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if fs.NArg() < 2 {
		return "", "", fmt.Errorf("usage: %s movie|series <%s>", fs.Name(), what)
	}
	mediaType, err := dashboard.ParseMediaType(fs.Arg(0))
	if err != nil {
		return "", "", err
	}
	return mediaType, strings.Join(fs.Args()[1:], " "), nil
}

func (a *app) catalog(ctx context.Context, admin bool) (*dashboard.Dashboard, error) {
	if _, err := a.signedIn(ctx, admin); err != nil {
		return nil, err
	}
	return a.dashboardClient()
}

func (a *app) search(ctx context.Context, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("usage: search <query>")
	}
	d, err := a.catalog(ctx, false)
	if err != nil {
		return err
	}
	results, err := d.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for _, r := range results {
		state := ""
		if r.Added {
			state = "  [in library]"
		}
		fmt.Printf("%-6s %8d  %s (%d)%s\n", r.MediaType, r.TmdbID, r.Title, r.Year, state)
	}
	return nil
}

func (a *app) request(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	tvdb := fs.Int("tvdb", 0, "TVDB id, for series")
	mediaType, id, err := typedArgs(fs, args, "tmdb id")
	if err != nil {
		return err
	}
	tmdbID, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("tmdb id %q: %w", id, err)
	}

	d, err := a.catalog(ctx, false)
	if err != nil {
		return err
	}
	if err := d.Request(ctx, mediaType, tmdbID, *tvdb); err != nil {
		return err
	}
	fmt.Println("Requested.")
	return nil
}

func (a *app) lookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	mediaType, term, err := typedArgs(fs, args, "term")
	if err != nil {
		return err
	}
	d, err := a.catalog(ctx, true)
	if err != nil {
		return err
	}
	results, err := d.Lookup(ctx, mediaType, term)
	if err != nil {
		return err
	}
	printLookup(results)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	index := fs.Int("index", 0, "which lookup result to add, as listed by lookup")
	mediaType, term, err := typedArgs(fs, args, "term")
	if err != nil {
		return err
	}
	d, err := a.catalog(ctx, true)
	if err != nil {
		return err
	}
	item, err := d.Add(ctx, mediaType, term, *index)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%d).\n", item.Title, item.Year)
	return nil
}

func (a *app) deleteTitle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	mediaType, id, err := typedArgs(fs, args, "id")
	if err != nil {
		return err
	}
	d, err := a.catalog(ctx, true)
	if err != nil {
		return err
	}
	if err := d.Delete(ctx, mediaType, id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func (a *app) checkServices(ctx context.Context) error {
	if _, err := a.signedIn(ctx, true); err != nil {
		return err
	}
	for _, c := range dashboard.CheckConnections(ctx, a.cfg, services.WithMetrics(a.metrics)) {
		fmt.Println(c)
	}
	return nil
}

func printLookup(results []services.LookupResult) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range results {
		state := ""
		if r.ID != 0 {
			state = "  [in library]"
		}
		fmt.Printf("%3d  %s (%d)%s\n", i, r.Title, r.Year, state)
	}
}
