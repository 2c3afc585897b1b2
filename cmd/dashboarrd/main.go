package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: dashboarrd [flags] <command> [command flags]

commands:
  login      sign in through the identity provider
  status     show who is signed in
  logout     revoke tokens and end the provider session
  dashboard  show the media services summary
  search     find movies and series to request
  request    request a title by TMDB id: request movie|tv <id>
  lookup     search Radarr or Sonarr: lookup movie|series <term>
  add        add a lookup result: add [-index n] movie|series <term>
  delete     remove a title and its files: delete movie|series <id>
  services   test the connection to every configured service
  update     check for a newer release
`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("dashboarrd failed")
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	fs := flag.NewFlagSet("dashboarrd", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", config.ConfigFile(), "YAML config file")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	quiet := fs.Bool("quiet", false, "skip the banner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg)
	if !*quiet {
		displayAppname(cfg.GetAppName())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if *metricsAddr != "" {
		srv := a.serveMetrics(*metricsAddr)
		defer shutdown(srv)
	}

	command, rest := "status", []string(nil)
	if fs.NArg() > 0 {
		command, rest = fs.Arg(0), fs.Args()[1:]
	}
	switch command {
	case "login":
		return a.login(ctx, rest)
	case "status":
		return a.status(ctx)
	case "logout":
		return a.logout(ctx)
	case "dashboard":
		return a.dashboard(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "request":
		return a.request(ctx, rest)
	case "lookup":
		return a.lookup(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "delete":
		return a.deleteTitle(ctx, rest)
	case "services":
		return a.checkServices(ctx)
	case "update":
		return a.update(ctx)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func setupLogging(cfg config.EnvConfig) {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || cfg.GetLogLevel() == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
