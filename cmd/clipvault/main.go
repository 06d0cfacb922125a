package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/artur/clipvault/internal/cli"
	"github.com/artur/clipvault/internal/config"
	"github.com/artur/clipvault/internal/database"
	"github.com/artur/clipvault/internal/downloader"
	"github.com/artur/clipvault/internal/logger"
	"github.com/artur/clipvault/internal/notify"
	"github.com/artur/clipvault/internal/report"
	"github.com/artur/clipvault/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, argv []string) error {
	fs := pflag.NewFlagSet("clipvault", pflag.ContinueOnError)
	// flags stop at the first command so "db video <id> --raw" reaches the viewer
	fs.SetInterspersed(false)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, cli.Usage) }
	config.RegisterFlags(fs)
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfgPath, _ := fs.GetString("config")
	cfg, err := config.Load(cfgPath, fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	defer logger.Close(log)

	db, err := database.New(cfg.Paths.DB,
		database.WithBusyTimeout(cfg.Database.BusyTimeout),
		database.WithMaxOpenConns(cfg.Database.MaxOpenConns),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := database.NewStore(db,
		database.WithOpTimeout(cfg.Database.OpTimeout),
		database.WithLogger(log),
		// each URL is probed and downloaded, both bounded by download.timeout
		database.WithOrphanBudget(2*cfg.Download.Timeout),
	)

	dirs := cfg.Dirs()
	printer := report.NewPrinter(os.Stdout, store, report.Options{
		Color:    report.ColorFromMode(cfg.Report.Color, os.Stdout),
		PageSize: cfg.Report.PageSize,
	})

	orch := session.New(store, newExtractor(cfg, dirs),
		session.WithWorkers(cfg.Download.Workers),
		session.WithLogsDir(dirs.Logs),
		session.WithLogger(log),
		session.WithProgress(printer.Progress),
	)

	app := cli.New(os.Stdout, log)
	app.RegisterHandler(cli.NewHelpHandler(os.Stdout))
	app.RegisterHandler(cli.NewDBHandler(printer, os.Stdin))
	app.RegisterHandler(cli.NewDownloadHandler(
		cli.Source{DataDir: dirs.Data, DefaultFile: cfg.Source.DefaultFile, Domains: cfg.Source.Domains},
		orch, printer, notify.New(cfg.Notify, log), os.Stdin, os.Stdout, log,
	))

	return app.Run(ctx, fs.Args())
}

func newExtractor(cfg *config.Config, dirs config.Dirs) downloader.Extractor {
	ytdlp := downloader.NewYtDlpExtractor(downloader.YtDlpConfig{
		Path:           cfg.Download.YtDlpPath,
		Format:         cfg.Download.Format,
		OutputTemplate: cfg.Download.OutputTemplate,
		VideosDir:      dirs.Videos,
		MetadataDir:    dirs.Metadata,
		WriteThumbnail: cfg.Download.WriteThumbnail,
		WriteInfoJSON:  cfg.Download.WriteInfoJSON,
		Timeout:        cfg.Download.Timeout,
	})
	if !cfg.Download.YouTubeNative {
		return ytdlp
	}

	return downloader.NewRouter(ytdlp, downloader.Route{
		Hosts:     []string{"youtube.com", "youtu.be"},
		Extractor: downloader.NewYouTubeExtractor(dirs.Videos, downloader.QualityHigh),
	})
}
