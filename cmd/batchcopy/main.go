// Package main is the entry point for the batchcopy application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/config"
	"github.com/joe/batchcopy/internal/copier"
	"github.com/joe/batchcopy/internal/logfile"
	"github.com/joe/batchcopy/internal/logging"
	"github.com/joe/batchcopy/internal/selection"
	"github.com/joe/batchcopy/internal/stats"
	"github.com/joe/batchcopy/internal/tui"
	"github.com/joe/batchcopy/internal/tui/shared"
	"github.com/joe/batchcopy/pkg/fileops"
	"github.com/joe/batchcopy/pkg/filesystem"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(stats.SeriousError))
	}

	logger := logging.New(os.Stderr, cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logging.WithLogger(ctx, logger)

	status := run(ctx, cfg, &logger)

	stop()
	os.Exit(int(status))
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) stats.ExitStatus {
	ops, remoteBase, closeRemote, err := fileOps(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("cannot open destination")
		return stats.SeriousError
	}

	defer closeRemote()

	options := []batch.Option{batch.WithFileOps(ops)}

	selectionOpts := cfg.SelectionOptions()
	if selectionOpts.HasFilter() {
		filter, err := selection.NewGlobFilter(selectionOpts, nil)
		if err != nil {
			logger.Error().Err(err).Msg("invalid selection")
			return stats.SeriousError
		}

		options = append(options, batch.WithSelector(filter))
	}

	if cfg.LogPath != "" {
		options = append(options, batch.WithLogSink(logfile.NewSink(filesystem.NewRealFileSystem(), cfg.LogPath)))
	}

	interactive := !cfg.NoTUI && term.IsTerminal(int(os.Stdout.Fd()))

	var bridge *shared.EventBridge
	if interactive {
		bridge = shared.NewEventBridge()
		options = append(options, batch.WithEmitter(bridge))
	}

	orchestrator := batch.New(copier.NewFactory(cfg.CopyOptions(), ops), batch.OptionsFromConfig(cfg), options...)

	defer func() {
		_ = orchestrator.Close()
	}()

	err = addPairs(orchestrator, cfg, remoteBase)
	if err != nil {
		logger.Error().Err(err).Msg("invalid file pairs")
		return stats.SeriousError
	}

	var results *stats.Results

	if interactive {
		title := fmt.Sprintf("%s  %s", cfg.JobName, orchestrator.CommandOptions())
		results, err = tui.Run(ctx, orchestrator, bridge, title, os.Stdout)
	} else {
		go func() {
			<-ctx.Done()
			orchestrator.Stop()
		}()

		results, err = orchestrator.Start(ctx)
		if err == nil {
			err = logging.PrintResults(os.Stdout, results)
		}
	}

	if err != nil {
		logger.Error().Err(err).Msg("batch failed")
		return stats.SeriousError
	}

	if results == nil {
		return stats.SeriousError
	}

	return results.Status
}

// fileOps picks the filesystems: local sources always, destinations on the
// SFTP server named by --remote when given.
func fileOps(cfg *config.Config) (*fileops.FileOps, string, func(), error) {
	if cfg.Remote == "" {
		return fileops.NewRealFileOps(), "", func() {}, nil
	}

	destFS, base, closer, err := filesystem.Dial(cfg.Remote)
	if err != nil {
		return nil, "", nil, err
	}

	return fileops.NewDualFileOps(filesystem.NewRealFileSystem(), destFS), base, closer, nil
}

func addPairs(orchestrator *batch.Orchestrator, cfg *config.Config, remoteBase string) error {
	specs, err := cfg.ResolvePairs()
	if err != nil {
		return err
	}

	pairs := make([]*fileops.FilePair, 0, len(specs))

	for _, spec := range specs {
		destination := spec.Destination
		if remoteBase != "" && !path.IsAbs(destination) {
			destination = path.Join(remoteBase, destination)
		}

		pairs = append(pairs, fileops.NewFilePair(spec.Source, destination))
	}

	return orchestrator.Add(pairs...)
}
