package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"enigma/internal/config"
	"enigma/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <machine> <input> <output>",
		Short: "Reconvert input whenever it or the machine changes",
		Long: `Convert input into output, then keep watching the machine description and
the input file. Each time either settles after a change the whole input is
converted again with a freshly built machine. Errors are reported and
watching continues. Edits to the settings file are picked up as well.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), args[0], args[1], args[2])
		},
	}
}

func (a *app) watch(ctx context.Context, machinePath, inputPath, outputPath string) error {
	logger := a.logger.WithComponent("watch")

	debounce := time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond
	w, err := watcher.New([]string{machinePath, inputPath}, debounce)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching", "paths", w.WatchedPaths())

	reloaded := make(chan struct{}, 1)
	var (
		loader       *config.Loader
		settingsErrs <-chan error
	)
	if path := a.settingsFile(); path != "" {
		loader, err = a.watchSettings(path, reloaded)
		if err != nil {
			logger.Warn("not watching settings file", "path", path, "error", err)
		} else {
			defer loader.Close()
			settingsErrs = loader.Errors()
			logger.Info("watching settings file", "path", path)
		}
	}

	convert := func(reason string) {
		logger.Info("converting", "reason", reason)
		if err := a.convertFile(ctx, machinePath, inputPath, outputPath); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("conversion failed", "error", err)
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
	}

	convert("start")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			convert(ev.Path)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-reloaded:
			a.applyReload(loader.Config())
			convert("settings")
		case err := <-settingsErrs:
			logger.Warn("settings file not reloaded", "error", err)
		}
	}
}

// settingsFile is the settings file in use, or "" if there is none on
// disk.
func (a *app) settingsFile() string {
	path := a.configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// applyReload takes output and journal settings from a reloaded settings
// file. Command-line flags still win and the logger is left as it is.
func (a *app) applyReload(cfg *config.Config) {
	next := config.Merge(cfg, a.overrides)
	next.Logging = a.cfg.Logging
	a.cfg = next
}

// watchSettings loads the settings file and watches it. Each valid reload
// is signalled on ch; the new settings are read from the loader. A signal
// already waiting on ch covers later reloads.
func (a *app) watchSettings(path string, ch chan<- struct{}) (*config.Loader, error) {
	l := config.NewLoader(path)
	if _, err := l.Load(); err != nil {
		return nil, err
	}
	l.OnChange(func(*config.Config) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	if err := l.Watch(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}
