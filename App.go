package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/henrika2/spreadsheet/engine"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const ExitCodeMainError = 1

const ShutdownTimeout = 5 * time.Second

func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "spreadsheet",
		Short:         "Spreadsheet cells with formulas, recalculated incrementally",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newServeCommand(&configPath),
		newShowCommand(),
		newSetCommand(),
		newWatchCommand(),
	)
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	var listenAddress, databasePath string

	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve sheets over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				config.ListenAddress = listenAddress
			}
			if cmd.Flags().Changed("database") {
				config.DatabasePath = databasePath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return RunApp(ctx, config)
		},
	}

	command.Flags().StringVar(&listenAddress, "listen", DefaultListenAddress, "HTTP listen address")
	command.Flags().StringVar(&databasePath, "database", "", "path to the bbolt database file")
	return command
}

// RunApp serves the API until ctx is cancelled
func RunApp(ctx context.Context, config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)

	serviceContainer, err := BuildServiceContainer(config)
	if err != nil {
		return err
	}
	defer serviceContainer.Database.Close()

	serviceContainer.WebhookDispatcher.Start()
	defer serviceContainer.WebhookDispatcher.Close()

	server := &http.Server{
		Addr:    config.ListenAddress,
		Handler: serviceContainer.Router,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		serviceContainer.Logger.Info("listening", "address", config.ListenAddress, "database", config.DatabasePath)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print contents and values of every cell of a sheet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := engine.NewSheet()
			if err := sheet.Load(engine.NewFileSheetStorage(), args[0]); err != nil {
				return err
			}
			return NewSheetPrinter(cmd.OutOrStdout()).Print(sheet)
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> NAME=CONTENT...",
		Short: "Set cell contents in a sheet file, creating it when missing",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage := engine.NewFileSheetStorage()
			sheet := engine.NewSheet()

			if err := sheet.Load(storage, args[0]); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			for _, assignment := range args[1:] {
				name, content, ok := strings.Cut(assignment, "=")
				if !ok {
					return fmt.Errorf("`%s`: expected NAME=CONTENT", assignment)
				}

				affected, err := sheet.SetContents(name, content)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.Join(affected, " "))
			}

			return sheet.Save(storage, args[0])
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Print a sheet file and print it again every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return WatchSheet(ctx, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// WatchSheet prints the sheet at path on start and after every write to it, until ctx is done
func WatchSheet(ctx context.Context, path string, out io.Writer, errOut io.Writer) error {
	printer := NewSheetPrinter(out)
	render := func() {
		sheet := engine.NewSheet()
		if err := sheet.Load(engine.NewFileSheetStorage(), path); err != nil {
			_, _ = fmt.Fprintln(errOut, err)
			return
		}
		_ = printer.Print(sheet)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// the file is replaced by rename on save, so the directory is watched
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == filepath.Clean(path) && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				render()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintln(errOut, err)
		}
	}
}

func HandleExitError(errStream io.Writer, err error) int {
	if err != nil {
		_, _ = fmt.Fprintln(errStream, err)
		return ExitCodeMainError
	}

	return 0
}
