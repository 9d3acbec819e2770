package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/flowdeck/internal/api"
	"github.com/mattjoyce/flowdeck/internal/client"
	"github.com/mattjoyce/flowdeck/internal/codec"
	"github.com/mattjoyce/flowdeck/internal/config"
	"github.com/mattjoyce/flowdeck/internal/dialog"
	"github.com/mattjoyce/flowdeck/internal/events"
	"github.com/mattjoyce/flowdeck/internal/log"
	"github.com/mattjoyce/flowdeck/internal/plugin"
	"github.com/mattjoyce/flowdeck/internal/snapshot"
	"github.com/mattjoyce/flowdeck/internal/tui/watch"
	"github.com/mattjoyce/flowdeck/internal/workspace"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "serve":
		return runServe(args)
	case "watch":
		return runWatch(args)
	case "validate":
		return runValidate(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `flowdeck - visual pipeline editor server

Usage:
  flowdeck serve [--config path]     Run the workspace API server
  flowdeck watch [--api url]         Attach the live workspace monitor TUI
  flowdeck validate [--config path] file.json
                                     Check a pipeline file against the catalog
  flowdeck version [--json]          Print version information`)
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		if _, err := os.Stat("flowdeck.yaml"); err == nil {
			return config.Load("flowdeck.yaml")
		}
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Log.Level)
	logger := log.WithComponent("main")
	logger.Info("flowdeck starting", "version", version, "backend", cfg.Backend.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := snapshot.OpenSQLite(ctx, cfg.Snapshot.Path)
	if err != nil {
		logger.Error("failed to open snapshot database", "path", cfg.Snapshot.Path, "error", err)
		return 1
	}
	defer db.Close()
	snapStore := snapshot.NewStore(db)

	fileDialog, err := dialog.NewFS(cfg.Workspace.Dir)
	if err != nil {
		logger.Error("failed to initialize pipelines directory", "dir", cfg.Workspace.Dir, "error", err)
		return 1
	}

	backend := client.New(cfg.Backend.URL)
	catalog := plugin.NewCatalog(backend)
	hub := events.NewHub(256)
	store := workspace.NewStore(catalog, backend, fileDialog, hub, log.WithComponent("workspace"))

	if err := store.ReloadCatalog(ctx); err != nil {
		// The editor works with an empty catalog; loads degrade to unknown
		// stubs until the backend is reachable.
		logger.Warn("initial catalog load failed", "error", err)
	} else {
		logger.Info("catalog loaded", "plugins", catalog.Len())
	}

	restoreSnapshots(ctx, store, snapStore, logger)
	go autosaveLoop(ctx, store, snapStore, hub, log.WithComponent("autosave"))

	apiServer := api.New(api.Config{Listen: cfg.API.Listen}, store, catalog, fileDialog, hub, log.WithComponent("api"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("api: %w", err)
		}
	}()

	logger.Info("flowdeck running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("flowdeck stopped")
	return 0
}

// restoreSnapshots loads every autosaved pipeline back into the workspace.
// Loaded pipelines get fresh ids, so the old snapshot rows are dropped; the
// autosave loop re-snapshots them under the new ids.
func restoreSnapshots(ctx context.Context, store *workspace.Store, snapStore *snapshot.Store, logger *slog.Logger) {
	infos, err := snapStore.List(ctx)
	if err != nil {
		logger.Warn("snapshot listing failed", "error", err)
		return
	}

	for _, info := range infos {
		dto, err := snapStore.Load(ctx, info.PipelineID)
		if err != nil {
			logger.Warn("snapshot load failed", "pipeline_id", info.PipelineID, "error", err)
			continue
		}
		id, diags := store.LoadPipeline(dto)
		logger.Info("restored pipeline from snapshot", "pipeline_id", id, "name", dto.Name, "diagnostics", len(diags))
		if err := snapStore.Delete(ctx, info.PipelineID); err != nil {
			logger.Warn("stale snapshot delete failed", "pipeline_id", info.PipelineID, "error", err)
		}
	}
}

// autosaveLoop snapshots pipelines as workspace events arrive, so a restart
// recovers unsaved work.
func autosaveLoop(ctx context.Context, store *workspace.Store, snapStore *snapshot.Store, hub *events.Hub, logger *slog.Logger) {
	ch, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}

			var data struct {
				PipelineID string `json:"pipeline_id"`
			}
			if err := json.Unmarshal(ev.Data, &data); err != nil || data.PipelineID == "" {
				continue
			}

			if ev.Type == events.TypePipelineRemoved {
				if err := snapStore.Delete(ctx, data.PipelineID); err != nil && !errors.Is(err, snapshot.ErrSnapshotNotFound) {
					logger.Warn("snapshot delete failed", "pipeline_id", data.PipelineID, "error", err)
				}
				continue
			}

			p, ok := store.Pipeline(data.PipelineID)
			if !ok {
				continue
			}
			if err := snapStore.Save(ctx, p.ID, codec.ToPersisted(p)); err != nil {
				logger.Warn("autosave failed", "pipeline_id", p.ID, "error", err)
			}
		}
	}
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8090", "Base URL of a running flowdeck serve instance")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	m := watch.New(strings.TrimRight(*apiURL, "/"))
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Watch TUI failed: %v\n", err)
		return 1
	}
	return 0
}

// runValidate checks a pipeline file: parse, rehydrate against the backend
// catalog and report diagnostics. Exit 0 means the file loads cleanly.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowdeck validate [--config path] file.json")
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read pipeline file: %v\n", err)
		return 1
	}

	dto, err := codec.UnmarshalPersisted(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid pipeline file: %v\n", err)
		return 1
	}

	catalog := plugin.NewCatalog(client.New(cfg.Backend.URL))
	if err := catalog.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: catalog unavailable, plugin names not checked (%v)\n", err)
	}

	p, diags := codec.FromPersisted(dto, catalog)
	fmt.Printf("%s: %d nodes, %d edges\n", p.Name, len(p.Nodes), len(p.Edges))
	for _, d := range diags {
		fmt.Printf("  %s: %s\n", d.Kind, d.Detail)
	}
	if len(diags) > 0 {
		return 1
	}
	fmt.Println("OK")
	return 0
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := versionInfo{Version: strings.TrimSpace(version), Commit: "unknown"}
	if commit := readBuildSetting("vcs.revision"); commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("flowdeck %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	return 0
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
