// Command sitewright runs the generation pipeline against local mockup
// files: upload, analysis, research, optional refinement from a patch file,
// asset generation, and site code generation, then writes the generated
// pages to an output directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/observability"
	"github.com/sitewright/engine/pipeline"
	"github.com/sitewright/engine/session"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config JSON file (optional)")
		outDir      = flag.String("out", "site", "Output directory for generated pages")
		patchFile   = flag.String("patch", "", "Path to a refinement patch JSON file (optional)")
		recipe      = flag.String("recipe", "", "Generation recipe to apply (optional)")
		galleryPath = flag.String("gallery", "", "Gallery record file (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	mockups := flag.Args()
	if len(mockups) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: sitewright [flags] <mockup.png> [mockup2.png ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := pipeline.DefaultConfig()
	if *configFile != "" {
		loaded, err := pipeline.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *galleryPath != "" {
		cfg.Gallery.Path = *galleryPath
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observer := observability.NewSlogObserver(logger)

	seq, err := pipeline.New(&cfg, pipeline.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create sequencer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *recipe != "" {
		seq.SelectRecipe(*recipe)
	}

	uploads, err := readUploads(mockups)
	if err != nil {
		log.Fatalf("Failed to read mockups: %v", err)
	}

	if _, err := seq.AcceptUploads(ctx, uploads); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	patch, err := readPatch(*patchFile)
	if err != nil {
		log.Fatalf("Failed to read patch: %v", err)
	}

	state, err := seq.ConfirmRefinement(ctx, patch)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	if err := writePages(*outDir, state); err != nil {
		log.Fatalf("Failed to write pages: %v", err)
	}

	printSummary(state, *outDir)
}

func readUploads(paths []string) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, pipeline.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func readPatch(path string) (design.Patch, error) {
	var patch design.Patch
	if path == "" {
		return patch, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return patch, err
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return patch, fmt.Errorf("failed to parse patch file: %w", err)
	}
	return patch, nil
}

func writePages(dir string, state session.State) error {
	if state.Active == nil {
		return fmt.Errorf("no generated site")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, page := range state.Active.Pages {
		path := filepath.Join(dir, page.Filename)
		if err := os.WriteFile(path, []byte(page.Source), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(state session.State, outDir string) {
	fmt.Println(titleStyle.Render(state.Active.Name))
	fmt.Printf("%s %s\n", labelStyle.Render("output:"), outDir)
	fmt.Printf("%s %d page(s), %d asset(s)\n",
		labelStyle.Render("generated:"), len(state.Active.Pages), len(state.Active.Assets))
	if state.Recipe != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("recipe:"), state.Recipe)
	}

	for _, entry := range state.Log {
		switch entry.Level {
		case session.LogWarn:
			fmt.Println(warnStyle.Render("warn: " + entry.Message))
		case session.LogError:
			fmt.Println(errStyle.Render("error: " + entry.Message))
		}
	}
}
