package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/kenburns/internal/source"
	"github.com/ivlev/kenburns/internal/system"
)

// Shared by every command that reads input.
var (
	inputPath string
	width     int
	height    int
	preset    string
	dpi       int
	parallel  int64
)

func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "PDF, playlist YAML, image/video file or directory (default: newest PDF in input/)")
	f.IntVar(&width, "width", 1280, "Output width")
	f.IntVar(&height, "height", 720, "Output height")
	f.StringVar(&preset, "preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	f.IntVar(&dpi, "dpi", 150, "PDF render resolution")
	f.Int64Var(&parallel, "parallel", 2, "Concurrent decodes/renders")
}

func outputSize() (int, int) {
	switch preset {
	case "16:9":
		return 1280, 720
	case "9:16":
		return 720, 1280
	case "4:5":
		return 1080, 1350
	}
	return width, height
}

type input struct {
	feed    source.Feed
	indexed source.IndexedSource // nil for playlists
	close   func() error
}

func resolveInput() (string, error) {
	if inputPath != "" {
		return inputPath, nil
	}
	latest, err := system.FindLatest("input", ".pdf")
	if err != nil {
		return "", fmt.Errorf("no --input given and %w; put a PDF into input/", err)
	}
	logger.Info().Str("input", latest).Msg("using newest PDF")
	return latest, nil
}

func openInput() (*input, error) {
	path, err := resolveInput()
	if err != nil {
		return nil, err
	}

	switch {
	case system.HasExt(path, ".pdf"):
		pdf, err := source.NewFitzPDF(path)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}
		paged := source.NewPaged(pdf, filepath.Base(path), dpi, parallel, logger)
		return &input{feed: source.Indexed(paged), indexed: paged, close: paged.Close}, nil

	case system.HasExt(path, ".yaml", ".yml"):
		pl, err := source.LoadPlaylist(path, logger)
		if err != nil {
			return nil, err
		}
		return &input{feed: source.Sequential(pl), close: func() error { return nil }}, nil

	default:
		dir, err := source.NewDir(path, parallel, logger)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return &input{feed: source.Indexed(dir), indexed: dir, close: dir.Close}, nil
	}
}
