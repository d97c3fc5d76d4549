// Package system wraps the host: file limits, ffprobe/ffmpeg discovery and
// resource stats for run reports.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ErrNotFound is returned by FindLatest when no file matches.
var ErrNotFound = errors.New("no matching file")

// InitResourceLimits raises the open-file limit; a large image directory
// keeps many decoders open at once.
func InitResourceLimits(logger zerolog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn().Err(err).Msg("cannot read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn().Err(err).Msg("cannot raise open file limit")
		return
	}
	logger.Debug().Uint64("limit", uint64(rLimit.Cur)).Msg("open file limit raised")
}

// FindLatest returns the most recently modified file in dir whose extension
// is one of exts (case-insensitive).
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !HasExt(f.Name(), exts...) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("%s in %s: %w", strings.Join(exts, ","), dir, ErrNotFound)
	}
	return latestFile, nil
}

// HasExt reports whether name ends in one of exts, ignoring case.
func HasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// GetMediaDuration asks ffprobe for the container duration of a media file.
func GetMediaDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseSeconds(string(out))
}

func parseSeconds(s string) (time.Duration, error) {
	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &seconds); err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(s), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// GetBestH264Encoder picks a hardware encoder when ffmpeg has one.
func GetBestH264Encoder(ctx context.Context) string {
	// VideoToolbox on macOS, then NVENC, then software.
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// Stats is a snapshot of host and process load.
type Stats struct {
	CPUs          int
	CPUPercent    float64
	MemUsedPct    float64
	MemTotalBytes uint64
	ProcessRSS    uint64
}

// Snapshot samples CPU over interval along with memory usage.
func Snapshot(ctx context.Context, interval time.Duration) (Stats, error) {
	var st Stats

	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return st, fmt.Errorf("cpu count: %w", err)
	}
	st.CPUs = n

	pct, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return st, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) > 0 {
		st.CPUPercent = pct[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return st, fmt.Errorf("virtual memory: %w", err)
	}
	st.MemUsedPct = vm.UsedPercent
	st.MemTotalBytes = vm.Total

	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return st, fmt.Errorf("process: %w", err)
	}
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
		st.ProcessRSS = mi.RSS
	}
	return st, nil
}

// Fields adds the snapshot to a log event.
func (s Stats) Fields(e *zerolog.Event) *zerolog.Event {
	return e.Int("cpus", s.CPUs).
		Float64("cpu_pct", s.CPUPercent).
		Float64("mem_used_pct", s.MemUsedPct).
		Uint64("mem_total_bytes", s.MemTotalBytes).
		Uint64("rss_bytes", s.ProcessRSS)
}
