package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/kenburns/internal/system"
)

// GenerateScenarioPath creates a timestamped scenario filename in dir.
func GenerateScenarioPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("scenario_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatestScenario finds the most recently modified scenario in dir.
func FindLatestScenario(dir string) (string, error) {
	path, err := system.FindLatest(dir, ".yaml", ".yml")
	if err != nil {
		return "", fmt.Errorf("find scenario: %w", err)
	}
	return path, nil
}
