// Package skill keeps the user-editable SKILL.md for the Pipedrive tools in
// place. The bundled template is written once; later template changes land
// in a sibling .latest file and the user's copy is never rewritten.
package skill

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
)

// FileName is the skill file inside the skill directory.
const FileName = "SKILL.md"

// LatestSuffix is appended to FileName for the newer-template copy.
const LatestSuffix = ".latest"

//go:embed template.md
var bundled []byte

// Template returns the bundled template.
func Template() []byte {
	return bytes.Clone(bundled)
}

// Outcome reports what Scaffold did.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdateAvailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdateAvailable:
		return "update_available"
	default:
		return "unchanged"
	}
}

// DefaultDir is $PIPEDRIVE_SKILL_DIR, else ~/.openclause/skills/pipedrive.
func DefaultDir() string {
	if dir := config.EnvOr("PIPEDRIVE_SKILL_DIR", ""); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".openclause", "skills", "pipedrive")
}

// Scaffold writes template to dir/SKILL.md if it is missing. If the file
// exists with different bytes the template goes to SKILL.md.latest instead.
func Scaffold(dir string, template []byte) (Outcome, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return OutcomeUnchanged, fmt.Errorf("create skill dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, template, 0o644); err != nil {
			return OutcomeUnchanged, fmt.Errorf("write skill file: %w", err)
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("read skill file: %w", err)
	}

	if bytes.Equal(existing, template) {
		return OutcomeUnchanged, nil
	}
	if err := os.WriteFile(path+LatestSuffix, template, 0o644); err != nil {
		return OutcomeUnchanged, fmt.Errorf("write latest skill file: %w", err)
	}
	return OutcomeUpdateAvailable, nil
}

// Ensure scaffolds the bundled template into dir and logs the outcome.
// Failures are logged, not returned.
func Ensure(log *slog.Logger, dir string) Outcome {
	if dir == "" {
		dir = DefaultDir()
	}
	out, err := Scaffold(dir, bundled)
	if err != nil {
		log.Warn("skill scaffold failed", "dir", dir, "error", err)
		return out
	}
	switch out {
	case OutcomeCreated:
		log.Info("skill file created", "path", filepath.Join(dir, FileName))
	case OutcomeUpdateAvailable:
		log.Info("newer skill template available",
			"path", filepath.Join(dir, FileName),
			"latest", filepath.Join(dir, FileName+LatestSuffix),
		)
	}
	return out
}
