package cli

import (
	"fmt"
	"os"

	"github.com/roach88/capnego/internal/registry"
)

// openRegistry opens an existing registry database. Commands that read
// elements refuse to create an empty one.
func openRegistry(f *OutputFormatter, path string) (*registry.Registry, error) {
	if path == "" {
		return nil, f.fail(ExitCommandError, ErrCodeBadFlag, "--db is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("registry not found: %s (run compile first)", path))
	}
	reg, err := registry.Open(path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open registry: %v", err))
	}
	f.VerboseLog("Opened registry %s", path)
	return reg, nil
}
