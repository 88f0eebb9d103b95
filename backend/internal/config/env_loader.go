package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var (
	envLoadOnce sync.Once
	envLoaded   []string
)

// LoadEnvFiles reads the optional env files once per process and returns the
// paths that were applied. ENV_FILE names an explicit file; otherwise
// .env.local and then .env are tried in the working directory and next to
// the binary. Values already present in the process environment always win,
// and .env.local wins over .env.
func LoadEnvFiles() []string {
	envLoadOnce.Do(func() {
		for _, path := range envFileCandidates() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := godotenv.Load(path); err == nil {
				envLoaded = append(envLoaded, path)
			}
		}
	})
	return envLoaded
}

func envFileCandidates() []string {
	if explicit := strings.TrimSpace(os.Getenv("ENV_FILE")); explicit != "" {
		return []string{explicit}
	}

	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		if dir := filepath.Dir(exe); dir != "." {
			dirs = append(dirs, dir)
		}
	}

	var candidates []string
	for _, dir := range dirs {
		for _, name := range []string{".env.local", ".env"} {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	return candidates
}
