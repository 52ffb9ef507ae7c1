package store

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrations returns the .up.sql scripts for a driver in file name order.
func migrations(driver Driver) ([]string, error) {
	dir := "migrations/" + string(driver)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := migrationsFS.ReadFile(dir + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		scripts = append(scripts, string(data))
	}
	return scripts, nil
}
