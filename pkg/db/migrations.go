package db

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migration is one SQL file from a backend's embedded migrations directory
type Migration struct {
	Filename string
	SQL      string
}

// PendingMigrations returns the .sql files under dir that are not in applied, in filename order
func PendingMigrations(fsys fs.FS, dir string, applied map[string]bool) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var filenames []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") && !applied[entry.Name()] {
			filenames = append(filenames, entry.Name())
		}
	}
	sort.Strings(filenames)

	pending := make([]Migration, 0, len(filenames))
	for _, filename := range filenames {
		content, err := fs.ReadFile(fsys, dir+"/"+filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", filename, err)
		}
		pending = append(pending, Migration{Filename: filename, SQL: string(content)})
	}

	return pending, nil
}
