package migration

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed sql
var migrationsFS embed.FS

// Migration is one versioned schema change for a single dialect.
type Migration struct {
	Version string
	Name    string
	UpSQL   string
	DownSQL string
}

// Load reads the embedded migrations for dialect ("sqlite" or "postgres"),
// ordered by version.
func Load(dialect string) ([]Migration, error) {
	dir := path.Join("sql", dialect)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		version, name, direction, err := parseFileName(entry.Name())
		if err != nil {
			return nil, err
		}

		data, err := migrationsFS.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if direction == "up" {
			m.UpSQL = string(data)
		} else {
			m.DownSQL = string(data)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" {
			return nil, fmt.Errorf("migration %s_%s has no up file", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseFileName splits "0001_create_books.up.sql" into its parts.
func parseFileName(file string) (version, name, direction string, err error) {
	base := strings.TrimSuffix(file, ".sql")
	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
	case strings.HasSuffix(base, ".down"):
		direction = "down"
	default:
		return "", "", "", fmt.Errorf("migration file %s must end in .up.sql or .down.sql", file)
	}
	base = strings.TrimSuffix(base, "."+direction)

	version, name, ok := strings.Cut(base, "_")
	if !ok || version == "" || name == "" {
		return "", "", "", fmt.Errorf("migration file %s must be named <version>_<name>.%s.sql", file, direction)
	}
	return version, name, direction, nil
}

// splitSQL splits a script on semicolons, dropping comment lines.
func splitSQL(sql string) []string {
	var cleaned []string
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(cleaned, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
