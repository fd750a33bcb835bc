package store

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	tablePrefix = "gps_"
	// maxTableName leaves room for index suffixes inside Postgres'
	// 63-byte identifier limit.
	maxTableName = 40
)

var nonIdent = regexp.MustCompile(`[^a-z0-9]+`)

// TableName derives the per-archive table for an archive path: the base name
// without its .zip extension, lower-cased, with every run of characters
// outside [a-z0-9] collapsed to "_", prefixed with "gps_".
// "dados/GPS 2024-03.zip" becomes "gps_gps_2024_03".
func TableName(archivePath string) (string, error) {
	base := filepath.Base(archivePath)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".zip") {
		base = base[:len(base)-len(ext)]
	}

	name := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(base), "_"), "_")
	if name == "" {
		return "", eris.Errorf("store: archive %q yields an empty table name", archivePath)
	}

	name = tablePrefix + name
	if len(name) > maxTableName {
		name = strings.TrimRight(name[:maxTableName], "_")
	}
	return name, nil
}
