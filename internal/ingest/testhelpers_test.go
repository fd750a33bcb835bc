package ingest

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name    string
	content string
}

func writeZIP(t *testing.T, dir, name string, entries ...zipEntry) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return p
}

// record renders one raw position the way the upstream feed encodes it.
func record(ordem, linha, lat, lon string) string {
	return fmt.Sprintf(`{"ordem":%q,"latitude":%q,"longitude":%q,"datahora":"1710507600000","velocidade":"37","linha":%q,"datahoraenvio":"1710507601000","datahoraservidor":"1710507602000"}`,
		ordem, lat, lon, linha)
}
