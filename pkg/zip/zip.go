// Package zip packs generated assets into an in-memory archive for export
// downloads.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
)

// Asset is a single file in an export archive.
type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets builds a zip archive holding the given assets. Duplicate
// filenames get a numeric suffix so no entry silently shadows another.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int, len(assets))

	for _, asset := range assets {
		name := asset.Filename
		if strings.TrimSpace(name) == "" {
			name = "asset"
		}
		if n := seen[name]; n > 0 {
			ext := path.Ext(name)
			seen[name]++
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
		} else {
			seen[name] = 1
		}

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
