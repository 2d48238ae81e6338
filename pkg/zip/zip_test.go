package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "a.png", Data: []byte("one")},
		{Filename: "b.png", Data: []byte("two")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "one" {
		t.Fatalf("unexpected entry body %q", body)
	}
}

func TestArchiveAssetsDeduplicatesNames(t *testing.T) {
	data, err := ArchiveAssets([]Asset{
		{Filename: "x.png", Data: []byte("first")},
		{Filename: "x.png", Data: []byte("second")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	if zr.File[0].Name == zr.File[1].Name {
		t.Fatalf("duplicate entry names: %s", zr.File[0].Name)
	}
	if zr.File[1].Name != "x-2.png" {
		t.Fatalf("unexpected deduplicated name %s", zr.File[1].Name)
	}
}

func TestArchiveAssetsBlankNameCollision(t *testing.T) {
	// A blank filename normalizes to "asset" and must still dedupe against
	// an explicit "asset" entry.
	data, err := ArchiveAssets([]Asset{
		{Filename: "", Data: []byte("blank")},
		{Filename: "asset", Data: []byte("named")},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	if zr.File[0].Name != "asset" || zr.File[1].Name != "asset-2" {
		t.Fatalf("unexpected entry names %s, %s", zr.File[0].Name, zr.File[1].Name)
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	data, err := ArchiveAssets(nil)
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}
	if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("empty archive unreadable: %v", err)
	}
}
