package storage

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const thumbnailSize = 128

// AssetStore keeps image assets on the local filesystem and hands out the
// public paths under which the router serves them as static content.
type AssetStore struct {
	baseDir      string
	publicPrefix string
}

func NewAssetStore(baseDir, publicPrefix string) (*AssetStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &AssetStore{
		baseDir:      baseDir,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
	}, nil
}

// Dir returns the directory the router should serve statically.
func (s *AssetStore) Dir() string {
	return s.baseDir
}

// SaveBytes writes raw upload bytes verbatim under the given name.
func (s *AssetStore) SaveBytes(data []byte, name string) (string, error) {
	name = sanitizeName(name)
	if err := os.WriteFile(filepath.Join(s.baseDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return s.publicPath(name), nil
}

// SaveImage encodes an image as JPEG under the given name.
func (s *AssetStore) SaveImage(img image.Image, name string) (string, error) {
	name = sanitizeName(name)
	if err := imaging.Save(img, filepath.Join(s.baseDir, name), imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("save asset: %w", err)
	}
	return s.publicPath(name), nil
}

// SaveThumbnail stores a small square preview used by history listings.
func (s *AssetStore) SaveThumbnail(img image.Image, name string) (string, error) {
	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	return s.SaveImage(thumb, name)
}

// Remove deletes one asset. A missing file is not an error.
func (s *AssetStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.baseDir, sanitizeName(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear deletes every stored asset and returns how many were removed.
func (s *AssetStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read asset dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove asset %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (s *AssetStore) publicPath(name string) string {
	return s.publicPrefix + "/" + name
}

// sanitizeName strips any path components so assets cannot escape the base
// directory.
func sanitizeName(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(filepath.Separator) {
		name = "asset"
	}
	return name
}
