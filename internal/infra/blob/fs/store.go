// Package fs implements the blob store on the local filesystem.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"curriculumcore/internal/blob/core"
)

// Store implements core.Store using the local filesystem.
// Keys map to relative file paths under the root; a sidecar (filename +
// `.meta`) stores content type, user metadata and the sha256 etag.
type Store struct {
	root string
	now  func() time.Time
}

// New returns a filesystem-backed blob store rooted at path, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./archive"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &Store{root: root, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory blobs are written under.
func (s *Store) Root() string { return s.root }

// sanitizeKey forbids empty keys, absolute keys and path traversal.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key traversal %q", key)
	}
	if strings.HasSuffix(clean, ".meta") {
		return "", fmt.Errorf("reserved key suffix %q", key)
	}
	return clean, nil
}

func (s *Store) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(k))
	return dataPath, dataPath + ".meta", nil
}

type metaFile struct {
	ContentType string            `json:"contentType,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func (m metaFile) info(key string) core.Info {
	return core.Info{Key: key, Size: m.Size, ContentType: m.ContentType, ETag: m.ETag, Metadata: cloneMetadata(m.Metadata), LastModified: m.CreatedAt}
}

// Put streams r to a temp file, then renames it into place.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o750); err != nil {
		return core.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return core.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return core.Info{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return core.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return core.Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return core.Info{}, err
	}
	mf := metaFile{
		ContentType: opts.ContentType,
		Metadata:    cloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		CreatedAt:   s.now(),
	}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return core.Info{}, err
	}
	if err := os.WriteFile(metaPath, data, 0o600); err != nil {
		return core.Info{}, err
	}
	return mf.info(key), nil
}

// Get opens the blob for reading.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(dataPath) //nolint:gosec // path sanitised above
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	mf, err := readMeta(metaPath)
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, err
	}
	return mf.info(key), file, nil
}

// Delete removes the blob and its sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List walks the root collecting sidecars whose key has prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".meta") {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, ".meta"))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		mf, err := readMeta(path)
		if err != nil {
			return err
		}
		infos = append(infos, mf.info(key))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func readMeta(path string) (metaFile, error) {
	b, err := os.ReadFile(path) //nolint:gosec // derived from a sanitised key
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return metaFile{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return mf, nil
}
