package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeJSON persists v as JSON at path, gzip-compressed when compress is
// set (the file then gets a .gz suffix). The payload is written to a
// temporary file in the same directory and renamed into place, so readers
// never observe a half-written file. The sibling variant (compressed vs
// plain) is removed after a successful write so it cannot shadow the
// fresh data.
func writeJSON(path string, v any, compress bool, level int) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	target := path
	stale := path + ".gz"
	if compress {
		target = path + ".gz"
		stale = path

		gzData, err := gzipBytes(data, level)
		if err != nil {
			return fmt.Errorf("compress %s: %w", filepath.Base(path), err)
		}
		data = gzData
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(target), err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(target), err)
	}

	// Best effort: a stale sibling only matters if it would shadow the
	// fresh file on read.
	_ = os.Remove(stale)

	return nil
}

// readJSON loads JSON from path, trying the compressed variant first and
// falling back to the plain file. Returns ErrCacheFileNotFound (wrapped
// with the path) when neither exists.
func readJSON(path string, v any) error {
	if data, err := os.ReadFile(path + ".gz"); err == nil {
		plain, err := gunzipBytes(data)
		if err != nil {
			return fmt.Errorf("decompress %s: %w", filepath.Base(path), err)
		}
		if err := json.Unmarshal(plain, v); err != nil {
			return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Paths are store-internal
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrCacheFileNotFound, path)
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// gzipBytes compresses data at the given gzip level.
func gzipBytes(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gunzipBytes decompresses a gzip payload.
func gunzipBytes(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dirSize returns the total size in bytes of all regular files under dir.
func dirSize(dir string) int64 {
	var size int64
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Size is advisory; skip unreadable entries
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	return size
}
