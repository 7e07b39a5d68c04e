// Package archive keeps the raw model output of failed generations on disk
// for later inspection.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	rawExt        = ".txt"
	compressedExt = ".txt.zst"
)

// Save writes raw to dir/{id}.txt.zst, or dir/{id}.txt when compress is
// false. Returns the file path.
func Save(dir, id string, raw []byte, compress bool) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("invalid archive id %q", id)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	destPath := Path(dir, id, compress)
	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer dest.Close()

	if !compress {
		if _, err := dest.Write(raw); err != nil {
			return "", fmt.Errorf("write archive: %w", err)
		}
		return destPath, nil
	}

	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(encoder, bytes.NewReader(raw)); err != nil {
		encoder.Close()
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalize compression: %w", err)
	}
	return destPath, nil
}

// Load reads an archive written by Save, decompressing .zst files.
func Load(path string) ([]byte, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	if !strings.HasSuffix(path, ".zst") {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		return data, nil
	}

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return data, nil
}

// Find returns the archive path for id in either form.
func Find(dir, id string) (string, bool) {
	for _, compress := range []bool{true, false} {
		p := Path(dir, id, compress)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Path returns the deterministic archive path for an id.
func Path(dir, id string, compress bool) string {
	if compress {
		return filepath.Join(dir, id+compressedExt)
	}
	return filepath.Join(dir, id+rawExt)
}

// List returns the ids archived in dir, sorted. A missing dir is empty.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id := idFromName(e.Name()); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func idFromName(name string) string {
	if strings.HasSuffix(name, compressedExt) {
		return strings.TrimSuffix(name, compressedExt)
	}
	if strings.HasSuffix(name, rawExt) {
		return strings.TrimSuffix(name, rawExt)
	}
	return ""
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
