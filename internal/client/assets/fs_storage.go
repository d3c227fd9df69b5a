package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/storyshelf/storyshelf/internal/filex"
)

const indexFile = "index.json"

var generationName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FSStorage keeps each generation in its own directory under dir:
//
//	<dir>/<generation>/index.json     url -> entry metadata
//	<dir>/<generation>/<sha256(url)>  response body
//
// Put builds the generation in a hidden temp directory and renames it into
// place.
type FSStorage struct {
	dir string
}

func NewFSStorage(base, sub string) (*FSStorage, error) {
	dir, err := filex.EnsureDir(base, sub)
	if err != nil {
		return nil, err
	}
	return &FSStorage{dir: dir}, nil
}

func bodyFile(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func checkName(name string) error {
	if !generationName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadGeneration, name)
	}
	return nil
}

func (s *FSStorage) Names(ctx context.Context) ([]string, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	var names []string
	for _, de := range des {
		if de.IsDir() && generationName.MatchString(de.Name()) {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSStorage) Has(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, name, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat generation %s: %w", name, err)
	}
	return true, nil
}

func (s *FSStorage) Put(ctx context.Context, name string, entries []Entry) error {
	if err := checkName(name); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(s.dir, "."+name+"-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	index := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(tmp, bodyFile(e.URL)), e.Body, 0o640); err != nil {
			return fmt.Errorf("write %s: %w", e.URL, err)
		}
		index[e.URL] = e
	}
	b, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := filex.WriteFile(filepath.Join(tmp, indexFile), b); err != nil {
		return err
	}

	final := filepath.Join(s.dir, name)
	var trash string
	if _, err := os.Stat(final); err == nil {
		trash = filepath.Join(s.dir, "."+name+"-old")
		_ = os.RemoveAll(trash)
		if err := os.Rename(final, trash); err != nil {
			return fmt.Errorf("retire generation %s: %w", name, err)
		}
	}
	if err := os.Rename(tmp, final); err != nil {
		if trash != "" {
			_ = os.Rename(trash, final)
		}
		return fmt.Errorf("commit generation %s: %w", name, err)
	}
	if trash != "" {
		_ = os.RemoveAll(trash)
	}
	return nil
}

func (s *FSStorage) Match(ctx context.Context, name, url string) (*Entry, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.dir, name)
	b, err := os.ReadFile(filepath.Join(dir, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("read index of %s: %w", name, err)
	}
	var index map[string]Entry
	if err := json.Unmarshal(b, &index); err != nil {
		return nil, fmt.Errorf("decode index of %s: %w", name, err)
	}
	e, ok := index[url]
	if !ok {
		return nil, ErrNotCached
	}
	if e.Body, err = os.ReadFile(filepath.Join(dir, bodyFile(url))); err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", url, name, err)
	}
	return &e, nil
}

func (s *FSStorage) Delete(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	dir := filepath.Join(s.dir, name)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("delete generation %s: %w", name, err)
	}
	return true, nil
}
