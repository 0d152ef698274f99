package capture

import (
	"fmt"
	"os"
	"path/filepath"
)

// FramePattern names frames by zero-padded index. The same pattern is
// handed to the encoder.
const FramePattern = "f%03d.png"

// FrameStore hands out sequential frame paths inside a staging directory.
type FrameStore struct {
	dir   string
	paths []string
}

func NewFrameStore(dir string) (*FrameStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &FrameStore{dir: dir}, nil
}

// OpenFrameStore adopts frames already on disk, counting from f000.png up
// to the first gap.
func OpenFrameStore(dir string) (*FrameStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	s := &FrameStore{dir: dir}
	for {
		p := s.Next()
		if _, err := os.Stat(p); err != nil {
			break
		}
		s.Commit()
	}
	return s, nil
}

func (s *FrameStore) Dir() string { return s.dir }

// Next is the path the next frame should be written to. It is only
// counted after Commit.
func (s *FrameStore) Next() string {
	return filepath.Join(s.dir, fmt.Sprintf(FramePattern, len(s.paths)))
}

func (s *FrameStore) Commit() {
	s.paths = append(s.paths, s.Next())
}

func (s *FrameStore) Count() int { return len(s.paths) }

func (s *FrameStore) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Pattern is the printf-style input pattern for the encoder.
func (s *FrameStore) Pattern() string {
	return filepath.Join(s.dir, FramePattern)
}

// Remove deletes the staging directory and everything in it.
func (s *FrameStore) Remove() error {
	return os.RemoveAll(s.dir)
}
