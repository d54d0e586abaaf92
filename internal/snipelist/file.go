package snipelist

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileSource reads one mint per line. Blank lines and lines starting with
// '#' are skipped.
type FileSource struct {
	Path string
}

func (s *FileSource) Load(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read snipe list: %w", err)
	}

	var mints []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mints = append(mints, line)
	}
	return mints, nil
}
