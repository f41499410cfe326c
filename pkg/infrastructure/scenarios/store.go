// Package scenarios stores and generates the realized delivery volumes a simulation replays.
package scenarios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/rollalloc/pkg/domain"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
	"github.com/vsinha/rollalloc/pkg/domain/repositories"
)

// Format is the encoding of outcome files
type Format int

const (
	JSON Format = iota
	YAML
)

// String method for Format enum
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ParseFormat reads json or yaml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return 0, domain.NewConfigurationError("outcome_format", "unknown format %q", s)
	}
}

const filePrefix = "scenario"

var extensions = []string{".json", ".yaml", ".yml"}

type outcomeFile struct {
	Results []entities.ScenarioOutcome `json:"results" yaml:"results"`
}

// FileStore keeps one scenario<N> file per outcome set in a directory
type FileStore struct {
	dir    string
	format Format
}

// Verify interface compliance
var _ repositories.OutcomeRepository = (*FileStore)(nil)

// NewFileStore creates a store; format applies to files it writes, reads accept either encoding
func NewFileStore(dir string, format Format) *FileStore {
	return &FileStore{dir: dir, format: format}
}

// Path returns the file an outcome set is written to
func (s *FileStore) Path(index int) string {
	ext := ".json"
	if s.format == YAML {
		ext = ".yaml"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s%d%s", filePrefix, index, ext))
}

// GetOutcomeSet reads scenario<index>.json, .yaml or .yml
func (s *FileStore) GetOutcomeSet(ctx context.Context, index int) (*entities.OutcomeSet, error) {
	for _, ext := range extensions {
		path := filepath.Join(s.dir, fmt.Sprintf("%s%d%s", filePrefix, index, ext))
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var file outcomeFile
		if ext == ".json" {
			err = json.Unmarshal(data, &file)
		} else {
			err = yaml.Unmarshal(data, &file)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return &entities.OutcomeSet{Index: index, Outcomes: file.Results}, nil
	}
	return nil, fmt.Errorf("outcome set %d not found in %s: %w", index, s.dir, os.ErrNotExist)
}

// ListOutcomeSets returns the indices of every scenario file, ascending
func (s *FileStore) ListOutcomeSets(ctx context.Context) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	seen := make(map[int]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !isOutcomeExt(ext) || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ext))
		if err != nil || index < 0 {
			continue
		}
		seen[index] = true
	}

	indices := make([]int, 0, len(seen))
	for index := range seen {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices, nil
}

// SaveOutcomeSet writes a set in the store's format
func (s *FileStore) SaveOutcomeSet(ctx context.Context, set *entities.OutcomeSet) error {
	if set.Index < 0 {
		return fmt.Errorf("outcome set index cannot be negative, got %d", set.Index)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	file := outcomeFile{Results: set.Outcomes}
	var data []byte
	var err error
	if s.format == YAML {
		data, err = yaml.Marshal(file)
	} else {
		data, err = json.MarshalIndent(file, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode outcome set %d: %w", set.Index, err)
	}

	path := s.Path(set.Index)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func isOutcomeExt(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
