/*
Package scanner discovers Gamry exports in a directory.

Discovery is flat: only the immediate entries of the root are considered, so
an output directory created inside the root is never picked up again. A file
qualifies when it is a regular file (symlinks are followed) whose name contains
"DTA" and matches none of the ignore patterns.

Basic usage:

	s := scanner.NewScanner(scanner.Config{}, afero.NewOsFs(), log)
	result, err := s.Scan(ctx, "/path/to/exports", []string{"*_old*"})
*/
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sonemaro/dtaprep/pkg/dta"
	"github.com/sonemaro/dtaprep/pkg/logger"
	"github.com/spf13/afero"
)

// Scanner defines the interface for input discovery
type Scanner interface {
	// Scan lists the Gamry exports directly inside root
	Scan(ctx context.Context, root string, ignorePatterns []string) (Result, error)

	// Matches reports whether a bare file name would be picked up
	Matches(name string, ignorePatterns []string) bool
}

type scanner struct {
	config Config
	fs     afero.Fs
	log    logger.Logger
}

// NewScanner creates a scanner reading from fs
func NewScanner(config Config, fs afero.Fs, log logger.Logger) Scanner {
	if config.Match == "" {
		config.Match = DefaultMatch
	}

	return &scanner{
		config: config,
		fs:     fs,
		log:    log,
	}
}

// ValidatePatterns checks every ignore pattern parses as a glob
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := filepath.Match(normalizePattern(p), "probe"); err != nil {
			return &PatternError{Pattern: p, Err: err}
		}
	}
	return nil
}

// Scan performs the discovery
func (s *scanner) Scan(ctx context.Context, root string, ignorePatterns []string) (Result, error) {
	result := Result{
		Root:   root,
		Errors: make(map[string]error),
		Stats: ScanStats{
			StartTime: time.Now(),
		},
	}

	if err := ValidatePatterns(ignorePatterns); err != nil {
		return result, err
	}

	s.log.WithFields(logger.Fields{
		"path":     root,
		"match":    s.config.Match,
		"patterns": ignorePatterns,
	}).Info("Starting directory search")

	info, err := s.fs.Stat(root)
	if err != nil {
		return result, &PathError{Op: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return result, &PathError{Op: "scan", Path: root, Err: ErrNotDirectory}
	}

	entries, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return result, &PathError{Op: "readdir", Path: root, Err: err}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Stats.Entries++
		name := entry.Name()
		path := filepath.Join(root, name)

		if !strings.Contains(name, s.config.Match) {
			result.Stats.Skipped++
			s.log.WithFields(logger.Fields{"path": path}).Trace("Name does not match")
			continue
		}

		// ReadDir may report symlinks unresolved; Stat follows them.
		info := entry
		if entry.Mode()&os.ModeSymlink != 0 {
			info, err = s.fs.Stat(path)
			if err != nil {
				s.log.WithFields(logger.Fields{
					"path":  path,
					"error": err,
				}).Warn("Cannot resolve symlink")
				result.Errors[path] = &PathError{Op: "stat", Path: path, Err: err}
				result.Stats.Skipped++
				continue
			}
		}

		if !info.Mode().IsRegular() {
			result.Stats.Skipped++
			s.log.WithFields(logger.Fields{"path": path}).Debug("Skipping non-regular entry")
			continue
		}

		if s.shouldIgnore(name, ignorePatterns) {
			result.Stats.Ignored++
			continue
		}

		result.Files = append(result.Files, File{
			Name:    name,
			Path:    path,
			Size:    info.Size(),
			Kind:    dta.DetectKind(name),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Name < result.Files[j].Name
	})

	result.Stats.Found = len(result.Files)
	result.Stats.EndTime = time.Now()
	result.Stats.Duration = result.Stats.EndTime.Sub(result.Stats.StartTime)

	s.log.WithFields(logger.Fields{
		"found":    result.Stats.Found,
		"ignored":  result.Stats.Ignored,
		"skipped":  result.Stats.Skipped,
		"duration": result.Stats.Duration,
	}).Info("Directory search completed")

	return result, nil
}

// Matches applies the name and ignore rules without touching the filesystem
func (s *scanner) Matches(name string, ignorePatterns []string) bool {
	return strings.Contains(name, s.config.Match) && !s.shouldIgnore(name, ignorePatterns)
}

// shouldIgnore matches a base name against the ignore patterns. Directory
// parts in a pattern are meaningless for a flat listing and are dropped.
func (s *scanner) shouldIgnore(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(normalizePattern(pattern), name); matched {
			s.log.WithFields(logger.Fields{
				"pattern": pattern,
				"name":    name,
			}).Debug("File ignored")
			return true
		}
	}
	return false
}

func normalizePattern(pattern string) string {
	pattern = filepath.ToSlash(pattern)
	pattern = strings.TrimPrefix(pattern, "**/")
	if i := strings.LastIndex(pattern, "/"); i >= 0 {
		pattern = pattern[i+1:]
	}
	return pattern
}
