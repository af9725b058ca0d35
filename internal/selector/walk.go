package selector

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var errLimitReached = stderrors.New("candidate limit reached")

// IgnoreMatcher matches paths against ignore globs. A pattern matches when
// it matches either the entry's basename or its slash-separated path
// relative to the walk root.
type IgnoreMatcher struct {
	patterns []glob.Glob
}

// NewIgnoreMatcher compiles patterns. "*" does not cross "/".
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	im := &IgnoreMatcher{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern '%s': %w", pattern, err)
		}
		im.patterns = append(im.patterns, g)
	}
	return im, nil
}

// Match reports whether rel (relative to the walk root) is ignored.
func (im *IgnoreMatcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	for _, g := range im.patterns {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}

// WalkOptions bound a candidate walk.
type WalkOptions struct {
	Ignore   []string
	MaxDepth int // 0 means unlimited
	Limit    int // 0 means unlimited
}

// Candidates lists regular files under root as paths relative to root, in
// lexical walk order. Ignored directories are not descended into and
// unreadable directories are skipped. The walk stops once Limit files
// have been collected.
func Candidates(ctx context.Context, root string, opts WalkOptions) ([]string, error) {
	matcher, err := NewIgnoreMatcher(opts.Ignore)
	if err != nil {
		return nil, err
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return err
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if matcher.Match(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		depth := strings.Count(filepath.ToSlash(rel), "/") + 1
		if d.IsDir() {
			if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		out = append(out, rel)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !stderrors.Is(err, errLimitReached) {
		return nil, err
	}
	return out, nil
}
