// Package publish exports threads as Markdown files.
package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"replytree/internal/store"
)

type WriteOptions struct {
	IncludeHidden bool
	Overwrite     bool
}

type WriteResult struct {
	Written []string `json:"written" yaml:"written"`
}

// ThreadMarkdown loads threadID from st and renders it.
func ThreadMarkdown(ctx context.Context, st *store.Store, threadID string, opt RenderOptions) (string, error) {
	if st == nil {
		return "", errors.New("missing store")
	}
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return "", errors.New("missing threadID")
	}
	th, err := st.GetThread(ctx, threadID)
	if err != nil {
		return "", err
	}
	entries, err := st.ListEntries(ctx, th.ID)
	if err != nil {
		return "", err
	}
	return RenderThreadMarkdown(th, entries, opt), nil
}

// WriteThread writes <toDir>/threads/<thread-id>.md.
func WriteThread(ctx context.Context, st *store.Store, threadID, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := ThreadMarkdown(ctx, st, threadID, RenderOptions{IncludeHidden: opt.IncludeHidden})
	if err != nil {
		return WriteResult{}, err
	}
	outDir := filepath.Join(toDir, "threads")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, strings.TrimSpace(threadID)+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
