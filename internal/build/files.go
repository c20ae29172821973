package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"unicode/utf8"

	siteminerrors "github.com/conneroisu/sitemin/internal/errors"
	"github.com/conneroisu/sitemin/internal/pattern"
	"github.com/conneroisu/sitemin/internal/types"
)

// LoadFiles reads every regular file below root into a file record. Valid
// UTF-8 files get string content, everything else byte content. Paths are
// relative to root and slash-separated. Directories matched by ignore (tested
// with a trailing slash) are not descended into.
func LoadFiles(ctx context.Context, root string, ignore *pattern.Matcher) ([]*types.File, error) {
	var files []*types.File

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignore.Test(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignore.Test(rel) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return siteminerrors.NewIOError(siteminerrors.ErrCodeFileRead, "failed to read file", err).
				WithFile(rel)
		}

		if utf8.Valid(data) {
			files = append(files, types.NewTextFile(rel, string(data)))
		} else {
			files = append(files, types.NewBinaryFile(rel, data))
		}

		return nil
	})
	if err != nil {
		var siteminErr *siteminerrors.SiteminError
		if errors.As(err, &siteminErr) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, siteminerrors.NewIOError(siteminerrors.ErrCodeFileRead, "failed to walk input directory", err).
			WithFile(root)
	}

	return files, nil
}

// WriteFiles writes files below outDir, creating directories as needed.
// A record without content or with a path escaping outDir is an error.
func WriteFiles(ctx context.Context, outDir string, files []*types.File) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel := path.Clean(file.Path)
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return siteminerrors.NewContractError(siteminerrors.ErrCodeFileWrite, "output path escapes the output directory").
				WithFile(file.Path)
		}
		if file.Content == nil {
			return siteminerrors.NewContractError(siteminerrors.ErrCodeContentMissing, "file has no content to write").
				WithFile(file.Path)
		}

		target := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return siteminerrors.NewIOError(siteminerrors.ErrCodeFileWrite, "failed to create directory", err).
				WithFile(file.Path)
		}
		if err := os.WriteFile(target, file.Bytes(), 0o644); err != nil {
			return siteminerrors.NewIOError(siteminerrors.ErrCodeFileWrite, "failed to write file", err).
				WithFile(file.Path)
		}
	}

	return nil
}
