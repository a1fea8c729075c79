package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrwogu/promptscript/internal/ctxlog"
	"github.com/mrwogu/promptscript/internal/document"
	"github.com/mrwogu/promptscript/internal/parser"
)

// Extension is the file extension of PromptScript documents.
const Extension = ".prs"

// Local loads documents from files under a root directory. Identifiers
// are paths relative to the root; the .prs extension may be omitted.
type Local struct {
	root string
}

// NewLocal creates a local source rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

func (l *Local) Load(ctx context.Context, identifier, constraint string) (*document.Document, error) {
	if constraint != "" {
		return nil, &NotFoundError{
			Identifier: identifier,
			Constraint: constraint,
			Err:        fmt.Errorf("local documents do not take version constraints"),
		}
	}

	path := identifier
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.root, path)
	}
	if filepath.Ext(path) == "" {
		path += Extension
	}
	path = filepath.Clean(path)

	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Identifier: identifier, Err: err}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	ctxlog.FromContext(ctx).Debug("Loaded local document.", "identifier", identifier, "path", path)
	return parser.Parse(identifier, path, src)
}

// FindDocuments recursively lists all .prs files under root, for
// directory compile targets and tooling.
func FindDocuments(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(d.Name()) == Extension {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
