// Package parse extracts class declarations from source files using tree-sitter.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/theorbtwo/podherit/internal/lang"
	"github.com/theorbtwo/podherit/internal/model"
)

// File parses a source file and returns its leading documentation block and
// every class it declares, in declaration order. The parser must be created
// for the given language. filePath is used only for FileDecls.Path and
// should be the scan-root-relative path.
func File(l *lang.Language, parser *sitter.Parser, source []byte, filePath string) (*model.FileDecls, error) {
	fd := &model.FileDecls{
		Path:     filePath,
		Language: l.Name,
	}
	if len(source) == 0 {
		return fd, nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	fd.Doc, fd.Classes = l.ExtractFile(tree.RootNode(), source)
	return fd, nil
}
