package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdelehaye/cvchat/pkg/types"
)

// supportedExtensions lists file types the loader can read.
var supportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// LoadPath reads CV content from a file or directory into documents,
// one document per file. The title is taken from the first markdown
// heading, falling back to the file name.
func LoadPath(path string) ([]*types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if !info.IsDir() {
		doc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []*types.Document{doc}, nil
	}

	var docs []*types.Document
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}

		doc, err := loadFile(p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// loadFile reads a single file into a document.
func loadFile(path string) (*types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(content)
	title := headingTitle(text)
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	doc := &types.Document{
		Title:   title,
		Content: text,
		Source:  path,
	}
	doc.ID = doc.GenerateID()
	return doc, nil
}

// headingTitle returns the first markdown heading in the text, if any.
func headingTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	return ""
}
