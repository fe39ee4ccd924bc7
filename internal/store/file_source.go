package store

import (
	"context"
	"fmt"
	"os"

	"github.com/JonMunkholm/refcheck/internal/core"
	"gopkg.in/yaml.v3"
)

// FileSource loads record collections from a YAML or JSON dataset file.
//
// A dataset maps kind keys to record lists:
//
//	books:
//	  - id: book_0
//	    name: Tome
//	    deleted: true
//	activators:
//	  - id: lever_01
//	    model: lever.nif
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path on every Load.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and decodes the dataset file.
func (s *FileSource) Load(ctx context.Context) (*core.Collections, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeDataset(data)
}

// DecodeDataset decodes a dataset document. Sections may use the kind key
// ("books") or type name ("Book"). Collections come back in registry order
// regardless of section order, so step numbering is stable.
func DecodeDataset(data []byte) (*core.Collections, error) {
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDatasetParse, err)
	}

	byKind := make(map[core.Kind]*yaml.Node, len(sections))
	for key, node := range sections {
		kind, err := core.ParseKind(key)
		if err != nil {
			return nil, err
		}
		if _, dup := byKind[kind]; dup {
			return nil, fmt.Errorf("%w: %s appears twice", core.ErrDatasetParse, kind.Key())
		}
		n := node
		byKind[kind] = &n
	}

	records := core.NewCollections()
	for _, def := range core.All() {
		node, ok := byKind[def.Kind]
		if !ok {
			continue
		}
		if def.Decode == nil {
			return nil, fmt.Errorf("%w: %s cannot be read from files", core.ErrDatasetParse, def.Kind.Key())
		}

		c, err := def.Decode(node.Decode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Kind.Key(), err)
		}
		if err := records.Add(def.Kind, c); err != nil {
			return nil, err
		}
		delete(byKind, def.Kind)
	}

	for kind := range byKind {
		return nil, fmt.Errorf("%w: %s is not registered", core.ErrUnknownKind, kind.Key())
	}

	return records, nil
}
