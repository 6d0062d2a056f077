// Package storage implements the serialization layer (spec §4.7): all
// on-disk forms are YAML, written and read through a billy.Filesystem so
// callers can swap osfs for memfs in tests. Every on-disk states file is
// a map of item id to a tagged value singleton map (`{tag: value}`);
// missing files yield an empty map rather than an error, and malformed
// files fail with peaceerrors.StatesDeserialize carrying a line/column
// span for diagnostics.
//
// Grounded on jmgilman-sow/libs/project/state/backend_yaml.go's
// Load/Save pair (yaml.Unmarshal/Marshal, fs.ErrNotExist handling,
// temp-file-then-rename atomic writes), adapted from its
// jmgilman/go/fs/core wrapper (an unpublishable local-replace module, see
// DESIGN.md) onto the public github.com/go-git/go-billy/v5 filesystem
// abstraction the teacher also depends on (via libs/git).
package storage

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/peaceerrors"
	"github.com/peaceflow/peace/internal/states"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// ReadStates loads a states file at path, resolving each entry's tag via
// registry. A missing file returns an empty, valid map and a nil error
// (spec §4.7 "Missing files yield None, not an error").
func ReadStates(fs billy.Filesystem, path string, flowID itemspec.FlowID, registry *typeregistry.Registry) (states.Map[states.Saved], error) {
	if registry == nil {
		registry = typeregistry.New()
	}
	data, err := util.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return states.Freeze(states.NewBuilder()), nil
		}
		return states.Map[states.Saved]{}, &peaceerrors.StorageIO{Path: path, Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return states.Map[states.Saved]{}, &peaceerrors.StatesDeserialize{
			FlowID: string(flowID), Line: 0, Column: 0, Message: err.Error(),
		}
	}
	if len(doc.Content) == 0 {
		return states.Freeze(states.NewBuilder()), nil
	}

	root := doc.Content[0]
	if root.Kind == 0 {
		return states.Freeze(states.NewBuilder()), nil
	}
	if root.Kind != yaml.MappingNode {
		return states.Map[states.Saved]{}, &peaceerrors.StatesDeserialize{
			FlowID: string(flowID), Line: root.Line, Column: root.Column,
			Message: "states file must be a mapping of item id to tagged state",
		}
	}

	b := states.NewBuilder()
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		id, err := itemspec.NewID(keyNode.Value)
		if err != nil {
			return states.Map[states.Saved]{}, &peaceerrors.StatesDeserialize{
				FlowID: string(flowID), Line: keyNode.Line, Column: keyNode.Column,
				Message: err.Error(),
			}
		}

		tag, inner, err := singletonTag(valNode)
		if err != nil {
			return states.Map[states.Saved]{}, &peaceerrors.StatesDeserialize{
				FlowID: string(flowID), Line: valNode.Line, Column: valNode.Column,
				Message: err.Error(),
			}
		}

		value, err := registry.Deserialize(tag, inner)
		if err != nil {
			return states.Map[states.Saved]{}, &peaceerrors.StatesDeserialize{
				FlowID: string(flowID), Line: inner.Line, Column: inner.Column,
				Message: err.Error(),
			}
		}

		b.Insert(id, tag, value)
	}

	return states.Freeze(b), nil
}

// singletonTag unpacks a `{tag: value}` mapping node into its tag and
// inner value node (spec §6 "Tagged value encoding: a singleton YAML map
// {tag: value}").
func singletonTag(node *yaml.Node) (string, *yaml.Node, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return "", nil, fmt.Errorf("expected singleton tagged map {tag: value}, got %v", node.Tag)
	}
	return node.Content[0].Value, node.Content[1], nil
}

// WriteStates writes m to path atomically: marshal to a temp file, then
// rename over the target (spec §4.7 write path).
func WriteStates[P states.Phase](fs billy.Filesystem, path string, m states.Map[P]) error {
	var node yaml.Node
	node.Kind = yaml.MappingNode
	node.Tag = "!!map"

	for _, e := range m.Entries() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: string(e.ID)}
		var valNode yaml.Node
		if err := valNode.Encode(e.Value); err != nil {
			return fmt.Errorf("encode state for item %q: %w", e.ID, err)
		}
		tagged := &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: e.Tag},
				&valNode,
			},
		}
		node.Content = append(node.Content, keyNode, tagged)
	}

	data, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("marshal states: %w", err)
	}

	return writeAtomic(fs, path, data)
}

func writeAtomic(fs billy.Filesystem, path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := util.WriteFile(fs, tmpPath, data, 0o644); err != nil {
		return &peaceerrors.StorageIO{Path: tmpPath, Err: err}
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return &peaceerrors.StorageIO{Path: path, Err: err}
	}
	return nil
}
