package storage

import (
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/peaceflow/peace/internal/peaceerrors"
	"github.com/peaceflow/peace/internal/typeregistry"
)

// Params is an ordered string-key to tagged-value map, matching spec
// §3's WorkspaceParams/ProfileParams/FlowParams registries (spec §6
// "map of user key -> tagged value"). Keys are user-chosen enum members
// serialized as their string representation.
type Params struct {
	keys   []string
	tags   map[string]string
	values map[string]typeregistry.Boxed
}

// NewParams returns an empty Params map.
func NewParams() *Params {
	return &Params{tags: make(map[string]string), values: make(map[string]typeregistry.Boxed)}
}

// Set inserts or overwrites key's tagged value.
func (p *Params) Set(key, tag string, value typeregistry.Boxed) {
	if _, exists := p.tags[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.tags[key] = tag
	p.values[key] = value
}

// Get returns key's boxed value and whether it was present.
func (p *Params) Get(key string) (typeregistry.Boxed, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Tag returns key's registry tag and whether it was present.
func (p *Params) Tag(key string) (string, bool) {
	t, ok := p.tags[key]
	return t, ok
}

// Keys returns every key in insertion order.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// ReadParams loads a params file at path, resolving each entry's tag via
// registry. A missing file returns an empty Params and a nil error.
func ReadParams(fs billy.Filesystem, path string, registry *typeregistry.Registry) (*Params, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewParams(), nil
		}
		return nil, &peaceerrors.StorageIO{Path: path, Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &peaceerrors.Configuration{Reason: "malformed params file " + path + ": " + err.Error()}
	}
	if len(doc.Content) == 0 {
		return NewParams(), nil
	}
	root := doc.Content[0]
	if root.Kind == 0 {
		return NewParams(), nil
	}

	p := NewParams()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		tag, inner, err := singletonTag(root.Content[i+1])
		if err != nil {
			return nil, &peaceerrors.Configuration{Reason: "params entry " + key + ": " + err.Error()}
		}
		value, err := registry.Deserialize(tag, inner)
		if err != nil {
			return nil, &peaceerrors.Configuration{Reason: "params entry " + key + ": " + err.Error()}
		}
		p.Set(key, tag, value)
	}
	return p, nil
}

// WriteParams writes p to path atomically, sorting keys for deterministic
// output (unlike item-id-keyed states, params keys have no declared
// display order).
func WriteParams(fs billy.Filesystem, path string, p *Params) error {
	keys := p.Keys()
	sort.Strings(keys)

	var node yaml.Node
	node.Kind = yaml.MappingNode
	node.Tag = "!!map"

	for _, k := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: k}
		var valNode yaml.Node
		if err := valNode.Encode(p.values[k]); err != nil {
			return err
		}
		tagged := &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: p.tags[k]},
				&valNode,
			},
		}
		node.Content = append(node.Content, keyNode, tagged)
	}

	data, err := yaml.Marshal(&node)
	if err != nil {
		return err
	}
	return writeAtomic(fs, path, data)
}
