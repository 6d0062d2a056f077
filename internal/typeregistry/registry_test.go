package typeregistry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/peaceflow/peace/internal/typeregistry"
)

type markerState struct {
	Path string `yaml:"path"`
}

func TestRegisterAndDeserialize(t *testing.T) {
	r := typeregistry.New()
	typeregistry.RegisterValue[markerState](r, "marker")

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("path: /tmp/foo\n"), &node))
	// yaml.Unmarshal into a Node produces a document node; drill to content.
	doc := node.Content[0]

	boxed, err := r.Deserialize("marker", doc)
	require.NoError(t, err)
	assert.Equal(t, markerState{Path: "/tmp/foo"}, boxed)
}

func TestDeserializeUnknownTag(t *testing.T) {
	r := typeregistry.New()
	_, err := r.Deserialize("nope", &yaml.Node{})
	assert.Error(t, err)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := typeregistry.New()
	typeregistry.RegisterValue[markerState](r, "marker")
	assert.Panics(t, func() {
		typeregistry.RegisterValue[markerState](r, "marker")
	})
}

func TestTagsSorted(t *testing.T) {
	r := typeregistry.New()
	typeregistry.RegisterValue[markerState](r, "zzz")
	typeregistry.RegisterValue[markerState](r, "aaa")

	assert.Equal(t, []string{"aaa", "zzz"}, r.Tags())
}

func TestHas(t *testing.T) {
	r := typeregistry.New()
	assert.False(t, r.Has("marker"))
	typeregistry.RegisterValue[markerState](r, "marker")
	assert.True(t, r.Has("marker"))
}
