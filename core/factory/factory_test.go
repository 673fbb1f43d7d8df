package factory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string `json:"name"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*widget]()
	err := reg.Register("widget", func(conf map[string]any) (*widget, error) {
		var w widget
		if err := Decode(conf, &w); err != nil {
			return nil, err
		}
		return &w, nil
	})
	require.NoError(t, err)

	w, err := reg.Create(ModuleConfig{Type: "widget", Conf: map[string]any{"name": "a"}})
	require.NoError(t, err)
	require.Equal(t, "a", w.Name)
}

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry[*widget]()
	_, err := reg.Create(ModuleConfig{Type: "missing"})
	require.Error(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry[*widget]()
	f := func(map[string]any) (*widget, error) { return &widget{}, nil }
	require.NoError(t, reg.Register("widget", f))
	require.Error(t, reg.Register("widget", f))
}

func TestRegisterNil(t *testing.T) {
	reg := NewRegistry[*widget]()
	require.Error(t, reg.Register("widget", nil))
}
