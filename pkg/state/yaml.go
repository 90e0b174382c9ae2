package state

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/staterouter/pkg/params"
)

type yamlDocument struct {
	States []yamlState `yaml:"states"`
}

type yamlState struct {
	Name   string                  `yaml:"name"`
	Parent string                  `yaml:"parent,omitempty"`
	Params map[string]params.Param `yaml:"params,omitempty"`
	Data   map[string]any          `yaml:"data,omitempty"`
}

// LoadYAML registers the states declared in src and returns them in document
// order. Only declarative fields are supported; hooks and resolvers must be
// attached in code by re-registering the state.
//
//	states:
//	  - name: contacts
//	    params:
//	      page: {value: 1}
//	  - name: contact
//	    parent: contacts
//	    params:
//	      id: {}
func LoadYAML(reg *Registry, src io.Reader) ([]*State, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	out := make([]*State, 0, len(doc.States))
	for i, ys := range doc.States {
		def := Definition{Params: ys.Params, Data: ys.Data}
		if ys.Parent != "" {
			def.Parent = Name(ys.Parent)
		}
		s, err := reg.Register(ys.Name, def)
		if err != nil {
			return out, errors.Join(ErrLoadFailed, fmt.Errorf("state #%d: %w", i, err))
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadYAMLFile is LoadYAML reading from the file at path.
func LoadYAMLFile(reg *Registry, path string) ([]*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	defer f.Close()
	return LoadYAML(reg, f)
}
