package eventfile

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/supercycler/internal/logic"
)

// scalar keeps the literal text of a YAML scalar, so that hours like 08 and
// states like ON are never coerced into numbers or booleans.
type scalar string

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar value", n.Line)
	}
	*s = scalar(n.Value)
	return nil
}

type yamlEvent struct {
	Date        scalar `yaml:"date"`
	Hour        scalar `yaml:"hour"`
	State       scalar `yaml:"state"`
	Photoperiod scalar `yaml:"photoperiod,omitempty"`
	Mode        scalar `yaml:"mode,omitempty"`
	Alert       scalar `yaml:"alert,omitempty"`
}

type yamlFile struct {
	Events []yamlEvent `yaml:"events"`
}

func readYAML(r io.Reader) ([]logic.Record, error) {
	var f yamlFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	records := make([]logic.Record, 0, len(f.Events))
	for _, e := range f.Events {
		records = append(records, logic.Record{
			Date:        string(e.Date),
			Hour:        string(e.Hour),
			State:       string(e.State),
			Photoperiod: string(e.Photoperiod),
			Mode:        string(e.Mode),
			Alert:       string(e.Alert),
		})
	}
	return records, nil
}

func writeYAML(w io.Writer, records []logic.Record) error {
	f := yamlFile{Events: make([]yamlEvent, 0, len(records))}
	for _, r := range records {
		f.Events = append(f.Events, yamlEvent{
			Date:        scalar(r.Date),
			Hour:        scalar(r.Hour),
			State:       scalar(r.State),
			Photoperiod: scalar(r.Photoperiod),
			Mode:        scalar(r.Mode),
			Alert:       scalar(r.Alert),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
