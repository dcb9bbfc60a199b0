package jinjac

import (
	"os"
	"sort"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// Config is the optional on-disk configuration for cmd/jinjac, loaded from
// a `jinjac.yml` in the working directory. Every field has a usable zero
// value, so a missing file is not an error.
type Config struct {
	// LogLevel is passed to SetLogLevel, e.g. "DEBUG", "WARNING".
	LogLevel string `yaml:"log_level"`

	// SourceName overrides the source/logging name, which is otherwise the
	// input file's path or "<stdin>".
	SourceName string `yaml:"source_name"`

	// Defines seeds the template's root context with static values, e.g. a
	// build number or site name, through the Transform built by
	// DefinesTransform.
	Defines map[string]string `yaml:"defines"`
}

// LoadConfig reads and parses a YAML config file at path. A missing file
// returns a zero Config and no error, since every field is optional.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Annotatef(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Annotatef(err, "parsing config %s", path)
	}
	return cfg, nil
}

// DefinesTransform builds a Transform that prepends one `Assign` per
// configured define to the template's root body, so every compiled
// template sees them as ordinary set variables. Keys are sorted for a
// deterministic lowering order.
func (c Config) DefinesTransform() Transform {
	return func(tmpl *Template) (*Template, error) {
		if len(c.Defines) == 0 {
			return tmpl, nil
		}
		names := make([]string, 0, len(c.Defines))
		for name := range c.Defines {
			names = append(names, name)
		}
		sort.Strings(names)

		zero := tmpl.Body.Span().Start
		prelude := make([]Placeable, 0, len(names))
		for _, name := range names {
			value := c.Defines[name]
			assign := &Assign{
				base:    base{Span{zero, zero}},
				Pattern: &Variable{base: base{Span{zero, zero}}, Name: name},
				Value:   &StringLit{base: base{Span{zero, zero}}, Value: value},
			}
			prelude = append(prelude, assign)
		}
		tmpl.Body.Body = append(prelude, tmpl.Body.Body...)
		return tmpl, nil
	}
}
