package config

import (
	"errors"
	"fmt"
	"os"

	"dario.cat/mergo"
)

const (
	sourceEnv   = "env"
	sourceFlags = "flags"
	sourceJSON  = "json"
)

// layer is one configuration source. Later layers override earlier ones
// field by field; zero values never override.
type layer struct {
	source string
	cfg    *StructuredConfig
}

type configBuilder struct {
	layers []layer
	args   []string
	err    error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		layers: make([]layer, 0, 3),
		args:   os.Args[1:],
	}
}

// add records a parsed source, or its error tagged with the source name so
// a bad value can be traced back to where it came from.
func (b *configBuilder) add(source string, cfg *StructuredConfig, err error) *configBuilder {
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("%s: %w", source, err))
		return b
	}
	b.layers = append(b.layers, layer{source: source, cfg: cfg})
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	cfg := &StructuredConfig{}
	return b.add(sourceEnv, cfg, parseEnv(cfg))
}

func (b *configBuilder) withFlags() *configBuilder {
	cfg, err := ParseFlags(b.args)
	return b.add(sourceFlags, cfg, err)
}

// withJSON loads the file named by the most recent layer that sets
// JSONFilePath. Without one it is a no-op.
func (b *configBuilder) withJSON() *configBuilder {
	path := b.jsonPath()
	if path == "" {
		return b
	}
	cfg, err := parseJSON(path)
	return b.add(sourceJSON+" "+path, cfg, err)
}

func (b *configBuilder) jsonPath() string {
	for i := len(b.layers) - 1; i >= 0; i-- {
		if p := b.layers[i].cfg.JSONFilePath; p != "" {
			return p
		}
	}
	return ""
}

func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("build config: %w", b.err)
	}

	merged := new(StructuredConfig)
	for _, l := range b.layers {
		if err := mergo.Merge(merged, l.cfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s config: %w", l.source, err)
		}
	}
	merged.Sync.Collections = normalizeCollections(merged.Sync.Collections)

	return merged, merged.validate()
}
