// Package config handles tool configuration loading and management.
package config

import (
	"github.com/skelmesh/actorx/pkg/mesh"
	"github.com/skelmesh/actorx/pkg/retarget"
)

// Config holds all conversion settings.
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Anim    AnimConfig    `yaml:"anim"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig holds mesh assembly settings.
type MeshConfig struct {
	VertexColors  bool   `yaml:"vertex_colors"`
	ColorSpace    string `yaml:"color_space"` // srgb or linear
	ExtraUVs      bool   `yaml:"extra_uvs"`
	VertexNormals bool   `yaml:"vertex_normals"`
}

// AnimConfig holds animation conversion settings.
type AnimConfig struct {
	CleanKeys  bool    `yaml:"clean_keys"`
	KeyEpsilon float64 `yaml:"key_epsilon"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			VertexColors:  true,
			ColorSpace:    string(mesh.ColorSpaceSRGB),
			ExtraUVs:      true,
			VertexNormals: true,
		},
		Anim: AnimConfig{
			CleanKeys:  true,
			KeyEpsilon: retarget.DefaultEpsilon,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// MeshOptions converts the mesh section into assembler options.
func (c *Config) MeshOptions() mesh.Options {
	return mesh.Options{
		VertexColors:  c.Mesh.VertexColors,
		ColorSpace:    mesh.ColorSpace(c.Mesh.ColorSpace),
		ExtraUVs:      c.Mesh.ExtraUVs,
		VertexNormals: c.Mesh.VertexNormals,
	}
}

// AnimOptions converts the anim section into retarget options.
func (c *Config) AnimOptions() retarget.Options {
	return retarget.Options{
		CleanKeys: c.Anim.CleanKeys,
		Epsilon:   c.Anim.KeyEpsilon,
	}
}
