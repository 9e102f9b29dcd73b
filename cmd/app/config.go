package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsonparser "github.com/knadh/koanf/parsers/json"
	yamlparser "github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/arenvio/heatshell/internal/audit"
	"github.com/arenvio/heatshell/internal/envelope"
)

const envPrefix = "HEATSHELL_"

type Config struct {
	SiteID        string `koanf:"site_id"`
	MaterialsFile string `koanf:"materials_file"`

	Controllers struct {
		HTTP   HTTPConfig   `koanf:"http"`
		MQTT   MQTTConfig   `koanf:"mqtt"`
		MODBUS ModbusConfig `koanf:"modbus"`
	} `koanf:"controllers"`

	Temperatures TemperaturesConfig `koanf:"temperatures"`
	Building     BuildingConfig     `koanf:"building"`
}

// TemperaturesConfig holds the initial temperatures. Pointers distinguish
// "not set" from an explicit zero.
type TemperaturesConfig struct {
	Inside      *float64 `koanf:"inside"`
	Outside     *float64 `koanf:"outside"`
	Underground *float64 `koanf:"underground"`
}

type BuildingConfig struct {
	Width  float64       `koanf:"width"`
	Length float64       `koanf:"length"`
	Roof   []LayerConfig `koanf:"roof"`
	Side   SideConfig    `koanf:"side"`
	Floor  []LayerConfig `koanf:"floor"`
}

type SideConfig struct {
	Height   float64         `koanf:"height"`
	Wall     []LayerConfig   `koanf:"wall"`
	Openings []OpeningConfig `koanf:"openings"`
}

type OpeningConfig struct {
	Surface float64       `koanf:"surface"` // m²
	Layers  []LayerConfig `koanf:"layers"`
}

// LayerConfig is one material layer. Either name a material from the library
// or give a conductivity inline; a named material wins.
type LayerConfig struct {
	Material     string  `koanf:"material"`
	Conductivity float64 `koanf:"conductivity"` // W/(m·K)
	Thickness    float64 `koanf:"thickness"`    // m
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

// defaultConfig is the baseline every other layer merges over: a 5x4x3 m
// cabin with an insulated roof, one glazed opening and a concrete slab.
func defaultConfig() Config {
	var cfg Config
	cfg.SiteID = "default"
	cfg.Controllers.HTTP.Addr = ":8080"
	cfg.Controllers.MQTT.PublishInterval = 1 * time.Second
	cfg.Controllers.MODBUS.UnitID = 1

	cfg.Building = BuildingConfig{
		Width:  5,
		Length: 4,
		Roof: []LayerConfig{
			{Conductivity: 0.04, Thickness: 0.2},
		},
		Side: SideConfig{
			Height: 3,
			Wall: []LayerConfig{
				{Conductivity: 0.84, Thickness: 0.2},
			},
			Openings: []OpeningConfig{
				{Surface: 2, Layers: []LayerConfig{
					{Conductivity: 1.0, Thickness: 0.004},
				}},
			},
		},
		Floor: []LayerConfig{
			{Conductivity: 1.75, Thickness: 0.25},
		},
	}
	return cfg
}

// LoadConfig merges, in order: built-in defaults, the config file (YAML or
// JSON by extension; a missing file is not an error), then HEATSHELL_*
// environment variables.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return cfg, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("load config %s: %w", path, err)
			}
			// Config file missing → defaults + env only.
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yamlparser.Parser(), nil
	case ".json":
		return jsonparser.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}

// envKeyTransform maps HEATSHELL_CONTROLLERS_HTTP_ADDR (prefix already
// stripped) to controllers.http.addr. Underscores inside leaf keys survive:
// CONTROLLERS_MQTT_PUBLISH_INTERVAL → controllers.mqtt.publish_interval.
// An empty result drops the variable.
func envKeyTransform(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "_")
	switch parts[0] {
	case "controllers":
		if len(parts) >= 3 {
			return "controllers." + parts[1] + "." + strings.Join(parts[2:], "_")
		}
	case "temperatures":
		if len(parts) >= 2 {
			return "temperatures." + strings.Join(parts[1:], "_")
		}
	case "building":
		if len(parts) >= 3 && parts[1] == "side" {
			return "building.side." + strings.Join(parts[2:], "_")
		}
		if len(parts) >= 2 {
			return "building." + strings.Join(parts[1:], "_")
		}
	}
	return key
}

func applyDefaults(cfg *Config) {
	if cfg.SiteID == "" {
		cfg.SiteID = "default"
	}
	if cfg.Controllers.HTTP.Addr == "" {
		cfg.Controllers.HTTP.Addr = ":8080"
	}
	if !cfg.Controllers.HTTP.Enabled && !cfg.Controllers.MQTT.Enabled && !cfg.Controllers.MODBUS.Enabled {
		cfg.Controllers.HTTP.Enabled = true
	}
	if cfg.Controllers.MQTT.PublishInterval == 0 {
		cfg.Controllers.MQTT.PublishInterval = 1 * time.Second
	}
	if cfg.Controllers.MODBUS.UnitID == 0 {
		cfg.Controllers.MODBUS.UnitID = 1
	}
	if cfg.Controllers.MODBUS.Addr == "" {
		cfg.Controllers.MODBUS.Addr = "127.0.0.1:1502"
	}
}

// InitialTemperatures returns the configured temperatures, falling back to
// the model defaults for any that are unset.
func (c Config) InitialTemperatures() audit.Temperatures {
	t := audit.DefaultTemperatures()
	if c.Temperatures.Inside != nil {
		t.Inside = *c.Temperatures.Inside
	}
	if c.Temperatures.Outside != nil {
		t.Outside = *c.Temperatures.Outside
	}
	if c.Temperatures.Underground != nil {
		t.Underground = *c.Temperatures.Underground
	}
	return t
}

// Envelope builds the building tree from the config, resolving named
// materials through lib.
func (c Config) Envelope(lib MaterialLibrary) (*envelope.Building, error) {
	bc := c.Building

	b, err := envelope.NewBuilding(bc.Width, bc.Length)
	if err != nil {
		return nil, fmt.Errorf("building: %w", err)
	}

	roof := envelope.NewRoof()
	if err := addLayers(&roof.Stack, bc.Roof, lib); err != nil {
		return nil, fmt.Errorf("roof: %w", err)
	}
	if err := b.SetRoof(roof); err != nil {
		return nil, fmt.Errorf("roof: %w", err)
	}

	side, err := envelope.NewSide(bc.Side.Height)
	if err != nil {
		return nil, fmt.Errorf("side: %w", err)
	}
	wall := envelope.NewWall()
	if err := addLayers(&wall.Stack, bc.Side.Wall, lib); err != nil {
		return nil, fmt.Errorf("wall: %w", err)
	}
	if err := side.SetWall(wall); err != nil {
		return nil, fmt.Errorf("wall: %w", err)
	}
	for i, oc := range bc.Side.Openings {
		o, err := envelope.NewOpening(oc.Surface)
		if err != nil {
			return nil, fmt.Errorf("opening %d: %w", i, err)
		}
		if err := addLayers(&o.Stack, oc.Layers, lib); err != nil {
			return nil, fmt.Errorf("opening %d: %w", i, err)
		}
		if err := side.AddOpening(o); err != nil {
			return nil, fmt.Errorf("opening %d: %w", i, err)
		}
	}
	if err := b.SetSide(side); err != nil {
		return nil, fmt.Errorf("side: %w", err)
	}

	floor := envelope.NewFloor()
	if err := addLayers(&floor.Stack, bc.Floor, lib); err != nil {
		return nil, fmt.Errorf("floor: %w", err)
	}
	if err := b.SetFloor(floor); err != nil {
		return nil, fmt.Errorf("floor: %w", err)
	}

	return b, nil
}

func addLayers(st *envelope.Stack, layers []LayerConfig, lib MaterialLibrary) error {
	for i, l := range layers {
		conductivity := l.Conductivity
		if l.Material != "" {
			spec, ok := lib[l.Material]
			if !ok {
				return fmt.Errorf("layer %d: unknown material %q", i, l.Material)
			}
			conductivity = spec.Conductivity
		}
		m, err := envelope.NewMaterial(conductivity, l.Thickness)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if err := st.Add(m); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// ApplyEnvOverrides handles the variables koanf does not: PORT is common in
// container platforms and means "HTTP on all interfaces on that port".
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Controllers.HTTP.Addr = ":" + v
	}
}
