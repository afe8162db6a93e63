// Package config loads the YAML configuration and exposes it globally.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all demo configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Metaballs  MetaballsConfig  `yaml:"metaballs"`
	Palette    PaletteConfig    `yaml:"palette"`
	Noise      NoiseConfig      `yaml:"noise"`
	Shapes     ShapesConfig     `yaml:"shapes"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Filled after load, never read from the file
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window and pacing settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds world dimensions.
// World can be larger than the screen; the camera handles the viewport.
type WorldConfig struct {
	Width  int `yaml:"width"`  // world units, 0 = match the screen
	Height int `yaml:"height"` // world units, 0 = match the screen
}

// PhysicsConfig holds ball motion parameters.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt"`
	Gravity     float64 `yaml:"gravity"`     // Downward acceleration in world units/s^2
	Restitution float64 `yaml:"restitution"` // Velocity retained on wall/floor bounce
	Drag        float64 `yaml:"drag"`        // Linear velocity damping per second
}

// SpawnConfig holds rain emitter parameters.
type SpawnConfig struct {
	Interval    float64 `yaml:"interval"`     // Seconds between spawn bursts
	PerBurst    int     `yaml:"per_burst"`    // Balls per burst
	MaxBalls    int     `yaml:"max_balls"`    // Population cap; oldest recycled above this
	RadiusMin   float64 `yaml:"radius_min"`   // Spawn radius range in world units
	RadiusMax   float64 `yaml:"radius_max"`
	PopDuration float64 `yaml:"pop_duration"` // Seconds for the radius grow-in tween
	SpeedJitter float64 `yaml:"speed_jitter"` // Max horizontal speed at spawn
	Colors      int     `yaml:"colors"`       // How many palette base colors to draw from
	ShapeChance float64 `yaml:"shape_chance"` // Probability of a non-circle shape (needs atlas)
}

// ClusteringConfig holds merge parameters for the clustering engine.
type ClusteringConfig struct {
	DistanceBuffer float64 `yaml:"distance_buffer"` // Merge slack multiplier; valid range [1.0, 3.0]
}

// MetaballsConfig holds field evaluation and shading parameters.
type MetaballsConfig struct {
	Iso              float64 `yaml:"iso"`               // Surface threshold; tweakable at runtime within [0.2, 1.5]
	RadiusMultiplier float64 `yaml:"radius_multiplier"` // Extra scale on the iso-corrected radius
	NormalZScale     float64 `yaml:"normal_z_scale"`    // Z component of the bevel pseudo-normal
	TileSize         int     `yaml:"tile_size"`         // Screen tile edge in pixels; minimum 8
	FgMode           int     `yaml:"fg_mode"`           // 0=flat 1=bevel 2=outline-glow 3=metadata
	BgMode           int     `yaml:"bg_mode"`           // 0=solid 1=procedural noise 2=vertical gradient
	AAMinPx          float64 `yaml:"aa_min_px"`         // Anti-alias half-width lower clamp (pixels)
	AAMaxPx          float64 `yaml:"aa_max_px"`         // Anti-alias half-width upper clamp (pixels)
	AAFallbackPx     float64 `yaml:"aa_fallback_px"`    // Half-width when the gradient is negligible
	CandidateCap     int     `yaml:"candidate_cap"`     // Per-pixel cluster candidates tracked
}

// PaletteConfig holds color slot allocator parameters.
type PaletteConfig struct {
	Capacity    int      `yaml:"capacity"`     // Slot count; 0 = unbounded (palette grows)
	GraceFrames int      `yaml:"grace_frames"` // Frames an absent identity keeps its slot
	BaseColors  []string `yaml:"base_colors"`  // Hex colors balls are painted with
	Variation   float64  `yaml:"variation"`    // Per-identity lightness/hue spread within a color family
}

// NoiseConfig holds procedural background parameters.
type NoiseConfig struct {
	BaseScale      float64 `yaml:"base_scale"` // Base noise frequency
	Octaves        int     `yaml:"octaves"`    // FBM octaves
	Gain           float64 `yaml:"gain"`       // Amplitude multiplier per octave
	Lacunarity     float64 `yaml:"lacunarity"` // Frequency multiplier per octave
	SpeedX         float64 `yaml:"speed_x"`    // Scroll speed of the noise domain
	SpeedY         float64 `yaml:"speed_y"`
	Contrast       float64 `yaml:"contrast"`        // Output contrast exponent
	UpdateInterval float64 `yaml:"update_interval"` // Seconds between background grid refreshes
}

// ShapesConfig holds SDF shape atlas parameters.
// Empty paths disable shaped balls; everything renders as analytic circles.
type ShapesConfig struct {
	MetaPath  string `yaml:"meta_path"`  // Atlas metadata JSON
	ImagePath string `yaml:"image_path"` // Grayscale distance field PNG
}

// TelemetryConfig sizes the stats and perf windows.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Seconds per aggregated stats window
	PerfWindow  int     `yaml:"perf_window"`  // Ticks kept by the perf collector
}

// DerivedConfig carries float32 mirrors of values the hot paths read every
// tick, plus defaults that resolve against other fields.
type DerivedConfig struct {
	DT32      float32
	ScreenW32 float32
	ScreenH32 float32
	WorldW32  float32 // effective, after the 0 = screen fallback
	WorldH32  float32
}

var global *Config

// Init loads the config once for the process. An empty path keeps the
// embedded defaults. Must run before Cfg.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is Init for tools with no error path worth handling.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Cfg returns the process-wide configuration.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg before Init")
	}
	return global
}

// Load parses the embedded defaults and overlays the file at path on top,
// so a partial file only overrides the keys it names. An empty path skips
// the overlay.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived fills the float32 mirrors and resolves cross-field
// defaults.
func (c *Config) computeDerived() {
	worldW, worldH := c.World.Width, c.World.Height
	if worldW == 0 {
		worldW = c.Screen.Width
	}
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	c.Derived = DerivedConfig{
		DT32:      float32(c.Physics.DT),
		ScreenW32: float32(c.Screen.Width),
		ScreenH32: float32(c.Screen.Height),
		WorldW32:  float32(worldW),
		WorldH32:  float32(worldH),
	}

	// Zero or oversized color count means draw from the whole palette
	if c.Spawn.Colors <= 0 || c.Spawn.Colors > len(c.Palette.BaseColors) {
		c.Spawn.Colors = len(c.Palette.BaseColors)
	}
}

// WriteYAML snapshots the configuration, derived values excluded, to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
