package loupe

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed options.schema.json
var optionsSchema []byte

// Default option values.
const (
	DefaultDoubleZoom = 2.0
	DefaultMaxZoom    = 4.0
	DefaultMinZoom    = 1.0
	DefaultTapDelay   = 200 * time.Millisecond
)

// Options configures a Viewer. Start from DefaultOptions: the boolean fields
// default to true and a zero Options would switch them off.
type Options struct {
	// DoubleZoom is the scale a double tap zooms in to.
	DoubleZoom float64 `yaml:"doubleZoom"`
	// MaxZoom and MinZoom bound the scale at rest.
	MaxZoom float64 `yaml:"maxZoom"`
	MinZoom float64 `yaml:"minZoom"`
	// Angled is the initial rotation in degrees. Values that are not a
	// multiple of 90 are treated as 0.
	Angled int `yaml:"angled"`
	// SoftX and SoftY allow elastic overscroll on an axis while panning,
	// corrected by an animation on release. When false the axis is clamped
	// as the finger moves.
	SoftX bool `yaml:"softX"`
	SoftY bool `yaml:"softY"`
	// LongPressDownload enables the long-press download affordance
	// (OnLongPress).
	LongPressDownload bool `yaml:"longPressDownload"`

	// TapDelay is the debounce window separating a tap from a double tap.
	TapDelay time.Duration `yaml:"tapDelay"`
	// Transition is the duration of settle and zoom animations.
	Transition time.Duration `yaml:"transition"`

	// Debug draws a state overlay and logs per-frame stats.
	Debug bool `yaml:"debug"`
	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string `yaml:"screenshotDir"`
	// Log configures the logger when Logger is nil.
	Log LogOptions `yaml:"log"`

	// OnTap fires after the debounce window with the tap center in logical
	// pixels.
	OnTap func(center Vec2) `yaml:"-"`
	// OnLoad fires once the image is sized and the first frame is drawn.
	OnLoad func() `yaml:"-"`
	// OnErr receives a *LoadError when the fetch fails.
	OnErr func(err error) `yaml:"-"`
	// OnLongPress receives the loaded image on a long press when
	// LongPressDownload is set.
	OnLongPress func(img image.Image) `yaml:"-"`

	// Fetcher loads the image. Defaults to SourceFetcher.
	Fetcher Fetcher `yaml:"-"`
	// Gestures delivers recognized gestures. Defaults to a Recognizer owned
	// by the viewer.
	Gestures GestureSource `yaml:"-"`
	// Renderer paints frames. Defaults to an EbitenRenderer.
	Renderer Renderer `yaml:"-"`
	// Clock drives transitions and tap debouncing. Defaults to wall time.
	Clock Clock `yaml:"-"`
	// Sink receives viewer events.
	Sink EventSink `yaml:"-"`
	// Logger overrides the package logger.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		DoubleZoom:        DefaultDoubleZoom,
		MaxZoom:           DefaultMaxZoom,
		MinZoom:           DefaultMinZoom,
		SoftX:             true,
		SoftY:             true,
		LongPressDownload: true,
		TapDelay:          DefaultTapDelay,
		Transition:        DefaultTransitionDuration,
		ScreenshotDir:     "screenshots",
	}
}

// withDefaults fills zero numeric fields and normalizes the angle.
func (o Options) withDefaults() Options {
	if o.DoubleZoom == 0 {
		o.DoubleZoom = DefaultDoubleZoom
	}
	if o.MaxZoom == 0 {
		o.MaxZoom = DefaultMaxZoom
	}
	if o.MinZoom == 0 {
		o.MinZoom = DefaultMinZoom
	}
	if o.TapDelay == 0 {
		o.TapDelay = DefaultTapDelay
	}
	if o.Transition == 0 {
		o.Transition = DefaultTransitionDuration
	}
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = "screenshots"
	}
	o.Angled = NormalizeAngle(o.Angled)
	return o
}

// Validate checks that the zoom bounds are positive and ordered:
// 0 < MinZoom <= DoubleZoom <= MaxZoom.
func (o Options) Validate() error {
	switch {
	case !(o.MinZoom > 0):
		return &ConfigError{Field: "minZoom", Reason: "must be positive", Err: ErrInvalidOptions}
	case o.MaxZoom < o.MinZoom:
		return &ConfigError{Field: "maxZoom", Reason: "must not be below minZoom", Err: ErrInvalidOptions}
	case o.DoubleZoom < o.MinZoom || o.DoubleZoom > o.MaxZoom:
		return &ConfigError{Field: "doubleZoom", Reason: "must lie within [minZoom, maxZoom]", Err: ErrInvalidOptions}
	case o.TapDelay < 0:
		return &ConfigError{Field: "tapDelay", Reason: "must not be negative", Err: ErrInvalidOptions}
	case o.Transition < 0:
		return &ConfigError{Field: "transition", Reason: "must not be negative", Err: ErrInvalidOptions}
	}
	return nil
}

// LoadOptions reads a YAML options file on top of DefaultOptions.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultOptions(), fmt.Errorf("load options: %w", err)
	}
	opts, err := ParseOptions(data)
	if err != nil {
		return opts, fmt.Errorf("load options %s: %w", path, err)
	}
	return opts, nil
}

// ParseOptions decodes a YAML options document on top of DefaultOptions. The
// document is checked against the embedded JSON schema before decoding and
// the result is validated.
func ParseOptions(data []byte) (Options, error) {
	opts := DefaultOptions()

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return opts, fmt.Errorf("parse options: %w", err)
	}
	if doc == nil {
		return opts, nil
	}
	if err := validateDocument(doc); err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return DefaultOptions(), fmt.Errorf("parse options: %w", err)
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return DefaultOptions(), err
	}
	return opts, nil
}

// validateDocument runs the decoded YAML through the options schema.
func validateDocument(doc map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(optionsSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("parse options: schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return &ConfigError{Reason: strings.Join(msgs, "; "), Err: ErrInvalidOptions}
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
