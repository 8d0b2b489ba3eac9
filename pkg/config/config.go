// Package config loads framepump settings from TOML.
package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pion/framering/pkg/frame"
)

type Device struct {
	Backend string
	Ordinal int
	// MemoryLimit caps host backend allocations in bytes. Zero means no limit.
	MemoryLimit int
}

type Stream struct {
	Format     frame.Format
	Width      int
	Height     int
	PoolSize   int
	Shared     bool
	MaxFrames  int
	ReuseCheck bool
	// FrameRate paces the source in frames per second. Zero feeds as fast
	// as the source delivers.
	FrameRate float64
}

type SourceKind int

const (
	SourceKindFile SourceKind = iota
	SourceKindCommand
	SourceKindCamera
	SourceKindScreen
)

var sourceKindNames = map[SourceKind]string{
	SourceKindFile:    "file",
	SourceKindCommand: "command",
	SourceKindCamera:  "camera",
	SourceKindScreen:  "screen",
}

func (k *SourceKind) UnmarshalText(text []byte) error {
	for kind, name := range sourceKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown source kind: %s", string(text))
}

func (k SourceKind) MarshalText() ([]byte, error) {
	name, ok := sourceKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown source kind: %d", int(k))
	}
	return []byte(name), nil
}

func (k SourceKind) String() string {
	if name, ok := sourceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

type Source struct {
	Kind SourceKind
	// Path is the raw frame file for file sources and the device node for
	// camera sources.
	Path        string
	Command     string
	Display     int
	ReadTimeout Duration
}

type SinkKind int

const (
	SinkKindDiscard SinkKind = iota
	SinkKindDump
	SinkKindSnapshot
)

var sinkKindNames = map[SinkKind]string{
	SinkKindDiscard:  "discard",
	SinkKindDump:     "dump",
	SinkKindSnapshot: "snapshot",
}

func (k *SinkKind) UnmarshalText(text []byte) error {
	for kind, name := range sinkKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown sink kind: %s", string(text))
}

func (k SinkKind) MarshalText() ([]byte, error) {
	name, ok := sinkKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown sink kind: %d", int(k))
	}
	return []byte(name), nil
}

func (k SinkKind) String() string {
	if name, ok := sinkKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SinkKind(%d)", int(k))
}

type Sink struct {
	Kind SinkKind
	// Path is the output file for dumps and the output directory for
	// snapshots.
	Path  string
	Every int
	Width int
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Device Device
	Stream Stream
	Source Source
	Sink   Sink
}

func Default() Config {
	return Config{
		Device: Device{
			Backend: "host",
		},
		Stream: Stream{
			Format:   frame.FormatNV12,
			Width:    1920,
			Height:   1080,
			PoolSize: 4,
		},
		Source: Source{
			Kind:        SourceKindFile,
			Path:        "frames.nv12",
			ReadTimeout: Duration{5 * time.Second},
		},
		Sink: Sink{
			Kind:  SinkKindDiscard,
			Every: 30,
		},
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Device.Backend == "" {
		return errors.New("config: device backend is empty")
	}
	if c.Device.MemoryLimit < 0 {
		return fmt.Errorf("config: negative memory limit %d", c.Device.MemoryLimit)
	}
	if _, err := frame.Describe(c.Stream.Format, c.Stream.Width, c.Stream.Height); err != nil {
		return fmt.Errorf("config: stream: %w", err)
	}
	if c.Stream.FrameRate < 0 {
		return fmt.Errorf("config: negative frame rate %v", c.Stream.FrameRate)
	}
	if c.Stream.PoolSize < 1 {
		return fmt.Errorf("config: pool size must be positive, got %d", c.Stream.PoolSize)
	}

	switch c.Source.Kind {
	case SourceKindFile, SourceKindCamera:
		if c.Source.Path == "" {
			return fmt.Errorf("config: %s source needs a path", c.Source.Kind)
		}
	case SourceKindCommand:
		if c.Source.Command == "" {
			return errors.New("config: command source needs a command")
		}
	case SourceKindScreen:
	default:
		return fmt.Errorf("config: unknown source kind %v", c.Source.Kind)
	}

	switch c.Sink.Kind {
	case SinkKindDump, SinkKindSnapshot:
		if c.Sink.Path == "" {
			return fmt.Errorf("config: %s sink needs a path", c.Sink.Kind)
		}
	case SinkKindDiscard:
	default:
		return fmt.Errorf("config: unknown sink kind %v", c.Sink.Kind)
	}
	return nil
}

func Save(config Config, w io.Writer) error {
	return toml.NewEncoder(w).Encode(config)
}

// Load decodes r over the defaults, so missing settings keep their default.
func Load(r io.Reader) (Config, error) {
	c := Default()

	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return c, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, fmt.Errorf("config: unknown keys %v", undecoded)
	}

	return c, nil
}
