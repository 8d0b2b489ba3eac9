// Command framepump stages raw frames from a source into a device memory
// frame pool and hands each one to a sink, the way a hardware encoder would
// be fed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/pion/framering/internal/logging"
	"github.com/pion/framering/pkg/config"
	"github.com/pion/framering/pkg/device"
	"github.com/pion/framering/pkg/device/hostmem"
	"github.com/pion/framering/pkg/feed"
	"github.com/pion/framering/pkg/frame"
	"github.com/pion/framering/pkg/framebuf"
	"github.com/pion/framering/pkg/sink"
	"github.com/pion/framering/pkg/source"
	"github.com/pion/framering/pkg/source/camera"
	"github.com/pion/framering/pkg/source/cmdsource"
	"github.com/pion/framering/pkg/source/screen"
)

var (
	configPath = flag.String("config_path", "framepump.toml", "path to config")
	writeConf  = flag.Bool("write_config", false, "write the default config to config_path and exit")
	inputPath  = flag.String("input", "", "raw frame file to read, overrides the configured source")
	outputPath = flag.String("output", "", "file to dump staged frames to, overrides the configured sink")
	size       = flag.String("size", "", "WIDTHxHEIGHT of the frames, e.g. 1920x1080")
	format     = flag.String("format", "", "pixel format of the frames, e.g. NV12")
	maxFrames  = flag.Int("max_frames", -1, "stop after this many frames, 0 for no limit")
)

var logger = logging.NewLogger("framepump")

type closingSource interface {
	source.Source
	io.Closer
}

func main() {
	flag.Parse()

	if *writeConf {
		if err := writeDefault(*configPath); err != nil {
			logger.Errorf("failed to write config: %v", err)
			os.Exit(1)
		}
		return
	}

	conf, err := loadConfig(*configPath)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	if err := applyFlags(&conf); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func writeDefault(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.Save(config.Default(), f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// loadConfig reads path, falling back to the defaults when it does not exist.
func loadConfig(path string) (config.Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Infof("config %s doesn't exist, using defaults", path)
		return config.Default(), nil
	}
	if err != nil {
		return config.Config{}, err
	}
	defer f.Close()

	return config.Load(f)
}

// applyFlags overrides conf with the flags given on the command line and
// validates the result.
func applyFlags(conf *config.Config) error {
	if *inputPath != "" {
		conf.Source.Kind = config.SourceKindFile
		conf.Source.Path = *inputPath
	}
	if *outputPath != "" {
		conf.Sink.Kind = config.SinkKindDump
		conf.Sink.Path = *outputPath
	}
	if *size != "" {
		w, h, err := parseSize(*size)
		if err != nil {
			return err
		}
		conf.Stream.Width, conf.Stream.Height = w, h
	}
	if *format != "" {
		f, err := frame.ParseFormat(strings.ToUpper(*format))
		if err != nil {
			return err
		}
		conf.Stream.Format = f
	}
	if *maxFrames >= 0 {
		conf.Stream.MaxFrames = *maxFrames
	}
	return conf.Validate()
}

func parseSize(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	if width, err = strconv.Atoi(w); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if height, err = strconv.Atoi(h); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return width, height, nil
}

func openDevice(conf config.Device) (device.Context, error) {
	if conf.Backend == "host" && conf.MemoryLimit > 0 {
		return hostmem.New(hostmem.WithLimit(conf.MemoryLimit)), nil
	}
	return device.Open(conf.Backend, conf.Ordinal)
}

func openPool(conf config.Config) (*framebuf.Pool, error) {
	ctx, err := openDevice(conf.Device)
	if err != nil {
		return nil, err
	}

	s := conf.Stream
	var pool *framebuf.Pool
	if s.Shared {
		pool, err = framebuf.NewSharedPool(ctx, s.Format, s.Width, s.Height, s.PoolSize, framebuf.WithContextOwnership())
	} else {
		pool, err = framebuf.NewPool(ctx, s.Format, s.Width, s.Height, s.PoolSize, framebuf.WithContextOwnership())
	}
	if err != nil {
		// A pool that failed to build has already released ctx.
		return nil, err
	}
	return pool, nil
}

func openSource(conf config.Config) (closingSource, error) {
	s := conf.Stream
	switch conf.Source.Kind {
	case config.SourceKindFile:
		return source.Open(conf.Source.Path)
	case config.SourceKindCommand:
		c, err := cmdsource.New(conf.Source.Command, cmdsource.Options{
			ReadTimeout: conf.Source.ReadTimeout.Duration,
			Format:      s.Format,
			Width:       s.Width,
			Height:      s.Height,
		})
		if err != nil {
			return nil, err
		}
		if err := c.Start(); err != nil {
			return nil, err
		}
		return c, nil
	case config.SourceKindCamera:
		return camera.Open(conf.Source.Path, s.Format, s.Width, s.Height)
	case config.SourceKindScreen:
		return screen.Open(conf.Source.Display, s.Format, s.Width, s.Height)
	default:
		return nil, fmt.Errorf("unknown source kind %v", conf.Source.Kind)
	}
}

func openSink(conf config.Sink) (sink.Sink, error) {
	switch conf.Kind {
	case config.SinkKindDump:
		return sink.CreateDump(conf.Path)
	case config.SinkKindSnapshot:
		return sink.NewSnapshot(conf.Path, conf.Every, conf.Width)
	default:
		return sink.Discard, nil
	}
}

func run(ctx context.Context, conf config.Config) (err error) {
	pool, err := openPool(conf)
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}
	defer pool.Close()

	src, err := openSource(conf)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	var closeOnce sync.Once
	closeSource := func() (err error) {
		closeOnce.Do(func() { err = src.Close() })
		return
	}
	defer closeSource()

	out, err := openSink(conf.Sink)
	if err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	opts := []feed.Option{feed.WithMaxFrames(conf.Stream.MaxFrames)}
	if conf.Stream.ReuseCheck {
		opts = append(opts, feed.WithReuseCheck())
	}
	feeder := feed.New(pool, source.Pace(src, conf.Stream.FrameRate), opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		defer cancel()
		stats, err := feed.Pump(ctx, feeder, out.Consume)
		logger.Infof("%d frames, %d bytes, %v in copies", stats.Frames, stats.Bytes, stats.CopyTime)
		return err
	})

	// A blocked Pull only returns once the source is closed.
	errg.Go(func() error {
		<-ctx.Done()
		return closeSource()
	})

	return errg.Wait()
}
