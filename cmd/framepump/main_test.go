package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pion/framering/pkg/config"
	"github.com/pion/framering/pkg/frame"
)

func testConfig(t *testing.T, frames int) (config.Config, []byte) {
	t.Helper()
	dir := t.TempDir()

	conf := config.Default()
	conf.Stream.Format = frame.FormatNV12
	conf.Stream.Width = 16
	conf.Stream.Height = 8
	conf.Stream.PoolSize = 2
	conf.Stream.ReuseCheck = true
	conf.Device.MemoryLimit = 1 << 20

	size, err := frame.FrameSize(frame.FormatNV12, 16, 8)
	require.NoError(t, err)
	raw := make([]byte, frames*size)
	for i := range raw {
		raw[i] = byte(i)
	}
	conf.Source.Path = filepath.Join(dir, "in.nv12")
	require.NoError(t, os.WriteFile(conf.Source.Path, raw, 0o644))

	conf.Sink = config.Sink{Kind: config.SinkKindDump, Path: filepath.Join(dir, "out.nv12")}
	return conf, raw
}

func TestRunCopiesFramesThrough(t *testing.T) {
	conf, raw := testConfig(t, 5)
	require.NoError(t, conf.Validate())

	require.NoError(t, run(context.Background(), conf))

	out, err := os.ReadFile(conf.Sink.Path)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestRunMaxFramesSharedPool(t *testing.T) {
	conf, raw := testConfig(t, 5)
	conf.Stream.Shared = true
	conf.Stream.MaxFrames = 3

	require.NoError(t, run(context.Background(), conf))

	out, err := os.ReadFile(conf.Sink.Path)
	require.NoError(t, err)
	assert.Equal(t, raw[:3*len(raw)/5], out)
}

func TestRunReportsTruncatedInput(t *testing.T) {
	conf, raw := testConfig(t, 2)
	require.NoError(t, os.WriteFile(conf.Source.Path, raw[:len(raw)-7], 0o644))

	assert.Error(t, run(context.Background(), conf))
}

func TestRunCanceled(t *testing.T) {
	conf, _ := testConfig(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, run(ctx, conf), context.Canceled)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framepump.toml")
	require.NoError(t, writeDefault(path))

	conf, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), conf)

	conf, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), conf)

	broken := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[Stream\n"), 0o644))
	_, err = loadConfig(broken)
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	defer func(in, s, f string, n int) {
		*inputPath, *size, *format, *maxFrames = in, s, f, n
	}(*inputPath, *size, *format, *maxFrames)

	*inputPath, *size, *format, *maxFrames = "in.p010", "1280x720", "p010", 1000
	conf := config.Default()
	require.NoError(t, applyFlags(&conf))
	assert.Equal(t, "in.p010", conf.Source.Path)
	assert.Equal(t, 1280, conf.Stream.Width)
	assert.Equal(t, 720, conf.Stream.Height)
	assert.Equal(t, frame.FormatP010, conf.Stream.Format)
	assert.Equal(t, 1000, conf.Stream.MaxFrames)

	*size = "1281x720"
	conf = config.Default()
	assert.Error(t, applyFlags(&conf))
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	for _, s := range []string{"1920", "1920x", "x1080", "wide x tall"} {
		_, _, err := parseSize(s)
		assert.Error(t, err, s)
	}
}
