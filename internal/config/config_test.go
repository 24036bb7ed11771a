package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/locksim/internal/config"
	"github.com/db47h/locksim/top"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
	assert.Equal(t, log.InfoLevel, c.Level())

	// missing files are ignored
	c, err = config.Load(filepath.Join(t.TempDir(), config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
addr: localhost:9000
clock_hz: 1000
csr:
  data_width: 16
transform: df1
overrides:
  gpio: 20
`), 0644))
	t.Setenv("LOCKSIM_WORKERS", "3")
	t.Setenv("LOCKSIM_CSR__BASE", "0x40400000")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", c.Addr)
	assert.Equal(t, 1000., c.ClockHz)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 16, c.CSR.DataWidth)
	assert.Equal(t, 9, c.CSR.OffsetBits)
	assert.Equal(t, uint32(0x40400000), c.CSR.Base)
	assert.Equal(t, 20, c.Overrides["gpio"])

	opts, err := c.Options()
	require.NoError(t, err)
	s, err := top.New(opts)
	require.NoError(t, err)
	defer s.Close()
	idx, _ := s.Array().Map().Index("gpio")
	assert.Equal(t, 20, idx)
	idx, _ = s.Array().Map().Index("mux")
	assert.Equal(t, 31, idx)
	assert.Equal(t, 16, s.Array().Config().DataWidth)
}

func TestInvalid(t *testing.T) {
	for _, d := range []struct{ key, val string }{
		{"LOCKSIM_TRANSFORM", "fir"},
		{"LOCKSIM_LOG_LEVEL", "chatty"},
		{"LOCKSIM_WORKERS", "-1"},
	} {
		t.Run(d.key, func(t *testing.T) {
			t.Setenv(d.key, d.val)
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, config.Default().Encode(&buf))
	assert.Contains(t, buf.String(), "transform: passthrough")
	assert.Contains(t, buf.String(), "data_width: 32")

	// encoded configurations load back
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}
