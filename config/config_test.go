package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fastbuf/util/buffer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `# buffer settings
mode resp
READ-CAPACITY 4096
write-capacity	1024
storage pool
zeroed true
pool-slabs 8
loglevel debug
unknown-key 1
`
	configs := defaults()
	require.NoError(t, parse(strings.NewReader(input), configs))
	assert.Equal(t, ModeResp, configs.Mode)
	assert.Equal(t, 4096, configs.ReadCapacity)
	assert.Equal(t, 1024, configs.WriteCapacity)
	assert.Equal(t, StoragePool, configs.Storage)
	assert.Equal(t, 8, configs.PoolSlabs)
	assert.Equal(t, "debug", configs.LogLevel)
	assert.True(t, configs.Zeroed)
}

func TestParse_InvalidValue(t *testing.T) {
	configs := defaults()
	err := parse(strings.NewReader("read-capacity lots\n"), configs)
	assert.ErrorContains(t, err, "read-capacity")

	err = parse(strings.NewReader("zeroed maybe\n"), configs)
	assert.ErrorContains(t, err, "zeroed")
}

func TestParseYAML(t *testing.T) {
	input := `
mode: pipe
readCapacity: 512
storage: mmap
zeroed: true
logLevel: warn
`
	configs := defaults()
	require.NoError(t, parseYAML(strings.NewReader(input), configs))
	assert.Equal(t, ModePipe, configs.Mode)
	assert.Equal(t, 512, configs.ReadCapacity)
	assert.Equal(t, 16*1024, configs.WriteCapacity, "missing keys keep their defaults")
	assert.Equal(t, StorageMmap, configs.Storage)
	assert.True(t, configs.Zeroed)
	assert.Equal(t, "warn", configs.LogLevel)
}

func TestLoadConfigs(t *testing.T) {
	dir := t.TempDir()
	defer func() { Properties = defaults() }()

	yamlPath := filepath.Join(dir, "fastbuf.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("readCapacity: 128\nstorage: pool\n"), 0o644))
	require.NoError(t, LoadConfigs(yamlPath))
	assert.Equal(t, 128, Properties.ReadCapacity)
	assert.Equal(t, StoragePool, Properties.Storage)

	confPath := filepath.Join(dir, "fastbuf.conf")
	require.NoError(t, os.WriteFile(confPath, []byte("write-capacity 64\n"), 0o644))
	require.NoError(t, LoadConfigs(confPath))
	assert.Equal(t, 64, Properties.WriteCapacity)
	assert.Equal(t, StorageHeap, Properties.Storage, "each load starts from the defaults")

	badPath := filepath.Join(dir, "bad.conf")
	require.NoError(t, os.WriteFile(badPath, []byte("storage disk\n"), 0o644))
	err := LoadConfigs(badPath)
	assert.ErrorContains(t, err, "unknown storage")
	assert.Equal(t, 64, Properties.WriteCapacity, "a failed load keeps the previous properties")

	assert.Error(t, LoadConfigs(filepath.Join(dir, "missing.conf")))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(p *BufferProperties)
		valid  bool
	}{
		{name: "defaults", modify: func(p *BufferProperties) {}, valid: true},
		{name: "unknown-mode", modify: func(p *BufferProperties) { p.Mode = "tcp" }},
		{name: "unknown-storage", modify: func(p *BufferProperties) { p.Storage = "disk" }},
		{name: "negative-capacity", modify: func(p *BufferProperties) { p.ReadCapacity = -1 }},
		{name: "zero-capacity", modify: func(p *BufferProperties) { p.WriteCapacity = 0 }, valid: true},
		{name: "no-slabs", modify: func(p *BufferProperties) { p.Storage = StoragePool; p.PoolSlabs = 0 }},
		{name: "resp-needs-three-slabs", modify: func(p *BufferProperties) {
			p.Mode = ModeResp
			p.Storage = StoragePool
			p.PoolSlabs = 2
		}},
		{name: "bad-log-level", modify: func(p *BufferProperties) { p.LogLevel = "trace" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := defaults()
			tc.modify(p)
			if tc.valid {
				assert.NoError(t, p.Validate())
			} else {
				assert.Error(t, p.Validate())
			}
		})
	}
	p := defaults()
	p.ReadCapacity = -1
	assert.ErrorIs(t, p.Validate(), buffer.ErrInvalidCapacity)
}

func TestAllocator(t *testing.T) {
	p := defaults()
	p.ReadCapacity = 32
	p.WriteCapacity = 64

	assert.IsType(t, buffer.Heap{}, p.Allocator())
	p.Storage = StorageMmap
	assert.IsType(t, buffer.Mmap{}, p.Allocator())

	p.Storage = StoragePool
	alloc := p.Allocator()
	require.IsType(t, &buffer.SlabPool{}, alloc)
	assert.Equal(t, 64, alloc.(*buffer.SlabPool).SlabSize())

	b, err := p.NewBuffer(alloc, 32)
	require.NoError(t, err)
	assert.Equal(t, 32, b.Cap())
	require.NoError(t, b.Release())

	p.Zeroed = true
	b, err = p.NewBuffer(alloc, 64)
	require.NoError(t, err)
	b.SetFilledPosUnchecked(64)
	assert.Equal(t, make([]byte, 64), b.Bytes())
	require.NoError(t, b.Release())
}
