package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"fastbuf/util/buffer"
	"fastbuf/util/log"

	"github.com/ghodss/yaml"
)

type BufferProperties struct {
	Mode          string `cfg:"mode" yaml:"mode"`
	ReadCapacity  int    `cfg:"read-capacity" yaml:"readCapacity"`
	WriteCapacity int    `cfg:"write-capacity" yaml:"writeCapacity"`
	Storage       string `cfg:"storage" yaml:"storage"`
	Zeroed        bool   `cfg:"zeroed" yaml:"zeroed"`
	PoolSlabs     int    `cfg:"pool-slabs" yaml:"poolSlabs"`
	LogLevel      string `cfg:"loglevel" yaml:"logLevel"`
}

var Properties *BufferProperties

const (
	ModePipe = "pipe"
	ModeResp = "resp"

	StorageHeap = "heap"
	StoragePool = "pool"
	StorageMmap = "mmap"
)

func init() {
	Properties = defaults()
}

func defaults() *BufferProperties {
	return &BufferProperties{
		Mode:          ModePipe,
		ReadCapacity:  16 * 1024,
		WriteCapacity: 16 * 1024,
		Storage:       StorageHeap,
		Zeroed:        false,
		PoolSlabs:     4,
		LogLevel:      "info",
	}
}

// parse reads "key value" lines into configs. Lines starting with # are
// comments, keys are matched case-insensitively against the cfg tags.
func parse(reader io.Reader, configs *BufferProperties) error {
	cfgMap := make(map[string]string)
	scanner := bufio.NewScanner(reader)
	// scan config file
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// skip comments
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		// get gap between key and value
		idx := strings.IndexAny(line, " \t")
		if idx > 0 && idx < len(line)-1 {
			key := line[0:idx]
			value := strings.TrimSpace(line[idx+1:])
			cfgMap[strings.ToLower(key)] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	t := reflect.TypeOf(configs)
	v := reflect.ValueOf(configs)
	n := t.Elem().NumField()
	for i := 0; i < n; i++ {
		// use reflection to get fields
		field := t.Elem().Field(i)
		fieldValue := v.Elem().Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = field.Name
		}
		value, ok := cfgMap[strings.ToLower(key)]
		if !ok {
			continue
		}
		switch field.Type.Kind() {
		case reflect.String:
			fieldValue.SetString(value)
		case reflect.Int:
			num, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			fieldValue.SetInt(num)
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("config %s: %w", key, err)
			}
			fieldValue.SetBool(boolVal)
		}
	}
	return nil
}

func parseYAML(reader io.Reader, configs *BufferProperties) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, configs)
}

/*
LoadConfigs
Load properties from a config file on top of the defaults. Files ending in
.yaml or .yml are YAML, anything else uses the "key value" format.
*/
func LoadConfigs(configFilePath string) error {
	file, err := os.Open(configFilePath)
	if err != nil {
		return err
	}
	defer file.Close()
	configs := defaults()
	switch strings.ToLower(filepath.Ext(configFilePath)) {
	case ".yaml", ".yml":
		err = parseYAML(file, configs)
	default:
		err = parse(file, configs)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", configFilePath, err)
	}
	if err := configs.Validate(); err != nil {
		return fmt.Errorf("load %s: %w", configFilePath, err)
	}
	Properties = configs
	return nil
}

func (p *BufferProperties) Validate() error {
	switch p.Mode {
	case ModePipe, ModeResp:
	default:
		return fmt.Errorf("unknown mode %q", p.Mode)
	}
	switch p.Storage {
	case StorageHeap, StoragePool, StorageMmap:
	default:
		return fmt.Errorf("unknown storage %q", p.Storage)
	}
	if p.ReadCapacity < 0 || p.WriteCapacity < 0 {
		return buffer.ErrInvalidCapacity
	}
	// resp mode holds a read, a spare and a write buffer
	if p.Storage == StoragePool && (p.PoolSlabs <= 0 || p.Mode == ModeResp && p.PoolSlabs < 3) {
		return fmt.Errorf("pool-slabs too small for %s mode: %d", p.Mode, p.PoolSlabs)
	}
	if _, err := log.ParseLevel(p.LogLevel); err != nil {
		return err
	}
	return nil
}

// Allocator builds the storage strategy the properties select. Pool slabs
// are sized for the larger of the two capacities.
func (p *BufferProperties) Allocator() buffer.Allocator {
	switch p.Storage {
	case StoragePool:
		return buffer.NewSlabPool(max(p.ReadCapacity, p.WriteCapacity), p.PoolSlabs)
	case StorageMmap:
		return buffer.Mmap{}
	default:
		return buffer.Heap{}
	}
}

// NewBuffer allocates a buffer of the given capacity, zeroed when the
// properties ask for it.
func (p *BufferProperties) NewBuffer(alloc buffer.Allocator, capacity int) (*buffer.Buffer, error) {
	if p.Zeroed {
		return buffer.NewZeroedIn(alloc, capacity)
	}
	return buffer.NewIn(alloc, capacity)
}
