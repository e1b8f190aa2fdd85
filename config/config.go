package config

import (
	"fmt"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var configHomeDir string

// Connections is the store of logical connections in the user's config directory.
var Connections *File

func init() {
	Connections = NewConfigFileWithDir(mustGetConfigHomeDir(), ConnectionsConfigFileFullName)
}

const (
	ConnectionsConfigFileNamePrefix = "connections"
	ConnectionsConfigFileNameExt    = "yaml"
	ConnectionsConfigFileFullName   = ConnectionsConfigFileNamePrefix + "." + ConnectionsConfigFileNameExt
)

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

// Error returns the formatted configuration error.
func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

// IsFileNotFound reports whether err, or any error it wraps, is a FileNotFoundError.
func IsFileNotFound(err error) bool {
	var f FileNotFoundError
	return errors.As(err, &f)
}

type KeyNotFoundError struct {
	configFile string
	key        string
}

func (k KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// IsKeyNotFound reports whether err, or any error it wraps, is a KeyNotFoundError.
func IsKeyNotFound(err error) bool {
	var k KeyNotFoundError
	return errors.As(err, &k)
}

// File is a YAML map of keys to values held in an EncryptedFile.
// Values are decoded into the caller's type with mapstructure.
type File struct {
	Dirname      string
	FileName     string
	FilePrefix   string
	FileExt      string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	f            *EncryptedFile
	mu           sync.Mutex
}

func NewConfigFileWithDir(dirName string, filename string) *File {
	c := &File{Dirname: dirName, FileName: filename}
	c.FullPath = path.Join(dirName, filename)
	c.FileExt = strings.TrimLeft(path.Ext(filename), ".")
	c.FilePrefix = strings.TrimSuffix(c.FileName, "."+c.FileExt)
	c.data = make(map[string]interface{})
	c.f = NewEncryptedFile(dirName, filename)
	return c
}

// Get will fetch the key from the config File into variable, out.
// Return KeyNotFoundError if the key (or the whole file) is missing.
func (c *File) Get(key string, out interface{}) error {
	if reflect.ValueOf(out).Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadDataIfRequired(); err != nil {
		return err
	}
	d, ok := c.data[key]
	if !ok {
		return KeyNotFoundError{c.FullPath, key}
	}
	return mapstructure.Decode(d, out)
}

// Set saves val under key and rewrites the file, creating it if required.
func (c *File) Set(key string, val interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadDataIfRequired(); err != nil {
		return err
	}
	c.data[key] = val
	return c.save(key)
}

func (c *File) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadDataIfRequired(); err != nil {
		return err
	}
	if _, keyExists := c.data[key]; !keyExists {
		return KeyNotFoundError{c.FullPath, key}
	}
	delete(c.data, key)
	return c.save(key)
}

// GetAllKeys returns the sorted keys in the file, or none if the file does not exist.
func (c *File) GetAllKeys() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadDataIfRequired(); err != nil {
		return nil, err
	}
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval, nil
}

// loadDataIfRequired reads the file once. A missing file is treated as empty.
// The caller holds c.mu.
func (c *File) loadDataIfRequired() error {
	if c.dataIsLoaded {
		return nil
	}
	b, err := c.f.Get()
	if err != nil {
		if IsFileNotFound(err) {
			c.dataIsLoaded = true
			return nil
		}
		return err
	}
	if err = yaml.Unmarshal(b, &c.data); err != nil {
		return errors.Wrapf(err, "error reading config file %v", c.FullPath)
	}
	c.dataIsLoaded = true
	return nil
}

// save writes c.data and reloads it so in-memory values have the same shape as values read from disk.
// The caller holds c.mu.
func (c *File) save(key string) error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return errors.Wrapf(err, "error marshalling data while writing key %v to config file %v", key, c.FullPath)
	}
	if err = c.f.Set(b); err != nil {
		return err
	}
	c.data = make(map[string]interface{})
	return yaml.Unmarshal(b, &c.data)
}
