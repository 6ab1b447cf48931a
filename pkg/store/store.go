// Package store persists topologies as YAML files in a working directory.
// One file, network.yml, is the active topology; any number of named
// topologies sit beside it.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/channel-guard/channelguard/pkg/topology"
	"github.com/channel-guard/channelguard/pkg/util"
)

const activeFile = "network.yml"

// Info describes one saved topology file.
type Info struct {
	Name     string    `json:"name"`
	Filename string    `json:"filename"`
	Channels int       `json:"channels"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store manages the topology directory.
type Store struct {
	dir string
}

// New opens (creating if needed) a topology directory.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating topology directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store manages.
func (s *Store) Dir() string {
	return s.dir
}

// LoadActive reads the active topology. util.ErrNotFound when none exists.
func (s *Store) LoadActive() (*topology.Topology, error) {
	return s.read(filepath.Join(s.dir, activeFile))
}

// SaveActive writes the active topology.
func (s *Store) SaveActive(t *topology.Topology) error {
	return s.write(filepath.Join(s.dir, activeFile), t)
}

// SaveAs writes the topology under a sanitized name.
func (s *Store) SaveAs(name string, t *topology.Topology) error {
	return s.write(s.path(name), t)
}

// Activate loads a named topology and makes it the active one.
func (s *Store) Activate(name string) (*topology.Topology, error) {
	t, err := s.read(s.path(name))
	if err != nil {
		return nil, err
	}
	if err := s.SaveActive(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a named topology. The active file cannot be deleted.
func (s *Store) Delete(name string) error {
	path := s.path(name)
	if filepath.Base(path) == activeFile {
		return fmt.Errorf("cannot delete the active topology")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("topology '%s': %w", name, util.ErrNotFound)
	}
	return os.Remove(path)
}

// List enumerates the saved topologies, sorted by name. The active file and
// underscore-prefixed scratch files are skipped. Files that fail to parse
// are listed with zero channels rather than dropped.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading topology directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yml") ||
			strings.HasPrefix(name, "_") || name == activeFile {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		channels := 0
		if t, err := s.read(filepath.Join(s.dir, name)); err == nil {
			channels = len(t.Channels)
		}

		infos = append(infos, Info{
			Name:     strings.TrimSuffix(name, ".yml"),
			Filename: name,
			Channels: channels,
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Export returns the active topology as YAML bytes.
func (s *Store) Export() ([]byte, error) {
	t, err := s.LoadActive()
	if err != nil {
		return nil, err
	}
	return topology.Encode(t)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, util.SanitizeName(name)+".yml")
}

func (s *Store) read(path string) (*topology.Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("topology file %s: %w", filepath.Base(path), util.ErrNotFound)
		}
		return nil, fmt.Errorf("reading topology file: %w", err)
	}
	return topology.Decode(data)
}

func (s *Store) write(path string, t *topology.Topology) error {
	data, err := topology.Encode(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing topology file: %w", err)
	}
	return nil
}
