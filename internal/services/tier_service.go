package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// PlanLimits holds the quota set for one plan tier. Negative values mean
// unlimited.
type PlanLimits struct {
	MaxBoardsPerOrg      int `yaml:"maxBoardsPerOrg"`
	MaxMembersPerOrg     int `yaml:"maxMembersPerOrg"`
	MaxCardsPerBoard     int `yaml:"maxCardsPerBoard"`
	MessageRetentionDays int `yaml:"messageRetentionDays"`
	MaxMessageLength     int `yaml:"maxMessageLength"`
}

type planFile struct {
	Plans map[string]PlanLimits `yaml:"plans"`
}

// defaultPlans is used when no plans file is configured or it fails to parse.
var defaultPlans = map[string]PlanLimits{
	"free": {
		MaxBoardsPerOrg:      5,
		MaxMembersPerOrg:     10,
		MaxCardsPerBoard:     200,
		MessageRetentionDays: 30,
		MaxMessageLength:     4000,
	},
	"pro": {
		MaxBoardsPerOrg:      50,
		MaxMembersPerOrg:     100,
		MaxCardsPerBoard:     2000,
		MessageRetentionDays: 365,
		MaxMessageLength:     16000,
	},
	"enterprise": {
		MaxBoardsPerOrg:      -1,
		MaxMembersPerOrg:     -1,
		MaxCardsPerBoard:     -1,
		MessageRetentionDays: -1,
		MaxMessageLength:     16000,
	},
}

// TierService resolves plan names to limits. Limits load from a YAML file and
// hot-reload on change, so quota tuning never needs a restart.
type TierService struct {
	mu    sync.RWMutex
	plans map[string]PlanLimits
	path  string
}

// NewTierService creates a tier service. path may be empty, in which case the
// built-in defaults apply.
func NewTierService(path string) *TierService {
	s := &TierService{
		plans: defaultPlans,
		path:  path,
	}
	if path != "" {
		if err := s.Reload(); err != nil {
			log.Printf("⚠️ Failed to load plans file %s, using defaults: %v", path, err)
		}
	}
	return s
}

// Reload re-reads the plans file.
func (s *TierService) Reload() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read plans file: %w", err)
	}

	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse plans file: %w", err)
	}
	if len(pf.Plans) == 0 {
		return fmt.Errorf("plans file defines no plans")
	}

	s.mu.Lock()
	s.plans = pf.Plans
	s.mu.Unlock()

	log.Printf("✅ Loaded %d plan tiers from %s", len(pf.Plans), s.path)
	return nil
}

// Watch starts a filesystem watcher on the plans file and reloads on change.
// Returns a stop function.
func (s *TierService) Watch() (func(), error) {
	if s.path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory, editors replace files instead of writing in place.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Printf("🔄 Plans file changed, reloading")
					if err := s.Reload(); err != nil {
						log.Printf("⚠️ Plans reload failed, keeping previous limits: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ Plans watcher error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

// PlanExists reports whether the plan name is defined.
func (s *TierService) PlanExists(plan string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.plans[plan]
	return ok
}

// Limits returns the limits for a plan, falling back to free for unknown
// names so a stale organization row never gets unlimited quota.
func (s *TierService) Limits(plan string) PlanLimits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limits, ok := s.plans[plan]; ok {
		return limits
	}
	if limits, ok := s.plans["free"]; ok {
		return limits
	}
	return defaultPlans["free"]
}

// PlanNames returns the defined plan names.
func (s *TierService) PlanNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.plans))
	for name := range s.plans {
		names = append(names, name)
	}
	return names
}
