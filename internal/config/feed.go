package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"chatrelay/internal/types"
)

// StringList is a []string that tolerates sloppy YAML. A single scalar is
// promoted to a one-element list; any other malformed shape decodes to an
// empty list. Malformed policy data must mean "no restriction", never
// "deny all" -- a configuration typo must not silently block every
// notification.
type StringList []string

// UnmarshalYAML implements lenient decoding for StringList.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*s = nil
			return nil
		}
		*s = StringList{value.Value}
	case yaml.SequenceNode:
		out := make(StringList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind == yaml.ScalarNode && item.Value != "" {
				out = append(out, item.Value)
			}
		}
		*s = out
	default:
		*s = nil
	}
	return nil
}

// RuleSet is one layer of exclusion rules. A match on any of the three sets
// suppresses the notification. An absent or empty set is no restriction.
type RuleSet struct {
	Groups      StringList `yaml:"groups"`
	Permissions StringList `yaml:"permissions"`
	Users       StringList `yaml:"users"`
}

// ExperimentalPolicy is the policy subtree consulted only for events offered
// to the experimental (CVT) feed.
type ExperimentalPolicy struct {
	Global  RuleSet                      `yaml:"global"`
	Actions map[types.ActionKind]RuleSet `yaml:"actions"`
}

// ExclusionPolicy is the layered suppression configuration. The zero value
// restricts nothing.
type ExclusionPolicy struct {
	Global       RuleSet                      `yaml:"global"`
	Actions      map[types.ActionKind]RuleSet `yaml:"actions"`
	Experimental ExperimentalPolicy           `yaml:"experimental"`
}

// StyleConfig controls the presentation of outbound messages.
type StyleConfig struct {
	// DisplayName overrides the sender name; when empty, SiteName is used.
	DisplayName string `yaml:"display_name"`
	SiteName    string `yaml:"site_name"`
	AvatarURL   string `yaml:"avatar_url"`

	// DisableFooter drops FooterText from standard-feed messages.
	// Experimental-feed messages always carry a footer.
	DisableFooter      bool   `yaml:"disable_footer"`
	FooterText         string `yaml:"footer_text"`
	ExperimentalFooter string `yaml:"experimental_footer"`
}

// RoutingConfig controls destination selection.
type RoutingConfig struct {
	// Mirrors receive a copy of every standard (non-overridden) notification.
	Mirrors []string `yaml:"mirrors"`

	// Actions maps an action kind to a dedicated endpoint that replaces the
	// primary for that kind (e.g. steering new_user_account and user_blocked
	// traffic to a moderation channel). Mirrors still apply.
	Actions map[types.ActionKind]string `yaml:"actions"`

	// ExperimentalURL is the destination for experimental-feed events.
	// When empty, experimental events fall back to the primary endpoint.
	ExperimentalURL string `yaml:"experimental_url"`

	// MirrorExperimental controls whether mirror endpoints also receive
	// experimental-feed traffic. Deliberately explicit: mirroring a
	// CVT-only feed to every ops channel defeats its purpose.
	MirrorExperimental bool `yaml:"mirror_experimental"`
}

// FeedConfig is the live configuration snapshot consumed per dispatch.
type FeedConfig struct {
	Style   StyleConfig     `yaml:"style"`
	Routing RoutingConfig   `yaml:"routing"`
	Exclude ExclusionPolicy `yaml:"exclude"`
}

// FeedSource provides the current FeedConfig. Implementations must reflect
// external changes on the next call (read-after-change visibility); the
// engine never caches a snapshot across dispatches.
type FeedSource interface {
	Snapshot() (*FeedConfig, error)
}

// FileSource is a FeedSource backed by a YAML file on disk. The parsed
// config is cached and invalidated by file modification time and size, so
// the per-dispatch cost is a stat call until the file actually changes.
type FileSource struct {
	path string

	mu      sync.Mutex
	cached  *FeedConfig
	modTime time.Time
	size    int64
}

// NewFileSource creates a FileSource and performs an eager first read so
// that a missing or unparseable file fails at startup rather than on the
// first dispatch.
func NewFileSource(path string) (*FileSource, error) {
	s := &FileSource{path: path}
	if _, err := s.Snapshot(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current feed configuration, re-reading the file if it
// changed since the last call.
func (s *FileSource) Snapshot() (*FeedConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrFeedFile,
			Message: fmt.Sprintf("stat feed config %s", s.path),
			Err:     err,
		}
	}

	if s.cached != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.cached, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrFeedFile,
			Message: fmt.Sprintf("read feed config %s", s.path),
			Err:     err,
		}
	}

	var cfg FeedConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrFeedFile,
			Message: fmt.Sprintf("parse feed config %s", s.path),
			Err:     err,
		}
	}

	s.cached = &cfg
	s.modTime = info.ModTime()
	s.size = info.Size()

	return &cfg, nil
}

// StaticSource is a FeedSource returning a fixed FeedConfig. Used in tests
// and in deployments that inject configuration by other means.
type StaticSource struct {
	Config *FeedConfig
}

// Snapshot returns the fixed config.
func (s *StaticSource) Snapshot() (*FeedConfig, error) {
	return s.Config, nil
}
