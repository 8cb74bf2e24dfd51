package gate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"clipgate/internal"
)

// ChannelSnapshot is the read-only sponsor-channel configuration injected
// into the gate. It is loaded once at startup; this core never persists it.
type ChannelSnapshot struct {
	Required bool                      `yaml:"required"`
	Policy   internal.ChannelPolicy    `yaml:"policy"`
	Channels []internal.SponsorChannel `yaml:"channels"`
}

// LoadChannelSnapshot reads a sponsor-channel YAML file. Expired and
// inactive channels are dropped here so the gate only ever sees channels it
// must enforce.
func LoadChannelSnapshot(path string, now time.Time) (*ChannelSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, internal.NewValidationError("channels_file", fmt.Sprintf("failed to read %s: %v", path, err))
	}
	return ParseChannelSnapshot(data, now)
}

// ParseChannelSnapshot parses sponsor-channel YAML and filters out channels
// that no longer apply.
func ParseChannelSnapshot(data []byte, now time.Time) (*ChannelSnapshot, error) {
	var snapshot ChannelSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, internal.NewValidationError("channels_file", fmt.Sprintf("malformed YAML: %v", err))
	}

	if snapshot.Policy == "" {
		snapshot.Policy = internal.PolicyAllOf
	}
	if snapshot.Policy != internal.PolicyAllOf && snapshot.Policy != internal.PolicyAnyOf {
		return nil, internal.NewValidationError("policy", fmt.Sprintf("unknown policy %q", snapshot.Policy))
	}

	active := make([]internal.SponsorChannel, 0, len(snapshot.Channels))
	for _, ch := range snapshot.Channels {
		ch.Handle = strings.TrimPrefix(strings.TrimSpace(ch.Handle), "@")
		if ch.Handle == "" || !ch.Active || ch.Expired(now) {
			continue
		}
		active = append(active, ch)
	}
	snapshot.Channels = active

	return &snapshot, nil
}

// Handles returns the configured channel handles in order.
func (s *ChannelSnapshot) Handles() []string {
	handles := make([]string, len(s.Channels))
	for i, ch := range s.Channels {
		handles[i] = ch.Handle
	}
	return handles
}
