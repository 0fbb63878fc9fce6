package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

// Channel is one delivery mechanism a user can opt into.
type Channel string

const (
	ChannelRealtime Channel = "realtime"
	ChannelEmail    Channel = "email"
)

// KnownChannels lists every channel the dispatcher can drive.
var KnownChannels = []Channel{ChannelRealtime, ChannelEmail}

// ChannelSet is a user's notification preference stored as a comma separated
// tag list ("realtime,email"). Legacy single values are accepted on read:
// "websocket" means realtime and "all" means every known channel.
type ChannelSet []Channel

func NewChannelSet(channels ...Channel) ChannelSet {
	set := make(ChannelSet, 0, len(channels))
	for _, c := range channels {
		if !set.Has(c) {
			set = append(set, c)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

func (s ChannelSet) Has(c Channel) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

func (s ChannelSet) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// ParseChannelSet parses the stored form. Unknown tags are rejected.
func ParseChannelSet(raw string) (ChannelSet, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "":
		return ChannelSet{}, nil
	case "all":
		return NewChannelSet(KnownChannels...), nil
	}

	var channels []Channel
	for _, part := range strings.Split(raw, ",") {
		tag := Channel(strings.TrimSpace(part))
		if tag == "websocket" {
			tag = ChannelRealtime
		}
		if !isKnownChannel(tag) {
			return nil, fmt.Errorf("unknown notification channel %q", part)
		}
		channels = append(channels, tag)
	}
	return NewChannelSet(channels...), nil
}

func isKnownChannel(c Channel) bool {
	for _, k := range KnownChannels {
		if k == c {
			return true
		}
	}
	return false
}

// Scan implements sql.Scanner.
func (s *ChannelSet) Scan(src interface{}) error {
	if src == nil {
		*s = ChannelSet{}
		return nil
	}
	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("ChannelSet.Scan: unsupported type %T", src)
	}
	parsed, err := ParseChannelSet(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s ChannelSet) Value() (driver.Value, error) {
	return s.String(), nil
}
