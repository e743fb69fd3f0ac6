package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicBase is the topic prefix used when none is configured.
const DefaultTopicBase = "keyer"

// Topics builds the daemon's MQTT topic names. Parameter full paths map
// to topic levels by replacing dots with slashes, so broker-side
// wildcards work per family: "keyer/param/keyer/#".
//
//	topics := mqtt.Topics{Base: "keyer"}
//	topics.ParamState("keyer.tone.pitch")
//	// Returns: "keyer/param/keyer/tone/pitch"
type Topics struct {
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return DefaultTopicBase
	}
	return t.Base
}

// pathLevels converts a dotted full path to topic levels.
func pathLevels(fullPath string) string {
	return strings.ReplaceAll(fullPath, ".", "/")
}

// ParamState returns the retained state topic for one parameter.
//
// Example: keyer/param/keyer/wpm
func (t Topics) ParamState(fullPath string) string {
	return fmt.Sprintf("%s/param/%s", t.base(), pathLevels(fullPath))
}

// ParamSet returns the command topic remote clients write to.
//
// Example: keyer/set/keyer/wpm
func (t Topics) ParamSet(fullPath string) string {
	return fmt.Sprintf("%s/set/%s", t.base(), pathLevels(fullPath))
}

// AllParamSets returns a pattern matching every set command.
//
// Pattern: keyer/set/#
func (t Topics) AllParamSets() string {
	return fmt.Sprintf("%s/set/#", t.base())
}

// SetTopicToPath converts a set-command topic back to a dotted full
// path. The second return is false when the topic is not under the set
// prefix.
func (t Topics) SetTopicToPath(topic string) (string, bool) {
	prefix := t.base() + "/set/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(topic, prefix)
	if rest == "" {
		return "", false
	}
	return strings.ReplaceAll(rest, "/", "."), true
}

// Status returns the daemon status topic, also used as the LWT target.
//
// Example: keyer/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.base())
}

// Generation returns the topic carrying the store generation counter.
//
// Example: keyer/generation
func (t Topics) Generation() string {
	return fmt.Sprintf("%s/generation", t.base())
}

// PresetActive returns the topic announcing the active preset slot.
//
// Example: keyer/preset/active
func (t Topics) PresetActive() string {
	return fmt.Sprintf("%s/preset/active", t.base())
}

// Meta returns the topic carrying the JSON parameter description.
//
// Example: keyer/meta
func (t Topics) Meta() string {
	return fmt.Sprintf("%s/meta", t.base())
}
