// Package featureflags evaluates rollout flags parsed from configuration.
// Flags arrive as a comma-separated key=value list, e.g.
// "superlike=on,rewind=25%". Percent values roll a feature out to a
// deterministic slice of users so a given account keeps seeing the same
// behavior across requests and restarts.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type flag struct {
	// percent in [0,100]; boolean flags collapse to 0 or 100.
	percent int
}

// Manager holds parsed rollout flags. A nil Manager reports every flag as
// disabled.
type Manager struct {
	flags map[string]flag
}

// NewManager parses a comma-separated flag list. Malformed pairs are skipped
// rather than rejected; a typo in one flag must not take the server down.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]flag)}

	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = normalize(name)
		if name == "" {
			continue
		}
		pct, ok := parseValue(normalize(value))
		if !ok {
			continue
		}
		m.flags[name] = flag{percent: pct}
	}

	return m
}

func parseValue(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	if pctRaw, ok := strings.CutSuffix(value, "%"); ok {
		pct, err := strconv.Atoi(pctRaw)
		if err != nil || pct < 0 {
			return 0, false
		}
		if pct > 100 {
			pct = 100
		}
		return pct, true
	}
	return 0, false
}

// Enabled reports whether the named flag is on for the given user. Unknown
// flags are off. Partial rollouts bucket by user ID; userID 0 (anonymous
// callers) never lands in a partial rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	f, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case f.percent <= 0:
		return false
	case f.percent >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < f.percent
}

// Snapshot evaluates every configured flag for one user, for diagnostics.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
