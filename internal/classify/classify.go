// Package classify decides, for a given window, whether it should be
// tiled or left floating. Classification is an ordered rule chain,
// evaluated first-match-wins, over the window's live attributes as read
// through the accessibility port.
package classify

import (
	"strings"
	"sync"

	"github.com/kvashchenko/windesk/internal/accessport"
)

// Decision is the classifier's verdict for a window.
type Decision int

const (
	Tile Decision = iota
	Float
)

// Attrs is the minimal attribute snapshot the rule chain consults, read
// once per classify call so results only depend on the inputs given (the
// "classifier purity" property).
type Attrs struct {
	IsFloatingOverride bool
	Minimized          bool
	BundleID           string
	Subrole            string
	Modal              bool
	Width, Height      int
	Title              string
	Resizable          bool
}

// standardSubrole is the ICCCM/EWMH subrole value for an ordinary top-level
// application window; anything else (dialog, sheet, system floating panel)
// floats under rule 4.
const standardSubrole = "standard"

const (
	minTileWidth  = 300
	minTileHeight = 300
	autocompleteMaxHeight = 150
	autocompleteMinWidth  = 300
)

// Rules is the configured rule inputs: the always-float bundle id set and
// title substring patterns (case-insensitive), plus the float-new-windows
// default.
type Rules struct {
	FloatNewWindows       bool
	FloatingBundleIDs     map[string]bool
	FloatingTitlePatterns []string
}

// Classify runs the ordered rule chain against a. FloatNewWindows only
// affects the override default at window-creation time, not this call
// directly — callers that create a WindowNode set IsFloatingOverride from
// it up front, and Classify then reads that override via rule 1.
func Classify(a Attrs, rules Rules) Decision {
	if a.IsFloatingOverride {
		return Float
	}
	if a.Minimized {
		return Float
	}
	if rules.FloatingBundleIDs[a.BundleID] {
		return Float
	}
	if a.Subrole != "" && a.Subrole != standardSubrole {
		return Float
	}
	if a.Modal {
		return Float
	}
	if a.Width < minTileWidth && a.Height < minTileHeight {
		return Float
	}
	if a.Height < autocompleteMaxHeight && a.Width > autocompleteMinWidth {
		return Float
	}
	lowerTitle := strings.ToLower(a.Title)
	for _, pat := range rules.FloatingTitlePatterns {
		if pat == "" {
			continue
		}
		if strings.Contains(lowerTitle, strings.ToLower(pat)) {
			return Float
		}
	}
	if !a.Resizable {
		return Float
	}
	return Tile
}

// Cache memoizes Classify results per WindowID, invalidated on title
// change, subrole change, or an explicit rule-set update (SetRules).
type Cache struct {
	mu      sync.RWMutex
	rules   Rules
	entries map[accessport.WindowID]cacheEntry
}

type cacheEntry struct {
	decision Decision
	title    string
	subrole  string
}

// NewCache builds a cache seeded with rules.
func NewCache(rules Rules) *Cache {
	return &Cache{rules: rules, entries: make(map[accessport.WindowID]cacheEntry)}
}

// SetRules replaces the rule set and invalidates every cached entry.
func (c *Cache) SetRules(rules Rules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
	c.entries = make(map[accessport.WindowID]cacheEntry)
}

// Classify returns the cached decision for id if attrs.Title and
// attrs.Subrole match what was cached, otherwise recomputes and stores it.
func (c *Cache) Classify(id accessport.WindowID, attrs Attrs) Decision {
	c.mu.RLock()
	if e, ok := c.entries[id]; ok && e.title == attrs.Title && e.subrole == attrs.Subrole {
		c.mu.RUnlock()
		return e.decision
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	decision := Classify(attrs, c.rules)
	c.entries[id] = cacheEntry{decision: decision, title: attrs.Title, subrole: attrs.Subrole}
	return decision
}

// Invalidate drops the cached entry for id, e.g. on window destruction.
func (c *Cache) Invalidate(id accessport.WindowID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Rules returns the rule set currently installed in the cache.
func (c *Cache) Rules() Rules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules
}
