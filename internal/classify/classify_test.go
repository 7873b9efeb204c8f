package classify

import "testing"

func baseTileableAttrs() Attrs {
	return Attrs{
		Subrole:   standardSubrole,
		Width:     800,
		Height:    600,
		Resizable: true,
	}
}

func TestClassifyTilesAnOrdinaryResizableWindow(t *testing.T) {
	if got := Classify(baseTileableAttrs(), Rules{}); got != Tile {
		t.Fatalf("Classify() = %v, want Tile", got)
	}
}

func TestClassifyFloatsOverride(t *testing.T) {
	a := baseTileableAttrs()
	a.IsFloatingOverride = true
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsMinimizedWindow(t *testing.T) {
	a := baseTileableAttrs()
	a.Minimized = true
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsConfiguredBundleID(t *testing.T) {
	a := baseTileableAttrs()
	a.BundleID = "org.example.picker"
	rules := Rules{FloatingBundleIDs: map[string]bool{"org.example.picker": true}}
	if got := Classify(a, rules); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsNonStandardSubrole(t *testing.T) {
	a := baseTileableAttrs()
	a.Subrole = "dialog"
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsModalWindow(t *testing.T) {
	a := baseTileableAttrs()
	a.Modal = true
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsTinyWindow(t *testing.T) {
	a := baseTileableAttrs()
	a.Width, a.Height = 200, 200
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsWideShortAutocompletePopup(t *testing.T) {
	a := baseTileableAttrs()
	a.Width, a.Height = 400, 100
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsTitlePatternCaseInsensitive(t *testing.T) {
	a := baseTileableAttrs()
	a.Title = "App — Preferences"
	rules := Rules{FloatingTitlePatterns: []string{"preferences"}}
	if got := Classify(a, rules); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestClassifyFloatsNonResizableWindow(t *testing.T) {
	a := baseTileableAttrs()
	a.Resizable = false
	if got := Classify(a, Rules{}); got != Float {
		t.Fatalf("Classify() = %v, want Float", got)
	}
}

func TestCacheReusesDecisionUntilTitleOrSubroleChanges(t *testing.T) {
	c := NewCache(Rules{})
	a := baseTileableAttrs()
	a.Title = "first"

	if got := c.Classify(1, a); got != Tile {
		t.Fatalf("first classify = %v, want Tile", got)
	}

	// Mutate attrs in a way that would change the verdict; cache should
	// still return the memoized Tile decision since title/subrole match.
	stale := a
	stale.Width, stale.Height = 10, 10
	if got := c.Classify(1, stale); got != Tile {
		t.Fatalf("cached classify = %v, want Tile (stale hit)", got)
	}

	// A title change invalidates the entry and recomputes.
	a.Title = "second"
	a.Width, a.Height = 10, 10
	if got := c.Classify(1, a); got != Float {
		t.Fatalf("classify after title change = %v, want Float", got)
	}
}

func TestCacheSetRulesInvalidatesEveryEntry(t *testing.T) {
	c := NewCache(Rules{})
	a := baseTileableAttrs()
	if got := c.Classify(1, a); got != Tile {
		t.Fatalf("initial classify = %v, want Tile", got)
	}

	c.SetRules(Rules{FloatNewWindows: true})
	a.IsFloatingOverride = true
	if got := c.Classify(1, a); got != Float {
		t.Fatalf("classify after SetRules = %v, want Float", got)
	}
}
