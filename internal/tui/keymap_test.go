package tui

import "testing"

// TestKeyMapApplyOverrides verifies configured key overrides rebind the map.
func TestKeyMapApplyOverrides(t *testing.T) {
	k := newKeyMap().applyOverrides(KeyOverrides{
		ToggleFold:  "ctrl+f",
		CollapseAll: "ctrl+a",
		ShowFeed:    "ctrl+o",
		YankTask:    "ctrl+k",
		Help:        "f2",
	})

	assertKeys := func(name string, got []string, expected string) {
		t.Helper()
		if len(got) != 1 || got[0] != expected {
			t.Fatalf("%s keys = %#v, want [%s]", name, got, expected)
		}
	}

	assertKeys("toggle fold", k.toggleFold.Keys(), "ctrl+f")
	assertKeys("collapse all", k.collapseAll.Keys(), "ctrl+a")
	assertKeys("show feed", k.showFeed.Keys(), "ctrl+o")
	assertKeys("yank task", k.yankTask.Keys(), "ctrl+k")
	assertKeys("help", k.toggleHelp.Keys(), "f2")
}

// TestKeyMapBlankOverridesKeepDefaults verifies empty overrides are ignored.
func TestKeyMapBlankOverridesKeepDefaults(t *testing.T) {
	k := newKeyMap().applyOverrides(KeyOverrides{})

	if got := k.toggleFold.Keys(); len(got) != 1 || got[0] != "ctrl+t" {
		t.Fatalf("toggle fold keys = %#v", got)
	}
	if got := k.showFeed.Keys(); len(got) != 1 || got[0] != "ctrl+g" {
		t.Fatalf("show feed keys = %#v", got)
	}
	if got := k.toggleHelp.Keys(); len(got) != 1 || got[0] != "f1" {
		t.Fatalf("help keys = %#v", got)
	}
}
