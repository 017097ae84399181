// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for labeling tracks:
//  1. [FeatureListView] : Browse declared features with their label counts
//  2. [LabelView] : Rate the next untrained track with y/n, or skip it
//  3. [DoneView] : Shown when the feature's candidate pool is exhausted
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Ratings are written straight to the catalog; the TUI holds no
// state beyond the track currently on screen.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n/s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
