package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = featureItem{}
)

// featureItem wraps a declared feature to implement [list.Item].
type featureItem struct {
	name   string
	labels int
}

func (i featureItem) FilterValue() string { return i.name }
func (i featureItem) Title() string       { return i.name }
func (i featureItem) Description() string {
	if i.labels == 1 {
		return "1 label"
	}
	return fmt.Sprintf("%d labels", i.labels)
}
