package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []string{"s"}, km.Sync.Keys())
	assert.Equal(t, []string{"t"}, km.Test.Keys())
	assert.Equal(t, []string{"q", "ctrl+c"}, km.Quit.Keys())
	assert.Equal(t, "sync now", km.Sync.Help().Desc)
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	var _ help.KeyMap = km
	assert.Len(t, km.ShortHelp(), 4)
	assert.Len(t, km.FullHelp(), 2)
}
