package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	cases := map[string]VirtualKey{
		"Right":    KeyRightButton,
		"LMenu":    KeyLMenu,
		"XButton2": KeyXButton2,
		"f":        0x46,
		"D4":       0x34,
		"7":        0x37,
		"F1":       0x70,
		"F12":      0x7B,
	}
	for name, want := range cases {
		got, err := ParseKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, bad := range []string{"", "F0", "F25", "Banana"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestBindingsPollKeyState(t *testing.T) {
	held := map[VirtualKey]bool{KeyRightButton: true}
	b := NewBindings(func(vk VirtualKey) bool { return held[vk] })

	require.NoError(t, b.BindAim("Right", "LMenu"))
	assert.True(t, b.IsHolding(AimBinding))
	assert.False(t, b.IsHolding(SecondAimBinding))

	held[KeyLMenu] = true
	assert.True(t, b.IsHolding(SecondAimBinding))
}

func TestUnboundNameIsNeverHeld(t *testing.T) {
	b := NewBindings(func(VirtualKey) bool { return true })
	assert.False(t, b.IsHolding(AimBinding))
}

func TestBindAimKeepsValidKey(t *testing.T) {
	b := NewBindings(func(VirtualKey) bool { return true })

	err := b.BindAim("Nope", "LMenu")
	assert.Error(t, err)
	assert.False(t, b.IsHolding(AimBinding))
	assert.True(t, b.IsHolding(SecondAimBinding))
}
