package input

import (
	"fmt"
	"sync"

	"jordanella.com/aim-loop-go/internal/logging"
)

// Binding names used by the detection loop
const (
	AimBinding       = "Aim Keybind"
	SecondAimBinding = "Second Aim Keybind"
)

// KeyState reports whether a key is currently held down
type KeyState func(VirtualKey) bool

// Bindings maps named actions to keys and answers "is this action held"
type Bindings struct {
	mu    sync.RWMutex
	keys  map[string]VirtualKey
	state KeyState

	logger *logging.Logger
}

// NewBindings creates an empty binding table that polls state
func NewBindings(state KeyState) *Bindings {
	return &Bindings{
		keys:   make(map[string]VirtualKey),
		state:  state,
		logger: logging.NewLogger("Input"),
	}
}

// NewPlatformBindings creates bindings backed by the OS key state
func NewPlatformBindings() *Bindings {
	return NewBindings(PlatformKeyState())
}

// Bind assigns key to the named action
func (b *Bindings) Bind(name, key string) error {
	vk, err := ParseKey(key)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", name, err)
	}

	b.mu.Lock()
	b.keys[name] = vk
	b.mu.Unlock()

	b.logger.DebugWithContext("Key bound", map[string]interface{}{
		"binding": name,
		"key":     key,
	})
	return nil
}

// BindAim assigns both aim keys. Both are attempted even if the first fails.
func (b *Bindings) BindAim(aimKey, secondKey string) error {
	err1 := b.Bind(AimBinding, aimKey)
	err2 := b.Bind(SecondAimBinding, secondKey)
	if err1 != nil {
		return err1
	}
	return err2
}

// IsHolding reports whether the key bound to name is held. Unbound names are never held.
func (b *Bindings) IsHolding(name string) bool {
	b.mu.RLock()
	vk, ok := b.keys[name]
	b.mu.RUnlock()
	if !ok || b.state == nil {
		return false
	}
	return b.state(vk)
}
