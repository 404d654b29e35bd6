package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

// HotkeyManager turns a global hotkey into record/stop presses
type HotkeyManager struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	presses int
	onPress func()
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHotkeyManager creates a manager that calls onPress on every keydown
func NewHotkeyManager(onPress func()) *HotkeyManager {
	return &HotkeyManager{
		onPress: onPress,
		done:    make(chan struct{}),
	}
}

// Start registers the hotkey and begins listening
func (h *HotkeyManager) Start(ctx context.Context, hotkeyStr string) error {
	binding, err := ParseBinding(hotkeyStr)
	if err != nil {
		return fmt.Errorf("invalid hotkey: %w", err)
	}

	h.hk = hotkey.New(binding.modifiers(), keyCodes[binding.Key])
	if err := h.hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", binding, err)
	}

	ctx, h.cancel = context.WithCancel(ctx)

	go func() {
		defer close(h.done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-h.hk.Keydown():
				if !ok {
					return
				}
				h.mu.Lock()
				h.presses++
				h.mu.Unlock()

				if h.onPress != nil {
					h.onPress()
				}
			}
		}
	}()

	return nil
}

// Stop unregisters the hotkey
func (h *HotkeyManager) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.hk != nil {
		_ = h.hk.Unregister()
	}
	if h.done != nil {
		select {
		case <-h.done:
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Presses returns how many keydowns were seen
func (h *HotkeyManager) Presses() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presses
}

// Binding is a parsed hotkey like "ctrl+shift+r"
type Binding struct {
	Modifiers []string // canonical names: ctrl, shift, alt, super
	Key       string
}

func (b Binding) String() string {
	return strings.Join(append(append([]string{}, b.Modifiers...), b.Key), "+")
}

func (b Binding) modifiers() []hotkey.Modifier {
	mods := make([]hotkey.Modifier, 0, len(b.Modifiers))
	for _, m := range b.Modifiers {
		switch m {
		case "ctrl":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "alt":
			mods = append(mods, modAlt())
		case "super":
			mods = append(mods, modSuper())
		}
	}
	return mods
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"cmd":     "super",
	"command": "super",
	"super":   "super",
	"win":     "super",
}

var keyAliases = map[string]string{
	"enter":    "return",
	"esc":      "escape",
	"spacebar": "space",
}

var keyCodes = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "return": hotkey.KeyReturn, "tab": hotkey.KeyTab, "escape": hotkey.KeyEscape,
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD, "e": hotkey.KeyE,
	"f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI, "j": hotkey.KeyJ,
	"k": hotkey.KeyK, "l": hotkey.KeyL, "m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX, "y": hotkey.KeyY,
	"z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
	"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// ParseBinding parses a hotkey string like "Ctrl+Shift+R". Modifier
// order is normalized and duplicates are dropped.
func ParseBinding(s string) (Binding, error) {
	if strings.TrimSpace(s) == "" {
		return Binding{}, fmt.Errorf("empty hotkey string")
	}

	var b Binding
	seen := make(map[string]bool)
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Binding{}, fmt.Errorf("malformed hotkey %q", s)
		}
		if mod, ok := modifierAliases[part]; ok {
			seen[mod] = true
			continue
		}
		if b.Key != "" {
			return Binding{}, fmt.Errorf("multiple keys specified")
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		if _, ok := keyCodes[part]; !ok {
			return Binding{}, fmt.Errorf("unknown key: %s", part)
		}
		b.Key = part
	}

	if b.Key == "" {
		return Binding{}, fmt.Errorf("no key specified")
	}
	for _, mod := range []string{"ctrl", "shift", "alt", "super"} {
		if seen[mod] {
			b.Modifiers = append(b.Modifiers, mod)
		}
	}
	return b, nil
}
