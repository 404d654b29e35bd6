//go:build darwin

package input

import "golang.design/x/hotkey"

// On macOS "alt" is Option and "super" is Command
func modAlt() hotkey.Modifier   { return hotkey.ModOption }
func modSuper() hotkey.Modifier { return hotkey.ModCmd }
