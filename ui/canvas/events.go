package canvas

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"seg-annotator/internal/interaction"
)

// ButtonFromFyne maps a desktop mouse button.
func ButtonFromFyne(b desktop.MouseButton) interaction.Button {
	switch b {
	case desktop.MouseButtonPrimary:
		return interaction.ButtonLeft
	case desktop.MouseButtonSecondary:
		return interaction.ButtonRight
	case desktop.MouseButtonTertiary:
		return interaction.ButtonMiddle
	default:
		return interaction.ButtonNone
	}
}

// ModifiersFromFyne maps held modifier keys.
func ModifiersFromFyne(m fyne.KeyModifier) interaction.Modifier {
	var out interaction.Modifier
	if m&fyne.KeyModifierShift != 0 {
		out |= interaction.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= interaction.ModControl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= interaction.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		out |= interaction.ModSuper
	}
	return out
}

// ModifiersToFyne is the inverse of ModifiersFromFyne.
func ModifiersToFyne(m interaction.Modifier) fyne.KeyModifier {
	var out fyne.KeyModifier
	if m&interaction.ModShift != 0 {
		out |= fyne.KeyModifierShift
	}
	if m&interaction.ModControl != 0 {
		out |= fyne.KeyModifierControl
	}
	if m&interaction.ModAlt != 0 {
		out |= fyne.KeyModifierAlt
	}
	if m&interaction.ModSuper != 0 {
		out |= fyne.KeyModifierSuper
	}
	return out
}

// ShortcutFor builds the fyne shortcut for a binding that needs modifiers.
// Typed keys never carry modifiers, so these bindings only fire as shortcuts.
func ShortcutFor(b interaction.KeyBinding) *desktop.CustomShortcut {
	return &desktop.CustomShortcut{
		KeyName:  fyne.KeyName(b.Key),
		Modifier: ModifiersToFyne(b.Modifiers),
	}
}

// KeyFromShortcut maps a triggered custom shortcut back to a key event.
func KeyFromShortcut(s *desktop.CustomShortcut) interaction.KeyEvent {
	return interaction.KeyEvent{Key: interaction.Key(s.KeyName), Modifiers: ModifiersFromFyne(s.Modifier)}
}

// WheelFromFyne maps a scroll event. Scrolling up zooms in.
func WheelFromFyne(ev *fyne.ScrollEvent) interaction.WheelEvent {
	return interaction.WheelEvent{
		Pos:    viewPoint(ev.Position),
		DeltaY: float64(ev.Scrolled.DY),
	}
}

// KeyFromFyne maps a typed key. fyne key names match the labels used by
// the key bindings.
func KeyFromFyne(ev *fyne.KeyEvent) interaction.KeyEvent {
	return interaction.KeyEvent{Key: interaction.Key(ev.Name)}
}
