package config

import "sort"

// Hotkey actions.
const (
	ActionRotateForward  = "rotate_forward"
	ActionRotateBackward = "rotate_backward"
	ActionSelectMain     = "select_main"
	ActionRefresh        = "refresh"
	ActionCycleShopping  = "cycle_shopping"
	ActionCancelShopping = "cancel_shopping"
	ActionToggleSenderA  = "toggle_sender_a"
	ActionToggleSenderB  = "toggle_sender_b"
	ActionEmergencyStop  = "emergency_stop"
)

// Sender names.
const (
	SenderA = "a"
	SenderB = "b"
)

var knownActions = map[string]bool{
	ActionRotateForward:  true,
	ActionRotateBackward: true,
	ActionSelectMain:     true,
	ActionRefresh:        true,
	ActionCycleShopping:  true,
	ActionCancelShopping: true,
	ActionToggleSenderA:  true,
	ActionToggleSenderB:  true,
	ActionEmergencyStop:  true,
}

// GetHotkeys returns a copy of the action -> combo map.
func (c *Config) GetHotkeys() map[string]string {
	hotkeysCopy := make(map[string]string, len(c.hotkeys))
	for k, v := range c.hotkeys {
		hotkeysCopy[k] = v
	}
	return hotkeysCopy
}

// GetHotkey returns the combo for an action; empty means unbound.
func (c *Config) GetHotkey(action string) string {
	return c.hotkeys[action]
}

// GetSender returns the periodic sender config by name.
func (c *Config) GetSender(name string) (SenderSpec, bool) {
	s, ok := c.senders[name]
	return s, ok
}

// GetSenderNames returns sender names in a stable order.
func (c *Config) GetSenderNames() []string {
	names := make([]string, 0, len(c.senders))
	for name := range c.senders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetOneShots returns a copy of the one-shot bindings.
func (c *Config) GetOneShots() []OneShotSpec {
	return append([]OneShotSpec(nil), c.oneShots...)
}
