// Package input maps GLFW keys and mouse buttons to viewer actions and tracks
// per-frame press edges.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical viewer action, not a physical key.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionFast
	ActionBreak
	ActionPlace
	ActionPause
	ActionToggleWireframe
	ActionToggleProfiling
	ActionRenderDistanceUp
	ActionRenderDistanceDown
	ActionCount
)

var defaultKeys = map[glfw.Key]Action{
	glfw.KeyW:           ActionMoveForward,
	glfw.KeyS:           ActionMoveBackward,
	glfw.KeyA:           ActionMoveLeft,
	glfw.KeyD:           ActionMoveRight,
	glfw.KeySpace:       ActionMoveUp,
	glfw.KeyLeftShift:   ActionMoveDown,
	glfw.KeyLeftControl: ActionFast,
	glfw.KeyEscape:      ActionPause,
	glfw.KeyF:           ActionToggleWireframe,
	glfw.KeyV:           ActionToggleProfiling,
	glfw.KeyEqual:       ActionRenderDistanceUp,
	glfw.KeyKPAdd:       ActionRenderDistanceUp,
	glfw.KeyMinus:       ActionRenderDistanceDown,
	glfw.KeyKPSubtract:  ActionRenderDistanceDown,
}

var defaultButtons = map[glfw.MouseButton]Action{
	glfw.MouseButtonLeft:  ActionBreak,
	glfw.MouseButtonRight: ActionPlace,
}

// InputManager holds action state fed by GLFW callbacks. Callbacks and the
// frame loop may run on different goroutines.
type InputManager struct {
	mu sync.RWMutex

	keys    map[glfw.Key]Action
	buttons map[glfw.MouseButton]Action

	held        [ActionCount]bool
	justPressed [ActionCount]bool
}

// NewInputManager creates a manager with the default bindings.
func NewInputManager() *InputManager {
	im := &InputManager{
		keys:    make(map[glfw.Key]Action, len(defaultKeys)),
		buttons: make(map[glfw.MouseButton]Action, len(defaultButtons)),
	}
	for k, a := range defaultKeys {
		im.keys[k] = a
	}
	for b, a := range defaultButtons {
		im.buttons[b] = a
	}
	return im
}

// BindKey maps key to action, replacing its previous binding. Out of range
// actions are ignored.
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	im.keys[key] = action
	im.mu.Unlock()
}

func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if act, ok := im.keys[key]; ok {
		im.set(act, action == glfw.Press || action == glfw.Repeat)
	}
}

func (im *InputManager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if act, ok := im.buttons[button]; ok {
		im.set(act, action == glfw.Press)
	}
}

// set records a press edge the moment it arrives, so a press and release
// inside one frame is still seen.
func (im *InputManager) set(act Action, pressed bool) {
	if pressed && !im.held[act] {
		im.justPressed[act] = true
	}
	im.held[act] = pressed
}

// SetCallbacks routes the window's key and mouse button events here.
func (im *InputManager) SetCallbacks(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})
}

// PostUpdate clears the press edges. Call it once at the end of each frame.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	clear(im.justPressed[:])
	im.mu.Unlock()
}

// IsActive reports whether the action is held.
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.held[action]
}

// JustPressed reports whether the action was pressed during this frame.
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justPressed[action]
}
