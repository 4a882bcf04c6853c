// Package wayland adapts github.com/bnema/wayland-virtual-input-go's
// zwlr_virtual_pointer_v1 / zwp_virtual_keyboard_v1 clients to
// backend.InputBackend, grounded in the teacher's
// api/pkg/desktop/wayland_input.go. The wire protocol carries absolute
// (x, y) (spec.md §4.7); the Wayland virtual pointer only accepts
// relative motion, so Input tracks the last known position itself and
// sends the delta, the same trick wayland_input.go's
// MouseMoveAbsolute plays.
package wayland

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/wayland-virtual-input-go/virtual_keyboard"
	"github.com/bnema/wayland-virtual-input-go/virtual_pointer"

	"github.com/helixml/streamctl/internal/wire"
)

// Input is a backend.InputBackend backed by Wayland virtual input
// protocols. No /dev/uinput or root privileges required.
type Input struct {
	pointerManager  *virtual_pointer.VirtualPointerManager
	pointer         *virtual_pointer.VirtualPointer
	keyboardManager *virtual_keyboard.VirtualKeyboardManager
	keyboard        *virtual_keyboard.VirtualKeyboard

	mu     sync.Mutex
	closed bool

	curX, curY float64
	haveCur    bool
}

// New connects to the compositor and creates one virtual pointer and
// one virtual keyboard device.
func New() (*Input, error) {
	ctx := context.Background()

	pm, err := virtual_pointer.NewVirtualPointerManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("wayland: create pointer manager: %w", err)
	}
	pointer, err := pm.CreatePointer()
	if err != nil {
		pm.Close()
		return nil, fmt.Errorf("wayland: create pointer: %w", err)
	}
	km, err := virtual_keyboard.NewVirtualKeyboardManager(ctx)
	if err != nil {
		pointer.Close()
		pm.Close()
		return nil, fmt.Errorf("wayland: create keyboard manager: %w", err)
	}
	keyboard, err := km.CreateKeyboard()
	if err != nil {
		km.Close()
		pointer.Close()
		pm.Close()
		return nil, fmt.Errorf("wayland: create keyboard: %w", err)
	}

	return &Input{
		pointerManager:  pm,
		pointer:         pointer,
		keyboardManager: km,
		keyboard:        keyboard,
	}, nil
}

// Close releases all virtual input devices.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closed = true

	var first error
	record := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	record(in.keyboard.Close())
	record(in.keyboardManager.Close())
	record(in.pointer.Close())
	record(in.pointerManager.Close())
	return first
}

// MouseMove moves the pointer to the absolute position (x, y).
func (in *Input) MouseMove(x, y uint32) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}

	target := [2]float64{float64(x), float64(y)}
	if !in.haveCur {
		in.curX, in.curY = target[0], target[1]
		in.haveCur = true
		// Nothing to send on the very first fix: there's no prior
		// position to compute a delta from.
		return nil
	}

	dx, dy := target[0]-in.curX, target[1]-in.curY
	in.curX, in.curY = target[0], target[1]
	if dx != 0 || dy != 0 {
		in.pointer.MoveRelative(dx, dy)
	}
	return nil
}

func (in *Input) button(b wire.MouseButton) (uint32, bool) {
	switch b {
	case wire.ButtonLeft:
		return virtual_pointer.BTN_LEFT, true
	case wire.ButtonRight:
		return virtual_pointer.BTN_RIGHT, true
	default:
		return 0, false
	}
}

// MouseDown presses button at (x, y). Wheel "buttons" are not a press
// target (spec.md §4.7: wheel events drive Scroll instead) and are a
// no-op here.
func (in *Input) MouseDown(x, y uint32, b wire.MouseButton) error {
	if err := in.MouseMove(x, y); err != nil {
		return err
	}
	btn, ok := in.button(b)
	if !ok {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.pointer.Button(time.Now(), btn, virtual_pointer.BUTTON_STATE_PRESSED)
	in.pointer.Frame()
	return nil
}

// MouseUp releases button at (x, y).
func (in *Input) MouseUp(x, y uint32, b wire.MouseButton) error {
	if err := in.MouseMove(x, y); err != nil {
		return err
	}
	btn, ok := in.button(b)
	if !ok {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.pointer.Button(time.Now(), btn, virtual_pointer.BUTTON_STATE_RELEASED)
	in.pointer.Frame()
	return nil
}

// Scroll emits one vertical scroll tick of the given signed magnitude
// at (x, y) (spec.md §4.7: WHEEL_UP/WHEEL_DOWN drive Scroll, not
// MouseDown/Up).
func (in *Input) Scroll(delta int32, x, y uint32) error {
	if err := in.MouseMove(x, y); err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.pointer.ScrollVertical(float64(delta))
	in.pointer.Frame()
	return nil
}

// KeyDown presses the named key. An unrecognized name is silently
// dropped: KeyDown returns nil without sending anything (spec.md §4.7,
// §7 "InputBackendError": backend errors never reach the wire peer).
func (in *Input) KeyDown(name string) error {
	code, ok := evdevCode(name)
	if !ok {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	return in.keyboard.Key(time.Now(), code, virtual_keyboard.KeyStatePressed)
}

// KeyUp releases the named key.
func (in *Input) KeyUp(name string) error {
	code, ok := evdevCode(name)
	if !ok {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	return in.keyboard.Key(time.Now(), code, virtual_keyboard.KeyStateReleased)
}
