//go:build windows

package source

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"keyscribe/internal/keycode"
	"keyscribe/internal/translate"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	llkhfInjected = 0x10

	hcAction = 0
)

// kbdllHookStruct matches the Win32 KBDLLHOOKSTRUCT layout.
type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msgStruct struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

// The hook callback is registered once per process and dispatches to
// whichever HookSource is active. NewCallback allocations are never
// released, so one shared callback is the only safe shape.
var (
	activeHookMu sync.Mutex
	activeHook   *HookSource

	hookCallbackOnce sync.Once
	hookCallbackPtr  uintptr
)

func hookCallback() uintptr {
	hookCallbackOnce.Do(func() {
		hookCallbackPtr = windows.NewCallback(hookProc)
	})
	return hookCallbackPtr
}

func hookProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))

		// Skip synthetic input from SendInput and friends; only
		// hardware keystrokes count as typing.
		if kb.Flags&llkhfInjected == 0 {
			var dir translate.Direction
			deliver := true
			switch uint32(wParam) {
			case wmKeyDown, wmSysKeyDown:
				dir = translate.Down
			case wmKeyUp, wmSysKeyUp:
				dir = translate.Up
			default:
				deliver = false
			}

			if deliver {
				activeHookMu.Lock()
				h := activeHook
				activeHookMu.Unlock()
				if h != nil {
					// The callback runs under the system's low-level
					// hook timeout. A blocking send here would freeze
					// keyboard input for every application.
					h.TryEmit(translate.KeyEvent{
						Code:      keycode.Code(kb.VkCode),
						Direction: dir,
						Time:      time.Now(),
					})
				}
			}
		}
	}

	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

// HookSource captures keystrokes system-wide through a Windows
// low-level keyboard hook. The hook observes and always passes events
// through; input is never blocked or modified.
type HookSource struct {
	BaseSource

	mu       sync.Mutex
	threadID uint32
	done     chan struct{}
}

// NewHook creates a low-level keyboard hook source.
func NewHook() *HookSource {
	return &HookSource{}
}

// Available checks that user32 is loadable. Hooks only receive input
// in an interactive desktop session.
func (h *HookSource) Available() (bool, string) {
	if err := user32.Load(); err != nil {
		return false, fmt.Sprintf("user32.dll unavailable: %v", err)
	}
	return true, "low-level keyboard hook"
}

// Start installs the hook on a dedicated OS thread and pumps its
// message loop.
func (h *HookSource) Start(ctx context.Context) error {
	if h.IsRunning() {
		return ErrAlreadyRunning
	}

	activeHookMu.Lock()
	if activeHook != nil {
		activeHookMu.Unlock()
		return ErrAlreadyRunning
	}
	activeHook = h
	activeHookMu.Unlock()

	h.done = make(chan struct{})
	h.ResetEvents(512)

	startErr := make(chan error, 1)
	go h.run(startErr)

	if err := <-startErr; err != nil {
		h.clearActive()
		h.CloseEvents()
		return err
	}

	h.SetRunning(true)

	// Tear the hook down if the context ends first.
	go func() {
		select {
		case <-ctx.Done():
			h.Stop()
		case <-h.done:
		}
	}()

	return nil
}

// run owns the hook for its whole lifetime. A low-level hook only
// works on the thread that installed it, so everything happens here
// with the OS thread locked.
func (h *HookSource) run(startErr chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)
	defer h.CloseEvents()

	h.mu.Lock()
	h.threadID = windows.GetCurrentThreadId()
	h.mu.Unlock()

	hhook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookCallback(), 0, 0)
	if hhook == 0 {
		startErr <- fmt.Errorf("SetWindowsHookExW: %w", err)
		return
	}
	startErr <- nil

	var msg msgStruct
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		// 0 means WM_QUIT, -1 means error. Either way the hook is done.
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(hhook)
}

func (h *HookSource) clearActive() {
	activeHookMu.Lock()
	if activeHook == h {
		activeHook = nil
	}
	activeHookMu.Unlock()
}

// Stop posts WM_QUIT to the hook thread and waits for it to unwind.
func (h *HookSource) Stop() error {
	if !h.IsRunning() {
		return nil
	}

	h.mu.Lock()
	threadID := h.threadID
	h.mu.Unlock()

	if threadID != 0 {
		procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	}
	if h.done != nil {
		<-h.done
	}

	h.clearActive()
	h.SetRunning(false)
	return nil
}
