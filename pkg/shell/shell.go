// Package shell exposes the host-shell operations (dialogs, menus, browser
// and process control) that have no storage behind them.
//
// Every operation normalises its optional arguments and forwards to one
// Native call point. Two pure-data queries, Language and
// ApplicationSupportDirectory, are answered locally.
package shell

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/status"
)

const (
	// DefaultLanguage is reported when the host does not override it.
	DefaultLanguage = "en"

	// DefaultAppSupportDir is the application-support path reported when
	// the host does not override it.
	DefaultAppSupportDir = "/AppSupport"

	defaultOpenTitle = "Open"
	defaultSaveTitle = "Save As"

	// dialogDelay defers dialogs so they never open inside the caller's
	// own call stack.
	dialogDelay = 10 * time.Millisecond
)

// Options configures a Shell.
type Options struct {
	// Language is the user's UI language (default "en").
	Language string

	// AppSupportDir is the application-support directory (default "/AppSupport").
	AppSupportDir string
}

// Shell is the host-shell facade.
type Shell struct {
	native        Native
	language      string
	appSupportDir string
	started       time.Time

	// deferred tracks dialogs and browser launches still pending.
	deferred sync.WaitGroup
}

// New creates a Shell forwarding to native.
func New(native Native, opts Options) *Shell {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.AppSupportDir == "" {
		opts.AppSupportDir = DefaultAppSupportDir
	}
	return &Shell{
		native:        native,
		language:      opts.Language,
		appSupportDir: strings.TrimSuffix(opts.AppSupportDir, "/"),
		started:       time.Now(),
	}
}

// Wait blocks until every deferred call has been forwarded and answered.
func (s *Shell) Wait() {
	s.deferred.Wait()
}

// ============================================================================
// Local queries
// ============================================================================

// Language returns the user's UI language.
func (s *Shell) Language() string {
	return s.language
}

// ApplicationSupportDirectory returns the full path of the application
// support directory.
func (s *Shell) ApplicationSupportDirectory() string {
	return s.appSupportDir
}

// ElapsedMilliseconds returns the time since the shell was created.
func (s *Shell) ElapsedMilliseconds() int64 {
	return time.Since(s.started).Milliseconds()
}

// ============================================================================
// Dialogs
// ============================================================================

// ShowOpenDialog asks the host to let the user pick files or directories.
// fileTypes are extensions without the dot; they are ignored when
// chooseDirectory is set.
func (s *Shell) ShowOpenDialog(allowMultiple, chooseDirectory bool, title, initialPath string, fileTypes []string, cb func(status.Code, []string)) {
	if title == "" {
		title = defaultOpenTitle
	}
	s.later(dialogDelay, func() {
		s.native.Invoke(MethodShowOpenDialog, func(code int, values ...any) {
			if cb != nil {
				cb(status.Code(code), stringsAt(values, 0))
			}
		}, allowMultiple, chooseDirectory, title, initialPath, strings.Join(fileTypes, " "))
	})
}

// ShowSaveDialog asks the host for a path to save to.
func (s *Shell) ShowSaveDialog(title, initialPath, proposedName string, cb func(status.Code, string)) {
	if title == "" {
		title = defaultSaveTitle
	}
	s.later(dialogDelay, func() {
		s.native.Invoke(MethodShowSaveDialog, func(code int, values ...any) {
			if cb != nil {
				cb(status.Code(code), stringAt(values, 0))
			}
		}, title, initialPath, proposedName)
	})
}

// IsNetworkDrive reports whether path lives on a mapped network drive.
func (s *Shell) IsNetworkDrive(path string, cb func(status.Code, bool)) {
	s.native.Invoke(MethodIsNetworkDrive, func(code int, values ...any) {
		if cb != nil {
			cb(status.Code(code), boolAt(values, 0))
		}
	}, path)
}

// ============================================================================
// Application lifecycle
// ============================================================================

// Quit quits the host application.
func (s *Shell) Quit() {
	s.native.Invoke(MethodQuitApplication, ignore)
}

// AbortQuit cancels a quit in progress.
func (s *Shell) AbortQuit() {
	s.native.Invoke(MethodAbortQuit, ignore)
}

// ShowDeveloperTools opens the host's developer tools.
func (s *Shell) ShowDeveloperTools() {
	s.native.Invoke(MethodShowDeveloperTools, ignore)
}

// DragWindow starts dragging the main window.
func (s *Shell) DragWindow() {
	s.native.Invoke(MethodDragWindow, ignore)
}

// GetProcessState reports the state of the host's background process and,
// once it is running, its TCP port.
func (s *Shell) GetProcessState(cb func(status.ProcessCode, int)) {
	s.native.Invoke(MethodGetProcessState, func(code int, values ...any) {
		if cb != nil {
			cb(status.ProcessCode(code), intAt(values, 0))
		}
	})
}

// GetRemoteDebuggingPort reports the host's remote debugging port.
func (s *Shell) GetRemoteDebuggingPort(cb func(status.Code, int)) {
	s.native.Invoke(MethodGetRemoteDebuggingPort, func(code int, values ...any) {
		if cb != nil {
			cb(status.Code(code), intAt(values, 0))
		}
	})
}

// GetPendingFilesToOpen returns the files passed to the host at startup.
func (s *Shell) GetPendingFilesToOpen(cb func(status.Code, []string)) {
	s.native.Invoke(MethodGetPendingFilesToOpen, fileListCallback(MethodGetPendingFilesToOpen, cb))
}

// GetDroppedFiles returns the files and folders dropped onto the host.
func (s *Shell) GetDroppedFiles(cb func(status.Code, []string)) {
	s.native.Invoke(MethodGetDroppedFiles, fileListCallback(MethodGetDroppedFiles, cb))
}

// fileListCallback decodes the JSON array the host answers file queries
// with. A failure or an empty answer yields an empty list.
func fileListCallback(method Method, cb func(status.Code, []string)) Callback {
	return func(code int, values ...any) {
		if cb == nil {
			return
		}
		files := []string{}
		raw := stringAt(values, 0)
		if code != int(status.OK) || raw == "" {
			cb(status.Code(code), files)
			return
		}
		if err := json.Unmarshal([]byte(raw), &files); err != nil {
			logger.Warn("%s: malformed file list from host: %v", method, err)
			cb(status.ErrUnknown, []string{})
			return
		}
		cb(status.OK, files)
	}
}

// ============================================================================
// Browser
// ============================================================================

// OpenLiveBrowser launches the live-preview browser on url.
func (s *Shell) OpenLiveBrowser(url string, enableRemoteDebugging bool, cb func(status.Code)) {
	s.later(0, func() {
		s.native.Invoke(MethodOpenLiveBrowser, codeCallback(cb), url, enableRemoteDebugging)
	})
}

// CloseLiveBrowser asks the live-preview browser to close.
func (s *Shell) CloseLiveBrowser(cb func(status.Code)) {
	s.native.Invoke(MethodCloseLiveBrowser, codeCallback(cb))
}

// OpenURLInDefaultBrowser opens url with the OS default browser.
func (s *Shell) OpenURLInDefaultBrowser(url string, cb func(status.Code)) {
	s.native.Invoke(MethodOpenURLInDefaultBrowser, codeCallback(cb), url)
}

// ShowOSFolder opens path in an OS file window.
func (s *Shell) ShowOSFolder(path string, cb func(status.Code)) {
	s.native.Invoke(MethodShowOSFolder, codeCallback(cb), path)
}

// ShowExtensionsFolder opens the user extensions folder in an OS file window.
func (s *Shell) ShowExtensionsFolder(cb func(status.Code)) {
	s.ShowOSFolder(s.appSupportDir+"/extensions", cb)
}

// ============================================================================
// Menus
// ============================================================================

// SetMenuItemState sets the enabled and checked state of a menu item.
func (s *Shell) SetMenuItemState(commandID string, enabled, checked bool, cb func(status.Code)) {
	s.native.Invoke(MethodSetMenuItemState, codeCallback(cb), commandID, enabled, checked)
}

// GetMenuItemState returns the enabled and checked state of a menu item.
func (s *Shell) GetMenuItemState(commandID string, cb func(code status.Code, enabled, checked bool)) {
	s.native.Invoke(MethodGetMenuItemState, func(code int, values ...any) {
		if cb != nil {
			cb(status.Code(code), boolAt(values, 0), boolAt(values, 1))
		}
	}, commandID)
}

// AddMenu adds a top-level menu. position is one of "before", "after",
// "first", "last" or "" and relativeID anchors "before"/"after".
func (s *Shell) AddMenu(title, id, position, relativeID string, cb func(status.Code)) {
	s.native.Invoke(MethodAddMenu, codeCallback(cb), title, id, position, relativeID)
}

// AddMenuItem adds an item to menu parentID. An empty displayStr shows key.
func (s *Shell) AddMenuItem(parentID, title, id, key, displayStr, position, relativeID string, cb func(status.Code)) {
	s.native.Invoke(MethodAddMenuItem, codeCallback(cb), parentID, title, id, key, displayStr, position, relativeID)
}

// SetMenuTitle changes the title of a menu or menu item.
func (s *Shell) SetMenuTitle(commandID, title string, cb func(status.Code)) {
	s.native.Invoke(MethodSetMenuTitle, codeCallback(cb), commandID, title)
}

// GetMenuTitle returns the title of a menu or menu item.
func (s *Shell) GetMenuTitle(commandID string, cb func(status.Code, string)) {
	s.native.Invoke(MethodGetMenuTitle, func(code int, values ...any) {
		if cb != nil {
			cb(status.Code(code), stringAt(values, 0))
		}
	}, commandID)
}

// SetMenuItemShortcut changes the shortcut of a menu item.
func (s *Shell) SetMenuItemShortcut(commandID, shortcut, displayStr string, cb func(status.Code)) {
	s.native.Invoke(MethodSetMenuItemShortcut, codeCallback(cb), commandID, shortcut, displayStr)
}

// RemoveMenu removes a top-level menu.
func (s *Shell) RemoveMenu(commandID string, cb func(status.Code)) {
	s.native.Invoke(MethodRemoveMenu, codeCallback(cb), commandID)
}

// RemoveMenuItem removes a menu item.
func (s *Shell) RemoveMenuItem(commandID string, cb func(status.Code)) {
	s.native.Invoke(MethodRemoveMenuItem, codeCallback(cb), commandID)
}

// GetMenuPosition returns the parent and index of a menu or menu item.
// Top-level menus have an empty parent; the index is -1 when not found.
func (s *Shell) GetMenuPosition(commandID string, cb func(code status.Code, parentID string, index int)) {
	s.native.Invoke(MethodGetMenuPosition, func(code int, values ...any) {
		if cb == nil {
			return
		}
		index := -1
		if len(values) > 1 {
			index = intAt(values, 1)
		}
		cb(status.Code(code), stringAt(values, 0), index)
	}, commandID)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Shell) later(delay time.Duration, fn func()) {
	s.deferred.Add(1)
	go func() {
		defer s.deferred.Done()
		if delay > 0 {
			time.Sleep(delay)
		}
		fn()
	}()
}

func ignore(int, ...any) {}

func codeCallback(cb func(status.Code)) Callback {
	if cb == nil {
		return ignore
	}
	return func(code int, _ ...any) { cb(status.Code(code)) }
}

func stringAt(values []any, i int) string {
	if i < len(values) {
		if v, ok := values[i].(string); ok {
			return v
		}
	}
	return ""
}

func boolAt(values []any, i int) bool {
	if i < len(values) {
		if v, ok := values[i].(bool); ok {
			return v
		}
	}
	return false
}

func intAt(values []any, i int) int {
	if i < len(values) {
		if v, ok := values[i].(int); ok {
			return v
		}
	}
	return 0
}

func stringsAt(values []any, i int) []string {
	if i < len(values) {
		if v, ok := values[i].([]string); ok {
			return v
		}
	}
	return []string{}
}
