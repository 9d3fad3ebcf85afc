package shell

import (
	"github.com/skratchdot/open-golang/open"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/status"
)

// DesktopNative hands URLs and folders to the OS default handler and
// delegates every other method to a fallback Native.
type DesktopNative struct {
	fallback Native

	// opener launches the default handler for a URL or path.
	opener func(input string) error
}

// NewDesktopNative creates a DesktopNative. A nil fallback answers like
// HeadlessNative.
func NewDesktopNative(fallback Native) *DesktopNative {
	if fallback == nil {
		fallback = NewHeadlessNative()
	}
	return &DesktopNative{fallback: fallback, opener: open.Run}
}

// Invoke implements Native.
func (d *DesktopNative) Invoke(method Method, cb Callback, args ...any) {
	switch method {
	case MethodOpenURLInDefaultBrowser, MethodOpenLiveBrowser, MethodShowOSFolder:
		cb(d.launch(method, args))
	default:
		d.fallback.Invoke(method, cb, args...)
	}
}

func (d *DesktopNative) launch(method Method, args []any) int {
	target := stringAt(args, 0)
	if target == "" {
		logger.Warn("%s: missing target", method)
		return int(status.ErrInvalidParams)
	}
	if err := d.opener(target); err != nil {
		logger.Error("%s: failed to open %q: %v", method, target, err)
		return int(status.ErrUnknown)
	}
	logger.Debug("%s: opened %q", method, target)
	return int(status.OK)
}
