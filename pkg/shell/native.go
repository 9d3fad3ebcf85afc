package shell

// Method names a native shell entry point.
type Method string

const (
	MethodShowOpenDialog          Method = "ShowOpenDialog"
	MethodShowSaveDialog          Method = "ShowSaveDialog"
	MethodIsNetworkDrive          Method = "IsNetworkDrive"
	MethodQuitApplication         Method = "QuitApplication"
	MethodAbortQuit               Method = "AbortQuit"
	MethodShowDeveloperTools      Method = "ShowDeveloperTools"
	MethodGetProcessState         Method = "GetProcessState"
	MethodOpenLiveBrowser         Method = "OpenLiveBrowser"
	MethodCloseLiveBrowser        Method = "CloseLiveBrowser"
	MethodOpenURLInDefaultBrowser Method = "OpenURLInDefaultBrowser"
	MethodGetPendingFilesToOpen   Method = "GetPendingFilesToOpen"
	MethodGetDroppedFiles         Method = "GetDroppedFiles"
	MethodGetRemoteDebuggingPort  Method = "GetRemoteDebuggingPort"
	MethodSetMenuItemState        Method = "SetMenuItemState"
	MethodGetMenuItemState        Method = "GetMenuItemState"
	MethodAddMenu                 Method = "AddMenu"
	MethodAddMenuItem             Method = "AddMenuItem"
	MethodSetMenuTitle            Method = "SetMenuTitle"
	MethodGetMenuTitle            Method = "GetMenuTitle"
	MethodSetMenuItemShortcut     Method = "SetMenuItemShortcut"
	MethodRemoveMenu              Method = "RemoveMenu"
	MethodRemoveMenuItem          Method = "RemoveMenuItem"
	MethodGetMenuPosition         Method = "GetMenuPosition"
	MethodShowOSFolder            Method = "ShowOSFolder"
	MethodDragWindow              Method = "DragWindow"
)

// Callback receives the outcome of a native call.
//
// code is a status.Code for every method except GetProcessState, which
// answers with a status.ProcessCode. values are the method-specific results
// in the order the method documents them.
type Callback func(code int, values ...any)

// Native is the single call point into the host.
//
// Implementations must invoke cb exactly once per call. cb is never nil:
// Shell substitutes a no-op for callers that pass none. Invoke may answer
// synchronously or from another goroutine.
type Native interface {
	Invoke(method Method, cb Callback, args ...any)
}

// Call is one recorded native invocation.
type Call struct {
	Method Method
	Args   []any
}
