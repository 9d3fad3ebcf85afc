package shell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/status"
)

func newTestShell(t *testing.T, opts Options) (*Shell, *HeadlessNative) {
	t.Helper()
	native := NewHeadlessNative()
	return New(native, opts), native
}

func TestLocalQueries(t *testing.T) {
	s, native := newTestShell(t, Options{})

	assert.Equal(t, "en", s.Language())
	assert.Equal(t, "/AppSupport", s.ApplicationSupportDirectory())
	assert.Empty(t, native.Calls())

	custom := New(native, Options{Language: "it", AppSupportDir: "/Users/me/Library/Application Support/appshell/"})
	assert.Equal(t, "it", custom.Language())
	assert.Equal(t, "/Users/me/Library/Application Support/appshell", custom.ApplicationSupportDirectory())
}

func TestElapsedMilliseconds(t *testing.T) {
	s, _ := newTestShell(t, Options{})
	first := s.ElapsedMilliseconds()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, s.ElapsedMilliseconds(), first+5)
}

func TestShowOpenDialogDefaults(t *testing.T) {
	s, native := newTestShell(t, Options{})

	var code status.Code
	var selection []string
	s.ShowOpenDialog(true, false, "", "", []string{"js", "html", "css"}, func(c status.Code, files []string) {
		code, selection = c, files
	})
	s.Wait()

	assert.Equal(t, status.OK, code)
	assert.NotNil(t, selection)
	assert.Empty(t, selection)

	calls := native.CallsTo(MethodShowOpenDialog)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{true, false, "Open", "", "js html css"}, calls[0].Args)
}

func TestShowOpenDialogKeepsTitle(t *testing.T) {
	s, native := newTestShell(t, Options{})
	native.SetReply(MethodShowOpenDialog, int(status.OK), []string{"/a.txt", "/b.txt"})

	var selection []string
	s.ShowOpenDialog(false, true, "Pick a folder", "/samples", nil, func(_ status.Code, files []string) {
		selection = files
	})
	s.Wait()

	assert.Equal(t, []string{"/a.txt", "/b.txt"}, selection)
	calls := native.CallsTo(MethodShowOpenDialog)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{false, true, "Pick a folder", "/samples", ""}, calls[0].Args)
}

func TestShowSaveDialogDefaults(t *testing.T) {
	s, native := newTestShell(t, Options{})

	var code status.Code
	s.ShowSaveDialog("", "", "", func(c status.Code, _ string) { code = c })
	s.Wait()

	assert.Equal(t, status.OK, code)
	calls := native.CallsTo(MethodShowSaveDialog)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"Save As", "", ""}, calls[0].Args)
}

func TestDialogsAreDeferred(t *testing.T) {
	s, native := newTestShell(t, Options{})

	s.ShowSaveDialog("Save", "/", "untitled.js", nil)
	assert.Empty(t, native.CallsTo(MethodShowSaveDialog))

	s.Wait()
	assert.Len(t, native.CallsTo(MethodShowSaveDialog), 1)
}

func TestIsNetworkDrive(t *testing.T) {
	s, native := newTestShell(t, Options{})

	called := false
	s.IsNetworkDrive("/samples", func(code status.Code, remote bool) {
		called = true
		assert.Equal(t, status.OK, code)
		assert.False(t, remote)
	})

	assert.True(t, called)
	assert.Equal(t, []Call{{Method: MethodIsNetworkDrive, Args: []any{"/samples"}}}, native.Calls())
}

func TestGetProcessStateNotYetStarted(t *testing.T) {
	s, native := newTestShell(t, Options{})

	var code status.ProcessCode
	s.GetProcessState(func(c status.ProcessCode, _ int) { code = c })
	assert.Equal(t, status.ErrProcessNotYetStarted, code)

	native.SetReply(MethodGetProcessState, int(status.ProcessOK), 8123)
	var port int
	s.GetProcessState(func(c status.ProcessCode, p int) { code, port = c, p })
	assert.Equal(t, status.ProcessOK, code)
	assert.Equal(t, 8123, port)
}

func TestFileListQueries(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		raw      any
		wantCode status.Code
		want     []string
	}{
		{name: "json array", code: 0, raw: `["/a.js","/b c.js"]`, wantCode: status.OK, want: []string{"/a.js", "/b c.js"}},
		{name: "empty string", code: 0, raw: "", wantCode: status.OK, want: []string{}},
		{name: "missing value", code: 0, raw: nil, wantCode: status.OK, want: []string{}},
		{name: "error code", code: int(status.ErrUnknown), raw: `["/ignored"]`, wantCode: status.ErrUnknown, want: []string{}},
		{name: "malformed", code: 0, raw: `{not json`, wantCode: status.ErrUnknown, want: []string{}},
	}

	for _, method := range []Method{MethodGetPendingFilesToOpen, MethodGetDroppedFiles} {
		for _, tt := range tests {
			t.Run(string(method)+"/"+tt.name, func(t *testing.T) {
				s, native := newTestShell(t, Options{})
				native.SetReply(method, tt.code, tt.raw)

				var code status.Code
				var files []string
				cb := func(c status.Code, f []string) { code, files = c, f }
				if method == MethodGetPendingFilesToOpen {
					s.GetPendingFilesToOpen(cb)
				} else {
					s.GetDroppedFiles(cb)
				}

				assert.Equal(t, tt.wantCode, code)
				assert.Equal(t, tt.want, files)
			})
		}
	}
}

func TestFileListDefaultIsEmpty(t *testing.T) {
	s, _ := newTestShell(t, Options{})

	var files []string
	s.GetDroppedFiles(func(_ status.Code, f []string) { files = f })
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestMenuOptionalArguments(t *testing.T) {
	s, native := newTestShell(t, Options{})

	s.AddMenu("File", "file", "", "", nil)
	s.AddMenuItem("file", "Open", "file.open", "", "", "", "", nil)
	s.AddMenuItem("file", "Save", "file.save", "Cmd-S", "", "after", "file.open", nil)

	calls := native.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []any{"File", "file", "", ""}, calls[0].Args)
	assert.Equal(t, []any{"file", "Open", "file.open", "", "", "", ""}, calls[1].Args)
	assert.Equal(t, []any{"file", "Save", "file.save", "Cmd-S", "", "after", "file.open"}, calls[2].Args)
}

func TestMenuQueries(t *testing.T) {
	s, native := newTestShell(t, Options{})

	var code status.Code
	var index int
	s.GetMenuPosition("file.open", func(c status.Code, parent string, i int) {
		code, index = c, i
		assert.Empty(t, parent)
	})
	assert.Equal(t, status.ErrNotFound, code)
	assert.Equal(t, -1, index)

	native.SetReply(MethodGetMenuItemState, int(status.OK), true, false)
	s.GetMenuItemState("file.open", func(c status.Code, enabled, checked bool) {
		assert.Equal(t, status.OK, c)
		assert.True(t, enabled)
		assert.False(t, checked)
	})

	native.SetReply(MethodGetMenuTitle, int(status.OK), "Open…")
	s.GetMenuTitle("file.open", func(c status.Code, title string) {
		assert.Equal(t, status.OK, c)
		assert.Equal(t, "Open…", title)
	})

	native.SetReply(MethodGetMenuPosition, int(status.OK), "file", 2)
	s.GetMenuPosition("file.open", func(c status.Code, parent string, i int) {
		assert.Equal(t, status.OK, c)
		assert.Equal(t, "file", parent)
		assert.Equal(t, 2, i)
	})
}

func TestMenuMutationsForwardArguments(t *testing.T) {
	s, native := newTestShell(t, Options{})

	var codes []status.Code
	record := func(c status.Code) { codes = append(codes, c) }

	s.SetMenuItemState("edit.undo", false, true, record)
	s.SetMenuTitle("edit", "Edit", record)
	s.SetMenuItemShortcut("edit.undo", "Cmd-Z", "", record)
	s.RemoveMenuItem("edit.undo", record)
	s.RemoveMenu("edit", record)

	assert.Equal(t, []status.Code{status.OK, status.OK, status.OK, status.OK, status.OK}, codes)
	assert.Equal(t, []Call{
		{Method: MethodSetMenuItemState, Args: []any{"edit.undo", false, true}},
		{Method: MethodSetMenuTitle, Args: []any{"edit", "Edit"}},
		{Method: MethodSetMenuItemShortcut, Args: []any{"edit.undo", "Cmd-Z", ""}},
		{Method: MethodRemoveMenuItem, Args: []any{"edit.undo"}},
		{Method: MethodRemoveMenu, Args: []any{"edit"}},
	}, native.Calls())
}

func TestShowExtensionsFolder(t *testing.T) {
	s, native := newTestShell(t, Options{})

	s.ShowExtensionsFolder(nil)

	calls := native.CallsTo(MethodShowOSFolder)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"/AppSupport/extensions"}, calls[0].Args)
}

func TestFireAndForgetCalls(t *testing.T) {
	s, native := newTestShell(t, Options{})

	s.Quit()
	s.AbortQuit()
	s.ShowDeveloperTools()
	s.DragWindow()
	s.CloseLiveBrowser(nil)
	s.OpenURLInDefaultBrowser("https://example.com", nil)
	s.OpenLiveBrowser("http://localhost:8000/index.html", true, nil)
	s.Wait()

	var methods []Method
	for _, c := range native.Calls() {
		methods = append(methods, c.Method)
	}
	assert.Equal(t, []Method{
		MethodQuitApplication,
		MethodAbortQuit,
		MethodShowDeveloperTools,
		MethodDragWindow,
		MethodCloseLiveBrowser,
		MethodOpenURLInDefaultBrowser,
		MethodOpenLiveBrowser,
	}, methods)
	assert.Equal(t, []any{"http://localhost:8000/index.html", true}, native.CallsTo(MethodOpenLiveBrowser)[0].Args)
}

func TestRemoteDebuggingPort(t *testing.T) {
	s, native := newTestShell(t, Options{})
	native.SetReply(MethodGetRemoteDebuggingPort, int(status.OK), 9234)

	var port int
	s.GetRemoteDebuggingPort(func(_ status.Code, p int) { port = p })
	assert.Equal(t, 9234, port)
}
