// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"seg-annotator/internal/app"
	"seg-annotator/internal/interaction"
	"seg-annotator/internal/version"
	"seg-annotator/ui/canvas"
	"seg-annotator/ui/panels"
	"seg-annotator/ui/prefs"
)

const title = "Segmentation Annotator"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	prefs   *prefs.Prefs
	log     *logrus.Entry

	shell     *interaction.Shell
	canvas    *canvas.AnnotationCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	imageSelect *widget.Select
	modeSelect  *widget.Select
	buttons     map[interaction.Action]*widget.Button

	// syncing suppresses widget callbacks while the window mirrors state.
	syncing bool
	// exit ends the application; replaced in tests.
	exit func()
}

// New creates the main window around an open session.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs, log *logrus.Entry) *MainWindow {
	win := fyneApp.NewWindow(title)

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
		log:     log.WithField("component", "mainwindow"),
		buttons: make(map[interaction.Action]*widget.Button),
	}
	mw.exit = mw.app.Quit

	mw.canvas = canvas.NewAnnotationCanvas(nil)
	cv := interaction.NewCanvas(session, mw.canvas, log)
	mw.canvas.SetViewport(cv.Viewport())
	mw.shell = interaction.NewShell(session, cv, mw, mw.requestQuit, log)
	mw.canvas.SetHandler(mw.shell)

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()
	mw.SetCloseIntercept(mw.requestQuit)

	w, h := session.Config.Window.Width, session.Config.Window.Height
	w = p.Int(prefs.KeyWindowWidth, w)
	h = p.Int(prefs.KeyWindowHeight, h)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))

	return mw
}

// Start shows the first image and restores the previous session's choices.
func (mw *MainWindow) Start() {
	_ = mw.shell.Start()
	mw.restorePrefs()
}

// Shell returns the action dispatcher.
func (mw *MainWindow) Shell() *interaction.Shell {
	return mw.shell
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")

	mw.sidePanel = panels.NewSidePanel(mw.session.Categories(),
		func(name string) {
			if mw.syncing {
				return
			}
			if mw.shell.SelectCategory(name) == nil {
				mw.prefs.SetString(prefs.KeyCategory, name)
			}
		},
		func(status string) {
			if mw.syncing {
				return
			}
			_ = mw.shell.SelectReviewStatus(status)
		},
	)

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	split := container.NewHSplit(mw.sidePanel.Container(), canvasArea)
	split.SetOffset(0.18)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)
	mw.SetContent(content)
}

// createToolbar creates the action buttons and the image and mode pickers.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	row := container.NewHBox()
	for _, a := range interaction.ToolbarActions {
		btn := widget.NewButton(a.String(), func() { mw.dispatch(a) })
		mw.buttons[a] = btn
		row.Add(btn)
	}

	n := mw.session.NumImages()
	options := make([]string, n)
	for i := range options {
		options[i] = strconv.Itoa(i + 1)
	}
	mw.imageSelect = widget.NewSelect(options, func(s string) {
		if mw.syncing {
			return
		}
		if idx, err := strconv.Atoi(s); err == nil {
			_ = mw.shell.JumpTo(idx)
		}
	})

	modes := make([]string, len(interaction.Modes))
	for i, m := range interaction.Modes {
		modes[i] = string(m)
	}
	mw.modeSelect = widget.NewSelect(modes, func(s string) {
		if err := mw.shell.SetMode(s); err != nil {
			return
		}
		mode := interaction.Mode(s)
		mw.canvas.SetBrush(mode.Strokes(), mw.session.Config.BrushRadius)
		if !mw.syncing {
			mw.prefs.SetString(prefs.KeyMode, s)
		}
	})
	mw.syncing = true
	mw.modeSelect.SetSelected(string(interaction.ModePoint))
	mw.syncing = false

	row.Add(widget.NewSeparator())
	row.Add(widget.NewLabel("Image:"))
	row.Add(mw.imageSelect)
	row.Add(widget.NewLabel("Mode:"))
	row.Add(mw.modeSelect)
	return container.NewHScroll(row)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Save Annotations", func() { mw.dispatch(interaction.ActionSave) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.dispatch(interaction.ActionQuit) }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Add Annotation", func() { mw.dispatch(interaction.ActionAdd) }),
		fyne.NewMenuItem("Reset", func() { mw.dispatch(interaction.ActionReset) }),
		fyne.NewMenuItem("Delete Annotations", func() { mw.dispatch(interaction.ActionDeleteAnnotations) }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Reset Zoom", mw.canvas.ResetView),
		fyne.NewMenuItem("Toggle Overlay", func() { mw.dispatch(interaction.ActionToggle) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Previous Image", func() { mw.dispatch(interaction.ActionPrev) }),
		fyne.NewMenuItem("Next Image", func() { mw.dispatch(interaction.ActionNext) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Keyboard Shortcuts", mw.onShortcuts),
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupKeys routes typed keys through the shell's bindings. Bindings with
// modifiers become shortcuts since typed-key events carry none.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedKey(mw.onTypedKey)
	for _, b := range interaction.KeyBindings {
		if b.Modifiers == 0 {
			continue
		}
		mw.Canvas().AddShortcut(canvas.ShortcutFor(b), mw.onKeyShortcut)
	}
}

func (mw *MainWindow) onKeyShortcut(s fyne.Shortcut) {
	cs, ok := s.(*desktop.CustomShortcut)
	if !ok {
		return
	}
	if a, ok := interaction.LookupKey(canvas.KeyFromShortcut(cs)); ok {
		mw.dispatch(a)
	}
}

func (mw *MainWindow) onTypedKey(ev *fyne.KeyEvent) {
	a, ok := interaction.LookupKey(canvas.KeyFromFyne(ev))
	if !ok {
		return
	}
	mw.dispatch(a)
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventImageChanged, func(data interface{}) {
		if idx, ok := data.(int); ok {
			mw.prefs.SetInt(prefs.KeyLastImage, idx)
		}
	})
	mw.session.On(app.EventModified, func(data interface{}) {
		if modified, _ := data.(bool); modified {
			mw.SetTitle(title + " *")
		} else {
			mw.SetTitle(title)
		}
	})
	mw.session.On(app.EventSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.log.WithField("file", filepath.Base(path)).Debug("Store written")
		}
	})
}

// dispatch runs an action and surfaces save failures in a dialog.
func (mw *MainWindow) dispatch(a interaction.Action) {
	err := mw.shell.Dispatch(a)
	if err != nil && a == interaction.ActionSave {
		dialog.ShowError(err, mw.Window)
	}
}

// SetStatus implements interaction.StatusSink and mirrors the editor's
// state into the pickers.
func (mw *MainWindow) SetStatus(text string) {
	mw.statusBar.SetText(text)

	prev := mw.syncing
	mw.syncing = true
	defer func() { mw.syncing = prev }()
	if sel := strconv.Itoa(mw.session.ImageID() + 1); mw.imageSelect.Selected != sel {
		mw.imageSelect.SetSelected(sel)
	}
	mw.sidePanel.Review.SetStatus(mw.session.StatusName())
}

// StatusText returns the status bar text.
func (mw *MainWindow) StatusText() string {
	return mw.statusBar.Text
}

// restorePrefs applies the mode, category and image of the last run.
func (mw *MainWindow) restorePrefs() {
	if mode := mw.prefs.String(prefs.KeyMode); mode != "" {
		if _, err := interaction.ParseMode(mode); err == nil {
			mw.modeSelect.SetSelected(mode)
		}
	}

	cat := mw.prefs.String(prefs.KeyCategory)
	if cat == "" || !mw.sidePanel.Categories.Select(cat) {
		if cats := mw.session.Categories(); len(cats) > 0 {
			mw.sidePanel.Categories.Select(cats[0].Name)
		}
	}

	dir, err := filepath.Abs(mw.session.Dataset.Dir())
	if err != nil || mw.prefs.String(prefs.KeyLastDataset) != dir {
		mw.prefs.SetString(prefs.KeyLastDataset, dir)
		return
	}
	if last := mw.prefs.Int(prefs.KeyLastImage, 0); last > 0 && last < mw.session.NumImages() {
		_ = mw.shell.JumpTo(last + 1)
	}
}

// savePrefs stores what restorePrefs reads back.
func (mw *MainWindow) savePrefs() {
	mw.prefs.SetFloat(prefs.KeyTransparency, mw.session.Transparency())
	mw.prefs.SetInt(prefs.KeyLastImage, mw.session.ImageID())
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetInt(prefs.KeyWindowWidth, int(size.Width))
		mw.prefs.SetInt(prefs.KeyWindowHeight, int(size.Height))
	}
	if err := mw.prefs.Save(); err != nil {
		mw.log.WithError(err).Warn("Failed to save preferences")
	}
}

// requestQuit closes the application, asking first when annotations are
// unsaved.
func (mw *MainWindow) requestQuit() {
	if !mw.session.Modified() {
		mw.quit()
		return
	}
	dialog.ShowConfirm("Unsaved annotations",
		"Annotations have changed since the last save. Quit anyway?",
		func(ok bool) {
			if ok {
				mw.quit()
			}
		}, mw.Window)
}

func (mw *MainWindow) quit() {
	mw.savePrefs()
	mw.exit()
}

func (mw *MainWindow) onShortcuts() {
	text := ""
	for _, b := range interaction.KeyBindings {
		key := string(b.Key)
		if b.Modifiers&interaction.ModControl != 0 {
			key = "Ctrl+" + key
		}
		text += fmt.Sprintf("%-8s %s\n", key, b.Action)
	}
	text += "\nLeft click: positive point\nRight click: negative point\nWheel: zoom at cursor"
	dialog.ShowInformation("Keyboard Shortcuts", text, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+title,
		fmt.Sprintf("%s v%s\n\n"+
			"Interactive segmentation mask annotation.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			title, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
