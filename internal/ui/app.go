package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jroimartin/gocui"

	"hubbleplay/internal/httpclient"
	"hubbleplay/internal/logger"
	"hubbleplay/internal/model"
	"hubbleplay/internal/playground"
)

const (
	viewHeader      = "header"
	viewFooter      = "footer"
	viewAPIs        = "apis"
	viewEndpoints   = "endpoints"
	viewInfo        = "info"
	viewAPIKey      = "apikey"
	viewHeaders     = "headers"
	viewMethod      = "method"
	viewURL         = "url"
	viewBody        = "body"
	viewStatus      = "status"
	viewRespHeaders = "resheaders"
	viewResponse    = "response"
)

// focusOrder is the tab cycle. The body pane is skipped while it is hidden.
var focusOrder = []string{
	viewAPIs, viewEndpoints, viewAPIKey, viewHeaders,
	viewMethod, viewURL, viewBody, viewResponse,
}

type Options struct {
	// Editor is the command used by ctrl+e.
	Editor string
	Log    *logger.Logger
}

// App is the terminal front end of a playground session.
type App struct {
	session *playground.Session
	log     *logger.Logger
	editor  string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	g      *gocui.Gui
	result httpclient.Result

	// dirty flags are set from session and exchange callbacks, which may
	// run off the GUI goroutine, and consumed by layout.
	inputsDirty atomic.Bool
	listsDirty  atomic.Bool
	resultDirty atomic.Bool

	focus     string
	apiCursor int
	filter    string
	filtered  []int
	selected  int

	pending  *pendingEdit
	errorMsg string
}

func NewApp(s *playground.Session, opts Options) *App {
	log := opts.Log
	if log == nil {
		log = logger.NewNopLogger()
	}
	editor := strings.TrimSpace(opts.Editor)
	if editor == "" {
		editor = "vi"
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		session: s,
		log:     log.WithComponent(logger.ComponentUI),
		editor:  editor,
		ctx:     ctx,
		cancel:  cancel,
		focus:   viewEndpoints,
		result:  s.Exchange().Result(),
	}

	s.OnChange(a.onSessionChange)
	s.Exchange().OnChange(a.onResult)
	return a
}

// Run blocks until the user quits. Sends still in flight are cancelled on
// return.
func (a *App) Run() error {
	defer a.cancel()

	// gocui has no suspend/resume, so running $EDITOR means leaving the
	// main loop and building a new GUI afterwards.
	for {
		g, err := gocui.NewGui(gocui.OutputNormal)
		if err != nil {
			return err
		}

		g.BgColor = gocui.ColorBlack
		g.FgColor = gocui.ColorWhite
		g.Highlight = true
		g.SelFgColor = gocui.ColorGreen
		g.Cursor = true
		g.InputEsc = true
		g.SetManagerFunc(a.layout)

		if err := a.bindKeys(g); err != nil {
			g.Close()
			return err
		}

		a.setGui(g)
		err = g.MainLoop()
		a.setGui(nil)
		g.Close()

		if p := a.pending; p != nil {
			a.pending = nil
			a.finishEdit(p)
			continue
		}

		if err != nil && err != gocui.ErrQuit {
			return err
		}
		return nil
	}
}

func (a *App) setGui(g *gocui.Gui) {
	a.mu.Lock()
	a.g = g
	a.mu.Unlock()
}

// wake schedules a redraw from any goroutine.
func (a *App) wake() {
	a.mu.Lock()
	g := a.g
	a.mu.Unlock()
	if g != nil {
		g.Update(func(*gocui.Gui) error { return nil })
	}
}

func (a *App) onSessionChange() {
	a.inputsDirty.Store(true)
	a.listsDirty.Store(true)
	a.wake()
}

// onResult runs under the exchange lock and must not call back into it.
func (a *App) onResult(r httpclient.Result) {
	a.mu.Lock()
	a.result = r
	a.mu.Unlock()
	a.resultDirty.Store(true)
	a.wake()
}

func (a *App) latestResult() httpclient.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	created := false

	mk := func(name string, x0, y0, x1, y1 int, init func(v *gocui.View)) error {
		v, err := g.SetView(name, x0, y0, x1, y1)
		if err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			init(v)
			created = true
		}
		return nil
	}

	if maxX < 60 || maxY < 24 {
		var names []string
		for _, v := range g.Views() {
			if v.Name() != viewHeader {
				names = append(names, v.Name())
			}
		}
		for _, name := range names {
			_ = g.DeleteView(name)
		}
		v, err := g.SetView(viewHeader, 0, 0, maxX-1, maxY-1)
		if err != nil && err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.Clear()
		fmt.Fprintln(v, "hubbleplay: terminal too small")
		return nil
	}

	if err := mk(viewHeader, 0, 0, maxX-1, 2, func(v *gocui.View) {
		v.Frame = false
	}); err != nil {
		return err
	}
	if v, err := g.View(viewHeader); err == nil {
		v.Clear()
		fmt.Fprintln(v, colorGreen+"hubbleplay"+colorReset+"  -  Hubble API playground")
	}

	if err := mk(viewFooter, 0, maxY-2, maxX-1, maxY, func(v *gocui.View) {
		v.Frame = false
	}); err != nil {
		return err
	}

	cat := a.session.Catalog()
	leftW := maxX / 3
	if leftW < 32 {
		leftW = 32
	}
	bottom := maxY - 3

	apisBottom := 2 + clamp(len(cat.APIs), 1, 6) + 1
	endpointsBottom := apisBottom + max((bottom-apisBottom)*2/5, 4)
	infoBottom := endpointsBottom + 4
	keyBottom := infoBottom + 2

	listView := func(title string) func(v *gocui.View) {
		return func(v *gocui.View) {
			v.Title = title
			v.Highlight = true
			v.SelFgColor = gocui.ColorBlack
			v.SelBgColor = gocui.ColorGreen
		}
	}
	if err := mk(viewAPIs, 0, 2, leftW, apisBottom, listView("API")); err != nil {
		return err
	}
	if err := mk(viewEndpoints, 0, apisBottom, leftW, endpointsBottom, listView("Endpoints")); err != nil {
		return err
	}
	if err := mk(viewInfo, 0, endpointsBottom, leftW, infoBottom, func(v *gocui.View) {
		v.Frame = false
		v.Wrap = true
	}); err != nil {
		return err
	}
	if err := mk(viewAPIKey, 0, infoBottom, leftW, keyBottom, func(v *gocui.View) {
		v.Editable = true
		v.Editor = singleLineEditor{}
	}); err != nil {
		return err
	}
	if err := mk(viewHeaders, 0, keyBottom, leftW, bottom, func(v *gocui.View) {
		v.Title = "Headers (JSON)"
		v.Editable = true
		v.Editor = gocui.DefaultEditor
	}); err != nil {
		return err
	}

	x0 := leftW + 1
	if err := mk(viewMethod, x0, 2, x0+9, 4, func(v *gocui.View) {
		v.Title = "Method"
	}); err != nil {
		return err
	}
	if err := mk(viewURL, x0+10, 2, maxX-1, 4, func(v *gocui.View) {
		v.Title = "URL"
		v.Editable = true
		v.Editor = singleLineEditor{}
	}); err != nil {
		return err
	}

	statusTop := 4
	if a.session.State().Method != model.MethodGet {
		statusTop = 4 + (bottom-4)*2/5
		if err := mk(viewBody, x0, 4, maxX-1, statusTop, func(v *gocui.View) {
			v.Title = "Body (JSON)"
			v.Editable = true
			v.Editor = gocui.DefaultEditor
		}); err != nil {
			return err
		}
	} else if _, err := g.View(viewBody); err == nil {
		_ = g.DeleteView(viewBody)
	}

	if err := mk(viewStatus, x0, statusTop, maxX-1, statusTop+2, func(v *gocui.View) {
		v.Title = "Response"
	}); err != nil {
		return err
	}
	if err := mk(viewRespHeaders, x0, statusTop+2, maxX-1, statusTop+8, func(v *gocui.View) {
		v.Title = "Response headers"
	}); err != nil {
		return err
	}
	if err := mk(viewResponse, x0, statusTop+8, maxX-1, bottom, func(v *gocui.View) {
		v.Title = "Body"
		v.Wrap = true
	}); err != nil {
		return err
	}

	if created {
		a.inputsDirty.Store(true)
		a.listsDirty.Store(true)
		a.resultDirty.Store(true)
	}
	if a.listsDirty.Swap(false) {
		a.renderLists(g)
	}
	if a.inputsDirty.Swap(false) {
		a.renderInputs(g)
	}
	if a.resultDirty.Swap(false) {
		a.renderResult(g)
	}
	a.renderFooter(g)

	if _, err := g.View(a.focus); err != nil {
		a.focus = viewMethod
	}
	if _, err := g.SetCurrentView(a.focus); err != nil {
		return err
	}
	return nil
}

func (a *App) bindKeys(g *gocui.Gui) error {
	type binding struct {
		view    string
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, a.quit},
		{"", gocui.KeyTab, a.nextFocus},
		{"", gocui.KeyCtrlR, a.send},
		{"", gocui.KeyCtrlE, a.editExternal},

		{viewAPIs, gocui.KeyArrowDown, a.moveAPI(1)},
		{viewAPIs, gocui.KeyArrowUp, a.moveAPI(-1)},
		{viewAPIs, gocui.KeyEnter, a.selectAPI},

		{viewEndpoints, gocui.KeyArrowDown, a.moveEndpoint(1)},
		{viewEndpoints, gocui.KeyArrowUp, a.moveEndpoint(-1)},
		{viewEndpoints, gocui.KeyEnter, a.selectEndpoint},
		{viewEndpoints, gocui.KeyBackspace, a.filterBackspace},
		{viewEndpoints, gocui.KeyBackspace2, a.filterBackspace},

		{viewMethod, gocui.KeyArrowLeft, a.cycleMethod(-1)},
		{viewMethod, gocui.KeyArrowRight, a.cycleMethod(1)},

		{viewAPIKey, gocui.KeyEnter, a.commitInputs},
		{viewURL, gocui.KeyEnter, a.commitInputs},

		{viewResponse, gocui.KeyArrowDown, a.scrollResponse(1)},
		{viewResponse, gocui.KeyArrowUp, a.scrollResponse(-1)},
	}
	for _, b := range bindings {
		if err := g.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	// typing in the endpoint list filters it
	for r := rune(33); r <= rune(126); r++ {
		if err := g.SetKeybinding(viewEndpoints, r, gocui.ModNone, a.appendFilterRune(r)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) quit(*gocui.Gui, *gocui.View) error { return gocui.ErrQuit }

func (a *App) nextFocus(g *gocui.Gui, _ *gocui.View) error {
	a.syncInputs(g)

	cur := 0
	for i, name := range focusOrder {
		if name == a.focus {
			cur = i
			break
		}
	}
	for i := 1; i <= len(focusOrder); i++ {
		name := focusOrder[(cur+i)%len(focusOrder)]
		if _, err := g.View(name); err == nil {
			a.focus = name
			break
		}
	}
	a.errorMsg = ""
	return nil
}

// syncInputs copies the editable panes into the session. Headers go first
// so a credential change edits what the user typed.
func (a *App) syncInputs(g *gocui.Gui) {
	st := a.session.State()

	if v, err := g.View(viewHeaders); err == nil {
		if text := viewText(v); text != st.HeadersText {
			a.session.SetHeadersText(text)
		}
	}
	if v, err := g.View(viewURL); err == nil {
		if text := strings.TrimSpace(viewText(v)); text != st.URL {
			a.session.SetURL(text)
		}
	}
	if v, err := g.View(viewBody); err == nil {
		if text := viewText(v); text != st.BodyText {
			a.session.SetBodyText(text)
		}
	}
	if v, err := g.View(viewAPIKey); err == nil {
		if key := strings.TrimSpace(viewText(v)); key != st.APIKey {
			a.session.SetAPIKey(key)
		}
	}
}

func (a *App) commitInputs(g *gocui.Gui, _ *gocui.View) error {
	a.syncInputs(g)
	return nil
}

func (a *App) send(g *gocui.Gui, _ *gocui.View) error {
	a.syncInputs(g)
	a.errorMsg = ""

	st := a.session.State()
	a.log.Debugw("send", "method", st.Method, "url", st.URL)
	go a.session.Send(a.ctx)
	return nil
}

func (a *App) editExternal(g *gocui.Gui, v *gocui.View) error {
	if v == nil || (v.Name() != viewHeaders && v.Name() != viewBody) {
		a.errorMsg = "ctrl+e edits the headers or body pane"
		return nil
	}
	a.syncInputs(g)

	st := a.session.State()
	text := st.HeadersText
	if v.Name() == viewBody {
		text = st.BodyText
	}
	file, err := writeEditFile(v.Name(), text)
	if err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	a.pending = &pendingEdit{pane: v.Name(), file: file}
	return gocui.ErrQuit
}

func (a *App) finishEdit(p *pendingEdit) {
	text, err := runExternalEditor(a.editor, p.file)
	if err != nil {
		a.log.Warnw("external editor failed", "pane", p.pane, "error", err)
		a.errorMsg = err.Error()
		return
	}
	switch p.pane {
	case viewHeaders:
		a.session.SetHeadersText(text)
	case viewBody:
		a.session.SetBodyText(text)
	}
	a.errorMsg = ""
}

func (a *App) moveAPI(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		n := len(a.session.Catalog().APIs)
		if n == 0 || v == nil {
			return nil
		}
		a.apiCursor = clamp(a.apiCursor+delta, 0, n-1)
		v.SetCursor(0, a.apiCursor)
		return nil
	}
}

func (a *App) selectAPI(g *gocui.Gui, _ *gocui.View) error {
	cat := a.session.Catalog()
	if a.apiCursor < 0 || a.apiCursor >= len(cat.APIs) {
		return nil
	}
	a.syncInputs(g)
	a.filter = ""
	if _, err := a.session.SelectAPI(cat.APIs[a.apiCursor].ID); err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	a.focus = viewEndpoints
	a.errorMsg = ""
	return nil
}

func (a *App) moveEndpoint(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		if len(a.filtered) == 0 || v == nil {
			return nil
		}
		a.selected = clamp(a.selected+delta, 0, len(a.filtered)-1)
		v.SetCursor(0, a.selected)
		return nil
	}
}

func (a *App) selectEndpoint(g *gocui.Gui, _ *gocui.View) error {
	if len(a.filtered) == 0 {
		return nil
	}
	api, ok := a.activeAPI()
	if !ok {
		return nil
	}
	a.syncInputs(g)
	ep := api.Endpoints[a.filtered[a.selected]]
	if _, err := a.session.SelectEndpoint(ep.ID); err != nil {
		a.errorMsg = err.Error()
		return nil
	}
	a.errorMsg = ""
	return nil
}

func (a *App) appendFilterRune(r rune) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		a.filter += string(r)
		a.refreshEndpoints(g)
		return nil
	}
}

func (a *App) filterBackspace(g *gocui.Gui, _ *gocui.View) error {
	if a.filter == "" {
		return nil
	}
	a.filter = a.filter[:len(a.filter)-1]
	a.refreshEndpoints(g)
	return nil
}

func (a *App) cycleMethod(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, _ *gocui.View) error {
		a.syncInputs(g)
		m := nextMethod(a.session.State().Method, delta)
		if err := a.session.SetMethod(m); err != nil {
			a.errorMsg = err.Error()
			return nil
		}
		a.renderMethod(g)
		return nil
	}
}

func (a *App) scrollResponse(delta int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		if v == nil {
			return nil
		}
		v.Autoscroll = false
		ox, oy := v.Origin()
		if delta > 0 {
			v.SetOrigin(ox, oy+1)
		} else if oy > 0 {
			v.SetOrigin(ox, oy-1)
		}
		return nil
	}
}

func (a *App) activeAPI() (*model.APIConfig, bool) {
	return a.session.Catalog().API(a.session.Selection().APIID)
}

func (a *App) renderLists(g *gocui.Gui) {
	cat := a.session.Catalog()
	sel := a.session.Selection()

	if v, err := g.View(viewAPIs); err == nil {
		v.Clear()
		for i, api := range cat.APIs {
			marker := "  "
			if api.ID == sel.APIID {
				marker = "* "
				a.apiCursor = i
			}
			fmt.Fprintf(v, "%s%s\n", marker, api.Label)
		}
		v.SetCursor(0, a.apiCursor)
	}

	a.refreshEndpoints(g)
	for i, idx := range a.filtered {
		if api, ok := a.activeAPI(); ok && api.Endpoints[idx].ID == sel.EndpointID {
			a.selected = i
		}
	}
	if v, err := g.View(viewEndpoints); err == nil {
		v.SetCursor(0, a.selected)
	}

	if v, err := g.View(viewInfo); err == nil {
		v.Clear()
		fmt.Fprint(v, endpointInfo(a.session.Endpoint()))
	}
	if v, err := g.View(viewAPIKey); err == nil {
		v.Title = a.session.Active().APIKeyHeaderName
	}
}

func (a *App) refreshEndpoints(g *gocui.Gui) {
	api, ok := a.activeAPI()
	if !ok {
		a.filtered = nil
		return
	}
	a.filtered = filterEndpoints(api.Endpoints, a.filter)
	if a.selected >= len(a.filtered) {
		a.selected = 0
	}

	v, err := g.View(viewEndpoints)
	if err != nil {
		return
	}
	v.Title = "Endpoints"
	if a.filter != "" {
		v.Title = "Endpoints /" + a.filter
	}
	v.Clear()

	active := a.session.Selection().EndpointID
	for _, idx := range a.filtered {
		ep := api.Endpoints[idx]
		marker := "  "
		if ep.ID == active {
			marker = "* "
		}
		fmt.Fprintf(v, "%s%s %s\n", marker, colorizeMethod(ep.Method), ep.Path)
	}
	v.SetCursor(0, a.selected)
}

func (a *App) renderInputs(g *gocui.Gui) {
	st := a.session.State()

	setText := func(name, text string, singleLine bool) {
		v, err := g.View(name)
		if err != nil {
			return
		}
		v.Clear()
		v.SetOrigin(0, 0)
		fmt.Fprint(v, text)
		if singleLine {
			v.SetCursor(len([]rune(text)), 0)
		} else {
			v.SetCursor(0, 0)
		}
	}
	setText(viewAPIKey, st.APIKey, true)
	setText(viewURL, st.URL, true)
	setText(viewHeaders, st.HeadersText, false)
	setText(viewBody, st.BodyText, false)
	a.renderMethod(g)
}

func (a *App) renderMethod(g *gocui.Gui) {
	if v, err := g.View(viewMethod); err == nil {
		v.Clear()
		fmt.Fprint(v, colorizeMethod(a.session.State().Method))
	}
}

func (a *App) renderResult(g *gocui.Gui) {
	r := a.latestResult()

	if v, err := g.View(viewStatus); err == nil {
		v.Clear()
		fmt.Fprint(v, statusText(r))
	}
	if v, err := g.View(viewRespHeaders); err == nil {
		v.Clear()
		fmt.Fprint(v, r.HeadersText())
	}
	if v, err := g.View(viewResponse); err == nil {
		v.Clear()
		switch r.State {
		case httpclient.StateSending:
			v.Autoscroll = false
			v.SetOrigin(0, 0)
		case httpclient.StateStreaming:
			v.Autoscroll = true
		}
		fmt.Fprint(v, r.Body)
	}
}

func (a *App) renderFooter(g *gocui.Gui) {
	v, err := g.View(viewFooter)
	if err != nil {
		return
	}
	v.Clear()

	msg := a.errorMsg
	if msg != "" {
		fmt.Fprint(v, colorRed+msg+colorReset)
		return
	}
	switch a.focus {
	case viewAPIs:
		msg = "up/down: move   enter: select api"
	case viewEndpoints:
		msg = "type: filter   up/down: move   enter: select endpoint"
	case viewMethod:
		msg = "left/right: change method"
	case viewHeaders, viewBody:
		msg = "ctrl+e: open in $EDITOR"
	case viewResponse:
		msg = "up/down: scroll"
	}
	fmt.Fprint(v, msg+"   tab: next pane   ctrl+r: send   ctrl+c: quit")
}

func viewText(v *gocui.View) string {
	// gocui includes a trailing newline
	return strings.TrimSuffix(v.Buffer(), "\n")
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
