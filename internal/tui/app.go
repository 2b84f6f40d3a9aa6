// Package tui provides the interactive Bubble Tea dashboard for worktime.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/worktime/internal/aggregate"
	"github.com/theirongolddev/worktime/internal/cli"
	"github.com/theirongolddev/worktime/internal/config"
	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/reminder"
	"github.com/theirongolddev/worktime/internal/report"
	"github.com/theirongolddev/worktime/internal/tracker"
	"github.com/theirongolddev/worktime/internal/tui/components"
	"github.com/theirongolddev/worktime/internal/tui/theme"
)

const (
	tabToday = iota
	tabDays
	tabWeeks
	tabMonths
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	chartHeight      = 8
	actionTimeout    = 10 * time.Second
)

// Options configures NewApp.
type Options struct {
	Tracker   *tracker.Tracker
	Workspace string
	Calendar  aggregate.Calendar
	Reminders []reminder.Reminder
	Display   config.DisplayConfig
	// SaveInterval flushes pending intervals periodically; zero disables it.
	SaveInterval time.Duration
	// Setup shows the first-run form before the dashboard. The answers are
	// saved with SaveConfig.
	Setup      bool
	Config     config.Config
	SaveConfig func(config.Config) error
	Now        func() time.Time
}

type tickMsg struct{ at time.Time }

// actionMsg reports the outcome of a tracker operation run off the UI loop.
type actionMsg struct {
	notice string
	saved  bool
	err    error
}

// App is the root Bubble Tea model.
type App struct {
	tr        *tracker.Tracker
	workspace string
	cal       aggregate.Calendar
	sched     *reminder.Schedule
	display   config.DisplayConfig
	saveEvery time.Duration
	now       func() time.Time

	counters   tracker.Counters
	ivs        []interval.Interval
	wasRunning bool
	lastSave   time.Time
	flushing   bool
	notice     string
	noticeErr  bool

	table table.Model
	help  help.Model
	keys  keyMap

	width     int
	height    int
	activeTab int

	setupForm  *huh.Form
	setupVals  *SetupValues
	cfg        config.Config
	saveConfig func(config.Config) error
}

// NewApp builds the dashboard over an opened tracker.
func NewApp(opts Options) App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	tbl := table.New(table.WithFocused(true), table.WithHeight(8))
	tbl.SetStyles(tableStyles())

	a := App{
		tr:         opts.Tracker,
		workspace:  opts.Workspace,
		cal:        opts.Calendar,
		sched:      reminder.NewSchedule(opts.Reminders, now()),
		display:    opts.Display,
		saveEvery:  opts.SaveInterval,
		now:        now,
		lastSave:   now(),
		table:      tbl,
		help:       help.New(),
		keys:       defaultKeys(),
		cfg:        opts.Config,
		saveConfig: opts.SaveConfig,
	}
	if opts.Setup {
		a.setupVals = SetupValuesFrom(opts.Config)
		a.setupForm = NewSetupForm(a.setupVals)
	}
	a.refresh(now())
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion, tickCmd()}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{at: t}
	})
}

// refresh recomputes counters, reminder state and the active table.
func (a *App) refresh(now time.Time) {
	a.counters = a.tr.Counters(a.workspace)
	switch {
	case !a.counters.Running:
		a.sched.Stopped(now)
	case !a.wasRunning:
		a.sched.Resumed(now)
	}
	a.wasRunning = a.counters.Running
	for _, ev := range a.sched.Tick(now) {
		if ev.Kind != reminder.Countdown || ev.Reminder.ShowCountdown {
			a.notice, a.noticeErr = ev.Message(), false
		}
	}

	a.ivs = a.tr.All()
	a.fillTable(now)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		a.width, a.height = ws.Width, ws.Height
		a.table.SetHeight(a.tableHeight())
		a.fillTable(a.now())
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(ws.Width).WithHeight(ws.Height)
		}
		return a, nil
	}

	if a.setupForm != nil {
		if _, ok := msg.(tickMsg); !ok {
			return a.updateSetupForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tickMsg:
		a.refresh(msg.at)
		cmds := []tea.Cmd{tickCmd()}
		if a.dueForSave(msg.at) {
			a.flushing = true
			cmds = append(cmds, a.flushCmd())
		}
		return a, tea.Batch(cmds...)

	case actionMsg:
		a.flushing = false
		if msg.err != nil {
			a.notice, a.noticeErr = msg.err.Error(), true
		} else {
			a.notice, a.noticeErr = msg.notice, false
		}
		if msg.saved && msg.err == nil {
			a.lastSave = a.now()
		}
		a.refresh(a.now())
		return a, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.table.MoveUp(1)
		case tea.MouseButtonWheelDown:
			a.table.MoveDown(1)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.setTab(tab)
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
			return a, nil
		case key.Matches(msg, a.keys.Toggle):
			return a, a.toggleCmd()
		case key.Matches(msg, a.keys.Flush):
			return a, a.flushCmd()
		case key.Matches(msg, a.keys.Reload):
			return a, a.reloadCmd()
		case key.Matches(msg, a.keys.NextTab):
			a.setTab((a.activeTab + 1) % len(components.Tabs))
			return a, nil
		case key.Matches(msg, a.keys.PrevTab):
			a.setTab((a.activeTab + len(components.Tabs) - 1) % len(components.Tabs))
			return a, nil
		}
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			if tab := components.TabIdxByKey(msg.Runes[0]); tab >= 0 {
				a.setTab(tab)
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
		return a, tea.Quit
	}

	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupVals.Apply(&a.cfg)
		theme.SetActive(a.cfg.Display.Theme)
		a.table.SetStyles(tableStyles())
		if a.saveConfig != nil {
			if err := a.saveConfig(a.cfg); err != nil {
				a.notice, a.noticeErr = fmt.Sprintf("config not saved: %v", err), true
			} else {
				a.notice, a.noticeErr = "setup saved", false
			}
		}
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) dueForSave(now time.Time) bool {
	return a.saveEvery > 0 && !a.flushing && a.tr.Pending() > 0 && now.Sub(a.lastSave) >= a.saveEvery
}

func (a App) action(fn func(ctx context.Context) actionMsg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func (a App) toggleCmd() tea.Cmd {
	tr, ws := a.tr, a.workspace
	return a.action(func(ctx context.Context) actionMsg {
		running, err := tr.Toggle(ctx, interval.NewLabels(ws))
		if err != nil {
			return actionMsg{err: err}
		}
		if running {
			return actionMsg{notice: "tracking " + ws}
		}
		return actionMsg{notice: "stopped"}
	})
}

func (a App) flushCmd() tea.Cmd {
	tr := a.tr
	return a.action(func(ctx context.Context) actionMsg {
		if err := tr.Flush(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("save: %w", err)}
		}
		return actionMsg{notice: "saved", saved: true}
	})
}

func (a App) reloadCmd() tea.Cmd {
	tr := a.tr
	return a.action(func(ctx context.Context) actionMsg {
		if err := tr.Reload(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("reload: %w", err)}
		}
		return actionMsg{notice: "reloaded"}
	})
}

func (a *App) setTab(i int) {
	if i == a.activeTab {
		return
	}
	a.activeTab = i
	a.table.SetCursor(0)
	a.fillTable(a.now())
}

// tabAtX returns the tab index under column x, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) tableHeight() int {
	// tab bar, cards, chart or reminder, status bar and help.
	used := 1 + 4 + chartHeight + 3 + 2
	return max(3, a.height-used)
}

func tableStyles() table.Styles {
	t := theme.Active
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.TextMuted).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary)
	s.Selected = s.Selected.Foreground(t.AccentBright).Bold(true)
	return s
}

// fillTable loads the active tab's rows into the table.
func (a *App) fillTable(now time.Time) {
	cols, rows := a.tableData(now)
	if w := a.contentWidth(); w > 0 {
		fitColumns(cols, w)
	}
	a.table.SetRows(nil)
	a.table.SetColumns(cols)
	a.table.SetRows(rows)
}

func (a App) tableData(now time.Time) ([]table.Column, []table.Row) {
	if a.activeTab == tabToday {
		day := a.cal.StartOfDay(now)
		next := a.cal.Next(aggregate.Day, day)
		today := interval.CropManyToRange(a.ivs, day.UnixMilli(), next.UnixMilli())

		cols := []table.Column{{Title: "Workspace", Width: 30}, {Title: "Time", Width: 12}, {Title: "Share", Width: 8}}
		var rows []table.Row
		for _, d := range report.Daily(today, a.cal) {
			if d.Total == 0 {
				continue
			}
			for _, ws := range d.Workspaces {
				rows = append(rows, table.Row{
					ws.Workspace,
					cli.FormatDuration(ws.Duration),
					cli.FormatPercent(float64(ws.Duration) / float64(d.Total)),
				})
			}
		}
		return cols, rows
	}

	unit, n := a.tabUnit()
	series := report.Series(a.ivs, unit, "", n, now, a.cal)
	cols := []table.Column{{Title: periodTitle(unit), Width: 16}, {Title: "Time", Width: 12}, {Title: "Top workspace", Width: 30}}
	rows := make([]table.Row, 0, len(series))
	for i := len(series) - 1; i >= 0; i-- {
		b := series[i]
		top, topD := "", int64(0)
		for l, d := range b.PerLabel {
			if d > topD || (d == topD && l < top) {
				top, topD = l, d
			}
		}
		rows = append(rows, table.Row{periodLabel(unit, b.Start), cli.FormatDuration(b.Total), top})
	}
	return cols, rows
}

func (a App) tabUnit() (aggregate.Unit, int) {
	switch a.activeTab {
	case tabWeeks:
		return aggregate.Week, 12
	case tabMonths:
		return aggregate.Month, 12
	}
	return aggregate.Day, 14
}

// fitColumns stretches the last column so the table spans width.
func fitColumns(cols []table.Column, width int) {
	used := 0
	for _, c := range cols[:len(cols)-1] {
		used += c.Width + 2
	}
	cols[len(cols)-1].Width = max(8, width-used-2)
}

func periodTitle(u aggregate.Unit) string {
	switch u {
	case aggregate.Week:
		return "Week of"
	case aggregate.Month:
		return "Month"
	}
	return "Day"
}

func periodLabel(u aggregate.Unit, start time.Time) string {
	switch u {
	case aggregate.Week:
		return start.Format("2006-01-02")
	case aggregate.Month:
		return start.Format("2006 Jan")
	}
	return cli.FormatDay(start)
}

func chartLabel(u aggregate.Unit, start time.Time) string {
	switch u {
	case aggregate.Week:
		return start.Format("01/02")
	case aggregate.Month:
		return start.Format("Jan")
	}
	return start.Format("02")
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  worktime needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}

	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	var body []string
	body = append(body, components.MetricCardRow(a.metrics(), cw))
	if a.activeTab == tabToday {
		if bar := a.reminderView(cw); bar != "" {
			body = append(body, bar)
		}
	} else {
		body = append(body, a.chartView(cw))
	}
	body = append(body, a.table.View())
	content := lipgloss.JoinVertical(lipgloss.Left, body...)
	content = lipgloss.Place(w, lipgloss.Height(content), lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	hints := a.help.View(a.keys)
	status := components.RenderStatusBar(w, a.noticeView(), a.saveInfo())

	out := lipgloss.JoinVertical(lipgloss.Left, header, content, status, hints)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, out,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// metrics builds the counter cards the display settings ask for.
func (a App) metrics() []components.Metric {
	t := theme.Active
	c := a.counters

	state := components.Metric{Label: "Stopped", Value: "■ idle", Highlight: t.Stopped}
	if c.Running {
		state = components.Metric{
			Label:     "Tracking",
			Value:     "● " + cli.FormatDuration(c.Elapsed),
			Note:      c.Labels.String(),
			Highlight: t.Running,
		}
	}
	ms := []components.Metric{state}
	if a.display.ShowTotalTime {
		ms = append(ms, components.Metric{Label: "This year", Value: cli.FormatDuration(c.Total)})
	}
	if a.display.ShowWorkspaceTime && a.workspace != "" {
		ms = append(ms, components.Metric{Label: "Workspace", Value: cli.FormatDuration(c.Workspace), Note: a.workspace})
	}
	if a.display.ShowTodayTime {
		ms = append(ms, components.Metric{Label: "Today", Value: cli.FormatDuration(c.Today)})
	}
	if a.display.ShowFromStartTime {
		ms = append(ms, components.Metric{Label: "Since start", Value: cli.FormatDuration(c.FromStart)})
	}
	return ms
}

func (a App) reminderView(width int) string {
	if !a.display.ShowNextReminder || a.sched.Len() == 0 {
		return ""
	}
	if r, ok := a.sched.InPause(); ok {
		return components.ReminderBar(r.Title, 1, "break", true, 16, max(10, width-30))
	}
	r, left, ok := a.sched.Next(a.now())
	if !ok {
		return ""
	}
	pct := 1 - float64(left)/float64(r.Interval())
	return components.ReminderBar(r.Title, pct, cli.FormatCountdown(left), false, 16, max(10, width-30))
}

func (a App) chartView(width int) string {
	unit, n := a.tabUnit()
	series := report.Series(a.ivs, unit, "", n, a.now(), a.cal)
	values := make([]float64, len(series))
	labels := make([]string, len(series))
	for i, b := range series {
		values[i] = float64(b.Total) / float64(time.Hour.Milliseconds())
		labels[i] = chartLabel(unit, b.Start)
	}
	chart := components.BarChart(values, labels, theme.Active.Accent, components.CardInnerWidth(width), chartHeight-3)
	return components.ContentCard("Hours per "+unit.String(), chart, width)
}

func (a App) noticeView() string {
	if a.notice == "" {
		return ""
	}
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	if a.noticeErr {
		style = style.Foreground(t.Warn)
	}
	return style.Render(strings.TrimSpace(a.notice))
}

func (a App) saveInfo() string {
	pending := a.tr.Pending()
	if pending == 0 {
		return "saved " + humanize.Time(a.lastSave)
	}
	return fmt.Sprintf("%d unsaved · last save %s", pending, humanize.Time(a.lastSave))
}
