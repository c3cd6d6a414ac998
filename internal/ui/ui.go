package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/query"
	"github.com/meetingmind/mm/internal/shared"
	"github.com/meetingmind/mm/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MeetingListView ViewState = iota
	MeetingDetailView
	ConfirmDeleteView
	ExportView
	ResultView
)

// Meetings is the cache-backed meeting access the browser needs. [meetings.Queries] implements it.
type Meetings interface {
	WatchList(fn func(query.Result)) (cancel func())
	WatchMeeting(id string, fn func(query.Result)) (cancel func())
	RefreshList()
	RefreshMeeting(id string)
	Delete(ctx context.Context, id string) error
}

// Exporter writes transcripts. [tasks.Exporter] implements it.
type Exporter interface {
	Export(ctx context.Context, prog chan<- tasks.ProgressUpdate, ids []string, opts tasks.ExportOpts) (*tasks.ExportResult, error)
}

// Opts configures a [Model]. Exporter may be nil, which disables exports.
type Opts struct {
	Meetings   Meetings
	Exporter   Exporter
	Session    models.Session
	ExportOpts tasks.ExportOpts
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	prevView   ViewState
	meetings   Meetings
	exporter   Exporter
	session    models.Session
	exportOpts tasks.ExportOpts
	width      int
	height     int

	updates    chan tea.Msg
	stopList   func()
	stopDetail func()

	meetingList  list.Model
	listResult   query.Result
	selectedID   string
	detail       *models.MeetingDetail
	detailResult query.Result
	transcript   viewport.Model
	spinner      spinner.Model

	progressChan chan tasks.ProgressUpdate
	exportDone   chan Msg
	progress     tasks.ProgressUpdate
	exportResult *tasks.ExportResult

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	meetingList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	meetingList.Title = "Meetings"

	return &Model{
		ctx:         ctx,
		view:        MeetingListView,
		meetings:    opts.Meetings,
		exporter:    opts.Exporter,
		session:     opts.Session,
		exportOpts:  opts.ExportOpts,
		updates:     make(chan tea.Msg, 16),
		meetingList: meetingList,
		transcript:  viewport.New(0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init subscribes to the meeting list.
func (m *Model) Init() tea.Cmd {
	m.stopList = m.meetings.WatchList(func(r query.Result) {
		m.forward(listResultMsg(r))
	})
	return tea.Batch(m.waitForUpdate(), m.spinner.Tick)
}

// Close cancels the cache subscriptions. Call it once the program has exited.
func (m *Model) Close() {
	if m.stopList != nil {
		m.stopList()
		m.stopList = nil
	}
	m.closeDetail()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.meetingList.SetSize(msg.Width-4, msg.Height-8)
		m.transcript.Width = msg.Width - 4
		m.transcript.Height = max(msg.Height-16, 3)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case MeetingListView:
			return m.handleListKeys(msg)
		case MeetingDetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListResult:
		r := msg.data.(query.Result)
		m.listResult = r
		if meetings, ok := query.As[[]models.Meeting](r); ok {
			m.meetingList.SetItems(meetingItems(meetings))
		}
		return m, m.waitForUpdate()

	case MsgDetailResult:
		d := msg.data.(detailResult)
		if d.id == m.selectedID {
			m.detailResult = d.result
			if detail, ok := query.As[*models.MeetingDetail](d.result); ok && detail != nil {
				m.detail = detail
				m.transcript.SetContent(renderTranscript(detail.Transcripts))
			}
		}
		return m, m.waitForUpdate()

	case MsgDeleted:
		d := msg.data.(deleted)
		if d.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Delete failed: %v", d.err))
			m.view = m.prevView
			return m, nil
		}
		m.status = styles.ok.Render("Meeting deleted")
		if d.id == m.selectedID {
			m.closeDetail()
		}
		m.view = MeetingListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		c := msg.data.(exportComplete)
		m.exportResult = c.result
		m.err = c.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MeetingListView:
		return m.renderList()
	case MeetingDetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.meetingList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.meetingList, cmd = m.meetingList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.meetingList.SelectedItem().(meetingItem); ok {
			m.openMeeting(item.meeting.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.meetingList.SelectedItem().(meetingItem); ok {
			m.selectedID = item.meeting.ID
			m.prevView = MeetingListView
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.status = ""
		m.meetings.RefreshList()
		return m, nil
	}

	var cmd tea.Cmd
	m.meetingList, cmd = m.meetingList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.closeDetail()
		m.view = MeetingListView
		return m, nil
	case key.Matches(msg, m.keys.remove):
		m.prevView = MeetingDetailView
		m.view = ConfirmDeleteView
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.meetings.RefreshMeeting(m.selectedID)
		return m, nil
	case key.Matches(msg, m.keys.export):
		if m.exporter == nil {
			m.status = styles.warn.Render("Export is not configured")
			return m, nil
		}
		m.view = ExportView
		return m, m.startExport()
	}

	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.deleteMeeting(m.selectedID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = m.prevView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.exportResult = nil
		m.err = nil
		m.view = MeetingDetailView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MeetingListView:
		m.meetingList, cmd = m.meetingList.Update(msg)
	case MeetingDetailView:
		m.transcript, cmd = m.transcript.Update(msg)
	}
	return m, cmd
}

// openMeeting switches to the detail view and subscribes to id, dropping the previous subscription.
func (m *Model) openMeeting(id string) {
	m.closeDetail()
	m.selectedID = id
	m.status = ""
	m.view = MeetingDetailView
	m.stopDetail = m.meetings.WatchMeeting(id, func(r query.Result) {
		m.forward(detailResultMsg(id, r))
	})
}

func (m *Model) closeDetail() {
	if m.stopDetail != nil {
		m.stopDetail()
		m.stopDetail = nil
	}
	m.selectedID = ""
	m.detail = nil
	m.detailResult = query.Result{}
	m.transcript.SetContent("")
}

// forward hands a cache notification to the program. It runs on the cache's dispatcher goroutine.
func (m *Model) forward(msg tea.Msg) {
	select {
	case m.updates <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.updates:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) deleteMeeting(id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg(id, m.meetings.Delete(m.ctx, id))
	}
}

func (m *Model) startExport() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progress
	m.progress = tasks.ProgressUpdate{}
	ids := []string{m.selectedID}

	done := make(chan Msg, 1)
	m.exportDone = done
	go func() {
		result, err := m.exporter.Export(m.ctx, progress, ids, m.exportOpts)
		done <- exportCompleteMsg(result, err)
		close(progress)
	}()

	return m.waitForProgress()
}

// waitForProgress yields the next progress update, then the completion once the export closes its channel.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.exportDone
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderSession() string {
	switch id := m.session.Identity.(type) {
	case models.VerifiedProfile:
		return styles.help.Render("Signed in as " + id.DisplayName())
	case models.PlaceholderProfile:
		return styles.warn.Render(fmt.Sprintf("Signed in as %s (unverified)", id.DisplayName()))
	default:
		return styles.warn.Render("Not signed in")
	}
}

func (m *Model) renderList() string {
	var body string
	r := m.listResult
	switch {
	case !r.HasData && r.Status == query.StatusError:
		body = styles.err.Render(fmt.Sprintf("Failed to load meetings: %v", r.Err))
	case !r.HasData:
		body = fmt.Sprintf("%s Loading meetings...", m.spinner.View())
	default:
		body = m.meetingList.View()
	}

	line := m.status
	switch {
	case r.HasData && r.Status == query.StatusError:
		line = styles.warn.Render(fmt.Sprintf("Showing cached meetings: %v", r.Err))
	case r.HasData && r.Fetching:
		line = fmt.Sprintf("%s Refreshing...", m.spinner.View())
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.remove, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", m.renderSession(), body, line, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.remove, m.keys.export, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	r := m.detailResult
	if m.detail == nil {
		if r.Status == query.StatusError {
			return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Failed to load meeting: %v", r.Err)), helpView)
		}
		return fmt.Sprintf("%s Loading meeting...\n\n%s", m.spinner.View(), helpView)
	}

	d := m.detail
	var b strings.Builder
	b.WriteString(styles.title.Render(d.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Status:"), d.Status)
	if d.DurationSeconds != nil {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Duration:"), shared.FormatDuration(*d.DurationSeconds))
	}
	fmt.Fprintf(&b, "%s %d\n", styles.label.Render("Participants:"), len(d.Participants))
	if d.Summary != nil && *d.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", styles.label.Render("Summary"), *d.Summary)
	}
	if len(d.ActionItems) > 0 {
		fmt.Fprintf(&b, "\n%s\n", styles.label.Render("Action items"))
		for _, item := range d.ActionItems {
			fmt.Fprintf(&b, "  • [%s] %s\n", item.Status, item.Task)
		}
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", styles.label.Render("Transcript"), m.transcript.View())

	switch {
	case r.Status == query.StatusError:
		b.WriteString(styles.warn.Render(fmt.Sprintf("Showing cached meeting: %v", r.Err)) + "\n")
	case r.Fetching:
		fmt.Fprintf(&b, "%s Refreshing...\n", m.spinner.View())
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}

	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

func (m *Model) renderConfirm() string {
	name := m.selectedID
	if m.detail != nil {
		name = m.detail.Title
	} else if item, ok := m.meetingList.SelectedItem().(meetingItem); ok && item.meeting.ID == m.selectedID {
		name = item.meeting.Title
	}

	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", name))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s", title, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Transcript")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchMeeting:
		phase = "Fetching meeting..."
	case tasks.ExportTranscript:
		phase = fmt.Sprintf("Writing files (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteManifest:
		phase = "Writing manifest..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)), helpView)
	}
	if m.exportResult == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	res := m.exportResult
	if res.Failed > 0 {
		msg := "Export failed"
		if len(res.Results) > 0 && res.Results[0].Error != nil {
			msg = fmt.Sprintf("Export failed: %v", res.Results[0].Error)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	title := styles.ok.Render("✓ Export Complete!")
	var files []string
	for _, r := range res.Results {
		files = append(files, "  • "+r.File)
	}
	info := fmt.Sprintf("\nFiles:\n%s\nManifest: %s", strings.Join(files, "\n"), res.ManifestPath)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func renderTranscript(segments []models.Transcript) string {
	if len(segments) == 0 {
		return styles.help.Render("No transcript yet")
	}
	var b strings.Builder
	for _, seg := range segments {
		speaker := "Unknown"
		if seg.SpeakerName != nil && *seg.SpeakerName != "" {
			speaker = *seg.SpeakerName
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", shared.FormatDuration(int(seg.StartTime)), styles.label.Render(speaker), seg.Text)
	}
	return b.String()
}
