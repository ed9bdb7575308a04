package tui

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type screen int

const (
	screenList screen = iota
	screenDetail
	screenForm
	screenSync
)

type appModel struct {
	ctx     context.Context
	monitor connectivityMonitor
	records service.ClientRecordService
	sync    service.ClientSyncService

	connUpdates   <-chan bool
	recordUpdates <-chan []models.Record

	policy      models.RequestPolicy
	configured  []string
	collections []string
	colIdx      int
	state       models.ConnectivityState
	all         []models.Record

	currentScreen screen
	list          listModel
	detail        detailModel
	form          formModel
	syncScreen    syncModel

	showError     bool
	errorOverlay  errorOverlayModel
	showConfirm   bool
	confirm       confirmModel
	pendingDelete string
}

func newAppModel(ctx context.Context, d deps, connUpdates <-chan bool, recordUpdates <-chan []models.Record) appModel {
	m := appModel{
		ctx:           ctx,
		monitor:       d.monitor,
		records:       d.records,
		sync:          d.sync,
		connUpdates:   connUpdates,
		recordUpdates: recordUpdates,
		policy:        d.policy.OrDefault(),
		configured:    d.collections,
		syncScreen:    newSyncModel(),
	}
	m.state = m.monitor.State()
	m.collections = mergeCollections(m.configured, nil)
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		waitConnectivity(m.connUpdates),
		waitRecords(m.recordUpdates),
		m.cmdRefresh(),
	)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showError {
			if key.Matches(msg, keys.enter) || key.Matches(msg, keys.esc) {
				m.showError = false
				m.errorOverlay.message = ""
			}
			return m, nil
		}
		if m.showConfirm {
			if key.Matches(msg, keys.yes) {
				m.showConfirm = false
				if m.pendingDelete == "" {
					return m, nil
				}
				return m, m.cmdDeleteItem(m.pendingDelete)
			}
			if key.Matches(msg, keys.no) || key.Matches(msg, keys.esc) {
				m.showConfirm = false
				m.pendingDelete = ""
			}
			return m, nil
		}
	case connectivityMsg:
		if !msg.ok {
			return m, nil
		}
		m.state = m.monitor.State()
		return m, waitConnectivity(m.connUpdates)
	case checkDoneMsg:
		m.state = m.monitor.State()
		if msg.connected {
			m.list.status = "Connectivity confirmed"
		} else {
			m.list.status = "No connectivity"
		}
		return m, cmdClearStatus()
	case recordsMsg:
		if !msg.ok {
			return m, nil
		}
		m.setRecords(msg.records)
		return m, waitRecords(m.recordUpdates)
	case refreshDoneMsg:
		m.list.refreshing = false
		if msg.err != nil {
			m.showErrorf(humanizeError(msg.err))
		}
		return m, nil
	case syncStartedMsg:
		if msg.err != nil {
			m.currentScreen = screenList
			m.showErrorf(humanizeError(msg.err))
			return m, nil
		}
		m.syncScreen.updates = msg.progress
		return m, waitProgress(msg.progress)
	case syncProgressMsg:
		if msg.ok {
			m.syncScreen.progress = msg.progress
			return m, waitProgress(m.syncScreen.updates)
		}
		m.currentScreen = screenList
		m.syncScreen.updates = nil
		p := m.syncScreen.progress
		m.list.status = fmt.Sprintf("Replayed %d/%d pending changes", p.Current, p.Total)
		return m, cmdClearStatus()
	case itemSavedMsg:
		m.form.submitting = false
		if msg.err != nil {
			m.showErrorf(humanizeError(msg.err))
			return m, nil
		}
		m.detail.item = msg.record
		m.currentScreen = screenDetail
		return m, nil
	case itemDeletedMsg:
		if msg.err != nil {
			m.showErrorf(humanizeError(msg.err))
			return m, nil
		}
		m.pendingDelete = ""
		m.currentScreen = screenList
		return m, nil
	case clearStatusMsg:
		m.list.status = ""
		return m, nil
	case tea.WindowSizeMsg:
		return m, nil
	}

	switch m.currentScreen {
	case screenList:
		return m.updateList(msg)
	case screenDetail:
		return m.updateDetail(msg)
	case screenForm:
		return m.updateForm(msg)
	case screenSync:
		return m.updateSync(msg)
	}

	return m, nil
}

func (m appModel) View() string {
	var body string
	switch m.currentScreen {
	case screenList:
		body = m.list.View(m.dashboard())
	case screenDetail:
		body = m.detail.View()
	case screenForm:
		body = m.form.View()
	case screenSync:
		body = m.syncScreen.View()
	}

	if m.showConfirm {
		body += "\n\n" + m.confirm.View()
	}
	if m.showError {
		body += "\n\n" + m.errorOverlay.View()
	}

	return appStyle.Render(body)
}

func (m *appModel) showErrorf(message string) {
	m.showError = true
	m.errorOverlay.message = message
}

func (m appModel) collection() string {
	if m.colIdx < 0 || m.colIdx >= len(m.collections) {
		return ""
	}
	return m.collections[m.colIdx]
}

func (m appModel) dashboard() dashboard {
	return dashboard{
		state:       m.state,
		policy:      m.policy,
		collections: m.collections,
		current:     m.colIdx,
		pending:     pendingByCollection(m.all),
		records:     m.visible(),
	}
}

// visible returns the live records of the selected collection.
func (m appModel) visible() []models.Record {
	current := m.collection()
	var out []models.Record
	for _, rec := range m.all {
		if rec.Collection == current && !rec.Deleted {
			out = append(out, rec)
		}
	}
	return out
}

func (m *appModel) setRecords(records []models.Record) {
	m.all = records

	current := m.collection()
	seen := make([]string, 0, len(records))
	for _, rec := range records {
		seen = append(seen, rec.Collection)
	}
	m.collections = mergeCollections(m.configured, seen)
	if i := slices.Index(m.collections, current); i >= 0 {
		m.colIdx = i
	}
	m.clampIdx()

	if m.currentScreen == screenDetail {
		for _, rec := range records {
			if rec.Collection == m.detail.item.Collection && rec.ID == m.detail.item.ID {
				m.detail.item = rec
				break
			}
		}
	}
}

func (m *appModel) clampIdx() {
	n := len(m.visible())
	if m.list.idx >= n {
		m.list.idx = n - 1
	}
	if m.list.idx < 0 {
		m.list.idx = 0
	}
}

func (m appModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.up):
		if m.list.idx > 0 {
			m.list.idx--
		}
	case key.Matches(keyMsg, keys.down):
		if m.list.idx < len(m.visible())-1 {
			m.list.idx++
		}
	case key.Matches(keyMsg, keys.left):
		if len(m.collections) > 0 {
			m.colIdx = (m.colIdx - 1 + len(m.collections)) % len(m.collections)
			m.list.idx = 0
			return m, m.cmdRefresh()
		}
	case key.Matches(keyMsg, keys.right):
		if len(m.collections) > 0 {
			m.colIdx = (m.colIdx + 1) % len(m.collections)
			m.list.idx = 0
			return m, m.cmdRefresh()
		}
	case key.Matches(keyMsg, keys.enter):
		records := m.visible()
		if m.list.idx < len(records) {
			m.detail.item = records[m.list.idx]
			m.currentScreen = screenDetail
		}
	case key.Matches(keyMsg, keys.newItem):
		if m.collection() == "" {
			m.showErrorf("No collection selected")
			return m, nil
		}
		m.form = newFormModel(m.collection(), nil)
		m.currentScreen = screenForm
	case key.Matches(keyMsg, keys.sync):
		if m.collection() == "" {
			return m, nil
		}
		m.syncScreen.collection = m.collection()
		m.syncScreen.progress = models.RetryProgress{}
		m.currentScreen = screenSync
		return m, tea.Batch(m.syncScreen.spinner.Tick, m.cmdStartSync())
	case key.Matches(keyMsg, keys.refresh):
		return m, m.cmdRefresh()
	case key.Matches(keyMsg, keys.check):
		return m, m.cmdCheck()
	case key.Matches(keyMsg, keys.policy):
		m.policy = nextPolicy(m.policy)
	case key.Matches(keyMsg, keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m appModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.esc):
		m.currentScreen = screenList
	case key.Matches(keyMsg, keys.edit):
		item := m.detail.item
		m.form = newFormModel(item.Collection, &item)
		m.currentScreen = screenForm
	case key.Matches(keyMsg, keys.delete):
		m.showConfirm = true
		m.pendingDelete = m.detail.item.ID
		m.confirm.record = m.detail.item
	case key.Matches(keyMsg, keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.esc):
			if m.form.editing {
				m.currentScreen = screenDetail
			} else {
				m.currentScreen = screenList
			}
			return m, nil
		case key.Matches(keyMsg, keys.save):
			if m.form.submitting {
				return m, nil
			}
			data, err := m.form.data()
			if err != nil {
				m.showErrorf(err.Error())
				return m, nil
			}
			m.form.submitting = true
			return m, m.cmdSaveItem(m.form.collection, m.form.id, data)
		}
	}

	var cmd tea.Cmd
	m.form.body, cmd = m.form.body.Update(msg)
	return m, cmd
}

func (m appModel) updateSync(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return m, nil
	}

	var cmd tea.Cmd
	m.syncScreen.spinner, cmd = m.syncScreen.spinner.Update(msg)
	return m, cmd
}

func waitConnectivity(updates <-chan bool) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		connected, ok := <-updates
		return connectivityMsg{connected: connected, ok: ok}
	}
}

func waitRecords(updates <-chan []models.Record) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		records, ok := <-updates
		return recordsMsg{records: records, ok: ok}
	}
}

func waitProgress(updates <-chan models.RetryProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		return syncProgressMsg{progress: p, ok: ok}
	}
}

func (m appModel) cmdCheck() tea.Cmd {
	ctx := m.ctx
	monitor := m.monitor
	return func() tea.Msg {
		return checkDoneMsg{connected: monitor.CheckConnectivity(ctx)}
	}
}

// cmdRefresh reads the selected collection under the current policy. The
// result reaches the screen through the store watch.
func (m appModel) cmdRefresh() tea.Cmd {
	collection := m.collection()
	if collection == "" {
		return nil
	}
	ctx := m.ctx
	svc := m.records
	policy := m.policy
	return func() tea.Msg {
		_, err := svc.List(ctx, policy, collection)
		return refreshDoneMsg{err: err}
	}
}

func (m appModel) cmdStartSync() tea.Cmd {
	ctx := m.ctx
	svc := m.sync
	collection := m.collection()
	return func() tea.Msg {
		progress, err := svc.RetryLocal(ctx, collection)
		return syncStartedMsg{progress: progress, err: err}
	}
}

func (m appModel) cmdSaveItem(collection, id string, data map[string]any) tea.Cmd {
	ctx := m.ctx
	svc := m.records
	policy := m.policy
	return func() tea.Msg {
		if id == "" {
			rec, err := svc.Create(ctx, policy, collection, data, adapter.RequestOptions{})
			return itemSavedMsg{record: rec, err: err}
		}
		rec, err := svc.Update(ctx, policy, collection, id, data, adapter.RequestOptions{})
		return itemSavedMsg{record: rec, err: err}
	}
}

func (m appModel) cmdDeleteItem(id string) tea.Cmd {
	ctx := m.ctx
	svc := m.records
	policy := m.policy
	collection := m.detail.item.Collection
	return func() tea.Msg {
		return itemDeletedMsg{err: svc.Delete(ctx, policy, collection, id)}
	}
}

func cmdClearStatus() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func nextPolicy(p models.RequestPolicy) models.RequestPolicy {
	i := slices.Index(models.AllPolicies, p)
	return models.AllPolicies[(i+1)%len(models.AllPolicies)]
}

// mergeCollections keeps the configured order and appends collections
// found in the store, sorted.
func mergeCollections(configured, seen []string) []string {
	out := slices.Clone(configured)
	var extra []string
	for _, c := range seen {
		if c != "" && !slices.Contains(out, c) && !slices.Contains(extra, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func pendingByCollection(records []models.Record) map[string]int {
	out := make(map[string]int)
	for _, rec := range records {
		if !rec.Synced && !rec.NoSync {
			out[rec.Collection]++
		}
	}
	return out
}
