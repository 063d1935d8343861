package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/gesture"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/core/reorder"
	"github.com/matzehuels/chartpad/pkg/session"
)

// Grid geometry. The grid starts below the title, help and a blank line;
// every header and row occupies one terminal line.
const (
	gridTop    = 3
	headerLine = gridTop
	firstRow   = gridTop + 2
	keyWidth   = 14
	cellWidth  = 12
	handleW    = 2
	handle     = "⠿ "
)

var (
	editorCursorStyle = lipgloss.NewStyle().Reverse(true)
	editorHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorHiddenStyle = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
	editorDragStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	editorPaneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// Editor - Interactive dataset editor
// =============================================================================

// cellRef addresses one data cell being edited.
type cellRef struct {
	key    string
	column string
}

// Editor is the bubbletea model of `chartpad edit`. Mouse presses on a
// header body start a sweep, presses on the ⠿ handle start a drag, and the
// keyboard drives rename, cell edits and mapping changes. Cursor row -1 is
// the header line; cursor column -1 is the key column.
type Editor struct {
	sess   *session.Session
	name   string
	height int
	offset int

	cursorRow, cursorCol int

	input   textinput.Model
	editing *cellRef
	status  string
}

// NewEditor creates an editor over sess. name is shown in the title.
func NewEditor(sess *session.Session, name string) Editor {
	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 120
	in.Width = 30
	return Editor{
		sess:      sess,
		name:      name,
		height:    24,
		cursorRow: -1,
		input:     in,
	}
}

// Session returns the edited session.
func (m Editor) Session() *session.Session { return m.sess }

func (m Editor) Init() tea.Cmd { return nil }

func (m Editor) columns() []dataset.Column { return m.sess.Dataset().Columns.Columns() }
func (m Editor) rows() []*dataset.Row      { return m.sess.Dataset().Rows.Rows() }

// visibleRows is how many data rows fit on screen.
func (m Editor) visibleRows() int {
	return max(1, m.height-firstRow-3)
}

// =============================================================================
// Update
// =============================================================================

func (m Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.KeyMsg:
		if m.sess.Mode() == gesture.Renaming || m.editing != nil {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// hit is the result of hit-testing a pointer position.
type hit struct {
	target gesture.Target
	part   gesture.Part
	header bool
	row    int
	col    int
}

// hitTest maps terminal coordinates to a header or cell.
func (m Editor) hitTest(x, y int) (hit, bool) {
	cols := m.columns()
	col := -1
	if x >= keyWidth {
		col = (x - keyWidth) / cellWidth
		if col >= len(cols) {
			return hit{}, false
		}
	}
	inHandle := func(start int) bool { return x-start < handleW }

	switch {
	case y == headerLine:
		if col < 0 {
			return hit{}, false
		}
		h := hit{target: gesture.Target{Kind: gesture.Column, ID: cols[col].ID}, header: true, row: -1, col: col}
		if inHandle(keyWidth + col*cellWidth) {
			h.part = gesture.DragHandle
		}
		return h, true
	case y >= firstRow:
		row := y - firstRow + m.offset
		rows := m.rows()
		if row >= len(rows) || y-firstRow >= m.visibleRows() {
			return hit{}, false
		}
		if col >= 0 {
			return hit{row: row, col: col}, true
		}
		h := hit{target: gesture.Target{Kind: gesture.Row, ID: rows[row].Key.String()}, header: true, row: row, col: -1}
		if inHandle(0) {
			h.part = gesture.DragHandle
		}
		return h, true
	}
	return hit{}, false
}

func (m Editor) handleMouse(msg tea.MouseMsg) Editor {
	h, ok := m.hitTest(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !ok {
			return m
		}
		if m.editing != nil {
			m.commitCell()
		}
		m.cursorRow, m.cursorCol = h.row, h.col
		if !h.header {
			return m
		}
		if h.part == gesture.DragHandle {
			m.report("drag "+h.target.ID, m.sess.DragStart(h.target))
			return m
		}
		m.report("toggle "+h.target.ID, m.sess.PointerDown(h.target, gesture.Header))
		if m.sess.Mode() != gesture.Renaming {
			m.input.Blur()
		}

	case tea.MouseActionMotion:
		if ok && h.header && m.sess.Mode() == gesture.Sweeping {
			if m.sess.PointerEnter(h.target) {
				m.status = "toggle " + h.target.ID
			}
		}

	case tea.MouseActionRelease:
		if m.sess.Mode() == gesture.Dragging && ok && h.header {
			src, _ := m.sess.DragSource()
			pos := reorder.Above
			if src.Kind == gesture.Row && h.row > m.sess.Dataset().Rows.Index(src.ID) {
				pos = reorder.Below
			}
			m.report("move "+src.ID, m.sess.Drop(h.target, pos))
			return m
		}
		m.sess.PointerUp()
	}
	return m
}

func (m Editor) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols, rows := m.columns(), m.rows()
	col := func() (dataset.Column, bool) {
		if m.cursorCol < 0 || m.cursorCol >= len(cols) {
			return dataset.Column{}, false
		}
		return cols[m.cursorCol], true
	}
	row := func() (*dataset.Row, bool) {
		if m.cursorRow < 0 || m.cursorRow >= len(rows) {
			return nil, false
		}
		return rows[m.cursorRow], true
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.sess.DragCancel()
	case "up", "k":
		m.cursorRow = max(-1, m.cursorRow-1)
	case "down", "j":
		m.cursorRow = min(len(rows)-1, m.cursorRow+1)
	case "left", "h":
		m.cursorCol = max(-1, m.cursorCol-1)
	case "right", "l":
		m.cursorCol = min(len(cols)-1, m.cursorCol+1)

	case " ", "x":
		switch c, cok := col(); {
		case m.cursorRow < 0 && cok:
			m.report("toggle "+c.ID, m.sess.ToggleColumn(c.ID))
		case m.cursorCol < 0:
			if r, ok := row(); ok {
				m.report("toggle "+r.Key.String(), m.sess.ToggleRow(r.Key.String()))
			}
		}
	case "a":
		shown := m.sess.ShowAllColumns()
		shown = m.sess.ShowAllRows() || shown
		m.report("show all", shown)

	case "r", "enter":
		if tgt, ok := m.focusedHeader(); ok {
			if m.sess.BeginRename(tgt) {
				_, text, _ := m.sess.RenameBuffer()
				m.input.SetValue(text)
				m.input.CursorEnd()
				return m, m.input.Focus()
			}
			m.report("rename", false)
			return m, nil
		}
		fallthrough
	case "e":
		c, cok := col()
		r, rok := row()
		if !cok || !rok {
			return m, nil
		}
		m.editing = &cellRef{key: r.Key.String(), column: c.ID}
		m.input.SetValue(r.Get(c.ID).String())
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "c":
		m.report("chart "+string(m.sess.ChartType().Next()), m.sess.SetChartType(m.sess.ChartType().Next()))
	case "+", "=":
		m.report("bins", m.sess.SetBins(m.sess.Mapping().Bins+1))
	case "-":
		m.report("bins", m.sess.SetBins(m.sess.Mapping().Bins-1))
	case "s":
		if c, ok := col(); ok {
			m.report("series "+c.ID, m.sess.ToggleSeries(c.ID))
		}
	case "y", "X", "v", "b", "z", "o":
		slot := map[string]mapping.Slot{
			"y": mapping.SlotY, "X": mapping.SlotX, "v": mapping.SlotValue,
			"b": mapping.SlotHistogram, "z": mapping.SlotSize, "o": mapping.SlotColor,
		}[msg.String()]
		if c, ok := col(); ok {
			m.report(string(slot)+" "+c.ID, m.sess.SetSlot(slot, c.ID))
		}
	case "L":
		if c, ok := col(); ok {
			m.report("label "+c.ID, m.sess.SetLabelColumn(c.ID))
		}

	case "[", "]":
		if c, ok := col(); ok {
			to := m.cursorCol - 1
			if msg.String() == "]" {
				to = m.cursorCol + 1
			}
			if to >= 0 && to < len(cols) && m.sess.MoveColumn(c.ID, cols[to].ID) {
				m.cursorCol = to
				m.status = "move " + c.ID
			}
		}
	case "K", "J":
		if r, ok := row(); ok {
			to, pos := m.cursorRow-1, reorder.Above
			if msg.String() == "J" {
				to, pos = m.cursorRow+1, reorder.Below
			}
			if to >= 0 && to < len(rows) && m.sess.MoveRow(r.Key.String(), rows[to].Key.String(), pos) {
				m.cursorRow = to
				m.status = "move " + r.Key.String()
			}
		}
	}
	m.scroll()
	return m, nil
}

// handleInput routes keys to the text input while a rename or cell edit
// is open.
func (m Editor) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.editing != nil {
			m.commitCell()
		} else {
			m.report("rename", m.sess.CommitRename())
		}
		m.input.Blur()
		return m, nil
	case "esc":
		if m.editing != nil {
			m.editing = nil
		} else {
			m.sess.CancelRename()
		}
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.editing == nil {
		m.sess.EditRename(m.input.Value())
	}
	return m, cmd
}

func (m *Editor) commitCell() {
	ref := m.editing
	m.editing = nil
	m.report("edit "+ref.key+"/"+ref.column, m.sess.EditCell(ref.key, ref.column, m.input.Value()))
}

// focusedHeader returns the header under the cursor, if any.
func (m Editor) focusedHeader() (gesture.Target, bool) {
	cols, rows := m.columns(), m.rows()
	switch {
	case m.cursorRow < 0 && m.cursorCol >= 0 && m.cursorCol < len(cols):
		return gesture.Target{Kind: gesture.Column, ID: cols[m.cursorCol].ID}, true
	case m.cursorCol < 0 && m.cursorRow >= 0 && m.cursorRow < len(rows):
		return gesture.Target{Kind: gesture.Row, ID: rows[m.cursorRow].Key.String()}, true
	}
	return gesture.Target{}, false
}

func (m *Editor) report(what string, applied bool) {
	if applied {
		m.status = StyleSuccess.Render(iconSuccess) + " " + what
		return
	}
	m.status = StyleWarning.Render(iconWarning) + " " + what + " rejected"
}

// scroll keeps the cursor row on screen.
func (m *Editor) scroll() {
	n := m.visibleRows()
	switch {
	case m.cursorRow >= 0 && m.cursorRow < m.offset:
		m.offset = m.cursorRow
	case m.cursorRow >= m.offset+n:
		m.offset = m.cursorRow - n + 1
	}
}

// =============================================================================
// View
// =============================================================================

func (m Editor) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName+" · "+m.name) + "  " + StyleHighlight.Render("["+string(m.sess.ChartType())+"]"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("click toggle · drag ⠿ reorder · r rename · e edit · c chart · s series · y/X/v/b/z/o slot · a show all · q quit"))
	b.WriteString("\n\n")

	pane := editorPaneStyle.Render(renderSpecSummary(m.sess.Spec()))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.grid(), "  ", pane))
	b.WriteString("\n")

	switch {
	case m.sess.Mode() == gesture.Renaming, m.editing != nil:
		b.WriteString(m.input.View())
	default:
		b.WriteString(m.status)
	}
	return b.String()
}

// grid renders the header line, a rule and the visible rows.
func (m Editor) grid() string {
	cols, rows := m.columns(), m.rows()
	src, dragging := m.sess.DragSource()
	renameTgt, _, renaming := m.sess.RenameBuffer()

	cell := func(text string, width int, style lipgloss.Style, focused bool) string {
		s := style.Render(fit(text, width))
		if focused {
			s = editorCursorStyle.Render(fit(text, width))
		}
		return s
	}

	var lines []string
	header := cell(m.sess.Dataset().Key.DisplayLabel(), keyWidth, editorHeaderStyle, false)
	for i, c := range cols {
		style := editorHeaderStyle
		switch {
		case dragging && src.Kind == gesture.Column && src.ID == c.ID:
			style = editorDragStyle
		case !c.Visible:
			style = editorHiddenStyle
		}
		label := c.DisplayLabel()
		if renaming && renameTgt.Kind == gesture.Column && renameTgt.ID == c.ID {
			label = "✎ " + label
		}
		header += cell(handle+label, cellWidth, style, m.cursorRow < 0 && m.cursorCol == i)
	}
	lines = append(lines, header, StyleDim.Render(strings.Repeat("─", keyWidth+len(cols)*cellWidth)))

	end := min(len(rows), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		r := rows[i]
		key := r.Key.String()
		style := lipgloss.NewStyle()
		switch {
		case dragging && src.Kind == gesture.Row && src.ID == key:
			style = editorDragStyle
		case r.Hidden:
			style = editorHiddenStyle
		}
		label, _ := m.sess.RowLabel(key)
		line := cell(handle+label, keyWidth, style, m.cursorCol < 0 && m.cursorRow == i)
		for j, c := range cols {
			cs := style
			if !c.Visible {
				cs = editorHiddenStyle
			}
			line += cell(r.Get(c.ID).String(), cellWidth, cs, m.cursorRow == i && m.cursorCol == j)
		}
		lines = append(lines, line)
	}
	if len(rows) > end {
		lines = append(lines, StyleDim.Render(fmt.Sprintf("  … %d more rows", len(rows)-end)))
	}
	return strings.Join(lines, "\n")
}

// fit truncates or pads s to exactly width runes, leaving one column of
// spacing.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width-1 {
		r = append(r[:width-2], '…')
	}
	return string(r) + strings.Repeat(" ", width-len(r))
}
