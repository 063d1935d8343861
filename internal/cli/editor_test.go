package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/core/gesture"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/session"
)

func newTestEditor(t *testing.T) Editor {
	t.Helper()
	row := func(year, rev, cogs, rnd float64) dataset.Row {
		return dataset.Row{Key: dataset.Number(year), Fields: map[string]dataset.Value{
			"revenue": dataset.Number(rev), "cogs": dataset.Number(cogs), "rnd": dataset.Number(rnd),
		}}
	}
	sess, err := session.New(dataset.Data{
		Key: dataset.KeyColumn{ID: "year", Label: "Year"},
		Columns: []dataset.Column{
			{ID: "revenue", Label: "Revenue", Visible: true},
			{ID: "cogs", Label: "COGS", Visible: true},
			{ID: "rnd", Label: "R&D", Visible: true},
		},
		Rows: []dataset.Row{row(2019, 100, 40, 10), row(2020, 120, 50, 12), row(2021, 150, 55, 15)},
	}, session.Options{ChartType: mapping.Line})
	require.NoError(t, err)
	return NewEditor(sess, "finance.csv")
}

func send(m Editor, msgs ...tea.Msg) Editor {
	for _, msg := range msgs {
		out, _ := m.Update(msg)
		m = out.(Editor)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

// columnX returns an x inside the body of column i, past its handle.
func columnX(i int) int { return keyWidth + i*cellWidth + handleW + 1 }

func TestEditorSweepHidesColumns(t *testing.T) {
	m := newTestEditor(t)
	m = send(m, mouse(tea.MouseActionPress, columnX(0), headerLine))
	assert.Equal(t, gesture.Sweeping, m.sess.Mode())

	m = send(m,
		mouse(tea.MouseActionMotion, columnX(1), headerLine),
		mouse(tea.MouseActionMotion, columnX(0), headerLine),
		mouse(tea.MouseActionRelease, columnX(1), headerLine),
	)
	assert.Equal(t, gesture.Idle, m.sess.Mode())
	assert.Equal(t, []string{"rnd"}, m.sess.Dataset().Columns.VisibleIDs())
	assert.Equal(t, []string{"rnd"}, m.sess.Spec().Mapping.Series)
}

func TestEditorDragColumn(t *testing.T) {
	m := newTestEditor(t)
	m = send(m, mouse(tea.MouseActionPress, keyWidth+2*cellWidth, headerLine))
	require.Equal(t, gesture.Dragging, m.sess.Mode())

	m = send(m, mouse(tea.MouseActionRelease, columnX(0), headerLine))
	assert.Equal(t, gesture.Idle, m.sess.Mode())
	assert.Equal(t, []string{"rnd", "revenue", "cogs"}, m.sess.Dataset().Columns.IDs())
}

func TestEditorDragRow(t *testing.T) {
	m := newTestEditor(t)
	m = send(m,
		mouse(tea.MouseActionPress, 0, firstRow+2),
		mouse(tea.MouseActionRelease, handleW+1, firstRow),
	)
	assert.Equal(t, []string{"2021", "2019", "2020"}, m.sess.Dataset().Rows.Keys())

	// Released outside any header: the drag is abandoned.
	m = send(m,
		mouse(tea.MouseActionPress, 0, firstRow),
		mouse(tea.MouseActionRelease, 0, 0),
	)
	assert.Equal(t, gesture.Idle, m.sess.Mode())
	assert.Equal(t, []string{"2021", "2019", "2020"}, m.sess.Dataset().Rows.Keys())
}

func TestEditorRenameColumn(t *testing.T) {
	m := newTestEditor(t)
	m = send(m, key("r"))
	require.Equal(t, gesture.Renaming, m.sess.Mode())
	assert.Equal(t, "Revenue", m.input.Value())

	m = send(m, key("s"), key("enter"))
	assert.Equal(t, gesture.Idle, m.sess.Mode())
	c, _ := m.sess.Dataset().Columns.Column("revenue")
	assert.Equal(t, "Revenues", c.DisplayLabel())

	// A duplicate label is discarded.
	m = send(m, key("r"))
	for range len("Revenues") {
		m = send(m, key("backspace"))
	}
	m = send(m, key("COGS"), key("enter"))
	c, _ = m.sess.Dataset().Columns.Column("revenue")
	assert.Equal(t, "Revenues", c.DisplayLabel())
}

func TestEditorClickCommitsRename(t *testing.T) {
	m := newTestEditor(t)
	m = send(m, key("r"), key("!"))
	m = send(m, mouse(tea.MouseActionPress, columnX(1), headerLine), mouse(tea.MouseActionRelease, columnX(1), headerLine))

	c, _ := m.sess.Dataset().Columns.Column("revenue")
	assert.Equal(t, "Revenue!", c.DisplayLabel())
	assert.False(t, m.sess.Dataset().Columns.IsVisible("cogs"))
}

func TestEditorEditCell(t *testing.T) {
	m := newTestEditor(t)
	m = send(m, key("j"), key("e"))
	require.NotNil(t, m.editing)
	assert.Equal(t, "100", m.input.Value())

	m = send(m, key("backspace"), key("backspace"), key("backspace"), key("250"), key("enter"))
	assert.Nil(t, m.editing)
	r, _ := m.sess.Dataset().Rows.Row("2019")
	assert.True(t, r.Get("revenue").Equal(dataset.Number(250)), "got %v", r.Get("revenue"))
}

func TestEditorKeys(t *testing.T) {
	m := newTestEditor(t)

	m = send(m, key("l"), key("x"))
	assert.False(t, m.sess.Dataset().Columns.IsVisible("cogs"))

	m = send(m, key("c"))
	assert.Equal(t, mapping.Bar, m.sess.ChartType())

	m = send(m, key("h"), key("h"), key("j"), key("x"))
	assert.Equal(t, -1, m.cursorCol)
	assert.Len(t, m.sess.Spec().Rows, 2)

	m = send(m, key("a"))
	assert.Len(t, m.sess.Spec().Rows, 3)
	assert.True(t, m.sess.Dataset().Columns.IsVisible("cogs"))

	m = send(m, key("J"))
	assert.Equal(t, []string{"2020", "2019", "2021"}, m.sess.Dataset().Rows.Keys())
	assert.Equal(t, 1, m.cursorRow)

	m = send(m, key("k"), key("k"), key("l"), key("l"), key("]"))
	assert.Equal(t, []string{"revenue", "rnd", "cogs"}, m.sess.Dataset().Columns.IDs())

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEditorHitTest(t *testing.T) {
	m := newTestEditor(t)

	h, ok := m.hitTest(keyWidth+cellWidth, headerLine)
	require.True(t, ok)
	assert.Equal(t, gesture.Target{Kind: gesture.Column, ID: "cogs"}, h.target)
	assert.Equal(t, gesture.DragHandle, h.part)

	h, ok = m.hitTest(handleW+2, firstRow+1)
	require.True(t, ok)
	assert.Equal(t, gesture.Target{Kind: gesture.Row, ID: "2020"}, h.target)
	assert.Equal(t, gesture.Header, h.part)

	h, ok = m.hitTest(columnX(2), firstRow)
	require.True(t, ok)
	assert.False(t, h.header)
	assert.Equal(t, 2, h.col)

	for _, p := range [][2]int{{0, headerLine}, {keyWidth + 3*cellWidth, headerLine}, {0, firstRow + 3}, {5, 1}} {
		_, ok := m.hitTest(p[0], p[1])
		assert.False(t, ok, "hit at %v", p)
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t)
	view := m.View()
	for _, want := range []string{"finance.csv", "[line]", "Revenue", "2021", "series"} {
		assert.True(t, strings.Contains(view, want), "view missing %q", want)
	}
}
