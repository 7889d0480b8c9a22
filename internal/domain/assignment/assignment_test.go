package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/feedback-helper/internal/domain/phrase"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

func newTestAssignment(t *testing.T) *Assignment {
	t.Helper()
	a, err := New(NewParams{
		Title:        "  CS2101-P2 ",
		HeadingsText: "Code\nReport\n\nOverall\nCode\n",
		Students:     []shared.StudentID{"e0002", "e0001", "e0003", "e0001"},
		Directory:    "/tmp/p2",
		Style:        DefaultExportStyle(),
	})
	require.NoError(t, err)
	a.PullEvents()
	return a
}

func eventTypes(events []shared.Event) []shared.EventType {
	out := make([]shared.EventType, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}

// requireConsistent checks the key-set invariants and that the incremental
// usage index equals a full recount.
func requireConsistent(t *testing.T, a *Assignment) {
	t.Helper()
	require.True(t, a.checkInvariants())

	want := phrase.NewUsageIndex(a.headings)
	for _, h := range a.headings {
		var texts []string
		for _, d := range a.documents {
			text, err := d.Section(h)
			require.NoError(t, err)
			texts = append(texts, text)
		}
		want.Recompute(h, texts, a.style.LineMarker)
		assert.Equal(t, want.ForHeading(h), a.Phrases(h), h)
	}
}

func TestNew(t *testing.T) {
	a := newTestAssignment(t)

	assert.Equal(t, "CS2101-P2", a.Title())
	assert.Equal(t, []string{"Code", "Report", "Overall"}, a.Headings())
	assert.Equal(t, []shared.StudentID{"e0001", "e0002", "e0003"}, a.StudentIDs())
	assert.True(t, a.Dirty())
	requireConsistent(t, a)
}

func TestNew_Rejections(t *testing.T) {
	_, err := New(NewParams{Title: " ", Style: DefaultExportStyle()})
	assert.ErrorIs(t, err, shared.ErrBlankTitle)

	_, err = New(NewParams{Title: "T", Students: []shared.StudentID{"bad id"}, Style: DefaultExportStyle()})
	assert.ErrorIs(t, err, shared.ErrInvalidIdentifier)

	_, err = New(NewParams{Title: "T", Style: ExportStyle{}})
	assert.ErrorIs(t, err, shared.ErrInvalidStyle)
}

func TestAddStudent(t *testing.T) {
	a := newTestAssignment(t)

	require.NoError(t, a.AddStudent("e0009"))
	events := a.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.StudentID("e0009"), events[0].(shared.NewStudentEvent).StudentID)

	doc, err := a.Document("e0009")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Len())

	assert.ErrorIs(t, a.AddStudent("e0009"), shared.ErrDuplicateStudent)
	assert.ErrorIs(t, a.AddStudent("no way"), shared.ErrInvalidIdentifier)
	assert.Empty(t, a.PullEvents())
	requireConsistent(t, a)
}

func TestUpdateSection_MaintainsIndex(t *testing.T) {
	a := newTestAssignment(t)

	require.NoError(t, a.UpdateSection("e0001", "Code", "- X\n- Y"))
	require.NoError(t, a.UpdateSection("e0002", "Code", "- Y"))
	assert.Equal(t, []shared.EventType{
		shared.EventPhraseAdded, shared.EventPhraseAdded, shared.EventPhraseCountUpdated,
	}, eventTypes(a.PullEvents()))

	require.NoError(t, a.UpdateSection("e0001", "Code", "- Y\n- Z"))
	assert.Equal(t, []shared.EventType{shared.EventPhraseDeleted, shared.EventPhraseAdded}, eventTypes(a.PullEvents()))

	assert.Equal(t, 0, a.PhraseCount("Code", "X"))
	assert.Equal(t, 2, a.PhraseCount("Code", "Y"))
	assert.Equal(t, 1, a.PhraseCount("Code", "Z"))
	requireConsistent(t, a)
}

func TestUpdateSection_SameTextIsNoop(t *testing.T) {
	a := newTestAssignment(t)
	require.NoError(t, a.UpdateSection("e0001", "Code", "- X"))
	a.PullEvents()
	a.MarkClean()

	require.NoError(t, a.UpdateSection("e0001", "Code", "- X"))
	assert.Empty(t, a.PullEvents())
	assert.False(t, a.Dirty())
}

func TestUpdateSection_Errors(t *testing.T) {
	a := newTestAssignment(t)
	assert.ErrorIs(t, a.UpdateSection("nobody", "Code", "x"), shared.ErrUnknownStudent)
	assert.ErrorIs(t, a.UpdateSection("e0001", "Nope", "x"), shared.ErrUnknownHeading)
	assert.Empty(t, a.PullEvents())
}

func TestUpdateGrade(t *testing.T) {
	a := newTestAssignment(t)

	require.NoError(t, a.UpdateGrade("e0001", 14.5))
	events := a.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventGradeUpdated, events[0].EventType())

	assert.ErrorIs(t, a.UpdateGrade("e0001", 21), shared.ErrInvalidGrade)
	assert.ErrorIs(t, a.UpdateGrade("e0001", -1), shared.ErrInvalidGrade)
	assert.ErrorIs(t, a.UpdateGrade("ghost", 3), shared.ErrUnknownStudent)

	doc, _ := a.Document("e0001")
	assert.Equal(t, 14.5, doc.Grade())
}

func TestRenameHeading(t *testing.T) {
	a := newTestAssignment(t)
	require.NoError(t, a.UpdateSection("e0001", "Report", "- Clear\nGood structure."))
	require.NoError(t, a.UpdateSection("e0002", "Report", "- Clear"))
	require.NoError(t, a.AddCustomPhrase("Report", "Add figures."))
	a.PullEvents()

	require.NoError(t, a.RenameHeading("Report", "  Report quality "))

	assert.Equal(t, []string{"Code", "Report quality", "Overall"}, a.Headings())
	events := a.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, []string{"Code", "Report quality", "Overall"}, events[0].(shared.HeadingsUpdatedEvent).Headings)

	doc, _ := a.Document("e0001")
	text, err := doc.Section("Report quality")
	require.NoError(t, err)
	assert.Equal(t, "- Clear\nGood structure.", text)

	assert.False(t, a.HasHeading("Report"))
	assert.Empty(t, a.CustomPhrases("Report"))
	assert.Equal(t, []string{"Add figures."}, a.CustomPhrases("Report quality"))
	assert.Equal(t, 2, a.PhraseCount("Report quality", "Clear"))
	assert.Equal(t, 0, a.PhraseCount("Report", "Clear"))
	requireConsistent(t, a)
}

func TestRenameHeading_Rejections(t *testing.T) {
	a := newTestAssignment(t)

	assert.ErrorIs(t, a.RenameHeading("Report", "Overall"), shared.ErrDuplicateHeading)
	assert.ErrorIs(t, a.RenameHeading("Report", " \t"), shared.ErrBlankHeading)
	assert.ErrorIs(t, a.RenameHeading("Missing", "New"), shared.ErrUnknownHeading)
	require.NoError(t, a.RenameHeading("Report", "Report"))

	assert.Equal(t, []string{"Code", "Report", "Overall"}, a.Headings())
	assert.Empty(t, a.PullEvents())
	requireConsistent(t, a)
}

func TestUpdateStyle_NewMarkerRecountsEverything(t *testing.T) {
	a := newTestAssignment(t)
	require.NoError(t, a.UpdateSection("e0001", "Code", "- dash\n* star"))
	assert.Equal(t, 1, a.PhraseCount("Code", "dash"))
	a.PullEvents()

	style := DefaultExportStyle()
	style.LineMarker = "* "
	require.NoError(t, a.UpdateStyle(style))

	events := a.PullEvents()
	assert.Equal(t, []shared.EventType{shared.EventInfo, shared.EventHeadingsUpdated}, eventTypes(events))
	assert.Equal(t, a.Headings(), events[1].(shared.HeadingsUpdatedEvent).Headings)

	assert.Equal(t, 0, a.PhraseCount("Code", "dash"))
	assert.Equal(t, 1, a.PhraseCount("Code", "star"))
	requireConsistent(t, a)

	assert.ErrorIs(t, a.UpdateStyle(ExportStyle{LineMarker: " "}), shared.ErrInvalidStyle)
}

func TestCustomPhrases(t *testing.T) {
	a := newTestAssignment(t)

	require.NoError(t, a.AddCustomPhrase("Overall", "Great job."))
	require.NoError(t, a.AddCustomPhrase("Overall", "See feedback above."))
	require.NoError(t, a.AddCustomPhrase("Overall", "Great job."))
	require.NoError(t, a.AddCustomPhrase("Overall", "- "))
	assert.Equal(t, []shared.EventType{shared.EventCustomPhraseAdded, shared.EventCustomPhraseAdded}, eventTypes(a.PullEvents()))

	from, to, err := a.ReorderCustomPhrase("Overall", "Great job.", -1)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 0}, [2]int{from, to})
	events := a.PullEvents()
	require.Len(t, events, 1)
	reordered := events[0].(shared.CustomPhraseReorderedEvent)
	assert.Equal(t, 0, reordered.OldPos)
	assert.Equal(t, 0, reordered.NewPos)

	from, to, err = a.ReorderCustomPhrase("Overall", "Great job.", 1)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 1}, [2]int{from, to})
	assert.Equal(t, []string{"See feedback above.", "Great job."}, a.CustomPhrases("Overall"))

	require.NoError(t, a.DeleteCustomPhrase("Overall", "Great job."))
	assert.ErrorIs(t, a.DeleteCustomPhrase("Overall", "Great job."), shared.ErrPhraseNotFound)
	assert.ErrorIs(t, a.AddCustomPhrase("Nope", "x"), shared.ErrUnknownHeading)
	assert.Equal(t, []string{"See feedback above."}, a.CustomPhrases("Overall"))
}

func TestGradeHistogram(t *testing.T) {
	a := newTestAssignment(t)
	require.NoError(t, a.UpdateGrade("e0001", 12.3))
	require.NoError(t, a.UpdateGrade("e0002", 12.5))

	h := a.GradeHistogram()
	assert.Equal(t, 2, h.Count(12.5))
	assert.Equal(t, 1, h.Count(0))
	assert.Equal(t, 3, h.Total())

	rows := h.Rows()
	require.Len(t, rows, 41)
	assert.Equal(t, 0.0, rows[0].Grade)
	assert.Equal(t, 20.0, rows[40].Grade)
	assert.Equal(t, GradeCount{Grade: 12.5, Count: 2}, rows[25])
}

func TestRestore_RecomputesIndex(t *testing.T) {
	a, err := Restore(RestoreParams{
		Title:     "Lab",
		Headings:  []string{"Code", "Overall"},
		Directory: "/data",
		Style:     DefaultExportStyle(),
		Documents: []DocumentState{
			{StudentID: "e1", Sections: map[string]string{"Code": "- ok\n- ok"}, Grade: 10},
			{StudentID: "e2", Sections: map[string]string{"Code": "- ok"}},
		},
		CustomPhrases: map[string][]string{"Overall": {"b", "a"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, a.PhraseCount("Code", "ok"))
	assert.Equal(t, []string{"b", "a"}, a.CustomPhrases("Overall"))
	assert.False(t, a.Dirty())
	requireConsistent(t, a)

	_, err = Restore(RestoreParams{
		Title: "Lab", Style: DefaultExportStyle(),
		Documents: []DocumentState{{StudentID: "e1"}, {StudentID: "e1"}},
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateStudent)
}

func TestParseHeadings(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, ParseHeadings(" A \n\nB\nA\n  \n"))
	assert.Empty(t, ParseHeadings(""))
}

func TestUpdateStyle_SameMarkerKeepsPhraseViews(t *testing.T) {
	a := newTestAssignment(t)

	style := DefaultExportStyle()
	style.HeadingPrefix = "## "
	require.NoError(t, a.UpdateStyle(style))
	assert.Equal(t, []shared.EventType{shared.EventInfo}, eventTypes(a.PullEvents()))
}
