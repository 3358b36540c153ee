package outline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutline() Outline {
	return Outline{
		MainTopic: "Retirement",
		Sections: []Section{
			{ID: "a", Title: "Savings", IsSelected: true, Subtopics: []SubTopic{
				{ID: "a1", Title: "401k", IsSelected: true},
				{ID: "a2", Title: "IRA", IsSelected: true, Content: "filled"},
			}},
			{ID: "b", Title: "Insurance", IsSelected: true, Subtopics: []SubTopic{
				{ID: "b1", Title: "Life", IsSelected: true},
			}},
			{ID: "c", Title: "Taxes", IsSelected: false, Subtopics: []SubTopic{
				{ID: "c1", Title: "Brackets", IsSelected: false},
				{ID: "c2", Title: "Deductions", IsSelected: false},
			}},
		},
	}
}

func sectionIDs(o Outline) []string {
	ids := make([]string, 0, len(o.Sections))
	for _, s := range o.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestToggleSectionSelection(t *testing.T) {
	t.Run("deselect clears subtopics", func(t *testing.T) {
		o := ToggleSectionSelection(sampleOutline(), "a")
		sec, _ := o.Section("a")
		assert.False(t, sec.IsSelected)
		for _, st := range sec.Subtopics {
			assert.False(t, st.IsSelected)
		}
	})

	t.Run("round trip restores section flag but not subtopic flags", func(t *testing.T) {
		orig := sampleOutline()
		o := ToggleSectionSelection(ToggleSectionSelection(orig, "a"), "a")
		sec, _ := o.Section("a")
		assert.True(t, sec.IsSelected)
		for _, st := range sec.Subtopics {
			assert.False(t, st.IsSelected, "cleared subtopic flags stay cleared")
		}
	})

	t.Run("select leaves subtopics untouched", func(t *testing.T) {
		o := ToggleSectionSelection(sampleOutline(), "c")
		sec, _ := o.Section("c")
		assert.True(t, sec.IsSelected)
		assert.False(t, sec.Subtopics[0].IsSelected)
		assert.False(t, sec.Subtopics[1].IsSelected)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		orig := sampleOutline()
		_ = ToggleSectionSelection(orig, "a")
		assert.Equal(t, sampleOutline(), orig)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		assert.Equal(t, sampleOutline(), ToggleSectionSelection(sampleOutline(), "zzz"))
	})
}

func TestToggleSubtopicSelection(t *testing.T) {
	o := ToggleSubtopicSelection(sampleOutline(), "b", "b1")
	sec, _ := o.Section("b")
	assert.False(t, sec.Subtopics[0].IsSelected)
	assert.False(t, sec.IsSelected, "section follows OR of its subtopics")

	o = ToggleSubtopicSelection(o, "b", "b1")
	sec, _ = o.Section("b")
	assert.True(t, sec.IsSelected)

	o = ToggleSubtopicSelection(sampleOutline(), "c", "c2")
	sec, _ = o.Section("c")
	assert.True(t, sec.IsSelected)
	assert.True(t, sec.Subtopics[1].IsSelected)
	assert.False(t, sec.Subtopics[0].IsSelected)

	o = ToggleSubtopicSelection(sampleOutline(), "a", "a1")
	sec, _ = o.Section("a")
	assert.True(t, sec.IsSelected, "one sibling still selected")
}

func TestAddSectionAndSubtopic(t *testing.T) {
	orig := newID
	defer func() { newID = orig }()
	seq := []string{"a", "x", "y", "a1", "z"}
	n := 0
	newID = func() string {
		id := seq[n%len(seq)]
		n++
		return id
	}

	o := AddSection(sampleOutline())
	require.Len(t, o.Sections, 4)
	added := o.Sections[3]
	assert.Equal(t, "x", added.ID, "colliding id is redrawn")
	assert.Equal(t, DefaultSectionTitle, added.Title)
	assert.True(t, added.IsSelected)
	require.Len(t, added.Subtopics, 1)
	assert.Equal(t, DefaultSubtopicTitle, added.Subtopics[0].Title)
	assert.Empty(t, added.Subtopics[0].Content)

	n = 3
	o = AddSubtopic(sampleOutline(), "a")
	sec, _ := o.Section("a")
	require.Len(t, sec.Subtopics, 3)
	assert.Equal(t, "z", sec.Subtopics[2].ID)
	assert.True(t, sec.Subtopics[2].IsSelected)
	assert.Empty(t, sec.Subtopics[2].Content)
}

func TestRename(t *testing.T) {
	o := RenameSection(sampleOutline(), "a", "Pensions")
	sec, _ := o.Section("a")
	assert.Equal(t, "Pensions", sec.Title)

	o = RenameSubtopic(o, "a", "a2", "Roth IRA")
	st, ok := o.Subtopic("a", "a2")
	require.True(t, ok)
	assert.Equal(t, "Roth IRA", st.Title)
	assert.Equal(t, "filled", st.Content)
}

func TestDeleteSection(t *testing.T) {
	o := sampleOutline()
	for _, id := range []string{"a", "b", "c"} {
		o = DeleteSection(o, id)
	}
	assert.Empty(t, o.Sections)
	assert.Len(t, sampleOutline().Sections, 3)
}

func TestDeleteSubtopic(t *testing.T) {
	t.Run("removes exactly one when two or more", func(t *testing.T) {
		before, _ := sampleOutline().Section("a")
		o := DeleteSubtopic(sampleOutline(), "a", "a1")
		after, _ := o.Section("a")
		assert.Len(t, after.Subtopics, len(before.Subtopics)-1)
		assert.Equal(t, "a2", after.Subtopics[0].ID)
	})

	t.Run("last subtopic is kept", func(t *testing.T) {
		o := DeleteSubtopic(sampleOutline(), "b", "b1")
		sec, _ := o.Section("b")
		assert.Len(t, sec.Subtopics, 1)
	})

	t.Run("recomputes section selection", func(t *testing.T) {
		o := ToggleSubtopicSelection(sampleOutline(), "a", "a2")
		o = DeleteSubtopic(o, "a", "a1")
		sec, _ := o.Section("a")
		assert.False(t, sec.IsSelected)
	})
}

func TestMoveSection(t *testing.T) {
	o := sampleOutline()
	assert.Equal(t, []string{"a", "b", "c"}, sectionIDs(MoveSectionUp(o, "a")))
	assert.Equal(t, []string{"a", "b", "c"}, sectionIDs(MoveSectionDown(o, "c")))
	assert.Equal(t, []string{"b", "a", "c"}, sectionIDs(MoveSectionUp(o, "b")))
	assert.Equal(t, []string{"a", "c", "b"}, sectionIDs(MoveSectionDown(o, "b")))
	assert.Equal(t, []string{"a", "b", "c"}, sectionIDs(o))
}

func TestMoveSubtopic(t *testing.T) {
	o := MoveSubtopicDown(sampleOutline(), "a", "a1")
	sec, _ := o.Section("a")
	assert.Equal(t, "a2", sec.Subtopics[0].ID)
	assert.Equal(t, "a1", sec.Subtopics[1].ID)

	o = MoveSubtopicUp(o, "a", "a2")
	assert.Equal(t, sampleOutline(), o)

	assert.Equal(t, sampleOutline(), MoveSubtopicUp(sampleOutline(), "a", "a1"))
	assert.Equal(t, sampleOutline(), MoveSubtopicDown(sampleOutline(), "a", "a2"))
}

func TestMoveSection_SwapsOnlyNeighbours(t *testing.T) {
	var o Outline
	for i := 0; i < 6; i++ {
		o.Sections = append(o.Sections, Section{ID: fmt.Sprint(i), Subtopics: []SubTopic{{ID: "s"}}})
	}
	for i := 1; i < 6; i++ {
		moved := MoveSectionUp(o, fmt.Sprint(i))
		ids := sectionIDs(moved)
		for k := range ids {
			switch k {
			case i - 1:
				assert.Equal(t, fmt.Sprint(i), ids[k])
			case i:
				assert.Equal(t, fmt.Sprint(i-1), ids[k])
			default:
				assert.Equal(t, fmt.Sprint(k), ids[k])
			}
		}
	}
}

func TestSetSubtopicContent(t *testing.T) {
	o := SetSubtopicContent(sampleOutline(), "a", "a1", "text")
	st, _ := o.Subtopic("a", "a1")
	assert.Equal(t, "text", st.Content)
	prev, _ := sampleOutline().Subtopic("a", "a1")
	assert.Empty(t, prev.Content)
}
