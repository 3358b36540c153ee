package knowledge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutlineDraft(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		draft, err := ParseOutlineDraft([]byte(`{"sections":[{"title":" Intro ","subtopics":["Why"," How ",""]}]}`))
		require.NoError(t, err)
		require.Len(t, draft.Sections, 1)
		assert.Equal(t, "Intro", draft.Sections[0].Title)
		assert.Equal(t, []string{"Why", "How"}, draft.Sections[0].Subtopics)
	})

	t.Run("fenced payload", func(t *testing.T) {
		raw := "```json\n{\"sections\":[{\"title\":\"A\",\"subtopics\":[\"b\"]}]}\n```"
		draft, err := ParseOutlineDraft([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "A", draft.Sections[0].Title)
	})

	cases := map[string]string{
		"not json":          `sections: nope`,
		"missing sections":  `{"outline":[]}`,
		"empty sections":    `{"sections":[]}`,
		"subtopic not text": `{"sections":[{"title":"A","subtopics":[1]}]}`,
		"no subtopics":      `{"sections":[{"title":"A","subtopics":[]}]}`,
		"blank title":       `{"sections":[{"title":"   ","subtopics":["x"]}]}`,
		"blank subtopics":   `{"sections":[{"title":"A","subtopics":["  "]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOutlineDraft([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOutline))
		})
	}
}

func TestOutlineDraft_Outline(t *testing.T) {
	draft := OutlineDraft{Sections: []DraftSection{
		{Title: "Intro", Subtopics: []string{"Why", "How"}},
		{Title: "Close", Subtopics: []string{"Summary"}},
	}}
	o := draft.Outline("Budgeting")
	assert.Equal(t, "Budgeting", o.MainTopic)
	require.Len(t, o.Sections, 2)
	assert.Equal(t, "How", o.Sections[0].Subtopics[1].Title)
	assert.NotEqual(t, o.Sections[0].ID, o.Sections[1].ID)
}

func TestResult(t *testing.T) {
	ok := Ok("text")
	v, err := ok.Unwrap()
	assert.True(t, ok.IsOk())
	assert.NoError(t, err)
	assert.Equal(t, "text", v)

	bad := Err[string](errors.New("boom"))
	assert.False(t, bad.IsOk())
	assert.EqualError(t, bad.Reason(), "boom")

	assert.False(t, Err[int](nil).IsOk())
}
