package outline

// The operations below are total: an unknown id or a boundary position
// returns an unchanged copy instead of an error.

// ToggleSectionSelection flips a section. Deselecting clears every
// subtopic; selecting leaves subtopic flags as they are.
func ToggleSectionSelection(o Outline, sectionID string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		s.IsSelected = !s.IsSelected
		if !s.IsSelected {
			for j := range s.Subtopics {
				s.Subtopics[j].IsSelected = false
			}
		}
	})
}

// ToggleSubtopicSelection flips one subtopic and recomputes the parent flag
// as the OR of its children.
func ToggleSubtopicSelection(o Outline, sectionID, subtopicID string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		j := s.subtopicIndex(subtopicID)
		if j < 0 {
			return
		}
		s.Subtopics[j].IsSelected = !s.Subtopics[j].IsSelected
		s.IsSelected = anySubtopicSelected(s.Subtopics)
	})
}

// AddSection appends a selected "New Section" holding one "New Subtopic".
func AddSection(o Outline) Outline {
	out := o.Clone()
	id := freshID(func(id string) bool { return out.sectionIndex(id) >= 0 })
	out.Sections = append(out.Sections, Section{
		ID:         id,
		Title:      DefaultSectionTitle,
		IsSelected: true,
		Subtopics: []SubTopic{{
			ID:         newID(),
			Title:      DefaultSubtopicTitle,
			IsSelected: true,
		}},
	})
	return out
}

// AddSubtopic appends a selected "New Subtopic" with empty content.
func AddSubtopic(o Outline, sectionID string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		id := freshID(func(id string) bool { return s.subtopicIndex(id) >= 0 })
		s.Subtopics = append(s.Subtopics, SubTopic{
			ID:         id,
			Title:      DefaultSubtopicTitle,
			IsSelected: true,
		})
	})
}

func RenameSection(o Outline, sectionID, title string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		s.Title = title
	})
}

func RenameSubtopic(o Outline, sectionID, subtopicID, title string) Outline {
	return updateSubtopic(o, sectionID, subtopicID, func(t *SubTopic) {
		t.Title = title
	})
}

// SetSubtopicContent overwrites the content of one subtopic.
func SetSubtopicContent(o Outline, sectionID, subtopicID, content string) Outline {
	return updateSubtopic(o, sectionID, subtopicID, func(t *SubTopic) {
		t.Content = content
	})
}

// DeleteSection removes a section. An outline may end up with none.
func DeleteSection(o Outline, sectionID string) Outline {
	out := o.Clone()
	i := out.sectionIndex(sectionID)
	if i < 0 {
		return out
	}
	out.Sections = append(out.Sections[:i], out.Sections[i+1:]...)
	return out
}

// DeleteSubtopic removes a subtopic unless it is the last one in its section.
func DeleteSubtopic(o Outline, sectionID, subtopicID string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		j := s.subtopicIndex(subtopicID)
		if j < 0 || len(s.Subtopics) <= 1 {
			return
		}
		s.Subtopics = append(s.Subtopics[:j], s.Subtopics[j+1:]...)
		s.IsSelected = anySubtopicSelected(s.Subtopics)
	})
}

func MoveSectionUp(o Outline, sectionID string) Outline {
	out := o.Clone()
	swapAdjacent(out.Sections, out.sectionIndex(sectionID), -1)
	return out
}

func MoveSectionDown(o Outline, sectionID string) Outline {
	out := o.Clone()
	swapAdjacent(out.Sections, out.sectionIndex(sectionID), +1)
	return out
}

func MoveSubtopicUp(o Outline, sectionID, subtopicID string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		swapAdjacent(s.Subtopics, s.subtopicIndex(subtopicID), -1)
	})
}

func MoveSubtopicDown(o Outline, sectionID, subtopicID string) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		swapAdjacent(s.Subtopics, s.subtopicIndex(subtopicID), +1)
	})
}

func swapAdjacent[T any](items []T, i, delta int) {
	j := i + delta
	if i < 0 || j < 0 || j >= len(items) {
		return
	}
	items[i], items[j] = items[j], items[i]
}

func updateSection(o Outline, sectionID string, fn func(*Section)) Outline {
	out := o.Clone()
	if i := out.sectionIndex(sectionID); i >= 0 {
		fn(&out.Sections[i])
	}
	return out
}

func updateSubtopic(o Outline, sectionID, subtopicID string, fn func(*SubTopic)) Outline {
	return updateSection(o, sectionID, func(s *Section) {
		if j := s.subtopicIndex(subtopicID); j >= 0 {
			fn(&s.Subtopics[j])
		}
	})
}

func anySubtopicSelected(subs []SubTopic) bool {
	for _, st := range subs {
		if st.IsSelected {
			return true
		}
	}
	return false
}
