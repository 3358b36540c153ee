package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Document"

var sheetHeader = []string{"Section", "Subtopic", "Content"}

// XLSX writes one row per section followed by one row per subtopic.
type XLSX struct{}

// Rows flattens doc into the sheet body, header excluded.
func Rows(doc Document) [][]string {
	var rows [][]string
	for _, sec := range doc.Sections {
		rows = append(rows, []string{sec.Heading(), "", ""})
		for _, st := range sec.Subtopics {
			rows = append(rows, []string{"", st.Heading(), st.Content})
		}
	}
	return rows
}

func (XLSX) Project(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &sheetHeader); err != nil {
		return nil, err
	}

	rows := Rows(doc)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "C1", header); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A2", fmt.Sprintf("C%d", len(rows)+1), wrap); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "B", 36); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "C", "C", 100); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
