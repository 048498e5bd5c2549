package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"taskdeck/internal/policy"

	"github.com/xuri/excelize/v2"
)

// ExportService renders boards as spreadsheets, one sheet per list.
type ExportService struct {
	boards *BoardService
}

// NewExportService creates a new export service
func NewExportService(boards *BoardService) *ExportService {
	return &ExportService{boards: boards}
}

// ExportBoardXLSX renders the board into an XLSX workbook. Cards appear in
// position order, which is why the export reads through the board service
// rather than raw tables.
func (s *ExportService) ExportBoardXLSX(ctx context.Context, userID, boardID string) ([]byte, string, error) {
	if _, err := s.boards.Authorize(ctx, boardID, userID, policy.ActionExportBoard); err != nil {
		return nil, "", err
	}

	board, err := s.boards.Get(ctx, userID, boardID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create style: %w", err)
	}

	headers := []string{"#", "Title", "Description", "Due Date", "Completed", "Created At"}

	for i, list := range board.Lists {
		sheet := sheetName(list.Title, i)
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, "", fmt.Errorf("failed to create sheet: %w", err)
			}
		}

		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet, cell, h)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
		}
		f.SetColWidth(sheet, "B", "C", 40)

		for row, card := range list.Cards {
			values := []interface{}{
				card.Position,
				card.Title,
				card.Description,
				"",
				card.Completed,
				card.CreatedAt.Format(time.RFC3339),
			}
			if card.DueDate != nil {
				values[3] = card.DueDate.Format("2006-01-02")
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
	}

	if len(board.Lists) == 0 {
		f.SetSheetName("Sheet1", "Empty Board")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.xlsx", sanitizeFilename(board.Title), time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// sheetName produces a valid, unique Excel sheet name. Excel caps names at
// 31 characters and forbids a handful of punctuation characters.
func sheetName(title string, index int) string {
	cleaned := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			cleaned = append(cleaned, '-')
		default:
			cleaned = append(cleaned, r)
		}
	}
	name := string(cleaned)
	suffix := fmt.Sprintf(" (%d)", index+1)
	if len(name) == 0 {
		return fmt.Sprintf("List %d", index+1)
	}
	// Drop whole runes so multibyte titles stay valid UTF-8.
	for len(name)+len(suffix) > 31 {
		r := []rune(name)
		name = string(r[:len(r)-1])
	}
	return name + suffix
}

func sanitizeFilename(name string) string {
	cleaned := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			cleaned = append(cleaned, r)
		case r == ' ':
			cleaned = append(cleaned, '-')
		}
	}
	if len(cleaned) == 0 {
		return "board"
	}
	return string(cleaned)
}
