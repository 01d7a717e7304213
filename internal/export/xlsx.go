package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
)

// SheetName is the worksheet holding exported reviews.
const SheetName = "Reviews"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []string{"id", "date", "rating", "tier", "product", "user", "handle", "comment"}

// WriteReviews writes reviews as an XLSX workbook with one header row and one
// row per review, in the given order. Dates are rendered in loc.
func WriteReviews(w io.Writer, reviews []domain.Review, loc *time.Location) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetColWidth(8, 8, 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range reviews {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := []any{
			r.ID,
			r.Date.In(loc).Format("2006-01-02 15:04"),
			r.Rating,
			r.RatingTier(),
			r.ProductName(),
			r.UserName(),
			r.User.Handle,
			r.Comment,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write review %d: %w", r.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName returns the download name for an export taken at now.
func FileName(now time.Time) string {
	return "reviews-" + now.Format("20060102-150405") + ".xlsx"
}
