package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"avivia/ledger"
	"avivia/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/xuri/excelize/v2"
)

// ExportCSV streams the (optionally filtered) bookings as CSV.
func (a *API) ExportCSV(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	bookings := a.Ledger.Filter(q.Get("date"), q.Get("period"), q.Get("q"))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=reservations-%s.csv", time.Now().Format("2006-01-02")))
	if err := ledger.WriteCSV(w, bookings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "export failed")
	}
}

// ExportXLSX builds a styled spreadsheet of the same projection.
func (a *API) ExportXLSX(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	bookings := a.Ledger.Filter(q.Get("date"), q.Get("period"), q.Get("q"))

	const sheet = "Reservations"
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "export failed")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for col, title := range ledger.CSVHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.Date, b.Period, b.HolderName, b.Household, b.Phone,
			strconv.Itoa(b.PartySize),
			time.Unix(b.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=reservations-%s.xlsx", time.Now().Format("2006-01-02")))
	if err := f.Write(w); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "export failed")
	}
}
