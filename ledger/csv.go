package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"avivia/models"
)

// CSVHeader is the fixed export header, one row per booking.
var CSVHeader = []string{"Date", "Period", "Name", "Household", "Phone", "PartySize", "CreatedAt"}

// WriteCSV streams bookings as CSV. encoding/csv quotes embedded commas, so
// free-text fields cannot break the row structure.
func WriteCSV(w io.Writer, bookings []models.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range bookings {
		row := []string{
			b.Date,
			b.Period,
			b.HolderName,
			b.Household,
			b.Phone,
			strconv.Itoa(b.PartySize),
			time.Unix(b.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
