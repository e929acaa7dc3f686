// Package confirm renders shareable confirmation artifacts for a booking:
// a QR image of the confirmation code and a printable PDF slip.
package confirm

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"avivia/ledger"
	"avivia/slots"
	"avivia/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

type API struct {
	Ledger *ledger.Ledger
}

func NewAPI(l *ledger.Ledger) *API {
	return &API{Ledger: l}
}

func (a *API) lookup(w http.ResponseWriter, ps httprouter.Params) (b bookingView, ok bool) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid booking id")
		return b, false
	}
	key, err := slots.Key(ps.ByName("date"), ps.ByName("period"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid slot")
		return b, false
	}
	booking, err := a.Ledger.Get(key, id)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return b, false
	}
	return bookingView{booking.Code, booking.HolderName, booking.Date, booking.Period,
		booking.Household, booking.PartySize, booking.CreatedAt}, true
}

type bookingView struct {
	Code       string
	HolderName string
	Date       string
	Period     string
	Household  string
	PartySize  int
	CreatedAt  int64
}

// QR serves a PNG QR code of the confirmation code, scannable at the door.
func (a *API) QR(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	b, ok := a.lookup(w, ps)
	if !ok {
		return
	}
	png, err := qrcode.Encode(b.Code, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// PDF serves a printable confirmation slip with the QR embedded.
func (a *API) PDF(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	b, ok := a.lookup(w, ps)
	if !ok {
		return
	}

	png, err := qrcode.Encode(b.Code, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Dinner Reservation")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Name: %s", b.HolderName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s  Period: %s", b.Date, b.Period))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Unit: %s   Party of %d", b.Household, b.PartySize))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Confirmation code: %s", b.Code))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Booked: %s", time.Unix(b.CreatedAt, 0).Format("2006-01-02 15:04")))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 15, 95, 60, 60, false, imageOpts, 0, "")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=reservation-%s.pdf", b.Code))
	if err := pdf.Output(w); err != nil {
		http.Error(w, "failed to render PDF", http.StatusInternalServerError)
	}
}
