package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"avivia/metrics"
	"avivia/models"
	"avivia/slots"
	"avivia/utils"

	"github.com/julienschmidt/httprouter"
)

// API exposes the ledger over HTTP.
type API struct {
	Ledger *Ledger
}

func NewAPI(l *Ledger) *API {
	return &API{Ledger: l}
}

type bookingRequest struct {
	Date       string `json:"date"`
	Period     string `json:"period"`
	HolderName string `json:"holderName"`
	Household  string `json:"household"`
	Phone      string `json:"phone"`
	PartySize  int    `json:"partySize"`
}

func (a *API) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	booking, err := a.Ledger.TryBook(req.Date, req.Period, Candidate{
		HolderName: req.HolderName,
		Household:  req.Household,
		Phone:      req.Phone,
		PartySize:  req.PartySize,
	})
	if err != nil {
		respondBookingError(w, err)
		return
	}

	metrics.BookingsCreated.Inc()
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"booking": booking})
}

func (a *API) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	key, err := slots.Key(ps.ByName("date"), ps.ByName("period"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	if err := a.Ledger.Cancel(id, key); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	metrics.BookingsCancelled.Inc()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

func (a *API) ListBookings(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	bookings := a.Ledger.ListAll()
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": bookings})
}

// SearchBookings backs the "my reservations" lookup by phone, code, or name.
func (a *API) SearchBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query().Get("q")
	if q == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing query")
		return
	}
	found := a.Ledger.Find(q)
	if found == nil {
		found = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": found})
}

func (a *API) GetAvailability(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	date, period := ps.ByName("date"), ps.ByName("period")
	if !slots.ValidPeriod(period) {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown period")
		return
	}
	key, err := slots.Key(date, period)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	occ := a.Ledger.Occupancy(key)
	avail := slots.Availability(occ)
	utils.RespondWithJSON(w, http.StatusOK, models.SlotInfo{
		Date:      date,
		Period:    period,
		Occupied:  occ,
		Available: avail,
		Percent:   slots.OccupancyPercent(occ),
		Status:    slots.Status(avail),
	})
}

// Calendar returns the availability grid for a date range, every period
// included even when a slot has no bookings yet.
func (a *API) Calendar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	start := time.Now()
	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		start = parsed
	}
	end := start.AddDate(0, 0, 6)
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil || parsed.Before(start) {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		end = parsed
	}

	var grid []models.SlotInfo
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		for _, period := range slots.Periods() {
			key, _ := slots.Key(date, period)
			occ := a.Ledger.Occupancy(key)
			avail := slots.Availability(occ)
			grid = append(grid, models.SlotInfo{
				Date:      date,
				Period:    period,
				Occupied:  occ,
				Available: avail,
				Percent:   slots.OccupancyPercent(occ),
				Status:    slots.Status(avail),
			})
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"slots": grid})
}

// respondBookingError maps core errors onto HTTP statuses. A full slot
// advertises the waitlist fallback.
func respondBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotFull):
		metrics.BookingsRejected.WithLabelValues("slot-full").Inc()
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{
			"error":             err.Error(),
			"waitlistAvailable": true,
		})
	case errors.Is(err, ErrDuplicateHousehold):
		metrics.BookingsRejected.WithLabelValues("household-duplicate").Inc()
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNameTooShort), errors.Is(err, ErrBadPhone),
		errors.Is(err, ErrPartySize), errors.Is(err, ErrBadSlot):
		metrics.BookingsRejected.WithLabelValues("validation").Inc()
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "booking failed")
	}
}
