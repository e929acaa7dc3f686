package batch

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"avivia/ledger"
	"avivia/models"
	"avivia/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const sessionHeader = "X-Session-ID"

// API exposes the per-session selection batch over HTTP. The session id
// travels in the X-Session-ID header; a missing id gets one minted and
// echoed back, so clients just replay whatever they last saw.
type API struct {
	Manager *Manager
}

func NewAPI(m *Manager) *API {
	return &API{Manager: m}
}

func (a *API) batchFor(w http.ResponseWriter, r *http.Request) *Batch {
	sid := r.Header.Get(sessionHeader)
	if sid == "" {
		sid = uuid.NewString()
	}
	w.Header().Set(sessionHeader, sid)
	return a.Manager.Get(sid)
}

func (a *API) AddItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var item models.SelectionItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b := a.batchFor(w, r)
	if err := b.Add(item); err != nil {
		respondBatchError(w, err)
		return
	}

	count, people := b.Totals()
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"items":       b.Items(),
		"count":       count,
		"totalPeople": people,
	})
}

func (a *API) RemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	index, err := strconv.Atoi(ps.ByName("index"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid index")
		return
	}
	b := a.batchFor(w, r)
	if err := b.Remove(index); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"items": b.Items()})
}

func (a *API) Clear(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.batchFor(w, r).Clear()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

func (a *API) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b := a.batchFor(w, r)
	count, people := b.Totals()
	items := b.Items()
	if items == nil {
		items = []models.SelectionItem{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"items":       items,
		"count":       count,
		"totalPeople": people,
	})
}

// Commit books the whole selection with partial-success semantics and
// reports both outcomes for the confirmation box.
func (a *API) Commit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	committed, rejected := a.batchFor(w, r).Commit()
	if committed == nil {
		committed = []models.Booking{}
	}
	if rejected == nil {
		rejected = []RejectedItem{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"committed": committed,
		"rejected":  rejected,
	})
}

func respondBatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingField), errors.Is(err, ledger.ErrBadSlot):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadySelected),
		errors.Is(err, ledger.ErrDuplicateHousehold):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrSlotFull):
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{
			"error":             err.Error(),
			"waitlistAvailable": true,
		})
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "selection failed")
	}
}
