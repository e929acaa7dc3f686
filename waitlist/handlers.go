package waitlist

import (
	"encoding/json"
	"errors"
	"net/http"

	"avivia/models"
	"avivia/slots"
	"avivia/utils"

	"github.com/julienschmidt/httprouter"
)

type API struct {
	Waitlist *Waitlist
}

func NewAPI(wl *Waitlist) *API {
	return &API{Waitlist: wl}
}

func (a *API) Join(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var entry models.WaitlistEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	position, err := a.Waitlist.Add(entry)
	switch {
	case errors.Is(err, ErrAlreadyWaitlisted):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrBadSlot):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, "waitlist signup failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"position": position})
}

// ListFor is admin-only; routes wrap it with authentication.
func (a *API) ListFor(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	key, err := slots.Key(ps.ByName("date"), ps.ByName("period"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"waitlist": a.Waitlist.ListFor(key)})
}
