// Package profile caches resident contact details for form prefill. The
// cache is convenience data keyed by phone number; the booking ledger never
// reads it.
package profile

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"avivia/models"
	"avivia/rdx"
	"avivia/utils"

	"github.com/julienschmidt/httprouter"
)

const cacheTTL = 90 * 24 * time.Hour

func cacheKey(phone string) string {
	return "profile:" + strings.TrimSpace(phone)
}

// Save stores a profile under its phone number.
func Save(p models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return rdx.SetJSONString(cacheKey(p.Phone), string(data), cacheTTL)
}

// Load returns the cached profile for a phone number, nil when absent.
func Load(phone string) (*models.Profile, error) {
	raw, err := rdx.GetJSONString(cacheKey(phone))
	if err != nil || raw == "" {
		return nil, err
	}
	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func SaveProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p.Phone = ps.ByName("phone")
	if p.Phone == "" || p.HolderName == "" || p.Household == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing fields")
		return
	}
	if err := Save(p); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

func GetProfile(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	p, err := Load(ps.ByName("phone"))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if p == nil {
		utils.RespondWithError(w, http.StatusNotFound, "profile not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"profile": p})
}
