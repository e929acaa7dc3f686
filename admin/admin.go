package admin

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"avivia/globals"
	"avivia/ledger"
	"avivia/middleware"
	"avivia/utils"
	"avivia/waitlist"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 12 * time.Hour

// API serves the admin panel: login, dashboard stats, filtered listings and
// exports. Everything except Login sits behind middleware.Authenticate.
type API struct {
	Ledger   *ledger.Ledger
	Waitlist *waitlist.Waitlist
}

func NewAPI(l *ledger.Ledger, wl *waitlist.Waitlist) *API {
	return &API{Ledger: l, Waitlist: wl}
}

// Login checks the shared admin password and mints a session token. The
// password is configured as a bcrypt hash; a plaintext ADMIN_PASSWORD is
// accepted as a fallback for local setups.
func (a *API) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing password")
		return
	}

	if !checkPassword(body.Password) {
		utils.RespondWithError(w, http.StatusUnauthorized, "wrong password")
		return
	}

	claims := &middleware.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(globals.JwtSecret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": signed})
}

func checkPassword(password string) bool {
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	if plain := os.Getenv("ADMIN_PASSWORD"); plain != "" {
		return password == plain
	}
	return false
}

func (a *API) Stats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, a.Ledger.Stats())
}

// ListBookings returns the flattened ledger narrowed by the admin filters.
func (a *API) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	bookings := a.Ledger.Filter(q.Get("date"), q.Get("period"), q.Get("q"))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
