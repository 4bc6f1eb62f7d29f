package handler

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
	"github.com/Stevekk11/tcp-bank/internal/netmon"
	"github.com/Stevekk11/tcp-bank/internal/web"
)

const (
	healthz = "/healthz"
	stats   = "/stats"
)

// Application is the ops HTTP surface of the node: liveness plus the
// bank-wide aggregates, separate from the wire protocol.
type Application struct {
	DB      *sqlx.DB
	Store   *account.Store
	Monitor *netmon.Monitor
	handler http.Handler
}

func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func NewApplication(db *sqlx.DB, store *account.Store, monitor *netmon.Monitor) *Application {
	app := Application{
		DB:      db,
		Store:   store,
		Monitor: monitor,
	}

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, healthz, app.Healthz)
	router.HandlerFunc(http.MethodGet, stats, app.Stats)

	app.handler = router
	return &app
}

func (a *Application) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.PingContext(r.Context()); err != nil {
		web.RespondError(w, http.StatusServiceUnavailable, fmt.Sprintf("database unreachable: %s", err.Error()))
		return
	}

	web.Respond(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"network": a.Monitor.Available(),
	})
}

func (a *Application) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := a.Store.TotalBalance(r.Context())
	if err != nil {
		web.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("unable to sum balances: %s", err.Error()))
		return
	}

	owners, err := a.Store.OwnerCount(r.Context())
	if err != nil {
		web.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("unable to count owners: %s", err.Error()))
		return
	}

	web.Respond(w, http.StatusOK, map[string]interface{}{
		"totalBalance": total.String(),
		"owners":       owners,
	})
}
