// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ransomtrace/ransomtrace/app/services/tracer/handlers/v1/tracegrp"
	"github.com/ransomtrace/ransomtrace/foundation/events"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/state"
	"github.com/ransomtrace/ransomtrace/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	tgh := tracegrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", tgh.Events)
	app.Handle(http.MethodPost, version, "/trace", tgh.Submit)
	app.Handle(http.MethodGet, version, "/trace", tgh.Query)
	app.Handle(http.MethodGet, version, "/trace/:id", tgh.QueryByID)
	app.Handle(http.MethodGet, version, "/trace/:id/edges", tgh.Edges)
	app.Handle(http.MethodGet, version, "/flow/:address", tgh.Flow)
	app.Handle(http.MethodGet, version, "/flow/:address/graph", tgh.FlowGraph)
	app.Handle(http.MethodGet, version, "/labels/:address", tgh.Label)
	app.Handle(http.MethodGet, version, "/seeds", tgh.Seeds)
	app.Handle(http.MethodPost, version, "/seeds/trace", tgh.TraceSeeds)
}
