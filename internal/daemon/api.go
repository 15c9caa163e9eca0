package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/statekit/apps/bank"
	"github.com/kbukum/statekit/apps/movies"
	"github.com/kbukum/statekit/apps/pokedex"
	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/server"
	"github.com/kbukum/statekit/server/endpoint"
	"github.com/kbukum/statekit/server/middleware"
	"github.com/kbukum/statekit/sse"
	"github.com/kbukum/statekit/store"
	"github.com/kbukum/statekit/validation"
)

func (d *Daemon) routes() {
	r := d.server.Engine()

	r.GET("/health", endpoint.Health(func(ctx context.Context) *observability.ServiceHealth {
		return d.registry.Health(ctx, d.cfg.Name, d.cfg.Version)
	}))
	r.GET("/alive", endpoint.Liveness(d.cfg.Name, d.cfg.Version))

	r.GET("/state", d.allState)
	r.GET("/state/:store", d.oneState)
	r.GET("/events", d.events)
	d.server.Mount("/ws", http.HandlerFunc(d.socket))

	limit := middleware.GinWrap(middleware.RateLimit(d.actions))
	r.GET("/actions", d.actionTypes)
	r.POST("/actions", limit, d.dispatch)
	r.GET("/state/:store/actions", d.storeActionTypes)
	r.POST("/state/:store/actions", limit, d.dispatchTo)

	r.GET("/pokemon", d.pokemonList)
	r.GET("/pokemon/:name", d.pokemonByName)

	r.GET("/movies/search", d.searchMovies)
	r.GET("/movies/watched", d.watched)
	r.POST("/movies/watched", d.addWatched)
	r.DELETE("/movies/watched/:id", d.removeWatched)
}

func (d *Daemon) storeFor(c *gin.Context, name string) (*hostedStore, bool) {
	st, ok := d.stores[name]
	if !ok {
		server.RespondWithError(c, errors.NotFound("store", name))
	}
	return st, ok
}

func (d *Daemon) allState(c *gin.Context) {
	out := make(map[string]any, len(d.stores))
	for name, st := range d.stores {
		out[name] = st.state()
	}
	server.RespondOK(c, out)
}

func (d *Daemon) oneState(c *gin.Context) {
	st, ok := d.storeFor(c, c.Param("store"))
	if !ok {
		return
	}
	c.Header("X-Store-Version", fmt.Sprint(st.version()))
	server.RespondOK(c, st.state())
}

// events streams snapshots of ?store= (default bank) until the client leaves.
func (d *Daemon) events(c *gin.Context) {
	name := c.DefaultQuery("store", "bank")
	st, ok := d.storeFor(c, name)
	if !ok {
		return
	}
	h := sse.NewHandler(d.hub, d.cfg.Server.KeepAlive)
	h.Initial = st.snapshot
	h.Serve(c.Writer, c.Request, name+":"+uuid.NewString())
}

// socket is the two-way form of events: the client also sends action
// envelopes, which run on the same store. It is mounted outside Gin
// because the upgrade hijacks the connection.
func (d *Daemon) socket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("store")
	if name == "" {
		name = "bank"
	}
	st, ok := d.stores[name]
	if !ok {
		server.WriteError(w, errors.NotFound("store", name))
		return
	}
	h := sse.NewWSHandler(d.hub, d.cfg.Server.KeepAlive, originPatterns(d.cfg.Server.CORS.AllowedOrigins))
	h.Initial = st.snapshot
	h.OnMessage = func(ctx context.Context, data []byte) error {
		var env store.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return errors.InvalidInput("message", err.Error())
		}
		return st.run(ctx, env)
	}
	h.Serve(w, r, name+":"+uuid.NewString())
}

// originPatterns turns CORS origins into the host patterns the WebSocket
// upgrade checks.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, strings.TrimSuffix(o, "/"))
	}
	return out
}

func (d *Daemon) actionTypes(c *gin.Context) {
	server.RespondOK(c, d.stores["bank"].actionTypes())
}

func (d *Daemon) storeActionTypes(c *gin.Context) {
	st, ok := d.storeFor(c, c.Param("store"))
	if !ok {
		return
	}
	server.RespondOK(c, st.actionTypes())
}

func bindEnvelope(c *gin.Context) (store.Envelope, bool) {
	var env store.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return env, false
	}
	return env, true
}

// dispatch decodes a {type, payload} envelope and runs it on the bank store.
// Conversions block until settled, so the reply carries the final state.
func (d *Daemon) dispatch(c *gin.Context) {
	env, ok := bindEnvelope(c)
	if !ok {
		return
	}
	if err := d.stores["bank"].run(c.Request.Context(), env); err != nil {
		server.RespondWithError(c, err)
		return
	}
	state := d.bank.GetState()
	server.RespondOK(c, gin.H{
		"version":  d.bank.Version(),
		"account":  bank.AccountSlice.Get(state),
		"customer": bank.CustomerSlice.Get(state),
	})
}

// dispatchTo runs an envelope on the store named in the path and replies
// with its new state.
func (d *Daemon) dispatchTo(c *gin.Context) {
	st, ok := d.storeFor(c, c.Param("store"))
	if !ok {
		return
	}
	env, ok := bindEnvelope(c)
	if !ok {
		return
	}
	if err := st.run(c.Request.Context(), env); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"version": st.version(), "state": st.state()})
}

func (d *Daemon) pokemonList(c *gin.Context) {
	res, err := query.Fetch(c.Request.Context(), d.cache, d.pokeAPI.Pokemons, pokedex.NoArg{})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res.Data)
}

type pokemonView struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	HeightM  float64  `json:"heightMeters"`
	WeightKg float64  `json:"weightKilograms"`
	Types    []string `json:"types"`
	Sprite   string   `json:"sprite,omitempty"`
}

// pokemonByName fetches through the cache and selects the pokemon on success.
func (d *Daemon) pokemonByName(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := query.Fetch(ctx, d.cache, d.pokeAPI.PokemonByName, c.Param("name"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	p := res.Data
	if err := d.pokedex.Dispatch(ctx, pokedex.Select{Name: p.Name}); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, pokemonView{
		ID:       p.ID,
		Name:     p.Name,
		HeightM:  p.HeightMeters(),
		WeightKg: p.WeightKilograms(),
		Types:    p.TypeNames(),
		Sprite:   p.Sprites.FrontDefault,
	})
}

func (d *Daemon) searchMovies(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(q) < movies.MinQueryLength {
		server.RespondWithError(c, errors.Validation(movies.MessageTooShort))
		return
	}
	res, err := query.Fetch(c.Request.Context(), d.cache, d.movieAPI.Search, q)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, res.Data.Search)
}

type watchedView struct {
	Movies  []movies.WatchedMovie `json:"movies"`
	Summary movies.Summary        `json:"summary"`
	Label   string                `json:"label"`
}

func (d *Daemon) watchedView() watchedView {
	list := movies.WatchedSlice.Get(d.movies.GetState())
	sorted := append([]movies.WatchedMovie(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })
	sum := movies.Summarize(list)
	return watchedView{Movies: sorted, Summary: sum, Label: sum.CountLabel()}
}

func (d *Daemon) watched(c *gin.Context) {
	server.RespondOK(c, d.watchedView())
}

type addWatchedRequest struct {
	ImdbID     string `json:"imdbID" validate:"required"`
	UserRating int    `json:"userRating" validate:"min=1,max=10"`
}

// addWatched looks the movie up through the cache and adds it to the list.
func (d *Daemon) addWatched(c *gin.Context) {
	var req addWatchedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	res, err := query.Fetch(ctx, d.cache, d.movieAPI.Details, req.ImdbID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	w, err := movies.NewWatched(res.Data, req.UserRating)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := d.movies.Dispatch(ctx, movies.AddWatched{Movie: w}); err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, server.DataResponse{Data: d.watchedView()})
}

func (d *Daemon) removeWatched(c *gin.Context) {
	id := c.Param("id")
	if !movies.IsWatched(movies.WatchedSlice.Get(d.movies.GetState()), id) {
		server.RespondWithError(c, errors.NotFound("watched movie", id))
		return
	}
	if err := d.movies.Dispatch(c.Request.Context(), movies.RemoveWatched{ImdbID: id}); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, d.watchedView())
}
