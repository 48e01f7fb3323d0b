package feed

import (
	"errors"
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/burger/services/burger/internal/auth"
	"github.com/appetiteclub/burger/services/burger/internal/burger"
)

type HandlerDeps struct {
	Feeds   []*Engine
	Catalog CatalogProvider
}

type Handler struct {
	feeds   map[string]*Engine
	catalog CatalogProvider
	sse     *SSEHandler
	logger  aqm.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	feeds := make(map[string]*Engine, len(deps.Feeds))
	for _, f := range deps.Feeds {
		feeds[f.Name()] = f
	}
	h := &Handler{
		feeds:   feeds,
		catalog: deps.Catalog,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
	h.sse = NewSSEHandler(h.view, logger)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feeds/{name}", func(r chi.Router) {
		r.Get("/", h.GetFeed)
		r.Post("/connect", h.Connect)
		r.Post("/disconnect", h.Disconnect)
		r.Get("/events", h.Events)
	})
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetFeed")
	defer finish()

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	aqm.RespondSuccess(w, h.view(engine.Name(), engine.Snapshot()))
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Connect")
	defer finish()
	log := h.log(r)

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	if err := engine.Connect(r.Context()); err != nil {
		log.Info("feed connect failed", "feed", engine.Name(), "error", err)
		status := http.StatusBadGateway
		var refreshErr *auth.RefreshError
		if errors.Is(err, auth.ErrUnauthenticated) || errors.As(err, &refreshErr) {
			status = http.StatusUnauthorized
		}
		aqm.RespondError(w, status, err.Error())
		return
	}

	aqm.RespondSuccess(w, h.view(engine.Name(), engine.Snapshot()))
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Disconnect")
	defer finish()

	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	engine.Disconnect()
	aqm.RespondSuccess(w, h.view(engine.Name(), engine.Snapshot()))
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}
	h.sse.Serve(w, r, engine)
}

func (h *Handler) engine(w http.ResponseWriter, r *http.Request) (*Engine, bool) {
	name := chi.URLParam(r, "name")
	engine, ok := h.feeds[name]
	if !ok {
		aqm.RespondError(w, http.StatusNotFound, "Feed not found")
		return nil, false
	}
	return engine, true
}

func (h *Handler) view(name string, s Slice) View {
	var catalog *burger.Catalog
	if h.catalog != nil {
		catalog = h.catalog.Catalog()
	}
	return BuildView(name, s, catalog.Dictionary())
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
