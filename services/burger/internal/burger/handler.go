package burger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/burger/services/burger/internal/auth"
)

const MaxBodyBytes = 1 << 20

// OrderFinder looks orders up by their public number.
type OrderFinder interface {
	GetOrder(ctx context.Context, number int) ([]RawOrder, error)
}

type HandlerDeps struct {
	Constructor *Constructor
	Orders      OrderFinder
}

type Handler struct {
	constructor *Constructor
	orders      OrderFinder
	logger      aqm.Logger
	config      *aqm.Config
	tlm         *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		constructor: deps.Constructor,
		orders:      deps.Orders,
		logger:      logger,
		config:      config,
		tlm:         telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.GetCatalog)
		r.Post("/reload", h.ReloadCatalog)
	})

	r.Route("/constructor", func(r chi.Router) {
		r.Get("/", h.GetConstructor)
		r.Post("/ingredients", h.AddIngredient)
		r.Delete("/ingredients/{ingredientID}/{uid}", h.RemoveIngredient)
		r.Post("/reorder", h.ReorderIngredients)
		r.Post("/reset", h.ResetConstructor)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.SubmitOrder)
		r.Get("/submission", h.GetSubmission)
		r.Post("/submission/close", h.CloseOrderModal)
		r.Post("/submission/clear-error", h.ClearOrderError)
		r.Get("/{number}", h.GetOrder)
	})
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCatalog")
	defer finish()

	aqm.RespondSuccess(w, h.catalogView())
}

func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReloadCatalog")
	defer finish()
	log := h.log(r)

	if err := h.constructor.LoadCatalog(r.Context()); err != nil {
		log.Error("cannot reload catalog", "error", err)
		aqm.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	aqm.RespondSuccess(w, h.catalogView())
}

func (h *Handler) GetConstructor(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetConstructor")
	defer finish()

	aqm.RespondSuccess(w, h.constructor.View())
}

func (h *Handler) AddIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddIngredient")
	defer finish()
	log := h.log(r)

	var req AddIngredientRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if strings.TrimSpace(req.IngredientID) == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Missing ingredient_id")
		return
	}

	uid, err := h.constructor.AddIngredient(req.IngredientID)
	if err != nil {
		log.Debug("cannot add ingredient", "ingredient_id", req.IngredientID, "error", err)
		aqm.RespondError(w, http.StatusNotFound, "Ingredient not found")
		return
	}

	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, AddIngredientResponse{
		UID:          uid,
		IngredientID: req.IngredientID,
		Constructor:  h.constructor.View(),
	})
}

func (h *Handler) RemoveIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveIngredient")
	defer finish()

	ingredientID := chi.URLParam(r, "ingredientID")
	uid := chi.URLParam(r, "uid")
	h.constructor.RemoveIngredient(ingredientID, uid)

	aqm.RespondSuccess(w, h.constructor.View())
}

func (h *Handler) ReorderIngredients(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReorderIngredients")
	defer finish()
	log := h.log(r)

	var req ReorderRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	h.constructor.ReorderIngredients(req.FromIndex, req.ToIndex)
	aqm.RespondSuccess(w, h.constructor.View())
}

func (h *Handler) ResetConstructor(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResetConstructor")
	defer finish()

	h.constructor.Reset()
	aqm.RespondSuccess(w, h.constructor.View())
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSubmission")
	defer finish()

	aqm.RespondSuccess(w, h.constructor.Submission())
}

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SubmitOrder")
	defer finish()
	log := h.log(r)

	sub, err := h.constructor.SubmitOrder(r.Context())
	if err != nil {
		status := submitErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("cannot submit order", "error", err)
		} else {
			log.Debug("order rejected", "error", err)
		}
		aqm.RespondError(w, status, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, sub)
}

func (h *Handler) CloseOrderModal(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseOrderModal")
	defer finish()

	aqm.RespondSuccess(w, h.constructor.CloseOrderModal())
}

func (h *Handler) ClearOrderError(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearOrderError")
	defer finish()

	aqm.RespondSuccess(w, h.constructor.ClearOrderError())
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid order number")
		return
	}

	if h.orders == nil {
		aqm.RespondError(w, http.StatusServiceUnavailable, "Order lookup not available")
		return
	}

	orders, err := h.orders.GetOrder(r.Context(), number)
	if err != nil {
		log.Error("cannot get order", "number", number, "error", err)
		aqm.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	summaries := SummarizeAll(orders, h.constructor.Catalog().Dictionary())
	if len(summaries) == 0 {
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	summary := summaries[0]
	aqm.RespondSuccess(w, OrderLookupResponse{Summary: summary, Total: summary.Total()})
}

func (h *Handler) catalogView() CatalogView {
	state := h.constructor.CatalogState()
	return CatalogView{
		Groups:  h.constructor.Catalog().Groups(),
		Loading: state.Loading,
		Error:   state.Error,
	}
}

func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSubmitInProgress), errors.Is(err, ErrOrderNotDismissed):
		return http.StatusConflict
	case errors.Is(err, ErrOrderCreatorMissing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Helper methods

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		aqm.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		log.Debug("error decoding JSON", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}

	return true
}
