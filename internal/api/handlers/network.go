package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/service"
	"github.com/go-chi/chi/v5"
)

type NetworkHandler struct {
	svc *service.QueryService
}

func NewNetworkHandler(svc *service.QueryService) *NetworkHandler {
	return &NetworkHandler{svc: svc}
}

type networkSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Variables   int    `json:"variables"`
}

type variableView struct {
	Name        string            `json:"name"`
	Cardinality int               `json:"cardinality"`
	States      []string          `json:"states"`
	Parents     []string          `json:"parents"`
	Aliases     map[string]string `json:"aliases,omitempty"`
}

type networkView struct {
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Variables        []variableView `json:"variables"`
	TopologicalOrder []string       `json:"topological_order"`
}

type queryRequest struct {
	Variables []string          `json:"variables"`
	Evidence  map[string]string `json:"evidence"`
}

func (h *NetworkHandler) List(w http.ResponseWriter, r *http.Request) {
	nets := h.svc.Networks()
	out := make([]networkSummary, 0, len(nets))
	for _, n := range nets {
		out = append(out, networkSummary{
			Name:        n.Name,
			Description: n.Description,
			Variables:   len(n.Model().Variables()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": out})
}

func (h *NetworkHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Network(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, service.ErrNetworkNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get network")
		return
	}

	view, err := describe(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to describe network")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *NetworkHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Variables) == 0 {
		writeError(w, http.StatusBadRequest, "variables is required")
		return
	}

	result, err := h.svc.Query(r.Context(), chi.URLParam(r, "name"), req.Variables, req.Evidence)
	if err != nil {
		writeQueryError(w, err, "failed to run query")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func describe(n *network.Network) (*networkView, error) {
	m := n.Model()
	view := &networkView{
		Name:             n.Name,
		Description:      n.Description,
		TopologicalOrder: m.TopologicalOrder(),
	}
	for _, v := range m.Variables() {
		states, err := n.States(v.Name)
		if err != nil {
			return nil, err
		}
		parents, err := m.Parents(v.Name)
		if err != nil {
			return nil, err
		}
		if parents == nil {
			parents = []string{}
		}
		view.Variables = append(view.Variables, variableView{
			Name:        v.Name,
			Cardinality: v.Cardinality,
			States:      states,
			Parents:     parents,
			Aliases:     n.Aliases(v.Name),
		})
	}
	return view, nil
}
