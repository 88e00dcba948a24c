package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/seeall/facturation/internal/httpx"
	"github.com/seeall/facturation/internal/models"
	"github.com/seeall/facturation/internal/services"
)

type ClientHandler struct {
	Svc *services.ClientService
}

func NewClientHandler(svc *services.ClientService) *ClientHandler {
	return &ClientHandler{Svc: svc}
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Svc.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
}

// Save: POST /clients – creates or updates depending on id
func (h *ClientHandler) Save(w http.ResponseWriter, r *http.Request) {
	type saveReq struct {
		ID      uint   `json:"id"`
		Name    string `json:"name"`
		SIRET   string `json:"siret"`
		Address string `json:"address"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
	}
	var req saveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	client := models.Client{
		ID:      req.ID,
		Name:    req.Name,
		SIRET:   req.SIRET,
		Address: req.Address,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	id, err := h.Svc.Save(&client)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if req.ID != 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, map[string]any{"id": id})
}

// Delete: POST /clients/delete?id=...
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(uint(id)); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
