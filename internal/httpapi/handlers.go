package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/service"
)

type handlers struct {
	svc *service.Services
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.svc.Users.CreateUser(r.Context(), req)
	if err != nil {
		if apperr.IsValidation(err) {
			writeError(w, http.StatusBadRequest, apperr.Message(err))
			return
		}
		writeJSON(w, http.StatusInternalServerError, contracts.ErrorResponse{
			Message: "Failed to create user",
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.ListUsers(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, contracts.ErrorResponse{
			Message: "Failed to fetch users",
			Error:   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handlers) createGroup(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	group, err := h.svc.Groups.CreateGroup(r.Context(), req)
	if err != nil {
		fail(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *handlers) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.Groups.GetGroup(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		fail(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *handlers) addMember(w http.ResponseWriter, r *http.Request) {
	var req contracts.AddMemberRequest
	if !decode(w, r, &req) {
		return
	}
	group, err := h.svc.Groups.AddMember(r.Context(), chi.URLParam(r, "groupId"), req)
	if err != nil {
		fail(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *handlers) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.svc.Groups.ListExpenses(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		fail(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *handlers) createExpense(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreateExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	expense, err := h.svc.Expenses.CreateExpense(r.Context(), req)
	if err != nil {
		fail(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (h *handlers) groupBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.svc.Balances.GroupBalances(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		fail(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *handlers) simplifiedDebts(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.svc.Balances.SimplifiedDebts(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		fail(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, transfers)
}

func (h *handlers) settle(w http.ResponseWriter, r *http.Request) {
	var req contracts.SettleRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.svc.Settlements.Settle(r.Context(), req)
	if err != nil {
		fail(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
