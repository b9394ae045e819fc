package httpapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
	"github.com/go-chi/chi/v5"
)

func listQuery(r *http.Request) authkeep.ListQuery {
	v := r.URL.Query()
	q := authkeep.ListQuery{
		Search:    v.Get("search"),
		Role:      v.Get("role"),
		Status:    v.Get("status"),
		SortBy:    v.Get("sortBy"),
		SortOrder: v.Get("sortOrder"),
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.Limit, _ = strconv.Atoi(v.Get("limit"))
	return q
}

type listResponse struct {
	Success bool `json:"success"`
	*authkeep.UserList
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListUsers(r.Context(), listQuery(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Success: true, UserList: list})
}

func (s *Server) userStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.UserStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

// exportUsers returns every matching user as JSON, or as CSV with ?format=csv.
func (s *Server) exportUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.ExportUsers(r.Context(), listQuery(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("format") != "csv" {
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "fullname", "username", "email", "role", "status", "verificationStatus", "lastLogin", "createdAt"})
	for _, u := range users {
		last := ""
		if u.LastLogin != nil {
			last = u.LastLogin.UTC().Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			u.ID, csvCell(u.Fullname), csvCell(u.Username), csvCell(u.Email), string(u.Role),
			u.Status, u.VerificationStatus, last, u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

// csvCell quotes user-supplied values that spreadsheets would evaluate as formulas.
func csvCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

type bulkRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
	Action  string   `json:"action" validate:"required"`
}

func (s *Server) bulkAction(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.engine.BulkUserAction(r.Context(), req.UserIDs, authkeep.BulkAction(req.Action))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	msg, err := s.engine.DeleteUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}
