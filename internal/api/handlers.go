package api

import (
	"net/http"
	"strconv"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
)

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProjectFilter{IncludeArchived: q.Get("archived") == "true"}
	if c := q.Get("company"); c != "" {
		company, err := domain.ParseCompany(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Company = company
	}

	projects, err := s.records.ListProjects(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.records.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if !decode(w, r, &p) {
		return
	}
	if p.Name == "" || p.Company == "" {
		writeError(w, http.StatusBadRequest, "name and company are required")
		return
	}
	p.ID = ""
	if err := s.records.CreateProject(r.Context(), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectUpdate
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	p, err := s.records.UpdateProject(r.Context(), req.ID, req.ProjectPatch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listTimeEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.records.ListTimeEntries(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (s *Server) getTimeEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.records.GetTimeEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createTimeEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.TimeEntry
	if !decode(w, r, &e) {
		return
	}
	e.ID = ""
	if err := s.records.CreateTimeEntry(r.Context(), &e); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) updateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req TimeEntryUpdate
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	e, err := s.records.UpdateTimeEntry(r.Context(), req.ID, req.TimeEntryPatch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.records.DeleteTimeEntry(r.Context(), req.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	status := domain.TodoStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be open or done")
		return
	}
	todos, err := s.records.ListTodos(r.Context(), status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(todos))
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var t domain.Todo
	if !decode(w, r, &t) {
		return
	}
	t.ID = ""
	if err := s.records.CreateTodo(r.Context(), &t); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	var req TodoUpdate
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	t, err := s.records.UpdateTodo(r.Context(), req.ID, req.TodoPatch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.records.DeleteTodo(r.Context(), req.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	var live int64
	if v := r.URL.Query().Get("live"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "live must be a non-negative number of seconds")
			return
		}
		live = n
	}

	entries, err := s.records.ListTimeEntries(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(entries, s.now(), live))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
