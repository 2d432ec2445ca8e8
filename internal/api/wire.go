package api

import "github.com/christopherklint97/stempel/internal/domain"

// Request and response bodies shared by the server and the remote client.

type ProjectUpdate struct {
	ID string `json:"id"`
	domain.ProjectPatch
}

type TimeEntryUpdate struct {
	ID string `json:"id"`
	domain.TimeEntryPatch
}

type TodoUpdate struct {
	ID string `json:"id"`
	domain.TodoPatch
}

type DeleteRequest struct {
	ID string `json:"id"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
