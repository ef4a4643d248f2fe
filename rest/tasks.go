package rest

import (
	"net/http"

	"bitbucket.org/kleinnic74/tourist/tasks"
	"github.com/gorilla/mux"
)

type TaskHandler struct {
	executor tasks.Executor
}

func NewTaskHandler(executor tasks.Executor) *TaskHandler {
	return &TaskHandler{executor: executor}
}

func (h *TaskHandler) InitRoutes(r *mux.Router) {
	r.HandleFunc("/tasks", h.listTasks).Methods("GET")
}

// listTasks shows the running and pending writes
func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	executions := h.executor.ListTasks(r.Context())
	Respond(r).WithJSON(w, http.StatusOK, &simplePayload{Data: executions})
}
