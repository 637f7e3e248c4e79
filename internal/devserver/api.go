package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"agentwatch/internal/client"
	"agentwatch/internal/logging"
)

type API struct {
	Version string
	Store   *Store
	Logger  logging.Logger
}

func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/health", a.Health)
	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", a.CreateSession)
		r.Get("/{id}", a.GetSession)
		r.Get("/{id}/workflow", a.GetWorkflow)
		r.Post("/{id}/messages", a.SendMessage)
	})
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, client.HealthResponse{OK: true, Version: a.Version})
}

func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req client.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	session, err := a.Store.CreateSession(req.AgentType, req.Title)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.Logger.Info("session created",
		logging.F("session_id", session.ID),
		logging.F("agent_type", session.AgentType),
	)
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.Store.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflow, err := a.Store.Workflow(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workflow)
}

func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req client.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	taskID, err := a.Store.Submit(id, req.Content, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.Logger.Info("task submitted",
		logging.F("session_id", id),
		logging.F("task_id", taskID),
		logging.F("role", req.Role),
	)
	writeJSON(w, http.StatusAccepted, client.SendMessageResponse{OK: true, TaskID: taskID})
}
