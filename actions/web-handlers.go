package actions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/transform"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		err := fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
		return nil, err
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseRunList struct {
	Status WebServerResponse     `json:"status"`
	Runs   []transform.RunStatus `json:"runs"`
}

type ResponseRunStatus struct {
	Status    WebServerResponse    `json:"status"`
	Message   string               `json:"message"`
	RunStatus *transform.RunStatus `json:"run,omitempty"`
}

type ResponseRunTrigger struct {
	Status      WebServerResponse `json:"status"`
	Message     string            `json:"message"`
	LogicalDate string            `json:"logicalDate,omitempty"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerRunList(log logger.Logger, registry *transform.SafeRunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRunList{Status: Okay, Runs: registry.List()})
	}
}

func GetHandlerRunStatus(log logger.Logger, registry *transform.SafeRunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		run, ok := registry.Load(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			log.Info("HTTP request status of run ", id, " that doesn't exist.")
			respond(log, w, ResponseRunStatus{Status: Error, Message: fmt.Sprintf("run %v does not exist", id)})
			return
		}
		s := run.Status()
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRunStatus{Status: Okay, RunStatus: &s})
	}
}

// GetHandlerRunTrigger starts a run for the logicalDate query parameter (RFC3339),
// or for the most recently completed hour if it is not supplied.
func GetHandlerRunTrigger(log logger.Logger, trigger TriggerFunc, now func() time.Time) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if trigger == nil {
			logAndRespond(log, fmt.Errorf("manual trigger is disabled"), w, http.StatusServiceUnavailable,
				ResponseRunTrigger{Status: Error, Message: "manual trigger is disabled"})
			return
		}
		logicalDate := LogicalDateFor(now())
		if v := r.URL.Query().Get("logicalDate"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				logAndRespond(log, err, w, http.StatusBadRequest,
					ResponseRunTrigger{Status: Error, Message: fmt.Sprintf("invalid logicalDate: %v", err)})
				return
			}
			logicalDate = t.UTC()
		}
		go trigger(logicalDate)
		w.WriteHeader(http.StatusAccepted)
		respond(log, w, ResponseRunTrigger{Status: Okay, Message: "run triggered", LogicalDate: logicalDate.Format(time.RFC3339)})
	}
}

// logAndRespond will log the error, write the status code and r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, code int, r interface{}) {
	log.Error(err)
	w.WriteHeader(code)
	respond(log, w, r)
}

// respond will marshal i to a string and write it to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Panic(err)
	}
	_, err = fmt.Fprint(w, string(j))
	if err != nil {
		log.Panic(err)
	}
}
