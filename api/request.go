package api

import (
	"vitaai.com/prontuario/editing"
	vitalogger "vitaai.com/prontuario/logger"
	"vitaai.com/prontuario/records"
	"vitaai.com/prontuario/redis"
	"vitaai.com/prontuario/s3client"
	"vitaai.com/prontuario/store"
	"vitaai.com/prontuario/types"
	"vitaai.com/prontuario/utils/maps"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	recordsPath   = "/records/"
	normalizePath = "/normalize"
	maxBodyBytes  = 1 << 20
)

type recordStore interface {
	editing.Fetcher
	editing.Saver
}

type revisionArchiver interface {
	ArchiveRevision(ctx context.Context, revision s3client.Revision) (string, error)
}

type taskPublisher interface {
	SendTimelineTask(msg amqp.Publishing) error
}

// Request serves the record review screens. Archiver and Publisher are optional.
type Request struct {
	Reconciler *records.Reconciler
	Records    recordStore
	Archiver   revisionArchiver
	Publisher  taskPublisher
}

type savedMessage struct {
	RecordID  int64  `json:"record_id"`
	WorkType  string `json:"work_type"`
	Sender    string `json:"sender"`
	Version   string `json:"version"`
	Revision  int    `json:"revision"`
	RequestID string `json:"request_id"`
}

func (req *Request) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(recordsPath, req.ProcessRecord)
	mux.HandleFunc(normalizePath, req.ProcessNormalize)
	return mux
}

var defaultReconciler = records.NewReconciler(nil)

func (req *Request) reconciler() *records.Reconciler {
	if req.Reconciler == nil {
		return defaultReconciler
	}
	return req.Reconciler
}

func (req *Request) ProcessRecord(w http.ResponseWriter, r *http.Request) {
	logger, requestID := makeRequestLogger(r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(RequestIDHeader, requestID)

	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, recordsPath), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, &logger, requestID, http.StatusNotFound, errors.New("unknown record path"))
		return
	}
	logger = vitalogger.ForRecord(logger, id)

	switch r.Method {
	case http.MethodGet:
		req.getRecord(w, r, &logger, requestID, id)
	case http.MethodPut:
		req.saveRecord(w, r, &logger, requestID, id)
	default:
		writeError(w, &logger, requestID, http.StatusMethodNotAllowed, errors.New("only GET and PUT are allowed here"))
	}
}

func (req *Request) getRecord(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, requestID string, id int64) {
	stored, err := req.Records.Get(r.Context(), id)
	if err != nil {
		writeError(w, logger, requestID, statusFor(err), err)
		return
	}
	writeJSON(w, logger, http.StatusOK, req.reconciler().StoredView(stored))
}

func (req *Request) saveRecord(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, requestID string, id int64) {
	var edits records.Edits
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&edits); err != nil {
		writeError(w, logger, requestID, http.StatusBadRequest, fmt.Errorf("could not decode edits: %w", err))
		return
	}

	session, err := editing.Load(r.Context(), req.Records, req.reconciler(), id)
	if err != nil {
		writeError(w, logger, requestID, statusFor(err), err)
		return
	}
	session.Apply(edits)
	result, err := session.Save(r.Context(), req.Records)
	if err != nil {
		writeError(w, logger, requestID, statusFor(err), err)
		return
	}
	if result.Changed() {
		logger.Info().Int("revision", result.Revision).RawJSON("patch", result.Patch).Msg("Saved record")
		req.archive(r.Context(), logger, requestID, id, result)
		req.publish(logger, requestID, id, result.Revision)
	} else {
		logger.Info().Msg("Nothing changed, record left as is")
	}

	stored, err := req.Records.Get(r.Context(), id)
	if err != nil {
		writeError(w, logger, requestID, statusFor(err), err)
		return
	}
	writeJSON(w, logger, http.StatusOK, types.SaveResponse{
		Record:   req.reconciler().StoredView(stored),
		Changed:  result.Changed(),
		Revision: stored.Revision,
	})
}

// archive failures are logged only: the save itself already happened.
func (req *Request) archive(ctx context.Context, logger *zerolog.Logger, requestID string, id int64, result store.SaveResult) {
	if req.Archiver == nil {
		return
	}
	key, err := req.Archiver.ArchiveRevision(ctx, s3client.Revision{
		RecordID:        id,
		Revision:        result.Revision,
		SavedAt:         time.Now().UTC().Format(time.RFC3339),
		RequestID:       requestID,
		PreviousContent: result.Previous,
		Patch:           result.Patch,
	})
	if err != nil {
		logger.Err(err).Msg("Could not archive revision")
		return
	}
	logger.Debug().Str("key", key).Msg("Archived revision")
}

func (req *Request) publish(logger *zerolog.Logger, requestID string, id int64, revision int) {
	if req.Publisher == nil {
		return
	}
	b, err := json.Marshal(savedMessage{
		RecordID:  id,
		WorkType:  "record.saved",
		Sender:    "api",
		Version:   "1",
		Revision:  revision,
		RequestID: requestID,
	})
	if err == nil {
		err = req.Publisher.SendTimelineTask(amqp.Publishing{ContentType: "application/json", Body: b})
	}
	if err != nil {
		logger.Err(err).Msg("Could not publish timeline task")
	}
}

// ProcessNormalize renders an inline stored record without persisting anything.
func (req *Request) ProcessNormalize(w http.ResponseWriter, r *http.Request) {
	logger, requestID := makeRequestLogger(r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(RequestIDHeader, requestID)

	if r.Method != http.MethodPost {
		writeError(w, &logger, requestID, http.StatusMethodNotAllowed, errors.New("only POST is allowed here"))
		return
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeError(w, &logger, requestID, http.StatusBadRequest, fmt.Errorf("could not decode record: %w", err))
		return
	}
	var stored types.StoredRecord
	if err := maps.FillFromMap(&stored, raw); err != nil {
		writeError(w, &logger, requestID, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, &logger, http.StatusOK, req.reconciler().StoredView(&stored))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, redis.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editing.ErrSessionClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, status int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		logger.Err(err).Msg("Could not encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(b)
	logger.Info().Int("status", status).Msg("Finished processing request")
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, requestID string, status int, err error) {
	logger.Err(err).Int("status", status).Msg("Request failed")
	b, _ := json.Marshal(types.ErrorResponse{Error: err.Error(), RequestID: requestID})
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
