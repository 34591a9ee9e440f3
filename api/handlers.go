// Package api exposes the transmitter over a small JSON HTTP surface.
package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	proto "github.com/ystepanoff/e012tx/protocol"
	"github.com/ystepanoff/e012tx/transport"
)

var log = logrus.WithField("component", "api")

// Link is the part of the transmitter the API drives.
type Link interface {
	Capabilities() transport.Capabilities
	CurrentID() uint32
	Status() (transport.Status, error)
	Bind() error
	Reset() error
	BindRemaining() time.Duration
	Running() bool
}

// Controls is where the API stores stick and power values.
type Controls interface {
	SetChannel(n int, v int32) error
	SetTxPower(p proto.Power) error
	TxPower() proto.Power
	Snapshot() [proto.NumChannels]int32
}

type Handler struct {
	link     Link
	controls Controls
}

func NewHandler(link Link, controls Controls) *Handler {
	return &Handler{link: link, controls: controls}
}

// Response helpers
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

func successResponse(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": message,
	})
}

type ProtocolInfo struct {
	Name               string   `json:"name"`
	NumChannels        int      `json:"numChannels"`
	DefaultNumChannels int      `json:"defaultNumChannels"`
	Autobind           bool     `json:"autobind"`
	Telemetry          string   `json:"telemetry"`
	Options            []string `json:"options"`
	CurrentID          uint32   `json:"currentId"`
}

func (h *Handler) GetProtocol(w http.ResponseWriter, r *http.Request) {
	c := h.link.Capabilities()
	opts := c.Options
	if opts == nil {
		opts = []string{}
	}
	jsonResponse(w, http.StatusOK, ProtocolInfo{
		Name:               "E012",
		NumChannels:        c.NumChannels,
		DefaultNumChannels: c.DefaultNumChannels,
		Autobind:           c.Autobind,
		Telemetry:          c.Telemetry.String(),
		Options:            opts,
		CurrentID:          h.link.CurrentID(),
	})
}

type SessionInfo struct {
	Phase           string  `json:"phase"`
	BindPackets     int     `json:"bindPacketsRemaining"`
	BindRemainingMs int64   `json:"bindRemainingMs"`
	Address         string  `json:"address"`
	Channels        []int   `json:"channels"`
	Cursor          int     `json:"cursor"`
	TxPower         string  `json:"txPower"`
	Chip            string  `json:"chip"`
	Sent            uint64  `json:"sent"`
	Errors          uint64  `json:"errors"`
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.link.Status()
	if errors.Is(err, transport.ErrNotStarted) {
		errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	chans := make([]int, len(st.Identity.Channels))
	for i, c := range st.Identity.Channels {
		chans[i] = int(c)
	}
	jsonResponse(w, http.StatusOK, SessionInfo{
		Phase:           st.Phase.String(),
		BindPackets:     st.BindRemaining,
		BindRemainingMs: h.link.BindRemaining().Milliseconds(),
		Address:         hex.EncodeToString(st.Address[:]),
		Channels:        chans,
		Cursor:          st.Cursor,
		TxPower:         st.TxPower.String(),
		Chip:            st.Chip.String(),
		Sent:            st.Sent,
		Errors:          st.Errors,
	})
}

func (h *Handler) Bind(w http.ResponseWriter, r *http.Request) {
	if err := h.link.Bind(); err != nil {
		log.WithError(err).Error("bind failed")
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	successResponse(w, "binding started")
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.link.Reset(); err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	successResponse(w, "transceiver reset")
}

type InputsInfo struct {
	Channels []int32 `json:"channels"`
	TxPower  int     `json:"txPower"`
}

func (h *Handler) GetInputs(w http.ResponseWriter, r *http.Request) {
	snap := h.controls.Snapshot()
	jsonResponse(w, http.StatusOK, InputsInfo{
		Channels: snap[:],
		TxPower:  int(h.controls.TxPower()),
	})
}

func (h *Handler) SetChannel(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid channel number")
		return
	}
	var req struct {
		Value *int32 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.controls.SetChannel(n, *req.Value); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	successResponse(w, "channel "+strconv.Itoa(n)+" updated")
}

func (h *Handler) SetPower(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level *int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if *req.Level < 0 || *req.Level > int(proto.Power150mW) {
		errorResponse(w, http.StatusBadRequest, proto.ErrInvalidPower.Error())
		return
	}
	if err := h.controls.SetTxPower(proto.Power(*req.Level)); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	successResponse(w, "power set to "+proto.Power(*req.Level).String())
}
