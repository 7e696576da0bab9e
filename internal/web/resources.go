package web

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/center"
	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/superadmin"
)

// writeErr maps a resource error onto a status and a readable body.
func writeErr(w http.ResponseWriter, p *page, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, superadmin.ErrNoToken),
		errors.Is(err, center.ErrNoToken),
		client.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case errors.Is(err, center.ErrNoCenter):
		status = http.StatusNotFound
	default:
		if st := client.StatusOf(err); st >= 400 && st < 500 {
			status = st
		} else if st == 0 && len(client.FieldsOf(err)) > 0 {
			status = http.StatusUnprocessableEntity
		}
	}
	if status >= 500 {
		zap.L().Warn("resource call failed", zap.Error(err))
	}
	writeJSON(w, p, status, errorBody{
		Error:       client.MessageOr(err, err.Error()),
		FieldErrors: client.FieldsOf(err),
	})
}

/*──────────────────────────── tenant center ────────────────────────────────*/

func (s *Shell) handleCenterDetails(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	d, err := center.NewService(p.client, p.cfg).Details(r.Context())
	if err != nil {
		writeErr(w, p, err)
		return
	}
	writeJSON(w, p, http.StatusOK, d)
}

// handleCenterReport buffers the PDF so Content-Disposition can carry the
// backend's file name.
func (s *Shell) handleCenterReport(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	var buf bytes.Buffer
	name, err := center.NewService(p.client, p.cfg).ExportReport(r.Context(), &buf)
	if err != nil {
		writeErr(w, p, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

/*──────────────────────────── superadmin ───────────────────────────────────*/

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (s *Shell) handleCenters(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	f := superadmin.Filter{
		Label:         r.URL.Query().Get("label"),
		GovernorateID: queryInt(r, "governorate_id"),
		DelegationID:  queryInt(r, "delegation_id"),
		Page:          queryInt(r, "page"),
		PageSize:      queryInt(r, "page_size"),
	}
	res, err := superadmin.NewService(p.client, p.cfg).Centers(r.Context(), f)
	if err != nil {
		writeErr(w, p, err)
		return
	}
	writeJSON(w, p, http.StatusOK, res)
}

func (s *Shell) handleAddCenter(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	var in superadmin.NewCenter
	if !decode(w, r, &in) {
		return
	}
	out, err := superadmin.NewService(p.client, p.cfg).AddCenter(r.Context(), in)
	if err != nil {
		writeErr(w, p, err)
		return
	}
	writeJSON(w, p, http.StatusCreated, out)
}

func (s *Shell) handleGovernorates(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	gs, err := superadmin.NewService(p.client, p.cfg).Governorates(r.Context())
	if err != nil {
		writeErr(w, p, err)
		return
	}
	writeJSON(w, p, http.StatusOK, gs)
}

func (s *Shell) handleDelegations(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r.Context())
	ds, err := superadmin.NewService(p.client, p.cfg).Delegations(r.Context(), queryInt(r, "governorate"))
	if err != nil {
		writeErr(w, p, err)
		return
	}
	writeJSON(w, p, http.StatusOK, ds)
}
