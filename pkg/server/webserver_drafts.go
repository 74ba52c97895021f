package server

import (
	"encoding/json"
	"net/http"

	"github.com/matst80/slask-storefront/pkg/filter"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noDraftChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_draft_changes_total",
		Help: "The total number of changes applied to filter drafts",
	})
	noDraftCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_draft_commits_total",
		Help: "The total number of filter drafts applied or reset",
	}, []string{"kind"})
)

type DraftResponse struct {
	*filter.Draft
	Dirty  bool `json:"dirty"`
	Preset int  `json:"preset"`
}

func (ws *WebServer) draftResponse(d *filter.Draft) *DraftResponse {
	c := d.Controller(ws.Options, nil)
	return &DraftResponse{
		Draft:  d,
		Dirty:  c.Dirty(),
		Preset: ws.Options.MatchingPreset(d.Current.Value),
	}
}

type CreateDraftRequest struct {
	Defaults *types.FilterState `json:"defaults"`
	Initial  *types.FilterState `json:"initial"`
}

type ChangesRequest struct {
	Changes []filter.Change `json:"changes" validate:"required,min=1,max=50,dive"`
}

// CreateDraft opens a buffered filter session. Without a body the initial state is read
// from the query like a listing request.
func (ws *WebServer) CreateDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	req := CreateDraftRequest{}
	if err := ws.decodeBody(r, &req); err != nil {
		return err
	}
	var initial types.FilterState
	if req.Initial != nil {
		initial = *req.Initial
	} else {
		var err error
		if initial, err = types.DecodeFilterState(r.URL.Query()); err != nil {
			return badRequest(err)
		}
	}
	if err := types.ValidateRating(initial.Rating); err != nil {
		return httpError(err)
	}
	defaults := types.DefaultFilterState()
	defaults.ShopId = initial.ShopId
	if req.Defaults != nil {
		defaults = *req.Defaults
	}

	draft := filter.NewDraft(defaults, initial)
	if err := ws.Drafts.Save(r.Context(), draft); err != nil {
		return err
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusCreated, ws.draftResponse(draft))
}

func (ws *WebServer) GetDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	draft, err := ws.Drafts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return httpError(err)
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, ws.draftResponse(draft))
}

// ChangeDraft applies the changes in order, nothing is stored when one of them fails.
func (ws *WebServer) ChangeDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	req := ChangesRequest{}
	if err := ws.decodeBody(r, &req); err != nil {
		return err
	}
	draft, err := ws.Drafts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return httpError(err)
	}
	c := draft.Controller(ws.Options, nil)
	for _, change := range req.Changes {
		if err := filter.ApplyChange(c, change); err != nil {
			return httpError(err)
		}
	}
	draft.Update(c)
	if err := ws.Drafts.Save(r.Context(), draft); err != nil {
		return err
	}
	go noDraftChanges.Add(float64(len(req.Changes)))
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, ws.draftResponse(draft))
}

// commitDraft runs apply or reset on a draft and answers with the listing of the
// state the controller emitted.
func (ws *WebServer) commitDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, commit func(c *filter.Controller)) error {
	pr, err := types.GetPageRequestFromRequest(r)
	if err != nil {
		return badRequest(err)
	}
	draft, err := ws.Drafts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return httpError(err)
	}
	var emitted types.FilterState
	c := draft.Controller(ws.Options, filter.EmitterFuncs{
		OnApply: func(state types.FilterState) {
			noDraftCommits.WithLabelValues("apply").Inc()
			emitted = state
		},
		OnReset: func(defaults types.FilterState) {
			noDraftCommits.WithLabelValues("reset").Inc()
			emitted = defaults
		},
	})
	commit(c)
	draft.Update(c)
	if err := ws.Drafts.Save(r.Context(), draft); err != nil {
		return err
	}
	res, err := ws.listing(r, sessionId, emitted, *pr)
	if err != nil {
		return httpError(err)
	}
	res.Draft = ws.draftResponse(draft)
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, res)
}

func (ws *WebServer) ApplyDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	return ws.commitDraft(w, r, sessionId, enc, func(c *filter.Controller) {
		c.Apply()
	})
}

func (ws *WebServer) ResetDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	return ws.commitDraft(w, r, sessionId, enc, func(c *filter.Controller) {
		c.Reset()
	})
}

// CancelDraft drops the uncommitted changes, the listing is unchanged so none is returned.
func (ws *WebServer) CancelDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	draft, err := ws.Drafts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return httpError(err)
	}
	c := draft.Controller(ws.Options, nil)
	c.Cancel()
	draft.Update(c)
	if err := ws.Drafts.Save(r.Context(), draft); err != nil {
		return err
	}
	noCacheHeaders(w, r)
	return writeJson(w, enc, http.StatusOK, ws.draftResponse(draft))
}

func (ws *WebServer) DeleteDraft(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	if err := ws.Drafts.Delete(r.Context(), r.PathValue("id")); err != nil {
		return httpError(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
