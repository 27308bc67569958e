package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/recordbase/recordbase/internal/domain"
	"github.com/recordbase/recordbase/internal/lifecycle"
	"github.com/recordbase/recordbase/internal/query"
	"github.com/recordbase/recordbase/internal/server/middleware"
)

type listResponse[TList any] struct {
	Items  []TList       `json:"items"`
	Paging query.Request `json:"paging"`
}

// Mount registers one entity family's five lifecycle operations under
// /api/v1/{path}. Mount is a function rather than a method because Go
// methods cannot introduce type parameters.
func Mount[TData domain.Tracked, TList any, TDetail domain.DetailModel](
	s *Server,
	path string,
	ctrl *lifecycle.Controller[TData, TList, TDetail],
) {
	s.api.Route("/"+path, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			uc, _ := middleware.IdentityFromContext(req.Context())

			q := req.URL.Query()
			page, _ := strconv.Atoi(q.Get("page"))
			pageSize, _ := strconv.Atoi(q.Get("pageSize"))
			desc, _ := strconv.ParseBool(q.Get("desc"))
			pr := query.Request{
				Q:        q.Get("q"),
				Page:     page,
				PageSize: pageSize,
				Sort:     q.Get("sort"),
				SortDesc: desc,
			}

			items, err := ctrl.List(req.Context(), &pr, uc)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, listResponse[TList]{Items: items, Paging: pr})
		})

		r.Get("/new", func(w http.ResponseWriter, req *http.Request) {
			uc, _ := middleware.IdentityFromContext(req.Context())

			model, err := ctrl.Initialize(req.Context(), req.URL.Query().Get("id"), uc)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, model)
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			uc, _ := middleware.IdentityFromContext(req.Context())

			id, err := uuid.Parse(chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, domain.Result{Code: http.StatusBadRequest, Message: "invalid identifier"})
				return
			}

			model, err := ctrl.Read(req.Context(), id, uc)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, model)
		})

		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			uc, _ := middleware.IdentityFromContext(req.Context())

			model := ctrl.Blank()
			err := json.NewDecoder(req.Body).Decode(model)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, domain.Result{Code: http.StatusBadRequest, Message: "invalid request body"})
				return
			}

			res := ctrl.Save(req.Context(), model, uc)
			writeJSON(w, res.Code, res)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			uc, _ := middleware.IdentityFromContext(req.Context())

			id, err := uuid.Parse(chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, domain.Result{Code: http.StatusBadRequest, Message: "invalid identifier"})
				return
			}

			res := ctrl.Remove(req.Context(), id, uc)
			writeJSON(w, res.Code, res)
		})
	})
}

func writeError(w http.ResponseWriter, err error) {
	res := domain.ResultFromError(err)
	writeJSON(w, res.Code, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
