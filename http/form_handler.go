package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"finance-form/domain"
	"finance-form/service"
)

// BlurResponse reports the state of a field after a blur.
type BlurResponse struct {
	Field          domain.FieldView `json:"field"`
	AmountFinanced string           `json:"amountFinanced"`
	Skipped        bool             `json:"skipped"`
	Pending        bool             `json:"pending"`
}

type FormHandler struct {
	service  *service.FormService
	validate *validator.Validate
	fieldTag string
}

func NewFormHandler(service *service.FormService) *FormHandler {
	ids := make([]string, 0, len(domain.FieldIDs))
	for _, id := range domain.FieldIDs {
		ids = append(ids, string(id))
	}
	return &FormHandler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		fieldTag: "required,oneof=" + strings.Join(ids, " "),
	}
}

func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	form := h.service.Create()
	writeJSON(w, http.StatusCreated, form.View())
}

func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.Get(chi.URLParam(r, "formID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form.View())
}

func (h *FormHandler) Focus(w http.ResponseWriter, r *http.Request) {
	form, fieldID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	view, err := form.Focus(fieldID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *FormHandler) Change(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json", nil)
		return
	}

	form, fieldID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var input domain.ChangeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "value is required", validationDetails(err))
		return
	}

	view, err := form.Change(fieldID, *input.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Blur starts the commit. Without ?wait=true it answers 202 while the save
// is pending; with it the request blocks until the save resolves.
func (h *FormHandler) Blur(w http.ResponseWriter, r *http.Request) {
	form, fieldID, ok := h.resolve(w, r)
	if !ok {
		return
	}

	done, err := form.Blur(r.Context(), fieldID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	var (
		res     service.CommitResult
		pending bool
	)
	if wait {
		select {
		case res = <-done:
		case <-r.Context().Done():
			return
		}
	} else {
		select {
		case res = <-done:
		default:
			pending = true
		}
	}

	view, err := form.Field(fieldID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if pending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, BlurResponse{
		Field:          view,
		AmountFinanced: form.AmountFinanced(),
		Skipped:        res.Skipped,
		Pending:        pending,
	})
}

func (h *FormHandler) resolve(w http.ResponseWriter, r *http.Request) (*service.Form, domain.FieldID, bool) {
	form, err := h.service.Get(chi.URLParam(r, "formID"))
	if err != nil {
		writeServiceError(w, err)
		return nil, "", false
	}

	fieldID := chi.URLParam(r, "fieldID")
	if err := h.validate.Var(fieldID, h.fieldTag); err != nil {
		writeError(w, http.StatusNotFound, "unknown_field", "unknown field "+strconv.Quote(fieldID), nil)
		return nil, "", false
	}
	return form, domain.FieldID(fieldID), true
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field()+": "+fe.Tag())
	}
	return out
}
