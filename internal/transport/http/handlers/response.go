package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/logging"
	"github.com/parentingo/parentingo/internal/service"
)

const (
	msgInternal    = "Something went wrong"
	msgInvalidBody = "Invalid request body"
	// multipart bodies may exceed the image limit by this much for the
	// other fields and the encoding overhead.
	formSlack = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// writeError reports err to the client. Errors other than *apperror.Error
// are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperror.As(err)
	if !ok || e.Kind == apperror.KindInternal {
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: msgInternal})
		return
	}
	writeJSON(w, e.Kind.Status(), errorBody{Message: e.Message, Errors: e.Fields})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperror.Validation(msgInvalidBody)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// form is a parsed multipart body with at most one image.
type form struct {
	values map[string][]string
	upload *service.Upload
	close  func()
}

func (f *form) value(key string) (string, bool) {
	v, ok := f.values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// parseForm reads a multipart body whose file, if any, is in field.
func parseForm(w http.ResponseWriter, r *http.Request, field string) (*form, error) {
	if r.ContentLength > service.MaxUploadSize+formSlack {
		return nil, apperror.TooLarge(service.MsgFileTooLarge)
	}
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+formSlack)
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.TooLarge(service.MsgFileTooLarge)
		}
		return nil, apperror.Validation(msgInvalidBody)
	}

	f := &form{values: r.MultipartForm.Value, close: func() {}}
	file, header, err := r.FormFile(field)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, apperror.Validation(msgInvalidBody)
	default:
		f.upload = &service.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
		f.close = func() { file.Close() }
	}
	return f, nil
}

// respond writes v with status, or err when the call failed.
func respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}
