package utils

import (
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const JSONContentType = "application/json; charset=utf-8"

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError annotates cause with the status it should be responded with.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

func BadRequest(cause error) error {
	return HTTPError(cause, http.StatusBadRequest)
}

func NotFound(cause error) error {
	return HTTPError(cause, http.StatusNotFound)
}

// HandlerFunc is an http.HandlerFunc that fails with an error.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc converts f to an http.HandlerFunc. Errors created with
// HTTPError are responded with their status, and anything else is logged and
// responded with http.StatusInternalServerError.
func WrapHandlerFunc(log *logrus.Entry, f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}

		var he *httpError
		if errors.As(err, &he) {
			http.Error(w, he.cause.Error(), he.status)
			return
		}

		log.WithError(err).WithField("path", r.URL.Path).Warn("failed to serve request")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ParseJSON decodes a JSON object, rejecting unknown fields.
func ParseJSON(r io.Reader, v interface{}) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func WriteJSON(w http.ResponseWriter, obj interface{}) error {
	return WriteJSONWithStatus(w, http.StatusOK, obj)
}

func WriteJSONWithStatus(w http.ResponseWriter, status int, obj interface{}) error {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(obj)
}

// ParseAddress decodes a base58 account address.
func ParseAddress(s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q", s)
	}
	return decoded, nil
}

// AddressVar parses the {address} path variable, failing with a bad request.
func AddressVar(r *http.Request) (ed25519.PublicKey, error) {
	address, err := ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		return nil, BadRequest(err)
	}
	return address, nil
}
