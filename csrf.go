package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	csrfTokenHTTPHeader = "X-CSRF-Token"
	csrfTokenFormField  = "csrf_token"
	csrfTokenLength     = 32
)

// NewCSRFProtection returns a new CSRFProtection.
func NewCSRFProtection(sessionStore SessionStore) *CSRFProtection {
	return &CSRFProtection{sessionStore: sessionStore, rand: rand.Reader, randPad: rand.Reader}
}

// CSRFProtection issues per-session CSRF tokens and verifies them on
// state-changing requests.
type CSRFProtection struct {
	sessionStore SessionStore
	rand         io.Reader
	randPad      io.Reader
}

// Protect returns a request handler that rejects non-GET, non-HEAD requests
// whose token doesn't match the token in the session. Scripts send the token
// in the X-CSRF-Token header; the logout form on the index page posts it in
// the csrf_token field.
func (p *CSRFProtection) Protect(handler http.Handler) http.Handler {
	return &csrfProtectionHandler{handler: handler}
}

// CSRFToken returns a masked token for the session, creating the session
// token first if needed. A fresh mask is used on every call.
func (p *CSRFProtection) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	session, ok := SessionFromRequest(r)
	if !ok {
		return "", errors.New("session doesn't exist")
	}

	var tokenBytes []byte
	var err error
	if session.CSRFToken != "" {
		tokenBytes, err = base64.StdEncoding.DecodeString(session.CSRFToken)
	}
	if session.CSRFToken == "" || err != nil {
		tokenBytes = make([]byte, csrfTokenLength)
		if _, err = io.ReadFull(p.rand, tokenBytes); err != nil {
			return "", errors.Wrap(err, "failed to generate CSRF token")
		}

		session.CSRFToken = base64.StdEncoding.EncodeToString(tokenBytes)
		if err := p.sessionStore.Save(w, session); err != nil {
			return "", errors.Wrap(err, "failed to save CSRF token")
		}
	}

	maskedTokenBytes, err := maskCSRFTokenBytes(p.randPad, tokenBytes)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(maskedTokenBytes), nil
}

type csrfProtectionHandler struct {
	handler http.Handler
}

// ServeHTTP implements the http.Handler interface.
func (h *csrfProtectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		h.handler.ServeHTTP(w, r)
		return
	}

	token := requestCSRFToken(r)
	if token == "" {
		logrus.Warn("CSRF token is missing")
		http.Error(w, "", http.StatusForbidden)
		return
	}

	session, ok := SessionFromRequest(r)
	if !ok {
		logrus.Error("session doesn't exist")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if session.CSRFToken == "" {
		logrus.Warn("Session doesn't contain CSRF token")
		http.Error(w, "", http.StatusForbidden)
		return
	}

	if err := validateCSRFToken(token, session.CSRFToken); err != nil {
		logrus.WithError(err).Warn("Error validating CSRF token")
		http.Error(w, "", http.StatusForbidden)
		return
	}

	h.handler.ServeHTTP(w, r)
}

// requestCSRFToken returns the masked token sent with the request. The header
// takes precedence over the form field.
func requestCSRFToken(r *http.Request) string {
	if token := r.Header.Get(csrfTokenHTTPHeader); token != "" {
		return token
	}
	return r.PostFormValue(csrfTokenFormField)
}

func maskCSRFTokenBytes(rand io.Reader, tokenBytes []byte) ([]byte, error) {
	maskedTokenBytes := make([]byte, 2*csrfTokenLength)
	if _, err := io.ReadFull(rand, maskedTokenBytes[:csrfTokenLength]); err != nil {
		return nil, errors.Wrap(err, "failed to generate CSRF token mask")
	}
	xorBytes(maskedTokenBytes[csrfTokenLength:], maskedTokenBytes[:csrfTokenLength], tokenBytes)
	return maskedTokenBytes, nil
}

func xorBytes(dst, a, b []byte) {
	for i := range a {
		dst[i] = a[i] ^ b[i]
	}
}

func validateCSRFToken(maskedToken, realToken string) error {
	maskedTokenBytes, err := base64.StdEncoding.DecodeString(maskedToken)
	if err != nil {
		return err
	}
	if len(maskedTokenBytes) != csrfTokenLength*2 {
		return errors.New("token length is invalid")
	}

	tokenBytes := make([]byte, csrfTokenLength)
	xorBytes(tokenBytes, maskedTokenBytes[:csrfTokenLength], maskedTokenBytes[csrfTokenLength:])

	realTokenBytes, err := base64.StdEncoding.DecodeString(realToken)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(tokenBytes, realTokenBytes) != 1 {
		return errors.New("token doesn't match")
	}
	return nil
}
