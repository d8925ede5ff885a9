package auth

import (
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// callbackResult carries the query of the single OAuth redirect.
type callbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// callbackServer is a one-shot HTTP listener for the OAuth redirect. Only the
// first request on the redirect path is delivered; results are scoped to the
// server instance so concurrent logins cannot observe each other.
type callbackServer struct {
	srv     *http.Server
	ln      net.Listener
	results chan callbackResult
	once    sync.Once
	log     logrus.FieldLogger
}

func startCallbackServer(addr, path string, logger logrus.FieldLogger) (*callbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for oauth callback on %s: %w", addr, err)
	}

	s := &callbackServer{
		ln:      ln,
		results: make(chan callbackResult, 1),
		log:     logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handle)
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("OAuth callback server stopped")
		}
	}()
	s.log.WithField("addr", ln.Addr().String()).Debug("Waiting for OAuth callback")
	return s, nil
}

// Addr returns the address the listener is bound to.
func (s *callbackServer) Addr() string {
	return s.ln.Addr().String()
}

// Results delivers exactly one callbackResult.
func (s *callbackServer) Results() <-chan callbackResult {
	return s.results
}

func (s *callbackServer) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := callbackResult{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	delivered := false
	s.once.Do(func() {
		s.results <- res
		delivered = true
	})
	if !delivered {
		http.Error(w, "Authorization already handled.", http.StatusGone)
		return
	}

	switch {
	case res.Error != "":
		writeCallbackPage(w, "Authorization failed. You can close this window.")
	case res.Code != "":
		writeCallbackPage(w, "Authorization successful! You can close this window.")
	default:
		writeCallbackPage(w, "Invalid callback request.")
	}
}

// Close stops the listener immediately.
func (s *callbackServer) Close() error {
	return s.srv.Close()
}

func writeCallbackPage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>X Authorization</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>%s</h1>
</body>
</html>
`, html.EscapeString(message))
}
