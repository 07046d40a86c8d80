// package server serves the github data link: it maps request paths onto
// repository selectors, drives the stats pipeline and streams the
// flattened rows back to the caller.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vizydrop/github-data-link/pkg/common"
	"github.com/vizydrop/github-data-link/pkg/connector"
	"github.com/vizydrop/github-data-link/pkg/github"
	"github.com/vizydrop/github-data-link/pkg/retry"
)

const tokenGuidance = "Provide a valid GitHub access token via the \"Authorization: token <value>\" header or the \"token\" query parameter"

// Config carries the server's tunable behavior.
type Config struct {
	// Affiliation selects the membership semantics of the logged-in-user
	// selector, passed through to the upstream repository listing.
	Affiliation string

	// ResolveDisplayNames enables per-contributor profile lookups so rows
	// carry display names instead of raw logins.
	ResolveDisplayNames bool

	// Retry is the policy applied around every upstream call.
	Retry retry.Policy
}

// DefaultConfig returns the configuration used when no yaml file
// overrides it.
func DefaultConfig() *Config {
	return &Config{
		Affiliation: "organization_member",
		Retry:       retry.DefaultPolicy(),
	}
}

// DataLinkServer holds the leveled logger, the configuration and the API
// factory used to build a per-request authenticated client.
type DataLinkServer struct {
	Logger *zap.SugaredLogger
	Config *Config

	// NewAPI builds the hosting API client for one request's token. Tests
	// substitute a fake here.
	NewAPI func(token string) (connector.API, error)
}

// NewDataLinkServer returns a DataLinkServer using the real GitHub client.
func NewDataLinkServer(config *Config, logger *zap.SugaredLogger) *DataLinkServer {
	return &DataLinkServer{
		Logger: logger,
		Config: config,
		NewAPI: func(token string) (connector.API, error) {
			return github.NewTokenClient(token, logger)
		},
	}
}

// Run starts the http server on the provided port.
func (s *DataLinkServer) Run(serverPort string) {
	//nolint:errcheck
	defer s.Logger.Sync()
	s.Logger.Infof("Starting server on port %s", serverPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%s", serverPort), s.Handler()))
}

// Handler returns the server's routed handler wrapped with request
// logging.
func (s *DataLinkServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/", s.handleStats)
	return s.logRequests(mux)
}

// logRequests emits one line per request with method, status, path and
// duration. The liveness endpoint is skipped to keep probe noise out of
// the logs.
func (s *DataLinkServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.Logger.Infof("%s %d %s %s", r.Method, recorder.status, r.URL.Path, time.Since(start))
	})
}

func (s *DataLinkServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
		s.Logger.Errorf("Could not write status response: %v", err)
	}
}

func (s *DataLinkServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Invalid request method, expected GET")
		return
	}

	token := common.Token(r)
	if token == "" {
		s.writeError(w, http.StatusUnauthorized, tokenGuidance)
		return
	}

	sel, err := common.ParseSelector(r.URL.Path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	api, err := s.NewAPI(token)
	if err != nil {
		s.Logger.Errorf("Could not build the GitHub client: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Could not reach GitHub")
		return
	}

	policy := s.Config.Retry
	policy.IsTerminal = connector.IsTerminal
	invoker := retry.NewInvoker(policy, s.Logger)

	// Resolution happens before any response bytes: failures here still
	// own the status code.
	resolver := connector.NewResolver(api, invoker, s.Config.Affiliation)
	repos, err := resolver.Resolve(r.Context(), sel)
	if err != nil {
		s.Logger.Errorf("Could not resolve %s: %v", sel, err)
		code := connector.StatusCode(err)
		message := remoteMessage(err)
		if code == http.StatusUnauthorized {
			// A rejected token gets the same supply-a-token guidance as a
			// missing one.
			message = message + ". " + tokenGuidance
		}
		s.writeError(w, code, message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	stream := connector.NewArrayStream(w)
	aggregator := connector.NewAggregator(api, invoker, s.Logger, s.Config.ResolveDisplayNames)
	aggregator.Run(r.Context(), repos, stream)

	if err := stream.Close(); err != nil {
		s.Logger.Warnf("Could not close the response stream: %v", err)
	}
}

// writeError answers with the structured {message, code} body used for
// every failure that happens before streaming begins.
func (s *DataLinkServer) writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	body := map[string]interface{}{
		"message": message,
		"code":    code,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger.Errorf("Could not encode error response: %v", err)
	}
}

// remoteMessage keeps upstream status texts intact in error bodies while
// hiding wrapper noise.
func remoteMessage(err error) string {
	var remote *connector.RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}

// statusRecorder captures the response status for the request log while
// forwarding Flush so streaming keeps working through the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
