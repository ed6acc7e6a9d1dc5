package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ConsentFlow obtains a brand new token from the user.
type ConsentFlow interface {
	Run(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// LocalServerFlow runs the installed-app flow: the user approves access in a
// browser and Google redirects back to a loopback listener on a random port.
type LocalServerFlow struct {
	Logger *slog.Logger
	// Out receives the authorization URL. Nil means stdout is not used.
	Out io.Writer
	// OpenBrowser is called with the authorization URL. Nil skips it.
	OpenBrowser func(url string) error
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// Run blocks until the browser redirect arrives or ctx is done.
func (f *LocalServerFlow) Run(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	cfg := *config
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("no authorization code received")
		default:
			res.token, res.err = cfg.Exchange(r.Context(), q.Get("code"))
			if res.err != nil {
				res.err = fmt.Errorf("failed to exchange code: %w", res.err)
			}
		}

		if res.err != nil {
			http.Error(w, "Authorization failed, return to the terminal.", http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprint(w, "Authorization successful! You can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() { _ = server.Close() }()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if f.Out != nil {
		_, _ = fmt.Fprintf(f.Out, "Open the following link in your browser to authorize access:\n%v\n", authURL)
	}
	if f.OpenBrowser != nil {
		if err := f.OpenBrowser(authURL); err != nil && f.Logger != nil {
			f.Logger.Warn("Could not open browser", "error", err)
		}
	}

	select {
	case res := <-results:
		return res.token, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
