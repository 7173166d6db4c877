// Package flow drives a /user API through the full account lifecycle:
// register, login, validate, update name, update password, logout, re-login,
// delete, and a final login against the deleted account.
package flow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"authflow/internal/client"
	"authflow/internal/domain"
)

const (
	InitialPassword = "password123"
	UpdatedPassword = "newpassword123"
	InitialName     = "Test User"
	UpdatedName     = "Updated Name"
)

// UserAPI is the set of calls the flow makes. *client.Client satisfies it.
type UserAPI interface {
	Register(ctx context.Context, creds domain.Credentials) (*client.Response, error)
	Login(ctx context.Context, username, password string) (*client.Response, error)
	Validate(ctx context.Context) (*client.Response, error)
	UpdateName(ctx context.Context, username, name string) (*client.Response, error)
	UpdatePassword(ctx context.Context, username, password string) (*client.Response, error)
	Logout(ctx context.Context) (*client.Response, error)
	Delete(ctx context.Context, username, password string) (*client.Response, error)
}

// StepResult records one executed step.
type StepResult struct {
	Number     int
	Action     string
	StatusCode int
	Error      string
}

// Report summarises a run. Steps holds only the steps that were executed.
type Report struct {
	Credentials domain.Credentials
	Steps       []StepResult
	// StoppedAt is the step that ended the run early, or zero.
	StoppedAt int
}

// Errors lists the soft assertion failures in step order.
func (r *Report) Errors() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Error != "" {
			out = append(out, s.Error)
		}
	}
	return out
}

// Passed reports whether every step ran and no assertion failed.
func (r *Report) Passed() bool {
	return r.StoppedAt == 0 && len(r.Steps) == totalSteps && len(r.Errors()) == 0
}

const totalSteps = 11

// Tester runs the scripted sequence and prints every response to out.
type Tester struct {
	api UserAPI
	out io.Writer
	now func() time.Time
}

// Option customises a Tester.
type Option func(*Tester)

// WithClock overrides the time source used to derive the username.
func WithClock(now func() time.Time) Option {
	return func(t *Tester) {
		t.now = now
	}
}

func NewTester(api UserAPI, out io.Writer, opts ...Option) *Tester {
	t := &Tester{
		api: api,
		out: out,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewCredentials returns the credentials a run registers with at instant now.
func NewCredentials(now time.Time) domain.Credentials {
	return domain.Credentials{
		Username: fmt.Sprintf("testuser_%d", now.Unix()),
		Password: InitialPassword,
		Name:     InitialName,
	}
}

// Run executes the eleven steps in order. Assertion failures are printed and
// recorded in the report. Steps 1, 2 and 9 end the run when their status is
// not the expected one. A transport failure aborts the run and is returned
// together with the partial report.
func (t *Tester) Run(ctx context.Context) (*Report, error) {
	creds := NewCredentials(t.now())
	r := &run{t: t, report: &Report{Credentials: creds}}

	username := creds.Username

	r.heading(1, "Registering user: %s", username)
	resp, ok := r.call("Register", func() (*client.Response, error) {
		return t.api.Register(ctx, creds)
	})
	if !ok {
		return r.report, r.err
	}
	if resp.StatusCode != http.StatusCreated {
		return r.stop(), nil
	}

	r.heading(2, "Logging in as: %s", username)
	if resp, ok = r.call("Login", func() (*client.Response, error) {
		return t.api.Login(ctx, username, creds.Password)
	}); !ok {
		return r.report, r.err
	}
	if resp.StatusCode != http.StatusOK {
		return r.stop(), nil
	}

	r.heading(3, "Validating Session (Check Name)")
	if resp, ok = r.call("Validate", func() (*client.Response, error) {
		return t.api.Validate(ctx)
	}); !ok {
		return r.report, r.err
	}
	if name, found := resp.ValidatedName(); !found || name != creds.Name {
		r.fail("Error: Name mismatch!")
	}

	r.heading(4, "Updating Name to: %s", UpdatedName)
	if _, ok = r.call("Update Name", func() (*client.Response, error) {
		return t.api.UpdateName(ctx, username, UpdatedName)
	}); !ok {
		return r.report, r.err
	}

	r.heading(5, "Validating Session (Check Updated Name)")
	if resp, ok = r.call("Validate", func() (*client.Response, error) {
		return t.api.Validate(ctx)
	}); !ok {
		return r.report, r.err
	}
	if name, found := resp.ValidatedName(); !found || name != UpdatedName {
		r.fail("Error: Updated name mismatch in session!")
	}

	r.heading(6, "Updating Password")
	if _, ok = r.call("Update Password", func() (*client.Response, error) {
		return t.api.UpdatePassword(ctx, username, UpdatedPassword)
	}); !ok {
		return r.report, r.err
	}

	r.heading(7, "Logging out")
	if _, ok = r.call("Logout", func() (*client.Response, error) {
		return t.api.Logout(ctx)
	}); !ok {
		return r.report, r.err
	}

	r.heading(8, "Login with OLD password (Should Fail)")
	if resp, ok = r.call("Login (Old Pass)", func() (*client.Response, error) {
		return t.api.Login(ctx, username, creds.Password)
	}); !ok {
		return r.report, r.err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		r.fail("Error: Old password should not work!")
	}

	r.heading(9, "Login with NEW password (Should Success)")
	if resp, ok = r.call("Login (New Pass)", func() (*client.Response, error) {
		return t.api.Login(ctx, username, UpdatedPassword)
	}); !ok {
		return r.report, r.err
	}
	if resp.StatusCode != http.StatusOK {
		return r.stop(), nil
	}

	r.heading(10, "Deleting User")
	if _, ok = r.call("Delete User", func() (*client.Response, error) {
		return t.api.Delete(ctx, username, UpdatedPassword)
	}); !ok {
		return r.report, r.err
	}

	r.heading(11, "Login with Deleted User (Should Fail)")
	if resp, ok = r.call("Login (Deleted User)", func() (*client.Response, error) {
		return t.api.Login(ctx, username, UpdatedPassword)
	}); !ok {
		return r.report, r.err
	}
	if resp.StatusCode != http.StatusNotFound {
		r.fail("Error: Deleted user should not be found!")
	}

	return r.report, nil
}

// run carries the per-invocation state of Tester.Run.
type run struct {
	t      *Tester
	report *Report
	step   int
	err    error
}

func (r *run) heading(n int, format string, args ...any) {
	r.step = n
	fmt.Fprintf(r.t.out, "\n[%d] %s\n", n, fmt.Sprintf(format, args...))
}

func (r *run) call(action string, fn func() (*client.Response, error)) (*client.Response, bool) {
	resp, err := fn()
	if err != nil {
		r.err = fmt.Errorf("step %d (%s): %w", r.step, action, err)
		return nil, false
	}
	printResponse(r.t.out, resp, action)
	r.report.Steps = append(r.report.Steps, StepResult{
		Number:     r.step,
		Action:     action,
		StatusCode: resp.StatusCode,
	})
	return resp, true
}

func (r *run) fail(msg string) {
	fmt.Fprintln(r.t.out, msg)
	r.report.Steps[len(r.report.Steps)-1].Error = msg
}

func (r *run) stop() *Report {
	r.report.StoppedAt = r.step
	return r.report
}
