// Package otp drives the interactive OTP verification flow: code entry,
// submission, rejection/retry, and the resend cooldown. The Flow owns UI-facing
// state only; network calls and token handling stay in the session manager
// behind the Verifier interface.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// DefaultResendCooldown is the wait imposed between OTP sends.
const DefaultResendCooldown = 30 * time.Second

// State is the verification flow phase.
type State string

const (
	StateIdle       State = "idle"
	StateEntering   State = "entering"
	StateSubmitting State = "submitting"
	StateVerified   State = "verified"
	StateRejected   State = "rejected"
)

// ErrCooldownActive is returned by Resend while the cooldown has not lapsed.
var ErrCooldownActive = errors.New("otp: resend cooldown active")

// ErrIncompleteCode is returned by Submit before all digits are entered.
var ErrIncompleteCode = errors.New("otp: code is incomplete")

// Verifier is the session-manager surface the flow drives.
type Verifier interface {
	InitAuth(ctx context.Context, mobileNumber, recaptchaToken string) (string, error)
	VerifyOTP(ctx context.Context, sessionID, otp, recaptchaToken string) error
}

// Snapshot is the observable flow state pushed to subscribers.
type Snapshot struct {
	State        State
	MobileNumber string
	Code         string
	ResendWait   int // whole seconds until resend is allowed
	Err          error
}

// Flow is a single login attempt's state machine. Safe for concurrent use;
// no lock is held across a Verifier call.
type Flow struct {
	log      *slog.Logger
	verifier Verifier
	cooldown time.Duration

	mu           sync.Mutex
	state        State
	mobileNumber string
	sessionID    string
	code         string
	lastErr      error
	resendAt     time.Time
	subs         map[int]func(Snapshot)
	nextSub      int

	now func() time.Time
}

// NewFlow builds an idle flow. A cooldown of zero means DefaultResendCooldown.
func NewFlow(log *slog.Logger, verifier Verifier, cooldown time.Duration) *Flow {
	if cooldown <= 0 {
		cooldown = DefaultResendCooldown
	}
	return &Flow{
		log:      log,
		verifier: verifier,
		cooldown: cooldown,
		state:    StateIdle,
		subs:     make(map[int]func(Snapshot)),
		now:      time.Now,
	}
}

// SetClock overrides the time source for cooldown tests.
func (f *Flow) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Current returns the present snapshot.
func (f *Flow) Current() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Subscribe registers a state-change callback and returns a cancel function.
// Callbacks run synchronously on the mutating goroutine and must not call
// back into the Flow.
func (f *Flow) Subscribe(fn func(Snapshot)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Start requests an OTP for the number and moves to entering. The resend
// cooldown starts from the send, successful or not the state only advances on
// success.
func (f *Flow) Start(ctx context.Context, mobileNumber, recaptchaToken string) error {
	sessionID, err := f.verifier.InitAuth(ctx, mobileNumber, recaptchaToken)
	if err != nil {
		f.setErr(err)
		return err
	}

	f.mu.Lock()
	f.state = StateEntering
	f.mobileNumber = mobileNumber
	f.sessionID = sessionID
	f.code = ""
	f.lastErr = nil
	f.resendAt = f.now().Add(f.cooldown)
	f.publishLocked()
	f.mu.Unlock()
	return nil
}

// Input applies raw user keystrokes to the code: digits only, capped at
// CodeLength. Pasting "12 34-56x" yields "123456". Returns the sanitized code.
func (f *Flow) Input(raw string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateEntering && f.state != StateRejected {
		return f.code
	}
	f.code = FilterDigits(raw)
	if f.state == StateRejected {
		// Typing again after a rejection implicitly retries.
		f.state = StateEntering
		f.lastErr = nil
	}
	f.publishLocked()
	return f.code
}

// Submit sends the entered code. Rejection moves to rejected and keeps the
// session alive so the user can retry; success moves to verified.
func (f *Flow) Submit(ctx context.Context, recaptchaToken string) error {
	f.mu.Lock()
	if len(f.code) != CodeLength {
		f.mu.Unlock()
		return fmt.Errorf("%w: have %d of %d digits", ErrIncompleteCode, len(f.code), CodeLength)
	}
	sessionID, code := f.sessionID, f.code
	f.state = StateSubmitting
	f.publishLocked()
	f.mu.Unlock()

	err := f.verifier.VerifyOTP(ctx, sessionID, code, recaptchaToken)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateRejected
		f.lastErr = err
		f.code = ""
		f.publishLocked()
		return err
	}
	f.state = StateVerified
	f.lastErr = nil
	f.publishLocked()
	return nil
}

// Retry returns from rejected to entering with a cleared code.
func (f *Flow) Retry() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateRejected {
		return
	}
	f.state = StateEntering
	f.code = ""
	f.lastErr = nil
	f.publishLocked()
}

// Resend requests a fresh OTP for the same number. Refused while the cooldown
// is running; a resend issues a new session id, invalidating the previous
// code.
func (f *Flow) Resend(ctx context.Context, recaptchaToken string) error {
	f.mu.Lock()
	if wait := f.resendAt.Sub(f.now()); wait > 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s remaining", ErrCooldownActive, wait.Round(time.Second))
	}
	mobileNumber := f.mobileNumber
	f.mu.Unlock()

	sessionID, err := f.verifier.InitAuth(ctx, mobileNumber, recaptchaToken)
	if err != nil {
		f.setErr(err)
		return err
	}

	f.mu.Lock()
	f.sessionID = sessionID
	f.state = StateEntering
	f.code = ""
	f.lastErr = nil
	f.resendAt = f.now().Add(f.cooldown)
	f.publishLocked()
	f.mu.Unlock()

	f.log.Info("otp resent", "session_id", sessionID)
	return nil
}

// ResendWait returns the whole seconds until Resend is allowed, zero when it
// already is.
func (f *Flow) ResendWait() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resendWaitLocked()
}

// RunResendCountdown pushes a snapshot to subscribers on every tick while the
// cooldown runs, and a final one when it reaches zero. ticks normally comes
// from a time.Ticker; tests feed it by hand.
func (f *Flow) RunResendCountdown(ctx context.Context, ticks <-chan time.Time) {
	for {
		f.mu.Lock()
		remaining := f.resendWaitLocked()
		f.publishLocked()
		f.mu.Unlock()

		if remaining <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}
	}
}

func (f *Flow) resendWaitLocked() int {
	wait := f.resendAt.Sub(f.now())
	if wait <= 0 {
		return 0
	}
	return int((wait + time.Second - 1) / time.Second)
}

func (f *Flow) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err
	f.publishLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	return Snapshot{
		State:        f.state,
		MobileNumber: f.mobileNumber,
		Code:         f.code,
		ResendWait:   f.resendWaitLocked(),
		Err:          f.lastErr,
	}
}

func (f *Flow) publishLocked() {
	snap := f.snapshotLocked()
	for _, fn := range f.subs {
		fn(snap)
	}
}

// FilterDigits strips everything but digits and truncates to CodeLength.
func FilterDigits(raw string) string {
	out := make([]byte, 0, CodeLength)
	for i := 0; i < len(raw) && len(out) < CodeLength; i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			out = append(out, raw[i])
		}
	}
	return string(out)
}
