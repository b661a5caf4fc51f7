// Package pipeline runs the frame loop: capture, match, decide, log and
// render, one frame at a time until stopped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance-cam/internal/camera"
	"github.com/kozaktomas/attendance-cam/internal/constants"
	"github.com/kozaktomas/attendance-cam/internal/decision"
	"github.com/kozaktomas/attendance-cam/internal/feed"
	"github.com/kozaktomas/attendance-cam/internal/matcher"
)

var (
	// ErrSourceExhausted wraps frame acquisition failures that stop the loop.
	ErrSourceExhausted = errors.New("video source exhausted or disconnected")
	// ErrAlreadyStarted is returned when Run is called twice.
	ErrAlreadyStarted = errors.New("frame loop already started")
)

// State of the frame loop.
type State int

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Matcher analyzes one encoded frame.
type Matcher interface {
	Match(ctx context.Context, frame []byte) matcher.Result
}

// Ledger records attendance.
type Ledger interface {
	Record(ctx context.Context, identity string, distance float64, at time.Time) (bool, float64, error)
}

// GalleryResetter drops cached gallery representations.
type GalleryResetter interface {
	Reset(ctx context.Context) error
}

// Renderer annotates a frame with the decision.
type Renderer interface {
	Render(img image.Image, res decision.Result) *image.RGBA
}

// Output is handed to the frame callback after each processed frame.
type Output struct {
	Seq      uint64
	Image    *image.RGBA
	Status   matcher.Status
	Decision decision.Result
}

// Options tune the loop. Zero values fall back to defaults.
type Options struct {
	Threshold   float64
	PacingDelay time.Duration
	Feed        *feed.Feed
	Events      *feed.Broadcaster
	Renderer    Renderer
	OnFrame     func(Output)
	Now         func() time.Time
}

type control struct {
	reply chan error
}

// Loop is the frame loop controller. It starts in StateRunning, the video
// source already acquired, and moves to StateStopped exactly once.
type Loop struct {
	source  camera.Source
	matcher Matcher
	ledger  Ledger
	gallery GalleryResetter
	opts    Options

	runID    string
	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	release  sync.Once
	controls chan control

	lastAnalysisErr string

	mu     sync.RWMutex
	status Status
	latest *image.RGBA
}

// New creates a loop over an opened source.
func New(source camera.Source, m Matcher, ledger Ledger, gallery GalleryResetter, opts Options) *Loop {
	if opts.Threshold <= 0 {
		opts.Threshold = constants.DefaultMatchThreshold
	}
	if opts.PacingDelay < 0 {
		opts.PacingDelay = 0
	}
	if opts.Feed == nil {
		opts.Feed = feed.New(constants.FeedCapacity, opts.Events)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	runID := uuid.NewString()
	return &Loop{
		source:   source,
		matcher:  m,
		ledger:   ledger,
		gallery:  gallery,
		opts:     opts,
		runID:    runID,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		controls: make(chan control, constants.ControlQueueSize),
		status: Status{
			RunID:     runID,
			State:     StateRunning,
			Threshold: opts.Threshold,
			StartedAt: opts.Now(),
		},
	}
}

// RunID identifies this run.
func (l *Loop) RunID() string {
	return l.runID
}

// Feed returns the activity feed owned by the loop.
func (l *Loop) Feed() *feed.Feed {
	return l.opts.Feed
}

// Run processes frames until the source fails, a frame cannot be logged,
// Stop is called or ctx is cancelled. Malformed frames are counted as
// analysis errors and skipped. The source is released on every
// exit path. A stop request or cancellation returns nil.
func (l *Loop) Run(ctx context.Context) (err error) {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	reason := "stopped"
	defer func() {
		l.shutdown(reason, err)
	}()

	log.Printf("Frame loop %s: running (threshold %.2f)", l.runID, l.opts.Threshold)

	for {
		if r, stop := l.checkStop(ctx); stop {
			reason = r
			return nil
		}
		l.drainControls(ctx)

		frame, readErr := l.source.Read(ctx)
		if readErr != nil {
			if ctx.Err() != nil {
				reason = "context cancelled"
				return nil
			}
			if errors.Is(readErr, camera.ErrBadFrame) {
				l.observe(matcher.Result{Status: matcher.StatusAnalysisError, Err: readErr})
				l.pace(ctx)
				continue
			}
			reason = "source failed"
			return fmt.Errorf("%w: %w", ErrSourceExhausted, readErr)
		}

		if procErr := l.process(ctx, frame); procErr != nil {
			if ctx.Err() != nil {
				reason = "context cancelled"
				return nil
			}
			reason = "persistence failed"
			return procErr
		}

		l.pace(ctx)
	}
}

// pace waits the pacing delay, returning early on stop or cancellation.
func (l *Loop) pace(ctx context.Context) {
	if l.opts.PacingDelay <= 0 {
		return
	}
	select {
	case <-time.After(l.opts.PacingDelay):
	case <-l.stopCh:
	case <-ctx.Done():
	}
}

// checkStop reports whether the loop should stop at this iteration boundary.
func (l *Loop) checkStop(ctx context.Context) (string, bool) {
	select {
	case <-l.stopCh:
		return "stop requested", true
	default:
	}
	if ctx.Err() != nil {
		return "context cancelled", true
	}
	return "", false
}

// process runs one frame through match, decision, ledger and renderer.
// Only ledger failures are returned.
func (l *Loop) process(ctx context.Context, frame camera.Frame) error {
	res := l.matcher.Match(ctx, frame.Data)
	l.observe(res)

	dec := decision.Decide(res.Candidates, l.opts.Threshold)
	if dec.Accepted {
		l.update(func(s *Status) { s.Accepted++ })

		at := l.opts.Now()
		isNew, confidence, err := l.ledger.Record(ctx, dec.Candidate.Identity, dec.Candidate.Distance, at)
		if err != nil {
			return fmt.Errorf("attendance: %w", err)
		}
		if isNew {
			l.update(func(s *Status) { s.Logged++ })
			entry := feed.NewEntry(dec.Candidate.Identity, confidence, at)
			l.opts.Feed.Push(entry)
			log.Printf("Frame loop %s: %s", l.runID, entry.Line)
		}
	}

	if l.opts.Renderer != nil && frame.Image != nil {
		out := l.opts.Renderer.Render(frame.Image, dec)
		l.mu.Lock()
		l.latest = out
		l.mu.Unlock()
		if l.opts.OnFrame != nil {
			l.opts.OnFrame(Output{Seq: frame.Seq, Image: out, Status: res.Status, Decision: dec})
		}
	}
	return nil
}

// observe updates counters and logs analysis failures once per streak of
// identical messages.
func (l *Loop) observe(res matcher.Result) {
	l.update(func(s *Status) {
		s.Frames++
		switch res.Status {
		case matcher.StatusMatched:
			s.Faces++
		case matcher.StatusNoFace:
			s.NoFace++
		case matcher.StatusEmptyGallery:
			s.EmptyGallery++
		case matcher.StatusAnalysisError:
			s.AnalysisErrors++
			if res.Err != nil {
				s.LastAnalysisError = res.Err.Error()
			}
		}
	})

	if res.Status != matcher.StatusAnalysisError {
		l.lastAnalysisErr = ""
		return
	}
	msg := "unknown error"
	if res.Err != nil {
		msg = res.Err.Error()
	}
	if msg != l.lastAnalysisErr {
		log.Printf("Frame loop %s: frame analysis failed: %s", l.runID, msg)
		l.lastAnalysisErr = msg
	}
}

// drainControls executes queued control requests.
func (l *Loop) drainControls(ctx context.Context) {
	for {
		select {
		case c := <-l.controls:
			c.reply <- l.resetGallery(ctx)
		default:
			return
		}
	}
}

func (l *Loop) resetGallery(ctx context.Context) error {
	if err := l.gallery.Reset(ctx); err != nil {
		log.Printf("Frame loop %s: gallery reset failed: %v", l.runID, err)
		return err
	}
	l.update(func(s *Status) { s.GalleryResets++ })
	log.Printf("Frame loop %s: gallery representations reset", l.runID)
	if l.opts.Events != nil {
		l.opts.Events.Send(feed.Event{Type: feed.EventReset, Message: "gallery representations reset"})
	}
	return nil
}

// RequestReset queues a gallery reset, executed by the loop at its next
// iteration boundary, and waits for its outcome. Once the loop has stopped
// the reset runs directly.
func (l *Loop) RequestReset(ctx context.Context) error {
	c := control{reply: make(chan error, 1)}

	select {
	case l.controls <- c:
	case <-l.done:
		return l.resetGallery(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.reply:
		return err
	case <-l.done:
		select {
		case err := <-c.reply:
			return err
		default:
			return l.resetGallery(ctx)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop asks the loop to stop at its next iteration boundary. It does not wait.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Done is closed once the loop has stopped and released the source.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// shutdown moves the loop to StateStopped and releases the source.
func (l *Loop) shutdown(reason string, runErr error) {
	l.release.Do(func() {
		if err := l.source.Close(); err != nil {
			log.Printf("Frame loop %s: failed to release video source: %v", l.runID, err)
		}

		// Requests queued before the stop still get an answer.
		l.drainControls(context.Background())

		now := l.opts.Now()
		l.update(func(s *Status) {
			s.State = StateStopped
			s.StoppedAt = &now
			s.StopReason = reason
			if runErr != nil {
				s.Error = runErr.Error()
			}
		})
		close(l.done)

		st := l.Status()
		if runErr != nil {
			log.Printf("Frame loop %s: stopped (%s): %v", l.runID, reason, runErr)
		} else {
			log.Printf("Frame loop %s: stopped (%s)", l.runID, reason)
		}
		if l.opts.Events != nil {
			l.opts.Events.Send(feed.Event{Type: feed.EventStatus, Message: st.State.String(), Data: st})
		}
	})
}

// LatestFrame returns the last rendered frame, or nil.
func (l *Loop) LatestFrame() *image.RGBA {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest
}
