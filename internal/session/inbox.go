package session

import (
	"errors"
	"fmt"

	"github.com/airrace/racecore/internal/dispatcher"
	"github.com/airrace/racecore/pkg/core"
)

// Commands routed to a session through the dispatcher.
const (
	CmdCheckpoint = ":CHECKPOINT:"
	CmdCollision  = ":COLLISION:"
	CmdPoseLeft   = ":POSE:LEFT:"
	CmdPoseRight  = ":POSE:RIGHT:"
	CmdKeys       = ":KEYS:"
	CmdCapture    = ":CAPTURE:"
	CmdTelemetry  = ":TELEMETRY:"
)

// DefaultRecordBuffer is the queue length of the :TELEMETRY: writer.
const DefaultRecordBuffer = 4096

// ErrBadPayload is returned when a command carries the wrong payload type.
var ErrBadPayload = errors.New("unexpected payload")

// InputKind tags an Input.
type InputKind int

const (
	InputPose InputKind = iota
	InputKeys
	InputCheckpoint
	InputCollision
	InputCapture
)

// Input is one queued notification from a collaborator.
type Input struct {
	Kind InputKind
	Hand core.Hand
	Pose core.LivePose
	Keys core.KeyState
}

// drained is what one Step collected from the inbox besides race triggers.
type drained struct {
	left, right *core.LivePose
	captures    []core.Hand
}

// PushPose queues the latest tracked pose of a hand. Only the last pose per
// hand before a Step is classified.
func (s *Session) PushPose(hand core.Hand, pose core.LivePose) {
	s.inbox.Push(Input{Kind: InputPose, Hand: hand, Pose: pose.Clone()})
}

// PushKeys queues a debug keyboard frame.
func (s *Session) PushKeys(k core.KeyState) {
	s.inbox.Push(Input{Kind: InputKeys, Keys: k})
}

// ReachCheckpoint queues a checkpoint trigger.
func (s *Session) ReachCheckpoint() {
	s.inbox.Push(Input{Kind: InputCheckpoint})
}

// Collide queues a collision.
func (s *Session) Collide() {
	s.inbox.Push(Input{Kind: InputCollision})
}

// RequestCapture queues a capture of the hand's next pose.
func (s *Session) RequestCapture(hand core.Hand) {
	s.inbox.Push(Input{Kind: InputCapture, Hand: hand})
}

func (s *Session) apply(in Input, d *drained) {
	switch in.Kind {
	case InputPose:
		pose := in.Pose
		switch in.Hand {
		case core.HandLeft:
			d.left = &pose
		case core.HandRight:
			d.right = &pose
		default:
			s.logger.Warn("Pose for unknown hand dropped", "hand", in.Hand)
		}
	case InputKeys:
		if !s.deps.DebugInput {
			return
		}
		// CycleView is an edge; keep it if any frame since the last Step had it.
		cycle := s.keys.CycleView || in.Keys.CycleView
		s.keys = in.Keys
		s.keys.CycleView = cycle
	case InputCheckpoint:
		s.controller.CheckpointReached()
	case InputCollision:
		s.controller.CollisionDetected()
	case InputCapture:
		d.captures = append(d.captures, in.Hand)
	}
}

// Register routes the session commands of d into this session. Telemetry,
// race events and the final result are then written to the backends by the
// dispatcher's :TELEMETRY: worker instead of on the tick goroutine; close d
// before closing the backends.
func (s *Session) Register(d *dispatcher.Dispatcher, recordBuffer int) {
	if recordBuffer <= 0 {
		recordBuffer = DefaultRecordBuffer
	}

	d.Register(CmdCheckpoint, func(dispatcher.Event) (any, error) {
		s.ReachCheckpoint()
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdCollision, func(dispatcher.Event) (any, error) {
		s.Collide()
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdPoseLeft, s.poseHandler(core.HandLeft))
	d.Register(CmdPoseRight, s.poseHandler(core.HandRight))

	d.Register(CmdKeys, func(e dispatcher.Event) (any, error) {
		k, ok := e.Payload.(core.KeyState)
		if !ok {
			return nil, payloadError(e, "core.KeyState")
		}
		s.PushKeys(k)
		return "ok", nil
	})

	d.Register(CmdCapture, func(e dispatcher.Event) (any, error) {
		hand, ok := e.Payload.(core.Hand)
		if !ok {
			return nil, payloadError(e, "core.Hand")
		}
		s.RequestCapture(hand)
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdTelemetry, func(e dispatcher.Event) (any, error) {
		rec, ok := e.Payload.(Record)
		if !ok {
			return nil, payloadError(e, "session.Record")
		}
		return "ok", s.write(rec)
	}, dispatcher.Buffered(recordBuffer), dispatcher.Blocking())

	s.recorder = d
}

func (s *Session) poseHandler(hand core.Hand) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		switch p := e.Payload.(type) {
		case core.LivePose:
			s.PushPose(hand, p)
		case []core.Position3D:
			s.PushPose(hand, core.LivePose{Joints: p})
		default:
			return nil, payloadError(e, "core.LivePose")
		}
		return "ok", nil
	}
}

func payloadError(e dispatcher.Event, want string) error {
	return fmt.Errorf("%s: %w: want %s, got %T", e.Command, ErrBadPayload, want, e.Payload)
}
