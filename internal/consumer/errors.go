package consumer

import (
	"errors"
	"fmt"
)

// Stage is where in the pipeline a run currently is. Stages advance
// strictly forward; any stage can drop into the implicit failed state.
type Stage string

const (
	StageReceived       Stage = "received"
	StageOrderLoaded    Stage = "order_loaded"
	StageUserLoaded     Stage = "user_loaded"
	StageImagesAcquired Stage = "images_acquired"
	StagePackaged       Stage = "packaged"
	StageUploaded       Stage = "uploaded"
	StageDelivered      Stage = "delivered"
	StageBilled         Stage = "billed"
	StageFinalized      Stage = "finalized"
)

// Kind classifies a failure for retry and acknowledgement policy.
type Kind string

const (
	// KindNotFound: the order or user record is missing. A data-integrity
	// signal, not transient — the message is acknowledged, never retried.
	KindNotFound Kind = "not_found"

	// KindIneligible: the user is inactive or not onboarded. Terminal for
	// this run, acknowledged.
	KindIneligible Kind = "ineligible"

	// KindTransient: a network/storage/transport failure. The message is
	// left to the queue's visibility timeout for redelivery.
	KindTransient Kind = "transient"

	// KindChannel: a fulfillment-critical delivery channel failed.
	KindChannel Kind = "channel"
)

// FulfillmentError is a pipeline failure tagged with where and why.
type FulfillmentError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("fulfillment failed at %s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *FulfillmentError) Unwrap() error { return e.Err }

func fail(stage Stage, kind Kind, err error) *FulfillmentError {
	return &FulfillmentError{Stage: stage, Kind: kind, Err: err}
}

// ShouldAck reports whether the queue message for a finished run must be
// deleted. Success and terminal failures acknowledge; transient and channel
// failures leave the message to reappear after the visibility timeout.
func ShouldAck(err error) bool {
	if err == nil {
		return true
	}
	var fe *FulfillmentError
	if errors.As(err, &fe) {
		return fe.Kind == KindNotFound || fe.Kind == KindIneligible
	}
	return false
}
