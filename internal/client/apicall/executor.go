package apicall

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/metrics"
	"github.com/google/uuid"
)

// ConnectivitySignal is a point-in-time view of the network state.
type ConnectivitySignal interface {
	Available() bool
}

// Op is a single remote attempt.
type Op[T any] func(ctx context.Context) (*Response[T], error)

// Executor holds the collaborators shared by every call. It is safe for
// concurrent use.
type Executor struct {
	conn     ConnectivitySignal
	log      logging.Logger
	metrics  *metrics.Metrics
	messages Messages
	now      func() time.Time
}

// NewExecutor builds an Executor. m may be nil; msgs defaults to DefaultMessages.
func NewExecutor(conn ConnectivitySignal, log logging.Logger, m *metrics.Metrics, msgs Messages) *Executor {
	if msgs == nil {
		msgs = DefaultMessages
	}
	return &Executor{conn: conn, log: log, metrics: m, messages: msgs, now: time.Now}
}

// Call runs op behind the connectivity gate and classifies the outcome.
// operation names the call in logs and metrics.
func Call[T any](ctx context.Context, e *Executor, operation string, op Op[T]) (Result[T], error) {
	log := e.log.With("operation", operation, "request_id", uuid.NewString())

	if !e.conn.Available() {
		log.Debug(ctx, "skipping call, network unavailable")
		e.metrics.ObserveAPICall(operation, KindNoConnectivity.String(), 0)
		return Fail[T](e.failure(KindNoConnectivity, ErrNoConnectivity, 0)), nil
	}

	start := e.now()
	resp, err := op(ctx)
	elapsed := e.now().Sub(start)

	if isCancellation(ctx, err) {
		log.Debug(ctx, "call cancelled")
		e.metrics.ObserveAPICall(operation, "cancelled", elapsed)
		if err == nil || !errors.Is(err, context.Canceled) {
			err = context.Canceled
		}
		var zero Result[T]
		return zero, err
	}

	if err != nil {
		log.Error(ctx, "call failed", "error", err)
		e.metrics.ObserveAPICall(operation, KindTransport.String(), elapsed)
		return Fail[T](e.failure(KindTransport, err, 0)), nil
	}

	if resp == nil {
		err = errors.New("empty response")
		log.Error(ctx, "call failed", "error", err)
		e.metrics.ObserveAPICall(operation, KindTransport.String(), elapsed)
		return Fail[T](e.failure(KindTransport, err, 0)), nil
	}

	if !resp.OK() {
		log.Warn(ctx, "unsuccessful response", "status", resp.StatusCode)
		e.metrics.ObserveAPICall(operation, KindHTTP.String(), elapsed)
		return Fail[T](e.failure(KindHTTP, nil, resp.StatusCode)), nil
	}

	log.Debug(ctx, "call succeeded", "status", resp.StatusCode, "elapsed", elapsed)
	e.metrics.ObserveAPICall(operation, "success", elapsed)
	return Success(resp.Body), nil
}

func (e *Executor) failure(k Kind, err error, status int) Failure {
	return Failure{Kind: k, Err: err, StatusCode: status, Message: e.messages.Message(k)}
}

// A deadline is a transport timeout, not a cancellation.
func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return errors.Is(ctx.Err(), context.Canceled)
}
