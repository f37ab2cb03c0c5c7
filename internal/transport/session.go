package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/turnosbot/turnos/internal/chat"
	"github.com/turnosbot/turnos/internal/observability/metrics"
	"github.com/turnosbot/turnos/pkg/logging"
)

const (
	defaultWorkers         = 2
	defaultWaitSeconds     = 1
	defaultBatchSize       = 1
	maxWaitSeconds         = 20
	maxReceiveBatchSize    = 10
	deleteTimeout          = 5 * time.Second
	deliverTimeout         = 10 * time.Second
	dispositionQueued      = "queued"
	dispositionReplied     = "replied"
	dispositionDiscarded   = "discarded"
	dispositionDuplicate   = "duplicate"
	dispositionFailed      = "failed"
	dispositionUndelivered = "undelivered"
)

var (
	// ErrSessionNotReady is returned when messages arrive before Start.
	ErrSessionNotReady = errors.New("transport: session not ready")
	// ErrSessionClosed is returned once the session has been disposed.
	ErrSessionClosed = errors.New("transport: session closed")
)

// Handler turns one inbound message into a reply. *chat.Dispatcher satisfies it.
type Handler interface {
	Handle(ctx context.Context, msg chat.Message) (string, bool)
}

// Outbox delivers an asynchronous reply to the transport that received the message.
type Outbox interface {
	Deliver(ctx context.Context, replyTo, text string) error
}

// State is a session lifecycle stage.
type State int32

const (
	StateCreated State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SessionOption customizes a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	deduper          Deduper
	metrics          *metrics.ChatMetrics
}

// WithWorkerCount sets the number of consumer goroutines.
func WithWorkerCount(count int) SessionOption {
	return func(cfg *sessionConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait per receive.
func WithReceiveWaitSeconds(seconds int) SessionOption {
	return func(cfg *sessionConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages one receive may return.
func WithReceiveBatchSize(size int) SessionOption {
	return func(cfg *sessionConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// WithDeduper drops messages whose id was already processed.
func WithDeduper(d Deduper) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.deduper = d
	}
}

func WithSessionMetrics(m *metrics.ChatMetrics) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.metrics = m
	}
}

// Session owns the chat message loop: it is created, started (ready), runs
// its workers, and is disposed exactly once. Transports hold a reference to
// it; nothing about it is global.
type Session struct {
	handler Handler
	queue   Queue
	logger  *logging.Logger
	cfg     sessionConfig

	mu       sync.Mutex
	state    State
	outboxes map[string]Outbox
	cancel   context.CancelFunc
	ready    chan struct{}
	wg       sync.WaitGroup
}

func NewSession(handler Handler, queue Queue, logger *logging.Logger, opts ...SessionOption) *Session {
	if handler == nil {
		panic("transport: handler cannot be nil")
	}
	if queue == nil {
		panic("transport: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := sessionConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Session{
		handler:  handler,
		queue:    queue,
		logger:   logger,
		cfg:      cfg,
		outboxes: make(map[string]Outbox),
		ready:    make(chan struct{}),
	}
}

// Attach registers the outbox that receives replies for transport.
func (s *Session) Attach(transport string, out Outbox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out == nil {
		delete(s.outboxes, transport)
		return
	}
	s.outboxes[transport] = out
}

// State reports the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready is closed once Start has launched the workers.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Start launches the workers. They stop when ctx is cancelled or Close is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return errors.New("transport: session already started")
	case StateDisposed:
		return ErrSessionClosed
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for i := 0; i < s.cfg.workers; i++ {
		s.wg.Add(1)
		go s.run(runCtx, i+1)
	}
	s.state = StateReady
	close(s.ready)
	s.logger.Info("chat session ready", "workers", s.cfg.workers)
	return nil
}

// Close disposes the session and waits for in-flight messages, bounded by ctx.
// Calling it more than once is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateDisposed
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("chat session disposed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("transport: waiting for session workers: %w", ctx.Err())
	}
}

func (s *Session) checkReady() error {
	switch s.State() {
	case StateCreated:
		return ErrSessionNotReady
	case StateDisposed:
		return ErrSessionClosed
	default:
		return nil
	}
}

// Submit queues msg for asynchronous processing. The reply is delivered to
// the outbox attached for transport, addressed to replyTo. Messages that must
// not be answered are dropped here without touching the queue.
func (s *Session) Submit(ctx context.Context, transport, replyTo string, msg chat.Message) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	if reason := msg.DiscardReason(); reason != "" {
		s.cfg.metrics.ObserveInbound(transport, dispositionDiscarded)
		s.logger.Debug("chat message discarded", "transport", transport, "reason", reason)
		return nil
	}

	env, body, err := encodeEnvelope(envelope{Transport: transport, ReplyTo: replyTo, Message: msg})
	if err != nil {
		return err
	}
	if err := s.queue.Send(ctx, body); err != nil {
		s.cfg.metrics.ObserveInbound(transport, dispositionFailed)
		return err
	}
	s.cfg.metrics.ObserveInbound(transport, dispositionQueued)
	s.logger.Debug("chat message queued", "transport", transport, "envelope_id", env.ID)
	return nil
}

// Process handles msg synchronously and returns the reply. ok is false when
// nothing must be sent back (discarded or already processed).
func (s *Session) Process(ctx context.Context, transport string, msg chat.Message) (reply string, ok bool, err error) {
	if err := s.checkReady(); err != nil {
		return "", false, err
	}
	if !s.firstSeen(ctx, transport, msg.ID) {
		return "", false, nil
	}
	reply, ok = s.handler.Handle(ctx, msg)
	if !ok {
		s.cfg.metrics.ObserveInbound(transport, dispositionDiscarded)
		return "", false, nil
	}
	s.cfg.metrics.ObserveInbound(transport, dispositionReplied)
	return reply, true, nil
}

// firstSeen consults the deduper. A dedupe outage lets the message through.
func (s *Session) firstSeen(ctx context.Context, transport, id string) bool {
	if s.cfg.deduper == nil || id == "" {
		return true
	}
	first, err := s.cfg.deduper.FirstSeen(ctx, id)
	if err != nil {
		s.logger.Warn("chat dedupe lookup failed", "error", err, "message_id", id)
		return true
	}
	if !first {
		s.cfg.metrics.ObserveInbound(transport, dispositionDuplicate)
		s.logger.Info("chat message already processed", "transport", transport, "message_id", id)
	}
	return first
}

func (s *Session) run(ctx context.Context, workerID int) {
	defer s.wg.Done()
	s.logger.Debug("chat worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("chat worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := s.queue.Receive(ctx, s.cfg.receiveBatchSize, s.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error("failed to receive chat messages", "error", err, "worker_id", workerID)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *Session) handleMessage(ctx context.Context, qm QueueMessage) {
	defer s.deleteMessage(qm.ReceiptHandle)

	env, err := decodeEnvelope(qm.Body)
	if err != nil {
		s.logger.Error("dropping undecodable chat message", "error", err, "queue_message_id", qm.ID)
		return
	}
	if !s.firstSeen(ctx, env.Transport, env.Message.ID) {
		return
	}

	reply, ok := s.handler.Handle(ctx, env.Message)
	if !ok {
		s.cfg.metrics.ObserveInbound(env.Transport, dispositionDiscarded)
		return
	}

	s.mu.Lock()
	out := s.outboxes[env.Transport]
	s.mu.Unlock()
	if out == nil {
		s.cfg.metrics.ObserveInbound(env.Transport, dispositionUndelivered)
		s.logger.Warn("no outbox for chat reply", "transport", env.Transport, "message_id", env.Message.ID)
		return
	}

	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()
	if err := out.Deliver(deliverCtx, env.ReplyTo, reply); err != nil {
		s.cfg.metrics.ObserveInbound(env.Transport, dispositionUndelivered)
		s.logger.Warn("chat reply not delivered", "error", err, "transport", env.Transport, "reply_to", env.ReplyTo)
		return
	}
	s.cfg.metrics.ObserveInbound(env.Transport, dispositionReplied)
}

func (s *Session) deleteMessage(receiptHandle string) {
	if receiptHandle == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := s.queue.Delete(ctx, receiptHandle); err != nil {
		s.logger.Error("failed to delete chat message", "error", err)
	}
}
