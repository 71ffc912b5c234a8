package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/config"
	"github.com/aescanero/dago-node-template/internal/renderer"
)

// ErrStateNotFound is returned by a StateLoader when no state is stored for
// the execution. Requests failing with it are not retried.
var ErrStateNotFound = errors.New("state not found")

// StateLoader loads the stored state of a graph execution. It is the part of
// ports.StateStorage the worker needs.
type StateLoader interface {
	Load(ctx context.Context, executionID string) (state.State, error)
}

// Worker represents the template worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	renderer      *renderer.Renderer
	stateStore    StateLoader
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	rendererInstance *renderer.Renderer,
	stateStore StateLoader,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		renderer:      rendererInstance,
		stateStore:    stateStore,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting template worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("template worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight request, if any
func (w *Worker) Stop() error {
	w.logger.Info("stopping template worker", zap.String("worker_id", w.id))

	w.cancel()
	w.wg.Wait()

	w.logger.Info("template worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream", zap.Error(err))
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single render request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing render request", zap.String("message_id", messageID))

	request, err := parseRenderRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse render request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(messageID)
		return
	}

	if err := w.processRenderRequest(w.ctx, request); err != nil {
		w.logger.Error("failed to process render request",
			zap.String("message_id", messageID),
			zap.String("execution_id", request.ExecutionID),
			zap.Int("attempt", request.Attempt),
			zap.Error(err),
		)
		if !w.retry(request, err) {
			w.publishError(request, err)
		}
	}

	w.acknowledgeMessage(messageID)
}

// RenderRequest represents a template render work request
type RenderRequest struct {
	ExecutionID string          `json:"execution_id"`
	NodeID      string          `json:"node_id"`
	Config      json.RawMessage `json:"config"`
	Attempt     int             `json:"-"`
}

// parseRenderRequest parses a render request from a Redis message. The
// optional attempt field counts redeliveries.
func parseRenderRequest(values map[string]interface{}) (*RenderRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request RenderRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render request: %w", err)
	}
	if request.ExecutionID == "" {
		return nil, fmt.Errorf("execution_id is required")
	}

	if attempt, ok := values["attempt"].(string); ok {
		n, err := strconv.Atoi(attempt)
		if err != nil {
			return nil, fmt.Errorf("invalid attempt %q: %w", attempt, err)
		}
		request.Attempt = n
	}

	return &request, nil
}

// retryableError marks failures that may succeed when the request is
// delivered again, such as state store outages.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// processRenderRequest loads state, renders and publishes the result
func (w *Worker) processRenderRequest(ctx context.Context, request *RenderRequest) error {
	stateData, err := w.stateStore.Load(ctx, request.ExecutionID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return fmt.Errorf("failed to load state: %w", err)
		}
		return &retryableError{fmt.Errorf("failed to load state: %w", err)}
	}

	graphState, err := convertToGraphState(request.ExecutionID, stateData)
	if err != nil {
		return fmt.Errorf("failed to convert state: %w", err)
	}

	nodeConfig, err := parseNodeConfig(request.Config)
	if err != nil {
		return fmt.Errorf("failed to parse node config: %w", err)
	}

	result, err := w.renderer.Render(ctx, graphState, nodeConfig)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if err := w.publishResult(ctx, request, result); err != nil {
		return &retryableError{fmt.Errorf("failed to publish result: %w", err)}
	}

	return nil
}

// retry re-enqueues a request that failed with a retryable error. It
// reports false once MaxRetries is exhausted or the error is permanent.
func (w *Worker) retry(request *RenderRequest, err error) bool {
	if !isRetryable(err) || request.Attempt >= w.config.MaxRetries {
		return false
	}

	data, marshalErr := json.Marshal(request)
	if marshalErr != nil {
		w.logger.Error("failed to marshal retry", zap.Error(marshalErr))
		return false
	}

	_, addErr := w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.streamKey,
		Values: map[string]interface{}{
			"data":    string(data),
			"attempt": strconv.Itoa(request.Attempt + 1),
		},
	}).Result()
	if addErr != nil {
		w.logger.Error("failed to requeue render request", zap.Error(addErr))
		return false
	}

	w.logger.Warn("render request requeued",
		zap.String("execution_id", request.ExecutionID),
		zap.Int("attempt", request.Attempt+1),
	)
	return true
}

// parseNodeConfig parses the node configuration. Params stay raw so their
// key order survives into the template context.
func parseNodeConfig(raw json.RawMessage) (*renderer.NodeConfig, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("config is required")
	}

	var nodeConfig renderer.NodeConfig
	if err := json.Unmarshal(raw, &nodeConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &nodeConfig, nil
}

// resultEvent builds the message published for a render result
func (w *Worker) resultEvent(request *RenderRequest, result *renderer.RenderResult) map[string]interface{} {
	return map[string]interface{}{
		"render_id":    uuid.NewString(),
		"execution_id": request.ExecutionID,
		"node_id":      request.NodeID,
		"worker_id":    w.id,
		"output_key":   result.OutputKey,
		"output":       result.Output,
		"lang":         result.Lang,
		"skipped":      result.Skipped,
		"reason":       result.Reason,
		"duration_ms":  result.Duration.Milliseconds(),
		"timestamp":    time.Now().UTC(),
	}
}

// publishResult publishes the render result
func (w *Worker) publishResult(ctx context.Context, request *RenderRequest, result *renderer.RenderResult) error {
	event := w.resultEvent(request, result)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published render result",
		zap.String("execution_id", request.ExecutionID),
		zap.String("render_id", event["render_id"].(string)),
		zap.Bool("skipped", result.Skipped),
	)

	return nil
}

// errorEvent builds the message published for a failed request
func (w *Worker) errorEvent(request *RenderRequest, err error) map[string]interface{} {
	return map[string]interface{}{
		"render_id":    uuid.NewString(),
		"execution_id": request.ExecutionID,
		"node_id":      request.NodeID,
		"worker_id":    w.id,
		"error":        err.Error(),
		"attempt":      request.Attempt,
		"timestamp":    time.Now().UTC(),
	}
}

// publishError publishes an error event to the errors stream
func (w *Worker) publishError(request *RenderRequest, err error) {
	data, marshalErr := json.Marshal(w.errorEvent(request, err))
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	_, publishErr := w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.resultStream + ".errors",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

// convertToGraphState converts state.State to domain.GraphState
func convertToGraphState(graphID string, stateData state.State) (*domain.GraphState, error) {
	data, err := json.Marshal(stateData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	var graphState domain.GraphState
	if err := json.Unmarshal(data, &graphState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to GraphState: %w", err)
	}

	if graphState.GraphID == "" {
		graphState.GraphID = graphID
	}

	return &graphState, nil
}
