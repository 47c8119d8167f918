package sagaworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/productcatalog/platform/pkg/mlog"
)

// BpmnError is returned by a Handler to trigger a named BPMN error
// boundary event rather than a technical failure.
type BpmnError struct {
	Code    string
	Message string
}

func (e BpmnError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Task is a locked external task as returned by fetchAndLock.
type Task struct {
	ID                string `json:"id"`
	TopicName         string `json:"topicName"`
	ProcessInstanceID string `json:"processInstanceId"`
	Variables         map[string]wireVariable `json:"variables"`
}

// Handler executes the business logic for a locked task. Returning a
// BpmnError routes to the named boundary in the saga definition; any
// other error is reported as a technical failure with zero retries, so
// the saga definition's external retry policy decides what happens next.
type Handler func(ctx context.Context, variables map[string]any, task Task) (map[string]any, error)

// Worker polls a Camunda-compatible External Task REST API and dispatches
// locked tasks to registered topic handlers.
type Worker struct {
	baseURL     string
	workerID    string
	lockMillis  int64
	maxTasks    int
	httpClient  *http.Client
	logger      mlog.Logger
	handlers    map[string]Handler
}

// NewWorker builds a Worker. lockDuration is how long a fetched task is
// held exclusively by this worker instance.
func NewWorker(baseURL, workerID string, maxTasks int, lockDuration time.Duration, logger mlog.Logger) *Worker {
	return &Worker{
		baseURL:    baseURL,
		workerID:   workerID,
		lockMillis: lockDuration.Milliseconds(),
		maxTasks:   maxTasks,
		httpClient: &http.Client{Timeout: 35 * time.Second},
		logger:     logger,
		handlers:   make(map[string]Handler),
	}
}

// Subscribe registers handler for topic. Must be called before Run.
func (w *Worker) Subscribe(topic string, handler Handler) {
	w.handlers[topic] = handler
}

// Run polls fetchAndLock in a loop until ctx is cancelled. Each poll
// requests up to maxTasks across every subscribed topic with a 20s
// long-poll wait; an empty response simply polls again.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		tasks, err := w.fetchAndLock(ctx)
		if err != nil {
			w.logger.Warnf("sagaworker: fetchAndLock failed: %v", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}

			continue
		}

		for _, task := range tasks {
			w.handleTask(ctx, task)
		}

		if len(tasks) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
		}
	}
}

type fetchAndLockTopic struct {
	TopicName    string `json:"topicName"`
	LockDuration int64  `json:"lockDuration"`
}

type fetchAndLockRequest struct {
	WorkerID             string              `json:"workerId"`
	MaxTasks             int                 `json:"maxTasks"`
	UsePriority          bool                `json:"usePriority"`
	AsyncResponseTimeout int64               `json:"asyncResponseTimeout"`
	Topics               []fetchAndLockTopic `json:"topics"`
}

func (w *Worker) fetchAndLock(ctx context.Context) ([]Task, error) {
	topics := make([]fetchAndLockTopic, 0, len(w.handlers))
	for topic := range w.handlers {
		topics = append(topics, fetchAndLockTopic{TopicName: topic, LockDuration: w.lockMillis})
	}

	req := fetchAndLockRequest{
		WorkerID:             w.workerID,
		MaxTasks:             w.maxTasks,
		UsePriority:          true,
		AsyncResponseTimeout: 20000,
		Topics:               topics,
	}

	var tasks []Task
	if err := w.post(ctx, "/external-task/fetchAndLock", req, &tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (w *Worker) handleTask(ctx context.Context, task Task) {
	handler, ok := w.handlers[task.TopicName]
	if !ok {
		w.logger.Warnf("sagaworker: no handler registered for topic %s, failing task %s", task.TopicName, task.ID)
		w.failTask(ctx, task.ID, "no handler registered")

		return
	}

	variables := decodeVariables(task.Variables)

	out, err := handler(ctx, variables, task)

	var bpmnErr BpmnError

	switch {
	case err == nil:
		w.completeTask(ctx, task.ID, out)
	case asBpmnError(err, &bpmnErr):
		w.bpmnError(ctx, task.ID, bpmnErr.Code, bpmnErr.Message)
	default:
		w.failTask(ctx, task.ID, err.Error())
	}
}

func asBpmnError(err error, target *BpmnError) bool {
	be, ok := err.(BpmnError)
	if ok {
		*target = be
	}

	return ok
}

type completeRequest struct {
	WorkerID  string                  `json:"workerId"`
	Variables map[string]wireVariable `json:"variables"`
}

func (w *Worker) completeTask(ctx context.Context, taskID string, out map[string]any) {
	req := completeRequest{WorkerID: w.workerID, Variables: encodeVariables(out)}

	if err := w.post(ctx, "/external-task/"+taskID+"/complete", req, nil); err != nil {
		w.logger.Errorf("sagaworker: complete failed for task %s: %v", taskID, err)
	}
}

type failureRequest struct {
	WorkerID     string `json:"workerId"`
	ErrorMessage string `json:"errorMessage"`
	ErrorDetails string `json:"errorDetails"`
	Retries      int    `json:"retries"`
	RetryTimeout int    `json:"retryTimeout"`
}

func (w *Worker) failTask(ctx context.Context, taskID, message string) {
	req := failureRequest{
		WorkerID:     w.workerID,
		ErrorMessage: message,
		ErrorDetails: message,
		Retries:      0,
		RetryTimeout: 0,
	}

	if err := w.post(ctx, "/external-task/"+taskID+"/failure", req, nil); err != nil {
		w.logger.Errorf("sagaworker: failure report failed for task %s: %v", taskID, err)
	}
}

type bpmnErrorRequest struct {
	WorkerID     string `json:"workerId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (w *Worker) bpmnError(ctx context.Context, taskID, code, message string) {
	req := bpmnErrorRequest{WorkerID: w.workerID, ErrorCode: code, ErrorMessage: message}

	if err := w.post(ctx, "/external-task/"+taskID+"/bpmnError", req, nil); err != nil {
		w.logger.Errorf("sagaworker: bpmnError report failed for task %s: %v", taskID, err)
	}
}

func (w *Worker) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("sagaworker: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("sagaworker: failed to build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sagaworker: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sagaworker: %s returned status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
