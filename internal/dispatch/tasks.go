// Package dispatch delivers persisted workflow messages to external
// channels (email, push) through an asynq queue.
package dispatch

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskWorkflowMessageDelivery = "workflow.message.delivery"

type WorkflowMessageDeliveryPayload struct {
	MessageID string `json:"messageId"`
}

func NewWorkflowMessageDeliveryTask(payload WorkflowMessageDeliveryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkflowMessageDelivery, data), nil
}

func ParseWorkflowMessageDeliveryPayload(task *asynq.Task) (WorkflowMessageDeliveryPayload, error) {
	var payload WorkflowMessageDeliveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WorkflowMessageDeliveryPayload{}, err
	}
	return payload, nil
}
