package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNurtureRun = "nurture.run"

// NurtureRunPayload carries one tenant's run request through the task queue.
// Optional fields override configured defaults for that run only.
type NurtureRunPayload struct {
	SiteID           string `json:"siteId"`
	DaysWithoutReply *int   `json:"daysWithoutReply,omitempty"`
	Limit            *int   `json:"limit,omitempty"`
	MaxLeadsPerStage *int   `json:"maxLeadsPerStage,omitempty"`
}

func NewNurtureRunTask(payload NurtureRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNurtureRun, data), nil
}

func ParseNurtureRunPayload(task *asynq.Task) (NurtureRunPayload, error) {
	var payload NurtureRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NurtureRunPayload{}, err
	}
	return payload, nil
}
