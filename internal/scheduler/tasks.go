package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAuctionRun = "auction.run"

type AuctionRunPayload struct {
	LeadID string `json:"leadId"`
}

func NewAuctionRunTask(payload AuctionRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuctionRun, data), nil
}

func ParseAuctionRunPayload(task *asynq.Task) (AuctionRunPayload, error) {
	var payload AuctionRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AuctionRunPayload{}, err
	}
	return payload, nil
}
