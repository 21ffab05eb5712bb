package provisioning

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// Queue carries all tenant provisioning work.
	Queue = "provisioning"

	TypeStorage  = "tenant:provisioning:storage"
	TypeDefaults = "tenant:provisioning:defaults"
)

// Payload is shared by all provisioning tasks.
type Payload struct {
	TenantID   string `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	Hostname   string `json:"hostname"`
}

// Tasks returns the provisioning fan-out enqueued after a tenant is
// created. Defaults must run last; it flips the tenant to active.
func Tasks(p Payload) ([]*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return []*asynq.Task{
		asynq.NewTask(TypeStorage, payload),
		asynq.NewTask(TypeDefaults, payload),
	}, nil
}
