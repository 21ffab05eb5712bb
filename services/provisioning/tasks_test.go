package provisioning

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTasksFanOut(t *testing.T) {
	p := Payload{TenantID: "t1", TenantSlug: "acme", Hostname: "acme.tenantadmin.app"}

	tasks, err := Tasks(p)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, TypeStorage, tasks[0].Type())
	require.Equal(t, TypeDefaults, tasks[1].Type())

	for _, task := range tasks {
		var decoded Payload
		require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
		require.Equal(t, p, decoded)
	}
}
