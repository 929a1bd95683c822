package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinTopic(t *testing.T) {
	assert.Equal(t, "neela/notifications/maintenance/completed", JoinTopic("neela/notifications", "maintenance.completed"))
	assert.Equal(t, "neela/notifications/payment/claim", JoinTopic("neela/notifications/", "payment.claim"))
	assert.Equal(t, "neela/notifications", JoinTopic("neela/notifications", ""))
}
