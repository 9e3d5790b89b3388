package sandbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orinrun/orin/pkg/sandbox"
)

func TestNetSandbox_DenyWins(t *testing.T) {
	ns := sandbox.NewNetSandbox([]string{"*.example.com"}, []string{"evil.example.com"}, 0)
	assert.Error(t, ns.CheckHost("evil.example.com"))
	assert.NoError(t, ns.CheckHost("api.example.com"))
}

func TestNetSandbox_EmptyAllowListAllowsAnyNonDenied(t *testing.T) {
	ns := sandbox.NewNetSandbox(nil, []string{"blocked.com"}, 0)
	assert.NoError(t, ns.CheckHost("anywhere.com"))
	assert.Error(t, ns.CheckHost("blocked.com"))
}

func TestNetSandbox_AllowListRejectsUnlisted(t *testing.T) {
	ns := sandbox.NewNetSandbox([]string{"api.example.com"}, nil, 0)
	assert.NoError(t, ns.CheckHost("api.example.com"))
	assert.Error(t, ns.CheckHost("other.com"))
}

func TestNetSandbox_CheckURL(t *testing.T) {
	ns := sandbox.NewNetSandbox([]string{"api.example.com"}, nil, 0)
	assert.NoError(t, ns.CheckURL("https://api.example.com/v1/x"))
	assert.Error(t, ns.CheckURL("https://other.com/v1/x"))
}
