package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectFromAccount(t *testing.T) {
	assert.Equal(t, "accounts.acc-1.balance", SubjectFromAccount("acc-1"))
}
