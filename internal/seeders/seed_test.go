package seeders

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdminSkipsWithoutCredentials(t *testing.T) {
	logger, hook := test.NewNullLogger()

	require.NoError(t, SeedAdmin(nil, AdminAccount{Email: "admin@example.com"}, logger))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "skipping admin seed")
}

func TestSeedAdminRejectsShortPassword(t *testing.T) {
	logger, _ := test.NewNullLogger()

	err := SeedAdmin(nil, AdminAccount{Email: "admin@example.com", Password: "short"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin password must be at least")
}
