package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLegacyTokenFoldsScalarIntoDevices(t *testing.T) {
	now := time.Now()
	user := User{
		LegacyFCMToken:   "tok-legacy",
		LegacyDeviceType: DeviceAndroid,
	}

	assert.True(t, user.MigrateLegacyToken(now))
	require.Len(t, user.Devices, 1)
	assert.Equal(t, "tok-legacy", user.Devices[0].Token)
	assert.Equal(t, DeviceAndroid, user.Devices[0].Kind)
	assert.Equal(t, now.Add(DeviceTTL), user.Devices[0].ExpiresAt)
	assert.Empty(t, user.LegacyFCMToken)
	assert.Empty(t, user.LegacyDeviceType)
}

func TestMigrateLegacyTokenDefaultsUnknownKind(t *testing.T) {
	user := User{LegacyFCMToken: "tok-legacy"}
	assert.True(t, user.MigrateLegacyToken(time.Now()))
	require.Len(t, user.Devices, 1)
	assert.Equal(t, DeviceUnknown, user.Devices[0].Kind)
}

func TestMigrateLegacyTokenIsIdempotent(t *testing.T) {
	now := time.Now()
	user := User{LegacyFCMToken: "tok-legacy"}

	require.True(t, user.MigrateLegacyToken(now))
	assert.False(t, user.MigrateLegacyToken(now), "nothing left to migrate")
	assert.Len(t, user.Devices, 1)
}

func TestMigrateLegacyTokenSkipsDuplicateDevice(t *testing.T) {
	now := time.Now()
	user := User{
		LegacyFCMToken: "tok-a",
		Devices:        []Device{{Token: "tok-a", Kind: DeviceIOS}},
	}

	assert.True(t, user.MigrateLegacyToken(now), "clearing the scalar still changes the document")
	assert.Len(t, user.Devices, 1, "the token is not duplicated")
	assert.Empty(t, user.LegacyFCMToken)
}

func TestDeviceExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, Device{ExpiresAt: now}.Expired(now))
	assert.True(t, Device{ExpiresAt: now.Add(-time.Second)}.Expired(now))
	assert.False(t, Device{ExpiresAt: now.Add(time.Second)}.Expired(now))
}
