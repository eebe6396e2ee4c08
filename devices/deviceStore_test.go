package devices

import (
	"fmt"
	"testing"
	"time"

	"food-ordering-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func device(token string, lastActive time.Time) models.Device {
	return models.Device{
		Token:      token,
		Kind:       models.DeviceAndroid,
		LastActive: lastActive,
		ExpiresAt:  lastActive.Add(models.DeviceTTL),
	}
}

func TestReconcileAppendsNewDevice(t *testing.T) {
	now := time.Now()
	existing := []models.Device{device("tok-a", now.Add(-time.Hour))}

	result := Reconcile(existing, models.Device{Token: "tok-b", Kind: models.DeviceIOS}, now)

	require.Len(t, result, 2)
	added := result[1]
	assert.Equal(t, "tok-b", added.Token)
	assert.Equal(t, models.DeviceIOS, added.Kind)
	assert.Equal(t, now, added.LastActive)
	assert.Equal(t, now.Add(models.DeviceTTL), added.ExpiresAt)
}

func TestReconcileDefaultsUnknownKind(t *testing.T) {
	now := time.Now()
	result := Reconcile(nil, models.Device{Token: "tok-a"}, now)

	require.Len(t, result, 1)
	assert.Equal(t, models.DeviceUnknown, result[0].Kind)
}

func TestReconcileRefreshesExistingTokenInPlace(t *testing.T) {
	now := time.Now()
	stale := device("tok-a", now.Add(-20*24*time.Hour))
	stale.Info = map[string]string{"model": "Pixel 6"}

	result := Reconcile([]models.Device{stale},
		models.Device{Token: "tok-a", Kind: models.DeviceWeb, Info: map[string]string{"browser": "firefox"}}, now)

	require.Len(t, result, 1, "same token must not duplicate the record")
	refreshed := result[0]
	assert.Equal(t, models.DeviceWeb, refreshed.Kind)
	assert.Equal(t, now, refreshed.LastActive)
	assert.Equal(t, now.Add(models.DeviceTTL), refreshed.ExpiresAt)
	assert.Equal(t, "Pixel 6", refreshed.Info["model"], "existing info keys survive the merge")
	assert.Equal(t, "firefox", refreshed.Info["browser"])
}

func TestReconcilePurgesExpiredDevices(t *testing.T) {
	now := time.Now()
	expired := models.Device{Token: "tok-old", ExpiresAt: now.Add(-time.Minute)}
	fresh := device("tok-a", now.Add(-time.Hour))

	result := Reconcile([]models.Device{expired, fresh}, models.Device{Token: "tok-b"}, now)

	tokens := make([]string, len(result))
	for i, d := range result {
		tokens[i] = d.Token
	}
	assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, tokens)
}

func TestReconcileCapsAtMaxDevicesByRecency(t *testing.T) {
	now := time.Now()
	var existing []models.Device
	for i := 0; i < models.MaxDevices; i++ {
		existing = append(existing, device(fmt.Sprintf("tok-%d", i), now.Add(-time.Duration(i+1)*time.Hour)))
	}

	result := Reconcile(existing, models.Device{Token: "tok-new"}, now)

	require.Len(t, result, models.MaxDevices)
	tokens := make([]string, len(result))
	for i, d := range result {
		tokens[i] = d.Token
	}
	assert.Contains(t, tokens, "tok-new", "the incoming device is the most recent and must survive")
	assert.NotContains(t, tokens, fmt.Sprintf("tok-%d", models.MaxDevices-1),
		"the least recently active device is evicted")
}

func TestReconcileIsIdempotentForSameToken(t *testing.T) {
	now := time.Now()
	first := Reconcile(nil, models.Device{Token: "tok-a", Kind: models.DeviceAndroid}, now)
	second := Reconcile(first, models.Device{Token: "tok-a", Kind: models.DeviceAndroid}, now)

	assert.Equal(t, first, second)
}
