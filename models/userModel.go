package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser       = "user"
	RoleRestaurant = "restaurant"
	RoleAdmin      = "admin"
)

const (
	DeviceAndroid = "android"
	DeviceIOS     = "ios"
	DeviceWeb     = "web"
	DeviceUnknown = "unknown"
)

// DeviceTTL is how long a device record stays valid after its last activity.
const DeviceTTL = 30 * 24 * time.Hour

// MaxDevices caps the device list per user; least-recently-active are evicted.
const MaxDevices = 5

// Device is one registered push endpoint of a user.
type Device struct {
	Token      string            `bson:"token" json:"token"`
	Kind       string            `bson:"kind" json:"kind"`
	Info       map[string]string `bson:"info,omitempty" json:"info,omitempty"`
	LastActive time.Time         `bson:"last_active" json:"lastActive"`
	ExpiresAt  time.Time         `bson:"expires_at" json:"expiresAt"`
}

func (d Device) Expired(now time.Time) bool {
	return !d.ExpiresAt.After(now)
}

type User struct {
	ID           primitive.ObjectID  `bson:"_id" json:"_id"`
	Username     string              `bson:"username" json:"username" validate:"required,min=2,max=100"`
	MobileNumber string              `bson:"mobile_number" json:"mobileNumber" validate:"required,len=10,numeric"`
	Password     string              `bson:"password" json:"-"`
	Role         string              `bson:"role" json:"role"`
	RestaurantID *primitive.ObjectID `bson:"restaurant_id,omitempty" json:"restaurant,omitempty"`
	Devices      []Device            `bson:"devices" json:"devices,omitempty"`
	Address      string              `bson:"address" json:"address"`
	IsActive     bool                `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updatedAt"`

	// Deprecated single-token fields kept so old documents can be migrated.
	LegacyFCMToken   string `bson:"fcm_token,omitempty" json:"-"`
	LegacyDeviceType string `bson:"device_type,omitempty" json:"-"`
}

// MigrateLegacyToken folds the deprecated scalar fcm_token into the device
// list. Returns true when the document changed. Safe to call repeatedly.
func (u *User) MigrateLegacyToken(now time.Time) bool {
	if u.LegacyFCMToken == "" {
		return false
	}
	for _, d := range u.Devices {
		if d.Token == u.LegacyFCMToken {
			u.LegacyFCMToken = ""
			u.LegacyDeviceType = ""
			return true
		}
	}
	kind := u.LegacyDeviceType
	if kind == "" {
		kind = DeviceUnknown
	}
	u.Devices = append(u.Devices, Device{
		Token:      u.LegacyFCMToken,
		Kind:       kind,
		Info:       map[string]string{"migrated": "true"},
		LastActive: now,
		ExpiresAt:  now.Add(DeviceTTL),
	})
	u.LegacyFCMToken = ""
	u.LegacyDeviceType = ""
	return true
}
