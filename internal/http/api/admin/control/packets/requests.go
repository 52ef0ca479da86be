package packets

type AcknowledgePrayerRequest struct {
	Name string `uri:"name" binding:"required"`
}

type HistoryRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to"   binding:"required"`
}

type UpdateReminderSettingsRequest struct {
	IntervalMinutes  int    `json:"interval_minutes"   binding:"required,min=1"`
	Enabled          *bool  `json:"enabled"            binding:"required"`
	LastWindowPolicy string `json:"last_window_policy" binding:"omitempty,oneof=clamp extend"`
}

type CreateDeviceRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location *string `json:"location"`
}

type ClaimDeviceRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

type CreateSoundRequest struct {
	Name       string  `form:"name" binding:"required"`
	PrayerName *string `form:"prayer_name"`
}
