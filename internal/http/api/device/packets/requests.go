package packets

type PairRequestRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

type PairRequestResponse struct {
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

type PairConfirmRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

type PairConfirmResponse struct {
	Paired bool   `json:"paired"`
	Name   string `json:"name,omitempty"`
	Topic  string `json:"topic,omitempty"`
}
