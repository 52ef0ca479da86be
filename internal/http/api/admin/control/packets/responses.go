package packets

import "github.com/minaret-app/minaret/internal/model"

type HistoryResponse struct {
	Days []*model.PrayerDay `json:"days"`
}

type AcknowledgeResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}
