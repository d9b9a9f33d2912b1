package models

// AnalyticsRequest selects one tracked market.
type AnalyticsRequest struct {
	Market string `query:"market" validate:"required"`
}

// EdgeRequest selects one tracked market for edge scoring.
type EdgeRequest struct {
	Market string `query:"market" validate:"required"`
}

// MarketsRequest optionally caps the snapshot size.
type MarketsRequest struct {
	Limit int `query:"limit" default:"20" validate:"gte=0,lte=100"`
}
