package models

// TabType is a reporting period used to bucket usage chart data
type TabType string

const (
	TabHourly  TabType = "hourly"
	TabDaily   TabType = "daily"
	TabWeekly  TabType = "weekly"
	TabMonthly TabType = "monthly"
	TabYearly  TabType = "yearly"
)

// Tabs lists every reporting period in display order
var Tabs = []TabType{TabHourly, TabDaily, TabWeekly, TabMonthly, TabYearly}

// ParseTab validates a tab name
func ParseTab(s string) (TabType, bool) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ChartPoint is a single labeled bar in a usage chart
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// UsageStats summarizes a chart series
type UsageStats struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Current float64 `json:"current"`
}

// UsageBucket holds the stats and chart for one reporting period
type UsageBucket struct {
	Stats UsageStats   `json:"stats"`
	Chart []ChartPoint `json:"chart"`
}

// PowerBundle is the per-controller usage and threshold record
type PowerBundle struct {
	AutoBlockThreshold int         `json:"autoBlockThreshold"`
	Hourly             UsageBucket `json:"hourly"`
	Daily              UsageBucket `json:"daily"`
	Weekly             UsageBucket `json:"weekly"`
	Monthly            UsageBucket `json:"monthly"`
	Yearly             UsageBucket `json:"yearly"`
}

// Bucket returns the bucket for a reporting period
func (b *PowerBundle) Bucket(tab TabType) *UsageBucket {
	switch tab {
	case TabHourly:
		return &b.Hourly
	case TabDaily:
		return &b.Daily
	case TabWeekly:
		return &b.Weekly
	case TabMonthly:
		return &b.Monthly
	case TabYearly:
		return &b.Yearly
	default:
		return nil
	}
}
