package entity

const (
	UnknownDate = "Unknown Date"
	UnknownTime = "Unknown Time"
)

type TimestampResult struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func DefaultTimestamp() TimestampResult {
	return TimestampResult{
		Date: UnknownDate,
		Time: UnknownTime,
	}
}
