package quota

// DateLayout is the calendar-day format stored in UsageRecord.LastResetDate.
const DateLayout = "2006-01-02"

// UsageRecord is the stored daily counter for one user. DailyCount only
// means something relative to LastResetDate.
type UsageRecord struct {
	UserID        string
	DailyCount    int
	LastResetDate string
}

// State classifies a stored record against the current day.
type State int

const (
	NoRecord State = iota
	ActiveToday
	StaleRecord
)

func (s State) String() string {
	switch s {
	case NoRecord:
		return "no-record"
	case ActiveToday:
		return "active-today"
	case StaleRecord:
		return "stale-record"
	default:
		return "unknown"
	}
}

// Resolve returns the record's state and the count that applies today.
// A record from an earlier day counts as zero.
func Resolve(rec UsageRecord, found bool, today string) (State, int) {
	switch {
	case !found:
		return NoRecord, 0
	case rec.LastResetDate != today:
		return StaleRecord, 0
	default:
		return ActiveToday, rec.DailyCount
	}
}

// Next applies one generation attempt to rec. It returns the record to
// store and whether the attempt is admitted. A stale record is reset to
// today before the allotment is checked; a denied attempt does not count.
func Next(rec UsageRecord, found bool, userID, today string, allotment int) (UsageRecord, bool) {
	_, count := Resolve(rec, found, today)
	resolved := UsageRecord{UserID: userID, DailyCount: count, LastResetDate: today}
	if count >= allotment {
		return resolved, false
	}
	resolved.DailyCount++
	return resolved, true
}

func remaining(allotment, used int) int {
	if used >= allotment {
		return 0
	}
	return allotment - used
}
