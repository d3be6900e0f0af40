package reports

import (
	"sort"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
	"github.com/Hugozera/apontamento/internal/domain/records"
)

const (
	UnknownEmployee  = "Unknown"
	DayLayout        = "2006-01-02"
	defaultClockTime = "00:00:00"
)

// MonthlyReport maps employee id to ISO day to that day's finalized events,
// ordered by clock time.
type MonthlyReport map[string]map[string][]attendance.FinalizedRecord

// MonthRange returns [first instant of year-month, first instant of the next
// month) in UTC. time.Date normalizes month 13 into January of year+1.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return start, end
}

type entry struct {
	record attendance.FinalizedRecord
	clock  string
}

// groupByEmployeeDay buckets finalized documents by employee and by the UTC
// day of dayField. Documents without a recognizable dayField are dropped.
func groupByEmployeeDay(docs []records.Document, dayField string) MonthlyReport {
	buckets := map[string]map[string][]entry{}
	for _, doc := range docs {
		at, ok := doc.Fields.Time(dayField)
		if !ok {
			continue
		}
		day := at.UTC().Format(DayLayout)

		employee := doc.Fields.String(attendance.FieldEmployeeID)
		if employee == "" {
			employee = UnknownEmployee
		}
		clock := attendance.ClockString(doc.Fields[attendance.FieldClockTime])
		if clock == "" {
			clock = defaultClockTime
		}

		days, ok := buckets[employee]
		if !ok {
			days = map[string][]entry{}
			buckets[employee] = days
		}
		days[day] = append(days[day], entry{record: attendance.FinalizedFromDocument(doc.ID, doc.Fields), clock: clock})
	}

	report := make(MonthlyReport, len(buckets))
	for employee, days := range buckets {
		report[employee] = make(map[string][]attendance.FinalizedRecord, len(days))
		for day, entries := range days {
			sortByClock(entries)
			out := make([]attendance.FinalizedRecord, len(entries))
			for i, e := range entries {
				out[i] = e.record
			}
			report[employee][day] = out
		}
	}
	return report
}

// sortByClock orders by the clock string as stored. Ties keep store order.
func sortByClock(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].clock < entries[j].clock
	})
}

func (r MonthlyReport) Employees() []string {
	out := make([]string, 0, len(r))
	for employee := range r {
		out = append(out, employee)
	}
	sort.Strings(out)
	return out
}

func (r MonthlyReport) Days(employee string) []string {
	days := r[employee]
	out := make([]string, 0, len(days))
	for day := range days {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of events across all buckets.
func (r MonthlyReport) Count() int {
	total := 0
	for _, days := range r {
		for _, events := range days {
			total += len(events)
		}
	}
	return total
}

type DaySummary struct {
	EmployeeID string `json:"employeeId"`
	Day        string `json:"day"`
	Events     int    `json:"events"`
	FirstClock string `json:"firstClock"`
	LastClock  string `json:"lastClock"`
}

// Summaries returns one line per employee and day, sorted by employee then
// day.
func (r MonthlyReport) Summaries() []DaySummary {
	var out []DaySummary
	for _, employee := range r.Employees() {
		for _, day := range r.Days(employee) {
			events := r[employee][day]
			if len(events) == 0 {
				continue
			}
			out = append(out, DaySummary{
				EmployeeID: employee,
				Day:        day,
				Events:     len(events),
				FirstClock: clockOrDefault(events[0].ClockTime),
				LastClock:  clockOrDefault(events[len(events)-1].ClockTime),
			})
		}
	}
	return out
}

func clockOrDefault(clock string) string {
	if clock == "" {
		return defaultClockTime
	}
	return clock
}
