package lookup

import (
	"time"

	"github.com/viktsys/marketetl/models"
)

// DateAttributes derives the calendar breakdown of a day. DayOfWeek runs from
// 1 (Sunday) to 7 (Saturday) and WeekOfYear is the ISO week.
func DateAttributes(d time.Time) models.DimDate {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	_, week := day.ISOWeek()
	dow := int(day.Weekday()) + 1

	return models.DimDate{
		Date:       day,
		Day:        day.Day(),
		Month:      int(day.Month()),
		MonthName:  day.Month().String(),
		Quarter:    (int(day.Month())-1)/3 + 1,
		Year:       day.Year(),
		DayOfWeek:  dow,
		WeekOfYear: week,
		IsWeekend:  dow == 1 || dow == 7,
	}
}
