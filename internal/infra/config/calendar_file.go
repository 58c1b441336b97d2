package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"circulation_recall_daemon/internal/domain/calendar"
)

// CalendarFile is the structure of the holidays file.
//
//	working_days: [Monday, Tuesday, Wednesday, Thursday, Friday]
//	holidays:
//	  - 2024-12-24
type CalendarFile struct {
	WorkingDays []string `yaml:"working_days"`
	Holidays    []string `yaml:"holidays"`
}

// LoadCalendar reads the holidays file and builds the loan calendar.
// A missing file yields a Monday to Friday calendar without holidays.
func LoadCalendar(path string) (*calendar.Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return calendar.New(calendar.DefaultWorkingDays, nil)
		}
		return nil, fmt.Errorf("failed to read holidays file: %w", err)
	}

	var f CalendarFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse holidays file %s: %w", path, err)
	}

	days := calendar.DefaultWorkingDays
	if len(f.WorkingDays) > 0 {
		days = make([]time.Weekday, 0, len(f.WorkingDays))
		for _, name := range f.WorkingDays {
			d, err := parseWeekday(name)
			if err != nil {
				return nil, err
			}
			days = append(days, d)
		}
	}
	return calendar.New(days, f.Holidays)
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown working day %q", name)
}
