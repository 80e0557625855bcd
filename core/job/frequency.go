package job

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goto/batchboard/internal/errors"
)

// Frequency lists the ISO weekdays (1 = Monday ... 7 = Sunday) an event runs on.
type Frequency []int

func FrequencyFrom(raw string) (Frequency, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.InvalidArgument(EntityJob, "frequency is empty")
	}

	var days Frequency
	for _, part := range strings.Split(raw, ",") {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || day < 1 || day > 7 {
			return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("invalid weekday [%s] in frequency [%s]", strings.TrimSpace(part), raw))
		}
		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}
	slices.Sort(days)
	return days, nil
}

func (f Frequency) RunsOn(weekday time.Weekday) bool {
	day := int(weekday)
	if weekday == time.Sunday {
		day = 7
	}
	return slices.Contains(f, day)
}

func (f Frequency) String() string {
	parts := make([]string, len(f))
	for i, day := range f {
		parts[i] = strconv.Itoa(day)
	}
	return strings.Join(parts, ",")
}
